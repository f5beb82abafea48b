package swan

import "strings"

// ScriptConfig mirrors the subset of script-parser configuration named in
// spec §6. It is carried on Options.Script only: Parse does not read it and
// does not pass it to the ScriptParser, whose ParseExpression takes the
// source text alone.
type ScriptConfig struct {
	Parser        string
	ECMAVersion   int
	SourceType    string
	Range         bool
	Loc           bool
	Tokens        bool
	Comments      bool
	AllowReserved bool
}

// Options configures a single Parse/ParseForESLint call (spec §6).
type Options struct {
	// FilePath determines XMLType: a ".swan" extension runs the full
	// template pipeline; anything else is script-only.
	FilePath string
	// NoOpenTag: if true, every unmatched XElement reports a
	// missing-end-tag error on pop (default false).
	NoOpenTag bool
	// SkipExpressionParsing: if true, mustache payloads and directive
	// literals are preserved as raw Mustache/XLiteral pieces without
	// invoking the script parser. Spec §6 default is to parse expressions,
	// so this is inverted from a ParseExpression-defaults-true flag — the
	// zero-value Options{} then matches the spec default on its own,
	// without needing to be routed through DefaultOptions() first.
	SkipExpressionParsing bool
	// Script is carried on Options but is not read by Parse and is not
	// passed to the script-parser backend, set or nil.
	Script *ScriptConfig
	// ScriptParser overrides DefaultScriptParser, for callers that want a
	// different script backend than expr-lang.
	ScriptParser ScriptParser
}

// DefaultOptions returns the zero-value Options, which already parses
// expressions per spec §6's default (SkipExpressionParsing's zero value is
// false). Kept for callers that prefer an explicit constructor over a bare
// struct literal.
func DefaultOptions() Options {
	return Options{}
}

func (o Options) isTemplateFile() bool {
	return strings.HasSuffix(strings.ToLower(o.FilePath), ".swan")
}

func (o Options) scriptParser() ScriptParser {
	if o.ScriptParser != nil {
		return o.ScriptParser
	}
	return DefaultScriptParser
}
