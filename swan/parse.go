package swan

// Result is the return value of Parse/ParseForESLint: the document plus its
// accumulated parse errors (spec §6).
type Result struct {
	Document *XDocument
	Errors   []*ParseError
}

// Parse parses text per options (spec §6). A FilePath ending in ".swan"
// (case-insensitive) runs the full reader/tokenizer/tree-builder pipeline;
// any other extension is treated as script-only and text is parsed whole as
// a sequence of script statements, matching how linting tools fall back to
// plain-script parsing for non-template files sharing this parser.
func Parse(text string, options Options) *Result {
	if !options.isTemplateFile() {
		return parseScriptOnly(text, options)
	}

	doc := parseDocument(text, options.scriptParser(), options.NoOpenTag, !options.SkipExpressionParsing)
	return &Result{Document: doc, Errors: doc.Errors}
}

// ParseForESLint mirrors Parse's signature and behavior; it exists as a
// distinct entry point for callers integrating with a lint-style consumer
// that expects a stable "ForESLint" name alongside Parse's own (spec §6).
func ParseForESLint(text string, options Options) *Result {
	return Parse(text, options)
}

// endPosition returns the (line, column) just past the last rune of text.
func endPosition(text string) Position {
	line, col := 1, 0
	for _, r := range text {
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col}
}

// parseScriptOnly handles a non-".swan" FilePath: the whole input is one
// module body, split into independent statements the same way an inline
// <import-sjs>/<filter> body is (module.go), with no tag/mustache grammar
// involved at all.
func parseScriptOnly(text string, options Options) *Result {
	doc := &XDocument{XMLType: XMLTypeUnknown}
	calc := NewLocationCalculator(nil, nil)
	sp := options.scriptParser()

	body := parseModuleBody(text, sp, calc, func(pe *ParseError) {
		doc.Errors = append(doc.Errors, pe)
	})

	end := endPosition(text)
	mod := &XModule{
		base: base{Range: Range{Start: 0, End: len(text)}, Loc: Loc{Start: Position{Line: 1, Column: 0}, End: end}},
		Body: body,
	}
	setParent(mod, doc)
	doc.Children = []Node{mod}

	mod.References = resolveReferences(collectModuleIdentifiers(body), nil)

	sortErrors(doc.Errors)
	doc.Range = Range{Start: 0, End: len(text)}
	doc.Loc = Loc{Start: Position{Line: 1, Column: 0}, End: end}

	return &Result{Document: doc, Errors: doc.Errors}
}
