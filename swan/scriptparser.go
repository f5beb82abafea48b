package swan

import (
	"strings"

	"github.com/expr-lang/expr/ast"
	exprparser "github.com/expr-lang/expr/parser"
)

// ScriptParser is the pluggable external expression-parser collaborator
// (spec §9 design notes): this package only needs an ast.Node back, with
// Location().From/.To giving byte offsets into the payload string that was
// handed in, so its result can be rebased through a LocationCalculator.
type ScriptParser interface {
	ParseExpression(src string) (ast.Node, error)
}

// exprLangScriptParser is the default ScriptParser, backed by
// github.com/expr-lang/expr's parser — the same library chtml/expr.go
// already uses for its own "${...}" interpolations.
type exprLangScriptParser struct{}

// DefaultScriptParser is used when Options.ScriptParser is left nil.
var DefaultScriptParser ScriptParser = exprLangScriptParser{}

func (exprLangScriptParser) ParseExpression(src string) (ast.Node, error) {
	tree, err := exprparser.Parse(src)
	if err != nil {
		if node, ok := recoverReservedIdentifier(src); ok {
			return node, nil
		}
		return nil, err
	}
	return tree.Node, nil
}

// recoverReservedIdentifier handles the one ambiguity between SWAN's markup
// vocabulary and expr-lang's expression grammar that's worth recovering
// from automatically: a bare identifier that happens to collide with one
// of expr-lang's reserved words (a loop variable named "let", a property
// named "in", ...). expr-lang has no escape syntax for this at the
// top level, so src is re-read directly as a single Identifier rather than
// re-parsed.
func recoverReservedIdentifier(src string) (ast.Node, bool) {
	word := strings.TrimSpace(src)
	if word == "" || word != src {
		return nil, false
	}
	if strings.ContainsAny(word, " \t\n(){}[].,\"'") {
		return nil, false
	}
	if !reservedScriptWords[word] {
		return nil, false
	}
	return &ast.IdentifierNode{Value: word}, true
}

var reservedScriptWords = map[string]bool{
	"in": true, "let": true, "nil": true, "true": true, "false": true,
	"and": true, "or": true, "not": true, "matches": true, "if": true,
	"else": true,
}
