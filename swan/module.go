package swan

import (
	"regexp"
	"strings"

	"github.com/expr-lang/expr/ast"
)

// ModuleAssignmentNode represents a top-level "lhs = rhs" statement inside a
// sjs module body (spec §3 XModule). expr-lang's grammar has no assignment
// node — its only "=" is the one following a "let" declarator inside a
// single expression — so an sjs statement like "exports.a = 1" cannot be
// represented as one ast.Node at all. Rather than force it through an
// invented type satisfying expr-lang's ast.Node interface (Location/
// SetLocation/Type/SetType/String, none of which this package can safely
// implement without compiling against expr-lang internals), both sides are
// parsed independently as ordinary expr-lang expressions and held here as a
// plain pair.
type ModuleAssignmentNode struct {
	Left  ast.Node
	Right ast.Node
}

// moduleDeclKeyword strips a leading "var"/"let"/"const" declarator keyword
// from an assignment's left-hand side (e.g. "var x = 1") so the remainder
// ("x") parses as a bare expr-lang identifier.
var moduleDeclKeyword = regexp.MustCompile(`^\s*(?:var|let|const)\s+`)

// splitAssignment looks for a top-level "=" in stmt — bracket/string-aware
// like splitModuleStatements, and excluding "==", "!=", "<=", ">=" and "=>"
// so comparison/arrow tokens are never mistaken for assignment — and splits
// around it. ok is false when no such "=" exists.
func splitAssignment(stmt string) (lhs, rhs string, ok bool) {
	runes := []rune(stmt)
	depth := 0
	inString := rune(0)
	escaped := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inString != 0 {
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == inString {
				inString = 0
			}
			continue
		}
		switch r {
		case '\'', '"', '`':
			inString = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				continue
			}
			var prev, next rune
			if i > 0 {
				prev = runes[i-1]
			}
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if prev == '=' || prev == '!' || prev == '<' || prev == '>' || next == '=' || next == '>' {
				continue
			}
			return string(runes[:i]), string(runes[i+1:]), true
		}
	}
	return "", "", false
}

// splitModuleStatements splits an <import-sjs>/<filter> body into top-level
// ";"-terminated statement strings, returning each statement's byte offset
// within body alongside its text. expr-lang's parser only understands a
// single expression, not a statement list, so a sjs module body is treated
// as a sequence of expression statements separated by ";" at bracket depth
// 0 — the same bracket/string-aware scanning style forexpr.go's lexer uses
// for the trackBy boundary, generalized to a simple delimiter split.
func splitModuleStatements(body string) []struct {
	Text  string
	Start int
} {
	var out []struct {
		Text  string
		Start int
	}
	depth := 0
	start := 0
	inString := rune(0)
	escaped := false
	for i, r := range body {
		if inString != 0 {
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == inString {
				inString = 0
			}
			continue
		}
		switch r {
		case '\'', '"', '`':
			inString = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ';':
			if depth == 0 {
				stmt := body[start:i]
				if strings.TrimSpace(stmt) != "" {
					out = append(out, struct {
						Text  string
						Start int
					}{Text: stmt, Start: start})
				}
				start = i + len(string(r))
			}
		}
	}
	if strings.TrimSpace(body[start:]) != "" {
		out = append(out, struct {
			Text  string
			Start int
		}{Text: body[start:], Start: start})
	}
	return out
}

// parseModuleBody parses a sjs module's raw body into a sequence of
// top-level statements, using sp for each one. calc must already be based at
// the body's own start offset (spec §4.4 sub-calculator chaining). Parse
// errors are collected rather than aborting: one broken statement in a sjs
// module does not prevent the rest of the document from parsing (spec §7,
// errors never block tree construction).
//
// A sjs body is a full script program (spec §3 XModule), not a list of
// expr-lang expressions: most statements ("exports.foo", "require('x')")
// happen to also be valid standalone expr-lang expressions and go through
// sp.ParseExpression directly, but a plain assignment ("exports.a = 1") is
// not — expr-lang's own "=" only appears after a "let" declarator — so a
// statement that fails as a bare expression is retried as an assignment via
// splitAssignment before being given up on.
func parseModuleBody(body string, sp ScriptParser, calc *LocationCalculator, onError func(*ParseError)) []any {
	var stmts []any
	for _, s := range splitModuleStatements(body) {
		node, err := sp.ParseExpression(s.Text)
		if err == nil {
			stmts = append(stmts, node)
			continue
		}

		if lhsText, rhsText, ok := splitAssignment(s.Text); ok {
			lhsText = moduleDeclKeyword.ReplaceAllString(lhsText, "")
			lhsNode, lhsErr := sp.ParseExpression(strings.TrimSpace(lhsText))
			rhsNode, rhsErr := sp.ParseExpression(strings.TrimSpace(rhsText))
			if lhsErr == nil && rhsErr == nil {
				stmts = append(stmts, &ModuleAssignmentNode{Left: lhsNode, Right: rhsNode})
				continue
			}
		}

		pe := &ParseError{Code: ErrExpressionError, Index: s.Start}
		calc.FixError(pe)
		se := &ScriptError{Err: err, Index: pe.Index, Line: pe.LineNumber, Column: pe.Column}
		pe.Message = se.Error()
		onError(pe)
	}
	return stmts
}

// collectModuleIdentifiers gathers every bare identifier reference across a
// module body's statements, looking into both sides of a
// *ModuleAssignmentNode since it carries no ast.Node of its own for
// collectIdentifiers to walk.
func collectModuleIdentifiers(body []any) []*ast.IdentifierNode {
	var ids []*ast.IdentifierNode
	for _, n := range body {
		switch v := n.(type) {
		case *ModuleAssignmentNode:
			if v.Left != nil {
				ids = append(ids, collectIdentifiers(v.Left)...)
			}
			if v.Right != nil {
				ids = append(ids, collectIdentifiers(v.Right)...)
			}
		case ast.Node:
			ids = append(ids, collectIdentifiers(v)...)
		}
	}
	return ids
}
