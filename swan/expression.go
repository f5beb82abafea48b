package swan

import (
	"regexp"
	"strings"

	"github.com/expr-lang/expr/ast"
)

var (
	identifierFastPathRE = regexp.MustCompile(`^\s*(\w+)\s*$`)
	inlineObjectRE       = regexp.MustCompile(`^\s*(?:\w+\s*:|(["'])[\w.-]+["']\s*:)`)
)

// processMustache turns a mustache's raw payload into an XExpression (spec
// §4.6 processMustache). calc must be based at the document root (or
// wherever the mustache's payload offsets are measured from); sub
// calculators for the identifier/inline-object/wrapped-expression paths are
// derived from it here.
func processMustache(m *MustacheRaw, openedWithEquals bool, calc *LocationCalculator, sp ScriptParser, onError func(*ParseError)) *XExpression {
	payload := m.Payload
	base := calc.GetSubCalculatorAfter(m.PayloadRange.Start)
	// Errors are reported at payload-local offsets through base: PayloadRange
	// is already absolute, so passing it through calc would add earlier CRLF
	// gaps a second time.
	local := Range{Start: 0, End: len(payload)}

	if mm := identifierFastPathRE.FindStringSubmatch(payload); mm != nil {
		name := mm[1]
		start := strings.Index(payload, name)
		idRange, idLoc := base.FixRange(Range{Start: start, End: start + len(name)})
		return &XExpression{
			base:       basePos(idRange, idLoc),
			Expression: &ast.IdentifierNode{Value: name},
		}
	}

	if !openedWithEquals && inlineObjectRE.MatchString(payload) {
		node, shifted, err := parseWrapped(payload, "{", "}", -1, base, sp)
		if err != nil {
			reportExpressionError(err, local, base, onError)
			return &XExpression{base: basePos(m.PayloadRange, Loc{})}
		}
		return &XExpression{base: nodeBasePos(node, shifted), Expression: node}
	}

	node, shifted, err := parseWrapped(payload, "0(", ")", -2, base, sp)
	if err != nil {
		reportExpressionError(err, local, base, onError)
		return &XExpression{base: basePos(m.PayloadRange, Loc{})}
	}

	call, ok := node.(*ast.CallNode)
	if !ok || len(call.Arguments) == 0 {
		reportExpressionError(errExpr("empty expression"), local, base, onError)
		return &XExpression{base: basePos(m.PayloadRange, Loc{})}
	}
	if len(call.Arguments) > 1 {
		reportExpressionError(errExpr("unexpected \",\" in expression"), local, base, onError)
	}
	arg := call.Arguments[0]
	return &XExpression{base: nodeBasePos(arg, shifted), Expression: arg}
}

// parseWrapped parses prefix+payload+suffix and returns both the resulting
// AST and a calculator shifted so that the AST's own (fragment-local)
// Location() offsets land back on payload's own offsets (the "0(<expr>)"
// wrapping trick from spec §9 design notes, generalized to any fixed
// prefix/suffix pair so the "{...}" inline-object path reuses it too).
func parseWrapped(payload, prefix, suffix string, shift int, payloadCalc *LocationCalculator, sp ScriptParser) (ast.Node, *LocationCalculator, error) {
	node, err := sp.ParseExpression(prefix + payload + suffix)
	if err != nil {
		return nil, nil, err
	}
	return node, payloadCalc.GetSubCalculatorShift(shift), nil
}

func errExpr(msg string) error { return &exprProcessingError{msg} }

type exprProcessingError struct{ msg string }

func (e *exprProcessingError) Error() string { return e.msg }

// reportExpressionError relocates a script-parser-backend error into the
// template coordinate system and reports it as a ParseError. The backend
// error is first wrapped as a *ScriptError (spec §4.6/§7) so that every
// expression failure funneled through here — plain expressions, s-for
// headers, mustache payloads — carries the same Unwrap/Is-compatible shape,
// even though only its relocated Message currently surfaces in ParseError.
func reportExpressionError(err error, payloadRange Range, calc *LocationCalculator, onError func(*ParseError)) {
	pe := &ParseError{Code: ErrExpressionError, Index: payloadRange.Start}
	calc.FixError(pe)
	se := &ScriptError{Err: err, Index: pe.Index, Line: pe.LineNumber, Column: pe.Column}
	pe.Message = se.Error()
	onError(pe)
}

// basePos builds a base with the given Range/Loc already resolved to the
// document's absolute coordinate system.
func basePos(r Range, l Loc) base { return base{Range: r, Loc: l} }

// nodeBasePos resolves an ast.Node's own (fragment-local) Location() into
// the document's absolute coordinate system through calc.
func nodeBasePos(n ast.Node, calc *LocationCalculator) base {
	loc := n.Location()
	r, l := calc.FixRange(Range{Start: loc.From, End: loc.To})
	return base{Range: r, Loc: l}
}
