package swan

import (
	"testing"

	"github.com/expr-lang/expr/ast"
	"github.com/stretchr/testify/require"
)

func parseSwan(t *testing.T, src string, parseExpression bool) *XDocument {
	t.Helper()
	r := Parse(src, Options{FilePath: "test.swan", SkipExpressionParsing: !parseExpression})
	require.NotNil(t, r.Document)
	return r.Document
}

func firstElement(t *testing.T, doc *XDocument) *XElement {
	t.Helper()
	for _, c := range doc.Children {
		if el, ok := c.(*XElement); ok {
			return el
		}
	}
	t.Fatalf("no element found in document")
	return nil
}

func findAttr(el *XElement, name string) Node {
	for _, a := range el.StartTag.Attributes {
		switch v := a.(type) {
		case *XAttribute:
			if v.Key.Name == name {
				return v
			}
		case *XDirective:
			if v.Key.RawName == name {
				return v
			}
		}
	}
	return nil
}

// Scenario 1: <view s-if="{{cond}}"></view>
func TestScenario_MustacheDirective(t *testing.T) {
	doc := parseSwan(t, `<view s-if="{{cond}}"></view>`, true)
	el := firstElement(t, doc)
	require.Equal(t, "view", el.Name)

	n := findAttr(el, "s-if")
	require.NotNil(t, n)
	dir, ok := n.(*XDirective)
	require.True(t, ok)
	require.Equal(t, PrefixS, dir.Key.Prefix)
	require.Equal(t, "if", dir.Key.Name)

	require.Len(t, dir.Value.Pieces, 1)
	m, ok := dir.Value.Pieces[0].(*XMustache)
	require.True(t, ok)
	require.NotNil(t, m.Value)
	id, ok := m.Value.Expression.(*ast.IdentifierNode)
	require.True(t, ok)
	require.Equal(t, "cond", id.Value)
}

// Scenario 2: <view s-if="cond"></view>, both parseExpression settings.
func TestScenario_LiteralDirectivePromotion(t *testing.T) {
	doc := parseSwan(t, `<view s-if="cond"></view>`, true)
	el := firstElement(t, doc)
	dir := findAttr(el, "s-if").(*XDirective)
	require.Len(t, dir.Value.Pieces, 1)
	expr, ok := dir.Value.Pieces[0].(*XExpression)
	require.True(t, ok)
	id, ok := expr.Expression.(*ast.IdentifierNode)
	require.True(t, ok)
	require.Equal(t, "cond", id.Value)

	doc2 := parseSwan(t, `<view s-if="cond"></view>`, false)
	el2 := firstElement(t, doc2)
	dir2 := findAttr(el2, "s-if").(*XDirective)
	require.Len(t, dir2.Value.Pieces, 1)
	lit, ok := dir2.Value.Pieces[0].(*XLiteral)
	require.True(t, ok)
	require.Equal(t, "cond", lit.Value)
}

// Scenario 3: <import-sjs module="module">exports.a = 1;</import-sjs>
func TestScenario_ImportSjsModule(t *testing.T) {
	doc := parseSwan(t, `<import-sjs module="module">exports.a = 1;</import-sjs>`, true)
	el := firstElement(t, doc)
	require.Equal(t, "import-sjs", el.Name)
	require.Len(t, el.Children, 1)
	mod, ok := el.Children[0].(*XModule)
	require.True(t, ok)
	require.Len(t, mod.Body, 1)
}

// Scenario 4: duplicate attribute reports one duplicate-attribute error.
func TestScenario_DuplicateAttribute(t *testing.T) {
	doc := parseSwan(t, `<view class="a" class="b">Hello</view>`, true)
	var n int
	for _, e := range doc.Errors {
		if e.Code == ErrDuplicateAttribute {
			n++
		}
	}
	require.Equal(t, 1, n)
}

// Scenario 5: s-for with trackBy.
func TestScenario_ForDirective(t *testing.T) {
	doc := parseSwan(t, `<view s-for="item, idx in list trackBy item.id"></view>`, true)
	el := firstElement(t, doc)
	dir := findAttr(el, "s-for").(*XDirective)
	require.Len(t, dir.Value.Pieces, 1)
	expr := dir.Value.Pieces[0].(*XExpression)
	fe, ok := expr.Expression.(*SwanForExpression)
	require.True(t, ok)
	require.Equal(t, "item", fe.Left.Value)
	require.Equal(t, "idx", fe.Index.Value)
	rightID, ok := fe.Right.(*ast.IdentifierNode)
	require.True(t, ok)
	require.Equal(t, "list", rightID.Value)
	_, ok = fe.TrackBy.(*ast.MemberNode)
	require.True(t, ok)
}

// Scenario 6: mustache containing an object expression.
func TestScenario_ObjectExpressionMustache(t *testing.T) {
	doc := parseSwan(t, `<view style="{{a:1,b:2}}"/>`, true)
	el := firstElement(t, doc)
	attr := findAttr(el, "style").(*XAttribute)
	require.Len(t, attr.Value.Pieces, 1)
	m, ok := attr.Value.Pieces[0].(*XMustache)
	require.True(t, ok)
	obj, ok := m.Value.Expression.(*ast.MapNode)
	require.True(t, ok)
	require.Len(t, obj.Pairs, 2)
}

// Scenario 7: unterminated mustache still returns a tree plus an error.
func TestScenario_UnterminatedMustache(t *testing.T) {
	doc := parseSwan(t, `<view s-if="{{cond"`, true)
	require.NotNil(t, doc)
	var found bool
	for _, e := range doc.Errors {
		if e.Code == ErrMissingExpressionEndTag {
			found = true
		}
	}
	require.True(t, found, "expected missing-expression-end-tag error, got %+v", doc.Errors)
}

// Property 1: structural integrity.
func TestProperty_StructuralIntegrity(t *testing.T) {
	doc := parseSwan(t, `<view class="x"><text>hi {{name}}</text></view>`, true)
	var walk func(n Node)
	walk = func(n Node) {
		r := n.NodeRange()
		require.True(t, r.Start >= 0 && r.Start <= r.End && r.End <= len(`<view class="x"><text>hi {{name}}</text></view>`))
		switch v := n.(type) {
		case *XDocument:
			for _, c := range v.Children {
				walk(c)
			}
		case *XElement:
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	walk(doc)
}

// Property 6: error and token sortedness.
func TestProperty_ErrorAndTokenSortedness(t *testing.T) {
	doc := parseSwan(t, `<view class="a" class="b" s-if="{{cond"></view>`, true)
	for i := 1; i < len(doc.Errors); i++ {
		require.LessOrEqual(t, doc.Errors[i-1].Index, doc.Errors[i].Index)
	}
	for i := 1; i < len(doc.Tokens); i++ {
		require.LessOrEqual(t, doc.Tokens[i-1].Range.Start, doc.Tokens[i].Range.Start)
	}
}

// Property 5: reference resolution against an enclosing s-for.
func TestProperty_ReferenceResolution(t *testing.T) {
	doc := parseSwan(t, `<view s-for="item in list">{{item.name}}</view>`, true)
	el := firstElement(t, doc)
	require.Len(t, el.Variables, 1)
	require.Equal(t, "item", el.Variables[0].Name)

	var m *XMustache
	for _, c := range el.Children {
		if mm, ok := c.(*XMustache); ok {
			m = mm
		}
	}
	require.NotNil(t, m)
	require.NotEmpty(t, m.Value.References)
	require.NotNil(t, m.Value.References[0].Resolved)
	require.Equal(t, "item", m.Value.References[0].Resolved.Name)
}

func TestVoidElement(t *testing.T) {
	doc := parseSwan(t, `<include src="a.swan"/>`, true)
	el := firstElement(t, doc)
	require.True(t, el.Void)
	require.Nil(t, el.EndTag)
}

func TestInvalidEndTagReportsError(t *testing.T) {
	doc := parseSwan(t, `<view></text>`, true)
	var found bool
	for _, e := range doc.Errors {
		if e.Code == ErrInvalidEndTag {
			found = true
		}
	}
	require.True(t, found)
}
