package swan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenStore_Queries(t *testing.T) {
	doc := parseSwan(t, `<view class="a">{{x}}</view>`, true)
	ts := NewTokenStore(doc)

	require.NotEmpty(t, doc.Tokens)
	mid := doc.Tokens[len(doc.Tokens)/2]

	before := ts.GetTokenBefore(mid.Range.Start + 1)
	require.NotNil(t, before)
	require.LessOrEqual(t, before.Range.End, mid.Range.Start+1)

	after := ts.GetTokenAfter(0)
	require.NotNil(t, after)
	require.Equal(t, doc.Tokens[0].Range.Start, after.Range.Start)

	between := ts.GetTokensBetween(0, len(`<view class="a">{{x}}</view>`))
	require.Equal(t, len(doc.Tokens), len(between))

	require.False(t, ts.CommentsExistBetween(0, 1000))
}

func TestGetDocumentFragment(t *testing.T) {
	src := `<view class="a"><text>hi</text></view>`
	doc := parseSwan(t, src, true)
	el := firstElement(t, doc)

	nodes := GetDocumentFragment(doc, el.StartTag.Range.End, el.EndTag.Range.Start)
	require.Len(t, nodes, 1)
	inner, ok := nodes[0].(*XElement)
	require.True(t, ok)
	require.Equal(t, "text", inner.Name)
	require.Len(t, inner.Children, 1)
	text, ok := inner.Children[0].(*XText)
	require.True(t, ok)
	require.Equal(t, "hi", text.Value)
}

func TestDefineTemplateBodyVisitor_VisitsInDocumentOrder(t *testing.T) {
	src := `<view><text>a</text><text>b</text></view>`
	doc := parseSwan(t, src, true)

	var names []string
	DefineTemplateBodyVisitor(doc, func(n Node) {
		if el, ok := n.(*XElement); ok {
			names = append(names, el.Name)
		}
	})
	require.Equal(t, []string{"view", "text", "text"}, names)
}
