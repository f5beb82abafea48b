package swan

import "sort"

// TokenStore answers positional queries over a parsed document's token and
// comment streams (spec §6 "Services surface"), the same shape a
// lint-style consumer expects from getTemplateBodyTokenStore: everything is
// a binary search over the sorted Tokens/Comments slices built by
// TreeBuilder.build (spec §3/§8 invariant: tokens and comments stay sorted
// by Range.Start).
type TokenStore struct {
	tokens   []Token
	comments []Token
}

// NewTokenStore wraps a parsed XDocument's Tokens/Comments for querying.
func NewTokenStore(doc *XDocument) *TokenStore {
	return &TokenStore{tokens: doc.Tokens, comments: doc.Comments}
}

// GetTokenBefore returns the last token ending at or before index, or nil
// if none exists.
func (ts *TokenStore) GetTokenBefore(index int) *Token {
	toks := ts.tokens
	i := sort.Search(len(toks), func(i int) bool { return toks[i].Range.End > index })
	if i == 0 {
		return nil
	}
	return &toks[i-1]
}

// GetTokenAfter returns the first token starting at or after index, or nil
// if none exists.
func (ts *TokenStore) GetTokenAfter(index int) *Token {
	toks := ts.tokens
	i := sort.Search(len(toks), func(i int) bool { return toks[i].Range.Start >= index })
	if i == len(toks) {
		return nil
	}
	return &toks[i]
}

// GetTokensBetween returns every token whose start falls within [from, to);
// a token that starts inside the span but ends past to is included.
func (ts *TokenStore) GetTokensBetween(from, to int) []Token {
	toks := ts.tokens
	lo := sort.Search(len(toks), func(i int) bool { return toks[i].Range.Start >= from })
	hi := sort.Search(len(toks), func(i int) bool { return toks[i].Range.Start >= to })
	if lo >= hi {
		return nil
	}
	return toks[lo:hi]
}

// CommentsExistBetween reports whether a comment token starts within
// [from, to).
func (ts *TokenStore) CommentsExistBetween(from, to int) bool {
	toks := ts.comments
	lo := sort.Search(len(toks), func(i int) bool { return toks[i].Range.Start >= from })
	return lo < len(toks) && toks[lo].Range.Start < to
}

// GetDocumentFragment returns the nodes of doc that fall entirely within
// [from, to), walking the tree in document order. It is the structural
// counterpart to TokenStore's positional queries: where TokenStore answers
// "what tokens are here", GetDocumentFragment answers "what tree nodes are
// here".
func GetDocumentFragment(doc *XDocument, from, to int) []Node {
	var out []Node
	var walk func(n Node)
	walk = func(n Node) {
		r := n.NodeRange()
		if r.Start < from || r.End > to {
			if children := childrenOf(n); children != nil {
				for _, c := range children {
					walk(c)
				}
			}
			return
		}
		out = append(out, n)
	}
	for _, c := range doc.Children {
		walk(c)
	}
	return out
}

func childrenOf(n Node) []Node {
	switch v := n.(type) {
	case *XDocument:
		return v.Children
	case *XElement:
		return v.Children
	}
	return nil
}

// TemplateBodyVisitor is called for each node reached through Children links
// (elements and their text, mustache and module children), in document
// order (spec §6 defineTemplateBodyVisitor), parent before children. Start
// tags, end tags, attributes and expression values are not visited.
type TemplateBodyVisitor func(n Node)

// DefineTemplateBodyVisitor walks doc's tree in document order, invoking
// visit for each node reached through Children links (spec §6): the
// template-body counterpart of an
// AST visitor keyed off node type, left as a plain callback here since the
// engine defines no enter/exit selector grammar of its own.
func DefineTemplateBodyVisitor(doc *XDocument, visit TemplateBodyVisitor) {
	var walk func(n Node)
	walk = func(n Node) {
		visit(n)
		for _, c := range childrenOf(n) {
			walk(c)
		}
	}
	for _, c := range doc.Children {
		walk(c)
	}
}
