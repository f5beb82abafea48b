package swan

import "golang.org/x/net/html/atom"

// Tag model constants (spec §6). Kept exactly as the spec states — the void
// element set is not widened beyond {"include"} (spec §9 design notes),
// though an implementer consuming this package may do so.
var (
	SwanVoidElementTags    = map[string]bool{"include": true}
	SwanRawTextTags        = map[string]bool{"filter": true, "import-sjs": true}
	SwanRCDataTags         = map[string]bool{"textarea": true}
	SwanCanBeLeftOpenTags  = map[string]bool{"_": true} // reserved escape hatch, spec §6
)

// tagKey returns a comparable key for a lower-cased tag name: the
// golang.org/x/net/html/atom table's canonical atom when the name happens
// to be a real HTML tag (e.g. "textarea"), for parity with the teacher's
// atom-keyed element stack (chtml/parse.go's nodeStack.contains); SWAN's
// own vocabulary (view, import-sjs, filter, include, ...) has no HTML atom
// and falls back to the raw string, exactly the situation
// atom.Lookup/atom.Atom.String is built for.
func tagKey(name string) (atom.Atom, string) {
	a := atom.Lookup([]byte(name))
	return a, name
}

// sameTag reports whether a and b name the same element, comparing by
// atom when both resolve to one (the teacher's nodeStack.contains
// comparison) and falling back to the raw string otherwise — the element
// stack's open/close matching in tree.go goes through this rather than a
// bare "==" so tagKey's atom lookup is actually exercised, not decorative.
func sameTag(a, b string) bool {
	aa, araw := tagKey(a)
	ba, braw := tagKey(b)
	if aa != 0 && ba != 0 {
		return aa == ba
	}
	return araw == braw
}

// directivePrefixOrder is the list of recognized prefixes (spec §6
// directive grammar), the capture-* forms first. Directive keys are matched
// by a regular expression, not through this list.
var directivePrefixOrder = []struct {
	prefix XDirectivePrefix
	raw    string
}{
	{PrefixCaptureBind, "capture-bind:"},
	{PrefixCaptureCatch, "capture-catch:"},
	{PrefixS, "s-"},
	{PrefixBind, "bind"},
	{PrefixCatch, "catch"},
}
