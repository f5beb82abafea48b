package swan

import "regexp"

// directiveNameRE is the directive grammar from spec §6:
// ^(s-|bind:?|catch:?|capture-bind:|capture-catch:)(\w[\w-.]+)$
var directiveNameRE = regexp.MustCompile(`^(s-|bind:?|catch:?|capture-bind:|capture-catch:)(\w[\w\-.]+)$`)

// parseDirectiveKey attempts to split a raw attribute key into a directive
// prefix/name pair per the spec §6 grammar. ok is false when key is not a
// directive (an ordinary attribute).
func parseDirectiveKey(key string) (prefix XDirectivePrefix, rawPrefix, name string, ok bool) {
	m := directiveNameRE.FindStringSubmatch(key)
	if m == nil {
		return "", "", "", false
	}
	rawPrefix = m[1]
	name = m[2]
	switch {
	case rawPrefix == "s-":
		prefix = PrefixS
	case rawPrefix == "bind" || rawPrefix == "bind:":
		prefix = PrefixBind
	case rawPrefix == "catch" || rawPrefix == "catch:":
		prefix = PrefixCatch
	case rawPrefix == "capture-bind:":
		prefix = PrefixCaptureBind
	case rawPrefix == "capture-catch:":
		prefix = PrefixCaptureCatch
	default:
		return "", "", "", false
	}
	return prefix, rawPrefix, name, true
}
