package swan

// TokenType identifies the lexical category of a Token. The set mirrors the
// token types named in the tokenizer design: tag openers/closers, the
// attribute-related tokens, comments, the text variants produced by the
// different content models, and the mustache delimiters.
type TokenType int

const (
	// HTMLTagOpen marks the start of a start tag ("<"). Its Value is empty;
	// the tag name follows as its own HTMLIdentifier token.
	HTMLTagOpen TokenType = iota
	// HTMLEndTagOpen marks the start of an end tag ("</"). Its Value is
	// empty; the tag name follows as its own HTMLIdentifier token. It may be
	// provisional (see Tokenizer's RCDATA/RAWTEXT end-tag matching).
	HTMLEndTagOpen
	// HTMLTagClose is emitted for the closing ">" of a start or end tag.
	HTMLTagClose
	// HTMLSelfClosingTagClose is emitted for "/>".
	HTMLSelfClosingTagClose
	// HTMLIdentifier is an attribute name, or a start/end tag name; a tag
	// name is always emitted as its own token after HTMLTagOpen/HTMLEndTagOpen.
	HTMLIdentifier
	// HTMLAssociation is the "=" between an attribute name and its value.
	HTMLAssociation
	// HTMLQuote is an opening or closing quote character (" or ') around an
	// attribute value.
	HTMLQuote
	// HTMLLiteral is a literal run inside a quoted attribute value.
	HTMLLiteral
	// HTMLAttrLiteral is a literal run that is part of an attribute value but
	// was produced while scanning unquoted attribute value content.
	HTMLAttrLiteral
	// HTMLComment covers "<!--...-->" and bogus comments.
	HTMLComment
	// HTMLText is a run of ordinary DATA-state text.
	HTMLText
	// HTMLWhitespace is a run of text that is entirely ASCII whitespace.
	HTMLWhitespace
	// HTMLRCDataText is a text run produced inside an RCDATA body (textarea).
	HTMLRCDataText
	// HTMLRawText is a text run produced inside a RAWTEXT body (filter, import-sjs).
	HTMLRawText
	// XMustacheStart is the opening delimiter of a mustache: "{{" or, inside a
	// quoted attribute value, "{=".
	XMustacheStart
	// XMustacheEnd is the closing delimiter of a mustache: "}}" or "=}".
	XMustacheEnd
	// Keyword is reserved for a synthetic token ("in", "trackBy") that would
	// let the s-for header's consumed keywords ("in"/"trackBy") appear in
	// XDocument.Tokens as their own entries instead of being absorbed into
	// the surrounding HTMLRawText/HTMLIdentifier runs. Not currently emitted;
	// forexpr.go does not splice one in.
	Keyword
	// Identifier is reserved for a synthetic token marking a mustache payload
	// that was lifted directly to a script Identifier node without invoking
	// the script parser (the "fast path", spec §4.6). Not currently emitted;
	// expression.go's fast path does not splice one in.
	Identifier
)

func (t TokenType) String() string {
	switch t {
	case HTMLTagOpen:
		return "HTMLTagOpen"
	case HTMLEndTagOpen:
		return "HTMLEndTagOpen"
	case HTMLTagClose:
		return "HTMLTagClose"
	case HTMLSelfClosingTagClose:
		return "HTMLSelfClosingTagClose"
	case HTMLIdentifier:
		return "HTMLIdentifier"
	case HTMLAssociation:
		return "HTMLAssociation"
	case HTMLQuote:
		return "HTMLQuote"
	case HTMLLiteral:
		return "HTMLLiteral"
	case HTMLAttrLiteral:
		return "HTMLAttrLiteral"
	case HTMLComment:
		return "HTMLComment"
	case HTMLText:
		return "HTMLText"
	case HTMLWhitespace:
		return "HTMLWhitespace"
	case HTMLRCDataText:
		return "HTMLRCDataText"
	case HTMLRawText:
		return "HTMLRawText"
	case XMustacheStart:
		return "XMustacheStart"
	case XMustacheEnd:
		return "XMustacheEnd"
	case Keyword:
		return "Keyword"
	case Identifier:
		return "Identifier"
	default:
		return "Unknown"
	}
}

// Range is a half-open byte-offset interval [Start, End) into the original
// source text.
type Range struct {
	Start int
	End   int
}

// Position is a 1-based line, 0-based column location in the original source.
type Position struct {
	Line   int
	Column int
}

// Loc is the start/end location pair attached to every token and tree node.
type Loc struct {
	Start Position
	End   Position
}

// Token is the tokenizer's atomic output unit.
type Token struct {
	Type  TokenType
	Value string
	Range Range
	Loc   Loc

	// provisional marks a tentative HTMLEndTagOpen token produced while
	// matching an RCDATA/RAWTEXT end tag. Provisional tokens are never
	// visible outside the tokenizer: they are promoted (provisional cleared)
	// or rolled back (discarded) before the intermediate tokenizer sees them.
	provisional bool
}
