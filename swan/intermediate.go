package swan

import "strings"

// RecordKind identifies the coarse record kind the intermediate tokenizer
// emits (spec §4.3).
type RecordKind int

const (
	StartTagRecord RecordKind = iota
	EndTagRecord
	TextRecord
	MustacheRecordKind
)

// MustacheRaw is a single "{{ ... }}" / "{= ... =}" occurrence, with its
// payload still an unparsed string (spec §4.3 defers expression parsing to
// the tree builder, which owns the script-parser bridge).
type MustacheRaw struct {
	StartToken Token
	EndToken   Token
	Payload    string
	// PayloadRange is empty (Start==End) when the mustache closed with no
	// payload tokens at all ("{{}}"), rather than zero-length text.
	PayloadRange Range
	// Unterminated is true when EOF arrived before a matching end delimiter;
	// Payload is then whatever text had been buffered, reported by the
	// tokenizer as ErrMissingExpressionEndTag already.
	Unterminated bool
}

// AttrValuePiece is one piece of an attribute value: either a literal run or
// a mustache (spec §3 invariant 4 / §4.3).
type AttrValuePiece struct {
	Literal  *Token
	Mustache *MustacheRaw
}

// RawAttr is an assembled (not yet directive-classified) attribute.
type RawAttr struct {
	KeyToken    Token
	ValuePieces []AttrValuePiece
	HasValue    bool
	Range       Range
	Loc         Loc
}

// Record is the intermediate tokenizer's output unit (spec §4.3).
type Record struct {
	Kind  RecordKind
	Range Range
	Loc   Loc

	// StartTagRecord / EndTagRecord
	NameToken   Token
	SelfClosing bool
	Attrs       []RawAttr

	// TextRecord
	Text string

	// MustacheRecordKind (top-level, outside any attribute value)
	Mustache *MustacheRaw
}

// IntermediateTokenizer consumes a Tokenizer's token stream and assembles
// the coarser StartTag | EndTag | Text | Mustache records the tree builder
// operates on, merging contiguous text runs and duplicate-checking
// attribute names along the way (spec §4.3). The attribute-span assembly
// mirrors the manual byte-position walking chtml/attr_scanner.go uses to
// carve a tag's attributes out of a source span, adapted to work off the
// token stream rather than re-scanning raw text.
type IntermediateTokenizer struct {
	tok *Tokenizer

	// lookahead holds a single token read ahead of where the caller that
	// read it was looking, e.g. the attribute-name token that terminates an
	// attribute-value scan. pull() drains it before asking the tokenizer
	// for a fresh one.
	lookahead *Token

	textBuf      strings.Builder
	textStart    int
	textEnd      int
	textStartPos Position
	textEndPos   Position
	havePending  bool
	pendingTop  *Token // a top-level boundary token deferred behind a text flush

	comments []Token

	// consumed records every token the underlying Tokenizer actually produced
	// (not counting a token drained back out of lookahead, which was already
	// recorded the first time it was pulled), in emission order. The tree
	// builder uses it directly to seed XDocument.Tokens (the reserved
	// Identifier/Keyword token types are not currently spliced in).
	consumed []Token

	onError func(code ErrorCode, msg string, index int, pos Position)
}

// ConsumedTokens returns every token seen so far, in source order.
func (it *IntermediateTokenizer) ConsumedTokens() []Token { return it.consumed }

// NewIntermediateTokenizer wraps tok. onError receives duplicate-attribute
// diagnostics (spec §4.3); the underlying tokenizer's own errors are
// reachable separately via tok.Errors().
func NewIntermediateTokenizer(tok *Tokenizer, onError func(ErrorCode, string, int, Position)) *IntermediateTokenizer {
	return &IntermediateTokenizer{tok: tok, onError: onError}
}

// Comments returns every HTMLComment token observed so far.
func (it *IntermediateTokenizer) Comments() []Token { return it.comments }

func (it *IntermediateTokenizer) reportError(code ErrorCode, msg string, index int, pos Position) {
	if it.onError != nil {
		it.onError(code, msg, index, pos)
	}
}

func (it *IntermediateTokenizer) pull() *Token {
	if it.lookahead != nil {
		tok := it.lookahead
		it.lookahead = nil
		return tok
	}
	tok := it.tok.nextToken()
	if tok != nil {
		it.consumed = append(it.consumed, *tok)
	}
	return tok
}

func (it *IntermediateTokenizer) pushBack(tok *Token) { it.lookahead = tok }

// Next returns the next record, or nil at end of input.
func (it *IntermediateTokenizer) Next() *Record {
	if it.pendingTop != nil {
		tok := it.pendingTop
		it.pendingTop = nil
		return it.dispatch(tok)
	}

	for {
		tok := it.pull()
		if tok == nil {
			return it.flushText()
		}
		switch tok.Type {
		case HTMLText, HTMLWhitespace, HTMLRCDataText, HTMLRawText:
			if it.havePending && tok.Range.Start != it.textEnd {
				// A gap (e.g. a skipped comment) ends the current run.
				it.pushBack(tok)
				return it.flushText()
			}
			it.appendText(tok)
			continue
		case HTMLComment:
			it.comments = append(it.comments, *tok)
			continue
		case HTMLTagOpen, HTMLEndTagOpen, XMustacheStart:
			if it.havePending {
				it.pendingTop = tok
				return it.flushText()
			}
			return it.dispatch(tok)
		default:
			unreachable("unexpected top-level token " + tok.Type.String())
		}
	}
}

func (it *IntermediateTokenizer) dispatch(tok *Token) *Record {
	switch tok.Type {
	case HTMLTagOpen:
		return it.assembleStartTag(tok)
	case HTMLEndTagOpen:
		return it.assembleEndTag(tok)
	case XMustacheStart:
		m := it.assembleMustache(tok)
		return &Record{
			Kind:     MustacheRecordKind,
			Range:    Range{Start: tok.Range.Start, End: m.EndToken.Range.End},
			Loc:      Loc{Start: tok.Loc.Start, End: m.EndToken.Loc.End},
			Mustache: m,
		}
	}
	unreachable("dispatch of non-top-level token")
	return nil
}

func (it *IntermediateTokenizer) appendText(tok *Token) {
	if !it.havePending {
		it.textStart = tok.Range.Start
		it.textStartPos = tok.Loc.Start
		it.havePending = true
	}
	it.textBuf.WriteString(tok.Value)
	it.textEnd = tok.Range.End
	it.textEndPos = tok.Loc.End
}

func (it *IntermediateTokenizer) flushText() *Record {
	if !it.havePending {
		return nil
	}
	rec := &Record{
		Kind:  TextRecord,
		Range: Range{Start: it.textStart, End: it.textEnd},
		Loc:   Loc{Start: it.textStartPos, End: it.textEndPos},
		Text:  it.textBuf.String(),
	}
	it.textBuf.Reset()
	it.havePending = false
	return rec
}

// assembleMustache reads the tokens between an already-consumed
// XMustacheStart and its XMustacheEnd (or EOF), concatenating any literal
// text into Payload. A mustache never nests another mustache at the
// tokenizer level (stepExpression tracks brace depth internally so inner
// "{" / "}" stay part of the payload), so the only tokens expected here are
// HTMLText/HTMLWhitespace runs and the terminating XMustacheEnd.
func (it *IntermediateTokenizer) assembleMustache(startTok *Token) *MustacheRaw {
	m := &MustacheRaw{StartToken: *startTok}
	var buf strings.Builder
	start := startTok.Range.End
	end := start
	for {
		tok := it.pull()
		if tok == nil {
			m.Unterminated = true
			m.EndToken = Token{Type: XMustacheEnd, Range: Range{Start: end, End: end}, Loc: Loc{Start: startTok.Loc.End, End: startTok.Loc.End}}
			break
		}
		if tok.Type == XMustacheEnd {
			m.EndToken = *tok
			break
		}
		buf.WriteString(tok.Value)
		end = tok.Range.End
	}
	m.Payload = buf.String()
	m.PayloadRange = Range{Start: start, End: end}
	return m
}

// assembleStartTag reads tokens following an HTMLTagOpen until the matching
// HTMLTagClose/HTMLSelfClosingTagClose, building the element's attribute
// list. EOF mid-tag terminates the tag as if it had implicitly closed there
// (spec §7: missing closures are fabricated further up, by the tree
// builder; the intermediate tokenizer just stops assembling).
func (it *IntermediateTokenizer) assembleStartTag(openTok *Token) *Record {
	rec := &Record{Kind: StartTagRecord, Range: Range{Start: openTok.Range.Start}, Loc: Loc{Start: openTok.Loc.Start}}
	seenNames := map[string]bool{}

	nameTok := it.pull()
	if nameTok == nil || nameTok.Type != HTMLIdentifier {
		rec.Range.End = openTok.Range.End
		rec.Loc.End = openTok.Loc.End
		return rec
	}
	rec.NameToken = *nameTok
	rec.Range.End = nameTok.Range.End
	rec.Loc.End = nameTok.Loc.End

	for {
		tok := it.pull()
		if tok == nil {
			return rec
		}
		switch tok.Type {
		case HTMLTagClose:
			rec.Range.End = tok.Range.End
			rec.Loc.End = tok.Loc.End
			return rec
		case HTMLSelfClosingTagClose:
			rec.SelfClosing = true
			rec.Range.End = tok.Range.End
			rec.Loc.End = tok.Loc.End
			return rec
		case HTMLIdentifier:
			if seenNames[tok.Value] {
				it.reportError(ErrDuplicateAttribute, "duplicate attribute", tok.Range.Start, tok.Loc.Start)
			}
			seenNames[tok.Value] = true
			attr := it.assembleAttrValue(RawAttr{KeyToken: *tok, Range: tok.Range, Loc: tok.Loc})
			rec.Attrs = append(rec.Attrs, attr)
			rec.Range.End = attr.Range.End
			rec.Loc.End = attr.Loc.End
		default:
			// A stray association/quote/literal with no preceding
			// identifier cannot occur: the tokenizer's own attribute-name
			// states are the only path into these token types.
			rec.Range.End = tok.Range.End
			rec.Loc.End = tok.Loc.End
		}
	}
}

// assembleAttrValue consumes an optional "=" value following an already-read
// attribute name token, filling in attr.ValuePieces. Any token that turns
// out not to belong to this attribute (the next attribute name, or the tag
// close) is pushed back for assembleStartTag's loop to see.
func (it *IntermediateTokenizer) assembleAttrValue(attr RawAttr) RawAttr {
	follow := it.pull()
	if follow == nil {
		return attr
	}
	if follow.Type != HTMLAssociation {
		it.pushBack(follow)
		return attr
	}
	attr.HasValue = true
	attr.Range.End = follow.Range.End
	attr.Loc.End = follow.Loc.End

	next := it.pull()
	if next == nil {
		return attr
	}
	switch next.Type {
	case HTMLQuote:
		return it.assembleQuotedValue(attr, next)
	default:
		it.pushBack(next)
		return it.consumeUnquotedTail(attr)
	}
}

// consumeUnquotedTail consumes an unquoted value's literal/mustache pieces,
// stopping (with a push-back) at whatever follows.
func (it *IntermediateTokenizer) consumeUnquotedTail(attr RawAttr) RawAttr {
	for {
		tok := it.pull()
		if tok == nil {
			return attr
		}
		switch tok.Type {
		case HTMLAttrLiteral:
			lit := *tok
			attr.ValuePieces = append(attr.ValuePieces, AttrValuePiece{Literal: &lit})
			attr.Range.End = tok.Range.End
			attr.Loc.End = tok.Loc.End
		case XMustacheStart:
			m := it.assembleMustache(tok)
			attr.ValuePieces = append(attr.ValuePieces, AttrValuePiece{Mustache: m})
			attr.Range.End = m.EndToken.Range.End
			attr.Loc.End = m.EndToken.Loc.End
		default:
			it.pushBack(tok)
			return attr
		}
	}
}

func (it *IntermediateTokenizer) assembleQuotedValue(attr RawAttr, openQuote *Token) RawAttr {
	attr.Range.End = openQuote.Range.End
	attr.Loc.End = openQuote.Loc.End
	for {
		tok := it.pull()
		if tok == nil {
			return attr
		}
		switch tok.Type {
		case HTMLLiteral:
			lit := *tok
			attr.ValuePieces = append(attr.ValuePieces, AttrValuePiece{Literal: &lit})
			attr.Range.End = tok.Range.End
			attr.Loc.End = tok.Loc.End
		case XMustacheStart:
			m := it.assembleMustache(tok)
			attr.ValuePieces = append(attr.ValuePieces, AttrValuePiece{Mustache: m})
			attr.Range.End = m.EndToken.Range.End
			attr.Loc.End = m.EndToken.Loc.End
		case HTMLQuote:
			attr.Range.End = tok.Range.End
			attr.Loc.End = tok.Loc.End
			return attr
		default:
			attr.Range.End = tok.Range.End
			attr.Loc.End = tok.Loc.End
		}
	}
}

// assembleEndTag reads tokens following an HTMLEndTagOpen until the
// matching HTMLTagClose, discarding any (erroneous) attribute-like tokens
// an end tag carried (the tokenizer itself routes "</p class=x>" through
// the same attribute states as a start tag). The discarded tokens produce no
// end-tag-with-attributes error.
func (it *IntermediateTokenizer) assembleEndTag(openTok *Token) *Record {
	rec := &Record{
		Kind:  EndTagRecord,
		Range: Range{Start: openTok.Range.Start, End: openTok.Range.End},
		Loc:   Loc{Start: openTok.Loc.Start, End: openTok.Loc.End},
	}
	nameTok := it.pull()
	if nameTok == nil || nameTok.Type != HTMLIdentifier {
		return rec
	}
	rec.NameToken = *nameTok
	rec.Range.End = nameTok.Range.End
	rec.Loc.End = nameTok.Loc.End
	for {
		tok := it.pull()
		if tok == nil {
			return rec
		}
		rec.Range.End = tok.Range.End
		rec.Loc.End = tok.Loc.End
		if tok.Type == HTMLTagClose || tok.Type == HTMLSelfClosingTagClose {
			return rec
		}
	}
}
