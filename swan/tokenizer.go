package swan

import "strings"

// tokenizerState is the tokenizer's finite state set (spec §4.2). Dispatch is
// a switch over (state, code point) rather than per-code-point dynamic
// dispatch, per the design notes (spec §9) — the teacher's analogous
// dispatch-by-function-value idiom (insertionMode in chtml/parse.go) is a
// tree-builder concept; at the code-point level a plain switch is both
// faithful to the spec's guidance and avoids allocating a closure per state
// transition.
type tokenizerState int

const (
	stData tokenizerState = iota
	stTagOpen
	stEndTagOpen
	stTagName
	stRCData
	stRCDataLessThanSign
	stRCDataEndTagOpen
	stRCDataEndTagName
	stRawText
	stRawTextLessThanSign
	stRawTextEndTagOpen
	stRawTextEndTagName
	stBeforeAttributeName
	stAttributeName
	stAfterAttributeName
	stBeforeAttributeValue
	stAttributeValueDoubleQuoted
	stAttributeValueSingleQuoted
	stAttributeValueUnquoted
	stAfterAttributeValueQuoted
	stSelfClosingStartTag
	stBogusComment
	stMarkupDeclarationOpen
	stCommentStart
	stCommentStartDash
	stComment
	stCommentLessThanSign
	stCommentLessThanSignBang
	stCommentLessThanSignBangDash
	stCommentLessThanSignBangDashDash
	stCommentEndDash
	stCommentEnd
	stCommentEndBang
	stXExpressionStart
	stXExpressionEnd
)

// contentModel selects which of DATA/RCDATA/RAWTEXT the tokenizer is
// currently driving; the tree builder switches this when it opens an
// element in SWAN_RCDATA_TAGS / SWAN_RAWTEXT_TAGS (spec §4.5).
type contentModel int

const (
	contentData contentModel = iota
	contentRCData
	contentRawText
)

// Tokenizer drives the state machine described in spec §4.2 over the code
// points produced by a codePointReader. Its public contract is nextToken;
// it never throws, recovering problems via the error callback instead.
type Tokenizer struct {
	r *codePointReader

	state        tokenizerState
	returnState  tokenizerState // state to resume after an expression closes
	contentModel contentModel

	out []Token // pending tokens ready to be returned by nextToken

	// cur tracks the token currently being assembled (tag name, comment
	// body, attribute name/value, ...).
	curStart    int
	curStartPos Position
	buf         strings.Builder

	// tagOpenDisabled is set while inside a mustache in DATA state: '<' is
	// not recognized as a tag opener there (spec §4.2).
	tagOpenDisabled bool

	// lastTagOpenToken is the lower-cased name of the most recently opened
	// start tag; used to validate a provisional RCDATA/RAWTEXT end tag.
	lastTagOpenToken string

	// pendingEndTagName accumulates the name of an end tag being matched
	// against lastTagOpenToken while inside an RCDATA/RAWTEXT end-tag-name
	// state. provisionalStart/provisionalPos record where the provisional
	// "</" began so it can be rolled back into raw/rcdata text.
	pendingEndTagName strings.Builder
	provisionalStart  int
	provisionalPos    Position
	provisionalBuf    strings.Builder // verbatim bytes consumed since provisionalStart, for rollback

	// mustacheOpenedWithEquals is true if the current mustache was opened
	// with "{=" (two-way binding inside a quoted attribute value), false for
	// "{{".
	mustacheOpenedWithEquals bool
	bracesDepth              int

	// current attribute name/quote tracking, used only to decide how "="
	// and quote characters are tokenized; actual attribute assembly happens
	// in the intermediate tokenizer.
	attrQuote rune

	selfClosing bool

	errs []*ParseError

	eofed bool
}

// NewTokenizer constructs a Tokenizer over src.
func NewTokenizer(src string) *Tokenizer {
	t := &Tokenizer{state: stData, contentModel: contentData}
	t.r = newCodePointReader(src, t.reportError)
	return t
}

func (t *Tokenizer) reportError(code ErrorCode, msg string, index int, pos Position) {
	t.errs = append(t.errs, newError(code, msg, index, pos))
}

// Errors returns every recovered problem seen so far (including ones
// reported by the underlying code-point reader).
func (t *Tokenizer) Errors() []*ParseError { return t.errs }

// Gaps exposes the code-point reader's CRLF-collapse offsets, needed to
// build the root location calculator.
func (t *Tokenizer) Gaps() []int { return t.r.gaps }

// LineTerminators exposes the logical LF offsets, needed to build the root
// location calculator.
func (t *Tokenizer) LineTerminators() []int { return t.r.lineTerminators }

// SetRCDATA switches the tokenizer to RCDATA content model for the body of
// an element in SWAN_RCDATA_TAGS (spec §4.5), remembering the tag name the
// matching end tag must have.
func (t *Tokenizer) SetRCDATA(tagName string) {
	t.contentModel = contentRCData
	t.state = stRCData
	t.lastTagOpenToken = tagName
}

// SetRAWTEXT switches the tokenizer to RAWTEXT content model, analogous to
// SetRCDATA.
func (t *Tokenizer) SetRAWTEXT(tagName string) {
	t.contentModel = contentRawText
	t.state = stRawText
	t.lastTagOpenToken = tagName
}

// nextToken drives the state machine until a token is ready or EOF is
// reached. Deterministic: the same input always produces the same stream.
func (t *Tokenizer) nextToken() *Token {
	for len(t.out) == 0 {
		if !t.step() {
			tok := t.closeCurrentIfAny()
			return tok
		}
	}
	tok := t.out[0]
	t.out = t.out[1:]
	return &tok
}

func (t *Tokenizer) emit(tok Token) { t.out = append(t.out, tok) }

func (t *Tokenizer) pos() Position { return t.r.position() }

// EndPosition returns the (line, column) just past the last code point consumed,
// i.e. the document's end position once the tokenizer has been drained.
func (t *Tokenizer) EndPosition() Position { return t.r.position() }

func (t *Tokenizer) beginToken() {
	t.curStart = t.r.offsetOf()
	t.curStartPos = t.pos()
	t.buf.Reset()
}

// closeCurrentIfAny flushes a non-empty pending text/comment run at EOF, per
// the tokenizer's documented EOF behavior.
func (t *Tokenizer) closeCurrentIfAny() *Token {
	if t.eofed {
		return nil
	}
	t.eofed = true
	if t.buf.Len() == 0 {
		return nil
	}
	typ := HTMLText
	switch {
	case t.state == stRCData || t.contentModel == contentRCData:
		typ = HTMLRCDataText
	case t.state == stRawText || t.contentModel == contentRawText:
		typ = HTMLRawText
	case isAllWhitespace(t.buf.String()):
		typ = HTMLWhitespace
	}
	tok := t.makeToken(typ)
	return &tok
}

func (t *Tokenizer) makeToken(typ TokenType) Token {
	return Token{
		Type:  typ,
		Value: t.buf.String(),
		Range: Range{Start: t.curStart, End: t.r.offsetOf()},
		Loc:   Loc{Start: t.curStartPos, End: t.pos()},
	}
}

// step consumes one code point (or a small fixed lookahead for multi-char
// delimiters) and advances the state machine. It returns false at EOF.
func (t *Tokenizer) step() bool {
	switch t.state {
	case stData:
		return t.stepData()
	case stTagOpen:
		return t.stepTagOpen()
	case stEndTagOpen:
		return t.stepEndTagOpen()
	case stTagName:
		return t.stepTagName()
	case stRCData:
		return t.stepRCDataOrRawText(contentRCData)
	case stRCDataLessThanSign:
		return t.stepLessThanSignInRCOrRaw(contentRCData)
	case stRCDataEndTagOpen:
		return t.stepEndTagOpenInRCOrRaw(contentRCData)
	case stRCDataEndTagName:
		return t.stepEndTagNameInRCOrRaw(contentRCData)
	case stRawText:
		return t.stepRCDataOrRawText(contentRawText)
	case stRawTextLessThanSign:
		return t.stepLessThanSignInRCOrRaw(contentRawText)
	case stRawTextEndTagOpen:
		return t.stepEndTagOpenInRCOrRaw(contentRawText)
	case stRawTextEndTagName:
		return t.stepEndTagNameInRCOrRaw(contentRawText)
	case stBeforeAttributeName:
		return t.stepBeforeAttributeName()
	case stAttributeName:
		return t.stepAttributeName()
	case stAfterAttributeName:
		return t.stepAfterAttributeName()
	case stBeforeAttributeValue:
		return t.stepBeforeAttributeValue()
	case stAttributeValueDoubleQuoted:
		return t.stepAttributeValueQuoted('"')
	case stAttributeValueSingleQuoted:
		return t.stepAttributeValueQuoted('\'')
	case stAttributeValueUnquoted:
		return t.stepAttributeValueUnquoted()
	case stAfterAttributeValueQuoted:
		return t.stepAfterAttributeValueQuoted()
	case stSelfClosingStartTag:
		return t.stepSelfClosingStartTag()
	case stBogusComment:
		return t.stepBogusComment()
	case stMarkupDeclarationOpen:
		return t.stepMarkupDeclarationOpen()
	case stCommentStart:
		return t.stepCommentStart()
	case stCommentStartDash:
		return t.stepCommentStartDash()
	case stComment:
		return t.stepComment()
	case stCommentLessThanSign:
		return t.stepCommentLessThanSign()
	case stCommentLessThanSignBang:
		return t.stepCommentLessThanSignBang()
	case stCommentLessThanSignBangDash:
		return t.stepCommentLessThanSignBangDash()
	case stCommentLessThanSignBangDashDash:
		return t.stepCommentLessThanSignBangDashDash()
	case stCommentEndDash:
		return t.stepCommentEndDash()
	case stCommentEnd:
		return t.stepCommentEnd()
	case stCommentEndBang:
		return t.stepCommentEndBang()
	case stXExpressionStart, stXExpressionEnd:
		return t.stepExpression()
	default:
		unreachable("unknown tokenizer state")
		return false
	}
}

// --- DATA / text with mustache recognition ---

func (t *Tokenizer) stepData() bool {
	if t.buf.Len() == 0 {
		t.beginToken()
	}
	if t.atMustacheOpen() {
		t.flushText(false)
		return t.openMustache()
	}
	cp := t.r.consumeNext()
	if cp == eofRune {
		return false
	}
	if cp == '<' && !t.tagOpenDisabled {
		t.flushText(false)
		t.beginToken()
		t.buf.WriteRune(cp)
		t.state = stTagOpen
		return true
	}
	t.writeDataRune(cp)
	return true
}

func (t *Tokenizer) writeDataRune(cp rune) {
	if cp == 0 {
		t.reportError(ErrUnexpectedNullCharacter, "unexpected null character", t.r.offsetOf(), t.pos())
		cp = 0xFFFD
	}
	t.buf.WriteRune(cp)
}

// flushText emits the accumulated text buffer (if any) as the appropriate
// text-variant token and resets for the next run. whitespaceOnly content is
// classified as HTMLWhitespace.
func (t *Tokenizer) flushText(forceRawOrRC bool) {
	if t.buf.Len() == 0 {
		return
	}
	typ := HTMLText
	switch {
	case t.contentModel == contentRCData:
		typ = HTMLRCDataText
	case t.contentModel == contentRawText:
		typ = HTMLRawText
	case isAllWhitespace(t.buf.String()):
		typ = HTMLWhitespace
	}
	t.emit(t.makeToken(typ))
	t.buf.Reset()
}

func isAllWhitespace(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
		default:
			return false
		}
	}
	return len(s) > 0
}

// atMustacheOpen reports whether the reader is positioned at "{{" (DATA or
// unquoted contexts) or "{=" (only meaningful inside a quoted attribute
// value; stepAttributeValueQuoted checks attrQuote itself).
func (t *Tokenizer) atMustacheOpen() bool {
	return t.peekIs("{{") || (t.attrQuote != 0 && t.peekIs("{="))
}

// peekIs reports whether s occurs at the reader's current position, without
// allocating a copy of the remaining source (a plain
// strings.HasPrefix(string(t.r.src[t.r.pos:]), s) converts the whole
// remainder to a string on every call, which is quadratic over a large
// input since this runs once per rune).
func (t *Tokenizer) peekIs(s string) bool {
	end := t.r.pos + len(s)
	if end > len(t.r.src) {
		return false
	}
	return string(t.r.src[t.r.pos:end]) == s
}

func (t *Tokenizer) openMustache() bool {
	start := t.r.offsetOf()
	startPos := t.pos()
	useEquals := t.peekIs("{=")
	t.r.consumeNext()
	t.r.consumeNext()
	t.mustacheOpenedWithEquals = useEquals
	t.bracesDepth = 0
	t.emit(Token{
		Type:  XMustacheStart,
		Value: mustacheOpenDelim(useEquals),
		Range: Range{Start: start, End: t.r.offsetOf()},
		Loc:   Loc{Start: startPos, End: t.pos()},
	})
	t.returnState = t.state
	t.state = stXExpressionStart
	t.tagOpenDisabled = true
	t.beginToken()
	return true
}

func mustacheOpenDelim(useEquals bool) string {
	if useEquals {
		return "{="
	}
	return "{{"
}

// stepExpression scans the mustache payload as plain text, tracking
// bracesDepth the way the teacher's exprLexer.atRightDelim does, so that a
// nested object literal ({{ {a:1} }}) does not close the mustache early.
func (t *Tokenizer) stepExpression() bool {
	closeDelim := "}}"
	if t.mustacheOpenedWithEquals {
		closeDelim = "=}"
	}
	if t.bracesDepth == 0 && t.peekIs(closeDelim) {
		t.flushText(false)
		start := t.r.offsetOf()
		startPos := t.pos()
		t.r.consumeNext()
		t.r.consumeNext()
		t.emit(Token{
			Type:  XMustacheEnd,
			Value: closeDelim,
			Range: Range{Start: start, End: t.r.offsetOf()},
			Loc:   Loc{Start: startPos, End: t.pos()},
		})
		t.tagOpenDisabled = false
		t.state = t.returnState
		t.beginToken()
		return true
	}
	if t.buf.Len() == 0 {
		t.beginToken()
	}
	cp := t.r.consumeNext()
	if cp == eofRune {
		t.reportError(ErrMissingExpressionEndTag, "missing expression end tag", t.curStart, t.curStartPos)
		return false
	}
	if cp == '{' {
		t.bracesDepth++
	} else if cp == '}' && t.bracesDepth > 0 {
		t.bracesDepth--
	}
	t.writeDataRune(cp)
	return true
}

// --- tag open / names ---

func (t *Tokenizer) stepTagOpen() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == eofRune:
		t.buf.WriteByte('<')
		return false
	case cp == '/':
		t.state = stEndTagOpen
		return true
	case isASCIIAlpha(cp):
		t.emit(Token{Type: HTMLTagOpen, Value: "", Range: Range{Start: t.curStart, End: t.r.offsetOf() - codePointWidth(cp)}, Loc: Loc{Start: t.curStartPos, End: t.curStartPos}})
		t.beginNameFrom(cp)
		t.state = stTagName
		return true
	case cp == '!':
		t.state = stMarkupDeclarationOpen
		t.beginToken()
		return true
	case cp == '?':
		t.reportError(ErrUnexpectedCharacterInAttrName, "unexpected question mark instead of tag name", t.r.offsetOf(), t.pos())
		t.state = stBogusComment
		t.beginToken()
		return true
	default:
		t.reportError(ErrInvalidCharacterSequence, "invalid first character of tag name", t.r.offsetOf(), t.pos())
		t.buf.WriteByte('<')
		t.writeDataRune(cp)
		t.state = stData
		return true
	}
}

func (t *Tokenizer) beginNameFrom(cp rune) {
	t.buf.Reset()
	t.buf.WriteRune(toASCIILower(cp))
}

func (t *Tokenizer) stepEndTagOpen() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == eofRune:
		t.reportError(ErrEOFInTag, "eof in tag", t.r.offsetOf(), t.pos())
		return false
	case isASCIIAlpha(cp):
		t.emit(Token{Type: HTMLEndTagOpen, Range: Range{Start: t.curStart, End: t.r.offsetOf() - 1}, Loc: Loc{Start: t.curStartPos, End: t.curStartPos}})
		t.beginNameFrom(cp)
		t.state = stTagName
		return true
	case cp == '>':
		t.reportError(ErrMissingEndTagName, "missing end tag name", t.r.offsetOf(), t.pos())
		t.state = stData
		return true
	default:
		t.reportError(ErrInvalidEndTag, "invalid end tag", t.r.offsetOf(), t.pos())
		t.state = stBogusComment
		t.beginToken()
		return true
	}
}

func (t *Tokenizer) stepTagName() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == eofRune:
		t.reportError(ErrEOFInTag, "eof in tag", t.r.offsetOf(), t.pos())
		t.emit(t.makeToken(HTMLIdentifier))
		return false
	case isWhitespace(cp):
		t.emit(t.makeToken(HTMLIdentifier))
		t.state = stBeforeAttributeName
		return true
	case cp == '/':
		t.emit(t.makeToken(HTMLIdentifier))
		t.state = stSelfClosingStartTag
		return true
	case cp == '>':
		t.emit(t.makeToken(HTMLIdentifier))
		t.emitTagClose()
		t.state = stData
		return true
	case cp == 0:
		t.reportError(ErrUnexpectedNullCharacter, "unexpected null character", t.r.offsetOf(), t.pos())
		t.buf.WriteRune(0xFFFD)
		return true
	default:
		t.buf.WriteRune(toASCIILower(cp))
		return true
	}
}

func (t *Tokenizer) emitTagClose() {
	t.emit(Token{Type: HTMLTagClose, Value: ">", Range: Range{Start: t.r.offsetOf() - 1, End: t.r.offsetOf()}, Loc: Loc{Start: t.pos(), End: t.pos()}})
}

// --- RCDATA / RAWTEXT ---

func (t *Tokenizer) stepRCDataOrRawText(cm contentModel) bool {
	if t.buf.Len() == 0 {
		t.beginToken()
	}
	cp := t.r.consumeNext()
	if cp == eofRune {
		return false
	}
	if cp == '<' {
		t.flushText(true)
		t.beginToken()
		t.buf.WriteByte('<')
		if cm == contentRCData {
			t.state = stRCDataLessThanSign
		} else {
			t.state = stRawTextLessThanSign
		}
		return true
	}
	t.writeDataRune(cp)
	return true
}

func (t *Tokenizer) stepLessThanSignInRCOrRaw(cm contentModel) bool {
	cp := t.r.consumeNext()
	if cp == '/' {
		t.buf.WriteByte('/')
		t.provisionalStart = t.curStart
		t.provisionalPos = t.curStartPos
		t.provisionalBuf.Reset()
		t.provisionalBuf.WriteString(t.buf.String())
		t.pendingEndTagName.Reset()
		if cm == contentRCData {
			t.state = stRCDataEndTagOpen
		} else {
			t.state = stRawTextEndTagOpen
		}
		return true
	}
	// Not a end tag after all: re-emit "<" as text and resume.
	t.rollbackToText(cm)
	if cp == eofRune {
		return false
	}
	t.writeDataRune(cp)
	return true
}

func (t *Tokenizer) stepEndTagOpenInRCOrRaw(cm contentModel) bool {
	cp := t.r.consumeNext()
	if isASCIIAlpha(cp) {
		t.pendingEndTagName.WriteRune(toASCIILower(cp))
		t.provisionalBuf.WriteRune(cp)
		if cm == contentRCData {
			t.state = stRCDataEndTagName
		} else {
			t.state = stRawTextEndTagName
		}
		return true
	}
	t.rollbackToText(cm)
	if cp == eofRune {
		return false
	}
	t.writeDataRune(cp)
	return true
}

func (t *Tokenizer) stepEndTagNameInRCOrRaw(cm contentModel) bool {
	cp := t.r.consumeNext()
	switch {
	case isASCIIAlpha(cp) || cp == '-':
		t.pendingEndTagName.WriteRune(toASCIILower(cp))
		t.provisionalBuf.WriteRune(cp)
		return true
	case (isWhitespace(cp) || cp == '/' || cp == '>') && t.pendingEndTagName.String() == t.lastTagOpenToken:
		// Commit: the provisional "</name" is promoted to a real HTMLEndTagOpen.
		t.commitProvisionalEndTag(cp)
		return true
	default:
		// Rollback: not a matching end tag; the buffered "</name..." (plus
		// this code point) becomes literal text.
		t.rollbackToText(cm)
		if cp == eofRune {
			return false
		}
		t.writeDataRune(cp)
		if cp == '<' {
			// Re-run less-than-sign handling for chained "</a</b" inputs.
			if cm == contentRCData {
				t.state = stRCDataLessThanSign
			} else {
				t.state = stRawTextLessThanSign
			}
		}
		return true
	}
}

func (t *Tokenizer) commitProvisionalEndTag(lookahead rune) {
	t.emit(Token{
		Type:  HTMLEndTagOpen,
		Range: Range{Start: t.provisionalStart, End: t.provisionalStart + 2},
		Loc:   Loc{Start: t.provisionalPos, End: t.provisionalPos},
	})
	t.emit(Token{
		Type:  HTMLIdentifier,
		Value: t.pendingEndTagName.String(),
		Range: Range{Start: t.provisionalStart + 2, End: t.r.offsetOf() - codePointWidth(lookahead)},
		Loc:   Loc{Start: t.provisionalPos, End: t.pos()},
	})
	switch {
	case lookahead == '>':
		t.emitTagClose()
		t.state = stData
		t.contentModel = contentData
	case lookahead == '/':
		t.state = stSelfClosingStartTag
	default:
		t.state = stBeforeAttributeName
	}
}

// rollbackToText discards the provisional end-tag token: the buffered bytes
// become a literal RCDATA/RAWTEXT text run instead (spec §4.2, invariant 7).
func (t *Tokenizer) rollbackToText(cm contentModel) {
	t.beginToken()
	t.curStart = t.provisionalStart
	t.curStartPos = t.provisionalPos
	t.buf.Reset()
	t.buf.WriteString(t.provisionalBuf.String())
	if cm == contentRCData {
		t.state = stRCData
	} else {
		t.state = stRawText
	}
}

// --- attributes ---

func (t *Tokenizer) stepBeforeAttributeName() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == eofRune:
		t.reportError(ErrEOFInTag, "eof in tag", t.r.offsetOf(), t.pos())
		return false
	case isWhitespace(cp):
		return true
	case cp == '/' || cp == '>':
		if cp == '/' {
			t.state = stSelfClosingStartTag
		} else {
			t.emitTagClose()
			t.state = stData
		}
		return true
	case cp == '=':
		t.reportError(ErrUnexpectedEqualsSign, "unexpected equals sign before attribute name", t.r.offsetOf(), t.pos())
		t.beginNameFrom(cp)
		t.state = stAttributeName
		return true
	default:
		t.beginToken()
		t.buf.WriteRune(toASCIILower(cp))
		t.state = stAttributeName
		return true
	}
}

func (t *Tokenizer) stepAttributeName() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == eofRune || isWhitespace(cp) || cp == '/' || cp == '>':
		t.emit(t.makeToken(HTMLIdentifier))
		if cp == eofRune {
			t.reportError(ErrEOFInTag, "eof in tag", t.r.offsetOf(), t.pos())
			return false
		}
		if isWhitespace(cp) {
			t.state = stAfterAttributeName
		} else if cp == '/' {
			t.state = stSelfClosingStartTag
		} else {
			t.emitTagClose()
			t.state = stData
		}
		return true
	case cp == '=':
		t.emit(t.makeToken(HTMLIdentifier))
		t.emitAssociation()
		t.state = stBeforeAttributeValue
		return true
	case cp == 0:
		t.reportError(ErrUnexpectedNullCharacter, "unexpected null character", t.r.offsetOf(), t.pos())
		t.buf.WriteRune(0xFFFD)
		return true
	case cp == '"' || cp == '\'' || cp == '<':
		t.reportError(ErrUnexpectedCharacterInAttrName, "unexpected character in attribute name", t.r.offsetOf(), t.pos())
		t.buf.WriteRune(toASCIILower(cp))
		return true
	default:
		t.buf.WriteRune(toASCIILower(cp))
		return true
	}
}

func (t *Tokenizer) emitAssociation() {
	t.emit(Token{Type: HTMLAssociation, Value: "=", Range: Range{Start: t.r.offsetOf() - 1, End: t.r.offsetOf()}, Loc: Loc{Start: t.pos(), End: t.pos()}})
}

func (t *Tokenizer) stepAfterAttributeName() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == eofRune:
		t.reportError(ErrEOFInTag, "eof in tag", t.r.offsetOf(), t.pos())
		return false
	case isWhitespace(cp):
		return true
	case cp == '/':
		t.state = stSelfClosingStartTag
		return true
	case cp == '=':
		t.emitAssociation()
		t.state = stBeforeAttributeValue
		return true
	case cp == '>':
		t.emitTagClose()
		t.state = stData
		return true
	default:
		t.reportError(ErrMissingWhitespaceBetweenAttrs, "missing whitespace between attributes", t.r.offsetOf(), t.pos())
		t.beginToken()
		t.buf.WriteRune(toASCIILower(cp))
		t.state = stAttributeName
		return true
	}
}

func (t *Tokenizer) stepBeforeAttributeValue() bool {
	cp := t.r.consumeNext()
	switch {
	case isWhitespace(cp):
		return true
	case cp == '"':
		t.emitQuote(cp)
		t.attrQuote = '"'
		t.state = stAttributeValueDoubleQuoted
		t.beginToken()
		return true
	case cp == '\'':
		t.emitQuote(cp)
		t.attrQuote = '\''
		t.state = stAttributeValueSingleQuoted
		t.beginToken()
		return true
	case cp == '>':
		t.reportError(ErrMissingAttributeValue, "missing attribute value", t.r.offsetOf(), t.pos())
		t.emitTagClose()
		t.state = stData
		return true
	case cp == eofRune:
		t.reportError(ErrEOFInTag, "eof in tag", t.r.offsetOf(), t.pos())
		return false
	default:
		t.beginToken()
		t.buf.WriteRune(cp)
		t.state = stAttributeValueUnquoted
		return true
	}
}

func (t *Tokenizer) emitQuote(q rune) {
	t.emit(Token{Type: HTMLQuote, Value: string(q), Range: Range{Start: t.r.offsetOf() - 1, End: t.r.offsetOf()}, Loc: Loc{Start: t.pos(), End: t.pos()}})
}

func (t *Tokenizer) stepAttributeValueQuoted(quote rune) bool {
	if t.buf.Len() == 0 {
		t.beginToken()
	}
	if t.atMustacheOpen() {
		t.flushAttrLiteral()
		return t.openMustache()
	}
	cp := t.r.consumeNext()
	switch {
	case cp == eofRune:
		t.reportError(ErrEOFInTag, "eof in tag", t.r.offsetOf(), t.pos())
		return false
	case cp == quote:
		t.flushAttrLiteral()
		t.emitQuote(cp)
		t.attrQuote = 0
		t.state = stAfterAttributeValueQuoted
		return true
	case cp == 0:
		t.reportError(ErrUnexpectedNullCharacter, "unexpected null character", t.r.offsetOf(), t.pos())
		t.buf.WriteRune(0xFFFD)
		return true
	default:
		t.buf.WriteRune(cp)
		return true
	}
}

func (t *Tokenizer) flushAttrLiteral() {
	if t.buf.Len() == 0 {
		return
	}
	t.emit(t.makeToken(HTMLLiteral))
	t.buf.Reset()
}

func (t *Tokenizer) stepAttributeValueUnquoted() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == eofRune:
		t.reportError(ErrEOFInTag, "eof in tag", t.r.offsetOf(), t.pos())
		t.emit(t.makeToken(HTMLAttrLiteral))
		return false
	case isWhitespace(cp):
		t.emit(t.makeToken(HTMLAttrLiteral))
		t.state = stBeforeAttributeName
		return true
	case cp == '>':
		t.emit(t.makeToken(HTMLAttrLiteral))
		t.emitTagClose()
		t.state = stData
		return true
	case cp == 0:
		t.reportError(ErrUnexpectedNullCharacter, "unexpected null character", t.r.offsetOf(), t.pos())
		t.buf.WriteRune(0xFFFD)
		return true
	default:
		t.buf.WriteRune(cp)
		return true
	}
}

func (t *Tokenizer) stepAfterAttributeValueQuoted() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == eofRune:
		t.reportError(ErrEOFInTag, "eof in tag", t.r.offsetOf(), t.pos())
		return false
	case isWhitespace(cp):
		t.state = stBeforeAttributeName
		return true
	case cp == '/':
		t.state = stSelfClosingStartTag
		return true
	case cp == '>':
		t.emitTagClose()
		t.state = stData
		return true
	default:
		t.reportError(ErrMissingWhitespaceBetweenAttrs, "missing whitespace between attributes", t.r.offsetOf(), t.pos())
		t.state = stBeforeAttributeName
		// Re-process this code point as if we were in BeforeAttributeName.
		return t.reprocessBeforeAttributeName(cp)
	}
}

func (t *Tokenizer) reprocessBeforeAttributeName(cp rune) bool {
	switch {
	case cp == '/':
		t.state = stSelfClosingStartTag
	case cp == '>':
		t.emitTagClose()
		t.state = stData
	case cp == '=':
		t.beginNameFrom(cp)
		t.state = stAttributeName
	default:
		t.beginToken()
		t.buf.WriteRune(toASCIILower(cp))
		t.state = stAttributeName
	}
	return true
}

func (t *Tokenizer) stepSelfClosingStartTag() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == '>':
		t.selfClosing = true
		t.emit(Token{Type: HTMLSelfClosingTagClose, Value: "/>", Range: Range{Start: t.r.offsetOf() - 2, End: t.r.offsetOf()}, Loc: Loc{Start: t.pos(), End: t.pos()}})
		t.state = stData
		t.selfClosing = false
		return true
	case cp == eofRune:
		t.reportError(ErrEOFInTag, "eof in tag", t.r.offsetOf(), t.pos())
		return false
	default:
		t.reportError(ErrUnexpectedSolidusInTag, "unexpected solidus in tag", t.r.offsetOf(), t.pos())
		t.state = stBeforeAttributeName
		return t.reprocessBeforeAttributeName(cp)
	}
}

// --- comments ---

func (t *Tokenizer) stepBogusComment() bool {
	if t.buf.Len() == 0 {
		t.beginToken()
	}
	cp := t.r.consumeNext()
	switch {
	case cp == '>':
		t.emit(t.makeToken(HTMLComment))
		t.state = stData
		return true
	case cp == eofRune:
		t.emit(t.makeToken(HTMLComment))
		return false
	case cp == 0:
		t.buf.WriteRune(0xFFFD)
		return true
	default:
		t.buf.WriteRune(cp)
		return true
	}
}

func (t *Tokenizer) stepMarkupDeclarationOpen() bool {
	if t.peekIs("--") {
		t.r.consumeNext()
		t.r.consumeNext()
		t.buf.Reset()
		t.state = stCommentStart
		return true
	}
	// Anything else (including DOCTYPE) is treated as a bogus comment; SWAN
	// templates carry no DOCTYPE in this spec's data model.
	t.state = stBogusComment
	return true
}

func (t *Tokenizer) stepCommentStart() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == '-':
		t.state = stCommentStartDash
		return true
	case cp == '>':
		t.reportError(ErrAbruptClosingOfEmptyComment, "abrupt closing of empty comment", t.r.offsetOf(), t.pos())
		t.emit(t.makeToken(HTMLComment))
		t.state = stData
		return true
	default:
		t.state = stComment
		return t.reprocessComment(cp)
	}
}

func (t *Tokenizer) stepCommentStartDash() bool {
	cp := t.r.consumeNext()
	switch {
	case cp == '-':
		t.state = stCommentEnd
		return true
	case cp == eofRune:
		t.reportError(ErrEOFInComment, "eof in comment", t.r.offsetOf(), t.pos())
		t.emit(t.makeToken(HTMLComment))
		return false
	case cp == '>':
		t.reportError(ErrAbruptClosingOfEmptyComment, "abrupt closing of empty comment", t.r.offsetOf(), t.pos())
		t.emit(t.makeToken(HTMLComment))
		t.state = stData
		return true
	default:
		t.buf.WriteByte('-')
		t.state = stComment
		return t.reprocessComment(cp)
	}
}

func (t *Tokenizer) reprocessComment(cp rune) bool {
	if cp == eofRune {
		t.reportError(ErrEOFInComment, "eof in comment", t.r.offsetOf(), t.pos())
		t.emit(t.makeToken(HTMLComment))
		return false
	}
	if cp == '-' {
		t.state = stCommentEndDash
		return true
	}
	if cp == '<' {
		t.buf.WriteByte('<')
		t.state = stCommentLessThanSign
		return true
	}
	t.writeDataRune(cp)
	return true
}

func (t *Tokenizer) stepComment() bool {
	cp := t.r.consumeNext()
	return t.reprocessComment(cp)
}

func (t *Tokenizer) stepCommentLessThanSign() bool {
	cp := t.r.consumeNext()
	switch cp {
	case '!':
		t.buf.WriteByte('!')
		t.state = stCommentLessThanSignBang
	case '<':
		t.buf.WriteByte('<')
	default:
		t.state = stComment
		return t.reprocessComment(cp)
	}
	return true
}

func (t *Tokenizer) stepCommentLessThanSignBang() bool {
	cp := t.r.consumeNext()
	if cp == '-' {
		t.state = stCommentLessThanSignBangDash
		return true
	}
	t.state = stComment
	return t.reprocessComment(cp)
}

func (t *Tokenizer) stepCommentLessThanSignBangDash() bool {
	cp := t.r.consumeNext()
	if cp == '-' {
		t.state = stCommentLessThanSignBangDashDash
		return true
	}
	t.state = stCommentEndDash
	return t.reprocessCommentEndDash(cp)
}

func (t *Tokenizer) stepCommentLessThanSignBangDashDash() bool {
	cp := t.r.consumeNext()
	if cp == '>' || cp == eofRune {
		t.state = stCommentEnd
		return t.reprocessCommentEnd(cp)
	}
	t.reportError(ErrNestedComment, "nested comment", t.r.offsetOf(), t.pos())
	t.state = stCommentEnd
	return t.reprocessCommentEnd(cp)
}

func (t *Tokenizer) stepCommentEndDash() bool {
	cp := t.r.consumeNext()
	return t.reprocessCommentEndDash(cp)
}

func (t *Tokenizer) reprocessCommentEndDash(cp rune) bool {
	if cp == '-' {
		t.state = stCommentEnd
		return true
	}
	if cp == eofRune {
		t.reportError(ErrEOFInComment, "eof in comment", t.r.offsetOf(), t.pos())
		t.emit(t.makeToken(HTMLComment))
		return false
	}
	t.buf.WriteByte('-')
	t.state = stComment
	return t.reprocessComment(cp)
}

func (t *Tokenizer) stepCommentEnd() bool {
	cp := t.r.consumeNext()
	return t.reprocessCommentEnd(cp)
}

func (t *Tokenizer) reprocessCommentEnd(cp rune) bool {
	switch cp {
	case '>':
		t.emit(t.makeToken(HTMLComment))
		t.state = stData
		return true
	case '!':
		t.state = stCommentEndBang
		return true
	case '-':
		t.buf.WriteByte('-')
		return true
	case eofRune:
		t.reportError(ErrEOFInComment, "eof in comment", t.r.offsetOf(), t.pos())
		t.emit(t.makeToken(HTMLComment))
		return false
	default:
		t.buf.WriteString("--")
		t.state = stComment
		return t.reprocessComment(cp)
	}
}

func (t *Tokenizer) stepCommentEndBang() bool {
	cp := t.r.consumeNext()
	switch cp {
	case '-':
		t.buf.WriteString("--!")
		t.state = stCommentEndDash
		return true
	case '>':
		t.reportError(ErrIncorrectlyClosedComment, "incorrectly closed comment", t.r.offsetOf(), t.pos())
		t.emit(t.makeToken(HTMLComment))
		t.state = stData
		return true
	case eofRune:
		t.reportError(ErrEOFInComment, "eof in comment", t.r.offsetOf(), t.pos())
		t.emit(t.makeToken(HTMLComment))
		return false
	default:
		t.buf.WriteString("--!")
		t.state = stComment
		return t.reprocessComment(cp)
	}
}

// --- character classes ---

func isASCIIAlpha(cp rune) bool {
	return (cp >= 'a' && cp <= 'z') || (cp >= 'A' && cp <= 'Z')
}

func isWhitespace(cp rune) bool {
	switch cp {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func toASCIILower(cp rune) rune {
	if cp >= 'A' && cp <= 'Z' {
		return cp + ('a' - 'A')
	}
	return cp
}
