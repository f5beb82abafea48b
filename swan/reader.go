package swan

import (
	"unicode/utf16"
	"unicode/utf8"
)

const eofRune rune = -1

// codePointReader streams code points from UTF-8 source text (spec §4.1):
// CRLF is collapsed to LF, and (line, column) is tracked alongside the
// offset. Offsets are byte offsets into the UTF-8 source rather than the
// UTF-16 code-unit offsets the originating spec describes — idiomatic for
// Go, where strings and slices are already byte-indexed, and a substitution
// that changes no observable structure (ranges are still non-overlapping
// half-open intervals sorted by start; CRLF gap handling is unaffected).
type codePointReader struct {
	src []byte
	pos int // byte offset of the next rune to decode

	offset int // byte offset just past the code point last returned by consumeNext
	line   int
	column int

	lastCodePoint rune

	// gaps records the absolute offsets where a CRLF was collapsed (the LF
	// was elided). Sorted by construction (we only ever append while moving
	// forward).
	gaps []int

	// lineTerminators records the absolute offsets of every LF that was
	// logically emitted (i.e. after CRLF collapsing, one per logical line
	// break).
	lineTerminators []int

	onError func(code ErrorCode, msg string, index int, pos Position)
}

func newCodePointReader(src string, onError func(ErrorCode, string, int, Position)) *codePointReader {
	return &codePointReader{
		src:           []byte(src),
		line:          1,
		column:        0,
		lastCodePoint: eofRune,
		onError:       onError,
	}
}

// consumeNext returns the next code point, or eofRune at end of input.
// Afterwards offset/line/column describe the position just past the code
// point just returned (where the next one starts).
func (r *codePointReader) consumeNext() rune {
	if r.pos >= len(r.src) {
		return eofRune
	}

	startOffset := r.offset
	cp, size := decodeRune(r.src[r.pos:])
	r.pos += size

	// CRLF collapsing: a bare CR is normalized to LF for downstream
	// consumers; an immediately-following LF after a CR is elided and
	// recorded as a gap rather than re-emitted.
	if cp == '\n' && r.lastCodePoint == '\r' {
		r.gaps = append(r.gaps, startOffset)
		r.offset = startOffset + size
		r.lastCodePoint = cp
		// The collapsed LF still occupies its own absolute byte position
		// (recorded above as a gap) but is not itself re-emitted as a
		// separate code point; recurse to fetch the code point after it.
		return r.consumeNext()
	}

	r.offset = startOffset + size
	if cp == utf8.RuneError && size == 1 && r.onError != nil {
		r.onError(ErrSurrogateInInputStream, "surrogate in input stream", startOffset, Position{Line: r.line, Column: r.column})
	}
	r.reportIfProblem(cp, startOffset)

	out := cp
	if cp == '\r' {
		out = '\n'
	}

	if out == '\n' {
		r.lineTerminators = append(r.lineTerminators, startOffset)
		r.line++
		r.column = 0
	} else {
		r.column++
	}

	r.lastCodePoint = cp
	return out
}

// offsetOf returns the absolute source offset just past the code point last
// returned by consumeNext.
func (r *codePointReader) offsetOf() int { return r.offset }

func (r *codePointReader) position() Position { return Position{Line: r.line, Column: r.column} }

// codePointWidth returns the UTF-8 byte width cp would occupy when
// re-encoded. It is used where callers need to reconstruct "the offset
// just before this code point" from the offset just after it.
func codePointWidth(cp rune) int {
	if cp == eofRune {
		return 0
	}
	return utf8.RuneLen(cp)
}

// decodeRune decodes the next code point from b. Go's utf8 package never
// yields a surrogate code point: malformed input, including a UTF-8-encoded
// lone surrogate (WTF-8), decodes to utf8.RuneError with width 1, which
// consumeNext reports as a lone surrogate per the WHATWG input-stream
// preprocessing this spec leans on.
func decodeRune(b []byte) (rune, int) {
	cp, size := utf8.DecodeRune(b)
	return cp, size
}

func (r *codePointReader) reportIfProblem(cp rune, offset int) {
	if r.onError == nil {
		return
	}
	switch {
	case utf16.IsSurrogate(cp):
		r.onError(ErrSurrogateInInputStream, "surrogate in input stream", offset, Position{Line: r.line, Column: r.column})
	case isNoncharacter(cp):
		r.onError(ErrNoncharacterInInputStream, "noncharacter in input stream", offset, Position{Line: r.line, Column: r.column})
	case isControlProblem(cp):
		r.onError(ErrControlCharacterInInputStream, "control character in input stream", offset, Position{Line: r.line, Column: r.column})
	}
}

func isNoncharacter(cp rune) bool {
	if cp >= 0xFDD0 && cp <= 0xFDEF {
		return true
	}
	switch cp & 0xFFFE {
	case 0xFFFE:
		return true
	}
	return false
}

// isControlProblem reports C0/C1 controls that are neither whitespace nor
// NUL (NUL has its own dedicated policy per content model, spec §4.2).
func isControlProblem(cp rune) bool {
	if cp == 0 {
		return false
	}
	if cp == '\t' || cp == '\n' || cp == '\f' || cp == '\r' || cp == ' ' {
		return false
	}
	if cp <= 0x1F {
		return true
	}
	if cp >= 0x7F && cp <= 0x9F {
		return true
	}
	return false
}
