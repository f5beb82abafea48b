package swan

import (
	"fmt"
	"sort"
)

// ErrorCode enumerates the recoverable-problem taxonomy (spec §4.2, §7): the
// HTML5 tokenization error codes plus the SWAN-specific additions.
type ErrorCode string

const (
	// HTML5 tokenization error codes (WHATWG taxonomy subset).
	// abrupt-doctype-public-identifier, end-tag-with-attributes,
	// end-tag-with-trailing-solidus, missing-whitespace-before-doctype-name
	// and unknown-named-character-reference are declared but never reported.
	ErrAbruptClosingOfEmptyComment   ErrorCode = "abrupt-closing-of-empty-comment"
	ErrAbruptDoctypePublicIdentifier ErrorCode = "abrupt-doctype-public-identifier"
	ErrControlCharacterInInputStream ErrorCode = "control-character-in-input-stream"
	ErrDuplicateAttribute            ErrorCode = "duplicate-attribute"
	ErrEndTagWithAttributes          ErrorCode = "end-tag-with-attributes"
	ErrEndTagWithTrailingSolidus     ErrorCode = "end-tag-with-trailing-solidus"
	ErrEOFInTag                      ErrorCode = "eof-in-tag"
	ErrEOFInComment                  ErrorCode = "eof-in-comment"
	ErrIncorrectlyClosedComment      ErrorCode = "incorrectly-closed-comment"
	ErrInvalidCharacterSequence      ErrorCode = "invalid-character-sequence-after-doctype-name"
	ErrMissingAttributeValue         ErrorCode = "missing-attribute-value"
	ErrMissingEndTagName             ErrorCode = "missing-end-tag-name"
	ErrMissingWhitespaceBeforeDoctype ErrorCode = "missing-whitespace-before-doctype-name"
	ErrMissingWhitespaceBetweenAttrs ErrorCode = "missing-whitespace-between-attributes"
	ErrNestedComment                 ErrorCode = "nested-comment"
	ErrNoncharacterInInputStream     ErrorCode = "noncharacter-in-input-stream"
	ErrSurrogateInInputStream        ErrorCode = "surrogate-in-input-stream"
	ErrUnexpectedCharacterInAttrName ErrorCode = "unexpected-character-in-attribute-name"
	ErrUnexpectedEqualsSign          ErrorCode = "unexpected-equals-sign-before-attribute-name"
	ErrUnexpectedNullCharacter       ErrorCode = "unexpected-null-character"
	ErrUnexpectedSolidusInTag        ErrorCode = "unexpected-solidus-in-tag"
	ErrUnknownNamedCharacterRef      ErrorCode = "unknown-named-character-reference"

	// SWAN-specific additions (spec §4.2).
	ErrMissingExpressionEndTag ErrorCode = "missing-expression-end-tag"
	ErrMissingEndTag           ErrorCode = "missing-end-tag"
	ErrInvalidEndTag           ErrorCode = "x-invalid-end-tag"
	ErrInvalidDirective        ErrorCode = "x-invalid-directive"
	ErrExpressionError         ErrorCode = "x-expression-error"
	ErrUnreachable             ErrorCode = "unreachable"
)

// ParseError is a single recovered problem (spec §3). Errors are data: they
// never abort a parse (except ErrUnreachable, which signals a programmer
// error and panics — see unreachable).
type ParseError struct {
	Code       ErrorCode
	Message    string
	Index      int
	LineNumber int
	Column     int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.LineNumber, e.Column, e.Message)
}

// newError builds a ParseError at a given absolute offset/position.
func newError(code ErrorCode, msg string, index int, pos Position) *ParseError {
	return &ParseError{Code: code, Message: msg, Index: index, LineNumber: pos.Line, Column: pos.Column}
}

// sortErrors sorts a slice of *ParseError by Index (spec invariant 6/property 6).
func sortErrors(errs []*ParseError) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Index < errs[j].Index })
}

// ScriptError wraps an error returned by the script-parser backend (spec
// §4.6/§7), with its offsets relocated into the template coordinate system.
// It follows the teacher's ComponentError shape: a concrete struct
// implementing error, Unwrap, and Is.
type ScriptError struct {
	Err     error
	Index   int
	Line    int
	Column  int
	Message string
}

func (e *ScriptError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "script parse error"
}

func (e *ScriptError) Unwrap() error { return e.Err }

func (e *ScriptError) Is(target error) bool {
	se, ok := target.(*ScriptError)
	if !ok {
		return false
	}
	return e.Index == se.Index && e.Message == se.Message
}

// unreachable reports a programmer error: an internal invariant was
// violated. Per spec §7 these may abort, unlike every other recoverable
// problem.
func unreachable(msg string) {
	panic(&ParseError{Code: ErrUnreachable, Message: "unreachable: " + msg})
}
