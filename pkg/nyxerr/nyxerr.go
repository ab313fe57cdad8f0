// Package nyxerr maps every error this engine can raise — parse errors
// from pkg/querylang, validation errors from pkg/plan/pkg/exec, and
// operational errors from pkg/collection — onto the single error
// envelope shape spec §6/§7 requires: a kind code (E001-E006), a
// message, and an optional source position/fragment.
package nyxerr

import (
	"errors"
	"fmt"

	"github.com/nyxdb/nyx/pkg/querylang"
)

// Code is one of the six kind codes the query surface ever reports.
type Code string

const (
	CodeSyntax             Code = "E001"
	CodeUnknownColumn      Code = "E002"
	CodeCollectionNotFound Code = "E003"
	CodeDimensionMismatch  Code = "E004"
	CodeMissingParameter   Code = "E005"
	CodeTypeMismatch       Code = "E006"
)

// Error is the wire shape of the error envelope.
type Error struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Position *int   `json:"position,omitempty"`
	Fragment string `json:"fragment,omitempty"`
}

func (e *Error) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("%s: %s (near %q)", e.Code, e.Message, e.Fragment)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds a plain envelope error with no source position, for errors
// raised by pkg/collection itself (collection-not-found, storage I/O).
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

var kindToCode = map[querylang.ErrorKind]Code{
	querylang.ErrSyntax:            CodeSyntax,
	querylang.ErrUnexpectedToken:   CodeSyntax,
	querylang.ErrUnknownColumn:     CodeUnknownColumn,
	querylang.ErrDimensionMismatch: CodeDimensionMismatch,
	querylang.ErrMissingParameter:  CodeMissingParameter,
	querylang.ErrTypeMismatch:      CodeTypeMismatch,
}

// FromQueryError translates a pkg/querylang.Error (raised by the parser)
// into the wire envelope.
func FromQueryError(err *querylang.Error) *Error {
	code, ok := kindToCode[err.Kind]
	if !ok {
		code = CodeSyntax
	}
	pos := err.Pos
	return &Error{Code: code, Message: err.Message, Position: &pos, Fragment: err.Fragment}
}

// Wrap converts any error into an envelope Error: a *querylang.Error is
// translated via FromQueryError, an existing *Error passes through
// unchanged, and anything else is reported as a syntax-less generic
// error under the given fallback code.
func Wrap(err error, fallback Code) *Error {
	if err == nil {
		return nil
	}
	var envErr *Error
	if errors.As(err, &envErr) {
		return envErr
	}
	var qErr *querylang.Error
	if errors.As(err, &qErr) {
		return FromQueryError(qErr)
	}
	return New(fallback, err.Error())
}
