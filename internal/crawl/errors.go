package crawl

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for callers that branch on outcome rather
// than on concrete error types.
type ErrorKind string

// Error kinds surfaced by the crawler.
const (
	KindArgument             ErrorKind = "argument_error"
	KindNetworkTransient     ErrorKind = "network_transient"
	KindNetworkPermanent     ErrorKind = "network_permanent"
	KindProxyExhausted       ErrorKind = "proxy_exhausted"
	KindParse                ErrorKind = "parse_error"
	KindExtractionIncomplete ErrorKind = "extraction_incomplete"
	KindHeadlessUnavailable  ErrorKind = "headless_unavailable"
	KindCancelled            ErrorKind = "cancelled"
	KindInternal             ErrorKind = "internal"
)

// Error carries a kind alongside the wrapped cause.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	cause   error
}

// NewError builds an Error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error around a cause.
func WrapError(kind ErrorKind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the kind carried by err, or KindInternal when err carries
// none.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}
