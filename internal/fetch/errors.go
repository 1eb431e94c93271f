// Package fetch implements the single-request HTTP primitive with retries,
// proxy rotation, and uniform error classification.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// Class is the fine-grained fetch failure classification.
type Class string

// Fetch failure classes.
const (
	ClassTransientNetwork Class = "transient_network"
	ClassUpstream5xx      Class = "upstream_5xx"
	ClassRateLimited      Class = "rate_limited"
	ClassProxyFailure     Class = "proxy_failure"
	ClassNotFound         Class = "not_found"
	ClassForbidden        Class = "forbidden"
	ClassPermanentOther   Class = "permanent_other"
)

// Error is a classified fetch failure.
type Error struct {
	URL    string
	Class  Class
	Status int
	cause  error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Class, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Class, e.cause)
}

// Unwrap exposes the cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	switch e.Class {
	case ClassTransientNetwork, ClassUpstream5xx, ClassRateLimited, ClassProxyFailure:
		return true
	default:
		return false
	}
}

// Kind maps the class onto the coarse crawl error taxonomy.
func (e *Error) Kind() crawl.ErrorKind {
	if e.Retryable() {
		return crawl.KindNetworkTransient
	}
	return crawl.KindNetworkPermanent
}

// classify turns a raw colly/transport outcome into an *Error.
func classify(url string, status int, err error, viaProxy bool) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return &Error{URL: url, Class: ClassRateLimited, Status: status, cause: err}
	case http.StatusNotFound:
		return &Error{URL: url, Class: ClassNotFound, Status: status, cause: err}
	case http.StatusForbidden, http.StatusNotAcceptable:
		return &Error{URL: url, Class: ClassForbidden, Status: status, cause: err}
	}
	if status >= 500 {
		return &Error{URL: url, Class: ClassUpstream5xx, Status: status, cause: err}
	}
	if status != 0 {
		return &Error{URL: url, Class: ClassPermanentOther, Status: status, cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{URL: url, Class: ClassTransientNetwork, cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) || isConnectionError(err) {
		if viaProxy {
			return &Error{URL: url, Class: ClassProxyFailure, cause: err}
		}
		return &Error{URL: url, Class: ClassTransientNetwork, cause: err}
	}
	return &Error{URL: url, Class: ClassTransientNetwork, cause: err}
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &opErr) || errors.As(err, &dnsErr)
}
