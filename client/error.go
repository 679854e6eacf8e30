package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// maxErrBodySize caps the amount of response body kept in an
// UnexpectedStatusError.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrHTTP is the base of every error produced by the package.
	ErrHTTP = errors.New("http error")
	// ErrRequest is a transport failure not covered by a more specific error.
	ErrRequest = fmt.Errorf("%w: request failed", ErrHTTP)
	// ErrConnect indicates that the connection could not be established.
	ErrConnect = fmt.Errorf("%w: connect failed", ErrHTTP)
	// ErrRedirect indicates that the configured redirect limit was exceeded.
	ErrRedirect = fmt.Errorf("%w: redirects limit exceeded", ErrHTTP)
	// ErrTimeout indicates that the connect or request deadline passed.
	ErrTimeout = fmt.Errorf("%w: timed out", ErrHTTP)
	// ErrInvalidValue reports malformed header, URL or proxy input.
	ErrInvalidValue = fmt.Errorf("%w: invalid value", ErrHTTP)
	// ErrInvalidType reports a value of the wrong kind where an auth
	// method or proxy is expected.
	ErrInvalidType = fmt.Errorf("%w: invalid type", ErrHTTP)
	// ErrAlreadyRead is returned on the second attempt to read a body.
	ErrAlreadyRead = fmt.Errorf("%w: body already read", ErrHTTP)

	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = fmt.Errorf("%w: unexpected status code", ErrHTTP)
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
)

// Error carries the failing operation, a human readable detail,
// the sentinel classifying the failure and the underlying cause.
type Error struct {
	Op     string
	Detail string
	Err    error
	Cause  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func newError(op string, kind error, detail string) *Error {
	return &Error{Op: op, Detail: detail, Err: kind}
}

// UnexpectedStatusError is returned when the HTTP response status code
// does not match any of the expected values.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

// classify maps an error returned by the transport onto the package taxonomy.
// Errors that already carry a sentinel are returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var own *Error
	if errors.As(err, &own) {
		return err
	}

	kind := ErrRequest
	var opErr *net.OpError
	var netErr net.Error

	switch {
	case errors.Is(err, errRedirectLimit):
		kind = ErrRedirect
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		kind = ErrTimeout
	case errors.As(err, &opErr) && (opErr.Op == "dial" || opErr.Op == "proxyconnect"):
		kind = ErrConnect
	}

	return &Error{Op: op, Err: kind, Cause: unwrapURLError(err)}
}

// unwrapURLError strips the *url.Error added by http.Client so messages
// are not prefixed with the method and URL twice.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
