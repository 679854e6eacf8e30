package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"slices"
	"sync/atomic"

	"github.com/gufolabs/gufohttp/client/metrics"
)

// Response is the status, headers and one-shot body of a dispatch.
// Status and headers may be read any number of times; the body can be
// claimed once, by [Response.Read], [Response.ReadAsync],
// [Response.JSON], a failing [Response.Expect] or [Response.Close].
type Response struct {
	status  int
	headers Headers
	slot    *bodySlot
	cleanup runtime.Cleanup
}

// bodySource yields the body bytes once. discard releases the body
// without reading it.
type bodySource interface {
	fetch(ctx context.Context) ([]byte, error)
	discard()
}

// bodySlot is the Unready to Consumed state machine of a body.
type bodySlot struct {
	consumed atomic.Bool
	src      bodySource
	method   string
	metrics  *metrics.Collector
}

func (s *bodySlot) claim() bool {
	return s.consumed.CompareAndSwap(false, true)
}

func (s *bodySlot) read(ctx context.Context) ([]byte, error) {
	b, err := s.src.fetch(ctx)
	s.metrics.RecordRead(s.method, len(b), errKind(err))
	return b, err
}

func newResponse(method string, resp *http.Response, src bodySource, m *metrics.Collector) *Response {
	r := &Response{
		status:  resp.StatusCode,
		headers: headersFromHTTP(resp.Header),
		slot:    &bodySlot{src: src, method: method, metrics: m},
	}
	r.cleanup = runtime.AddCleanup(r, func(s *bodySlot) {
		if s.claim() {
			s.src.discard()
		}
	}, r.slot)
	return r
}

// newBufferedResponse reads the whole body before returning. A transfer
// error is stored and surfaces on the first read.
func newBufferedResponse(method string, resp *http.Response, logger *slog.Logger, m *metrics.Collector) *Response {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = classify("read", err)
	}
	if cerr := resp.Body.Close(); cerr != nil {
		logger.Error("failed to close response body", "error", cerr)
	}
	return newResponse(method, resp, &bufferedBody{data: data, err: err}, m)
}

// newStreamedResponse leaves the body on the wire until it is read.
// release ends the dispatch context and is called once the body is done.
func newStreamedResponse(method string, resp *http.Response, release context.CancelFunc, logger *slog.Logger, m *metrics.Collector) *Response {
	return newResponse(method, resp, &streamBody{rc: resp.Body, release: release, logger: logger}, m)
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.status
}

// Headers returns a copy of the response headers.
func (r *Response) Headers() Headers {
	return r.headers.Clone()
}

// Read returns the whole body. Only the first read of a Response
// succeeds; every later one fails with [ErrAlreadyRead], even when the
// first failed.
func (r *Response) Read() ([]byte, error) {
	return r.ReadContext(context.Background())
}

// ReadContext is Read bounded by ctx. Cancelling ctx aborts a body still
// being transferred.
func (r *Response) ReadContext(ctx context.Context) ([]byte, error) {
	if !r.slot.claim() {
		return nil, &Error{Op: "read", Err: ErrAlreadyRead}
	}
	r.cleanup.Stop()
	return r.slot.read(ctx)
}

// ReadAsync claims the body immediately and reads it in the background.
// A body already claimed resolves at once with [ErrAlreadyRead].
func (r *Response) ReadAsync(ctx context.Context) *Pending[[]byte] {
	if !r.slot.claim() {
		return resolved[[]byte](nil, &Error{Op: "read", Err: ErrAlreadyRead})
	}
	r.cleanup.Stop()

	if _, ok := r.slot.src.(*bufferedBody); ok {
		data, err := r.slot.read(ctx)
		return resolved(data, err)
	}

	slot := r.slot
	return start(ctx, newQueue(0), func(ctx context.Context, release context.CancelFunc) ([]byte, error) {
		defer release()
		return slot.read(ctx)
	})
}

// Close discards an unread body. It is safe to call after a read.
func (r *Response) Close() {
	if r.slot.claim() {
		r.cleanup.Stop()
		r.slot.src.discard()
	}
}

// JSON reads the body and decodes it into v.
func (r *Response) JSON(v any) error {
	b, err := r.Read()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}

// Expect returns nil when the status is one of codes and leaves the body
// untouched. Otherwise it consumes the body and returns an
// [UnexpectedStatusError] carrying its first bytes.
func (r *Response) Expect(codes ...int) error {
	if slices.Contains(codes, r.status) {
		return nil
	}

	var body string
	if b, err := r.Read(); err != nil {
		body = "unable to read body"
	} else {
		if len(b) > maxErrBodySize {
			b = b[:maxErrBodySize]
		}
		body = string(b)
	}

	err := ErrUnexpectedStatusCode
	if r.status == http.StatusUnauthorized || r.status == http.StatusForbidden {
		err = errors.Join(ErrUnexpectedStatusCode, ErrAuthFailure)
	}

	return &UnexpectedStatusError{
		StatusCode: r.status,
		Body:       body,
		Err:        err,
	}
}

type bufferedBody struct {
	data []byte
	err  error
}

func (b *bufferedBody) fetch(context.Context) ([]byte, error) {
	return b.data, b.err
}

func (b *bufferedBody) discard() {}

type streamBody struct {
	rc      io.ReadCloser
	release context.CancelFunc
	logger  *slog.Logger
}

func (s *streamBody) fetch(ctx context.Context) ([]byte, error) {
	defer s.release()

	stop := context.AfterFunc(ctx, func() {
		s.rc.Close()
	})
	defer stop()

	data, err := io.ReadAll(s.rc)
	if cerr := s.rc.Close(); cerr != nil && err == nil {
		s.logger.Error("failed to close response body", "error", cerr)
	}
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, classify("read", err)
	}
	return data, nil
}

// discard closes the body without draining it, so the connection is
// not reused.
func (s *streamBody) discard() {
	defer s.release()
	if err := s.rc.Close(); err != nil {
		s.logger.Error("failed to discard unused body", "error", err)
	}
}
