package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrShutdown is returned for async dispatches started after
// [AsyncClient.Shutdown].
var ErrShutdown = fmt.Errorf("%w: client shut down", ErrHTTP)

// Pending is an in-flight or completed async operation.
type Pending[T any] struct {
	mu     sync.Mutex // guards closing done against cancel
	done   chan struct{}
	val    T
	err    error
	cancel context.CancelFunc
}

// resolved returns a Pending that is already complete.
func resolved[T any](val T, err error) *Pending[T] {
	done := make(chan struct{})
	close(done)
	return &Pending[T]{done: done, val: val, err: err, cancel: func() {}}
}

// Done returns a channel that is closed when the operation completes.
func (p *Pending[T]) Done() <-chan struct{} { return p.done }

// Result blocks until the operation completes.
func (p *Pending[T]) Result() (T, error) {
	<-p.done
	return p.val, p.err
}

// Wait is Result bounded by ctx. Giving up on the wait does not cancel
// the operation; use Cancel for that.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel aborts the operation. It is a no-op once it has completed: a
// resolved Response keeps its body readable.
func (p *Pending[T]) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.done:
	default:
		p.cancel()
	}
}

func (p *Pending[T]) complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.done)
}

// queue runs async work with an optional concurrency cap and collects
// the errors of failed work for a batch-level Wait.
type queue struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      chan struct{}
	shutdown atomic.Bool
	errs     []error
}

// newQueue creates a queue. If maxConcurrent <= 0, concurrency is unlimited.
func newQueue(maxConcurrent int) *queue {
	q := &queue{}
	if maxConcurrent > 0 {
		q.sem = make(chan struct{}, maxConcurrent)
	}
	return q
}

// wait blocks until all started work completes and returns the errors
// collected since the previous wait, joined.
func (q *queue) wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	err := errors.Join(q.errs...)
	q.errs = nil
	return err
}

func (q *queue) recordErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errs = append(q.errs, err)
}

// work receives a cancellable context and the function releasing it.
// Ownership of release passes to work, which must call it once the
// context is no longer needed; a streamed response body keeps it alive
// past the return.
type work[T any] func(ctx context.Context, release context.CancelFunc) (T, error)

// start launches fn in a new goroutine managed by q.
func start[T any](ctx context.Context, q *queue, fn work[T]) *Pending[T] {
	ctx, cancel := context.WithCancel(ctx)
	p := &Pending[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	q.wg.Add(1)
	go func() {
		defer func() {
			p.complete()
			q.wg.Done()
		}()

		if q.sem != nil {
			select {
			case q.sem <- struct{}{}:
				defer func() {
					<-q.sem
				}()
			case <-ctx.Done():
				cancel()
				p.err = classify("dispatch", ctx.Err())
				q.recordErr(p.err)
				return
			}
		}

		if q.shutdown.Load() {
			cancel()
			p.err = &Error{Op: "dispatch", Err: ErrShutdown}
			q.recordErr(p.err)
			return
		}

		p.val, p.err = fn(ctx, cancel)
		if p.err != nil {
			q.recordErr(p.err)
		}
	}()

	return p
}

// AsyncClient dispatches requests without blocking the caller. Each
// request is composed on the calling goroutine, so the body and header
// options are owned before the call returns, and sent from its own
// goroutine.
type AsyncClient struct {
	c *Client
}

// Async returns the non-blocking view of c. Every view of one Client
// shares its concurrency cap and batch state.
func (c *Client) Async() *AsyncClient {
	return &AsyncClient{c: c}
}

// Request dispatches method to rawURL. Compose errors such as an invalid
// URL resolve the Pending immediately.
func (a *AsyncClient) Request(ctx context.Context, method Method, rawURL string, opts ...RequestOption) *Pending[*Response] {
	req, err := a.c.compose(ctx, method, rawURL, opts...)
	if err != nil {
		a.c.queue.recordErr(err)
		return resolved[*Response](nil, err)
	}

	return start(ctx, a.c.queue, func(ctx context.Context, release context.CancelFunc) (*Response, error) {
		resp, err := a.c.send(req.WithContext(ctx))
		if err != nil {
			release()
			return nil, err
		}
		return newStreamedResponse(req.Method, resp, release, a.c.logger, a.c.metrics), nil
	})
}

// Get dispatches a GET request.
func (a *AsyncClient) Get(ctx context.Context, rawURL string, opts ...RequestOption) *Pending[*Response] {
	return a.Request(ctx, MethodGet, rawURL, opts...)
}

// Head dispatches a HEAD request.
func (a *AsyncClient) Head(ctx context.Context, rawURL string, opts ...RequestOption) *Pending[*Response] {
	return a.Request(ctx, MethodHead, rawURL, opts...)
}

// Options dispatches an OPTIONS request.
func (a *AsyncClient) Options(ctx context.Context, rawURL string, opts ...RequestOption) *Pending[*Response] {
	return a.Request(ctx, MethodOptions, rawURL, opts...)
}

// Delete dispatches a DELETE request.
func (a *AsyncClient) Delete(ctx context.Context, rawURL string, opts ...RequestOption) *Pending[*Response] {
	return a.Request(ctx, MethodDelete, rawURL, opts...)
}

// Post dispatches a POST request carrying body.
func (a *AsyncClient) Post(ctx context.Context, rawURL string, body []byte, opts ...RequestOption) *Pending[*Response] {
	return a.Request(ctx, MethodPost, rawURL, append([]RequestOption{WithBody(body)}, opts...)...)
}

// Put dispatches a PUT request carrying body.
func (a *AsyncClient) Put(ctx context.Context, rawURL string, body []byte, opts ...RequestOption) *Pending[*Response] {
	return a.Request(ctx, MethodPut, rawURL, append([]RequestOption{WithBody(body)}, opts...)...)
}

// Patch dispatches a PATCH request carrying body.
func (a *AsyncClient) Patch(ctx context.Context, rawURL string, body []byte, opts ...RequestOption) *Pending[*Response] {
	return a.Request(ctx, MethodPatch, rawURL, append([]RequestOption{WithBody(body)}, opts...)...)
}

// Wait blocks until every dispatch started so far completes and returns
// the failures collected since the previous Wait, joined.
func (a *AsyncClient) Wait() error {
	return a.c.queue.wait()
}

// Shutdown makes dispatches that have not yet started fail with
// [ErrShutdown]. Dispatches already sent are not interrupted.
func (a *AsyncClient) Shutdown() {
	a.c.queue.shutdown.Store(true)
}
