package client

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gufolabs/gufohttp/client/throttle"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for the runtime collaborators of a
// [Client] built by [Build]. Transport behaviour lives in [Config].
type Option func(*options) error
type options struct {
	rt             http.RoundTripper
	throttle       *throttle.Config
	logger         *slog.Logger
	tracer         trace.Tracer
	registerer     prometheus.Registerer
	maxConcurrency int
}

// WithTransport replaces the base [http.Transport] built from [Config].
// Certificate, timeout and proxy settings only apply to the built
// transport, so they are ignored when a custom one is supplied.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer records a span for every dispatch.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithMetrics registers the client's Prometheus collectors on reg.
// Registering two clients on one registerer panics, as with any
// duplicate Prometheus collector.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) error {
		if reg == nil {
			return errors.New("registerer must not be nil")
		}
		o.registerer = reg
		return nil
	}
}

// WithMaxConcurrency caps the number of async dispatches in flight.
// Zero, the default, means unlimited.
func WithMaxConcurrency(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.New("max concurrency must not be negative")
		}
		o.maxConcurrency = n
		return nil
	}
}

// RequestOption is a functional option for a single dispatch.
type RequestOption func(*requestOpts) error

type requestOpts struct {
	headers Headers
	body    []byte
	hasBody bool
}

// WithHeaders adds headers to the outgoing request. They are sent in
// addition to the client's default headers, never instead of them.
func WithHeaders(h Headers) RequestOption {
	h = h.Clone()
	return func(opts *requestOpts) error {
		for name, value := range h.Items() {
			opts.headers.Add(name, value)
		}
		return nil
	}
}

// WithHeader adds a single header to the outgoing request.
func WithHeader(name string, value []byte) RequestOption {
	value = bytes.Clone(value)
	return func(opts *requestOpts) error {
		opts.headers.Add(name, value)
		return nil
	}
}

// WithBody sets the raw request payload. The bytes are copied and sent
// as is; no Content-Type is implied.
func WithBody(body []byte) RequestOption {
	body = bytes.Clone(body)
	return func(opts *requestOpts) error {
		opts.body = body
		opts.hasBody = true
		return nil
	}
}
