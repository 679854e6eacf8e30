package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Request sends method to rawURL and blocks until the response, body
// included, has arrived. A failure while the body is transferred is kept
// and returned by [Response.Read].
func (c *Client) Request(ctx context.Context, method Method, rawURL string, opts ...RequestOption) (*Response, error) {
	req, err := c.compose(ctx, method, rawURL, opts...)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	return newBufferedResponse(req.Method, resp, c.logger, c.metrics), nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, MethodGet, rawURL, opts...)
}

// Head sends a HEAD request.
func (c *Client) Head(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, MethodHead, rawURL, opts...)
}

// Options sends an OPTIONS request.
func (c *Client) Options(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, MethodOptions, rawURL, opts...)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, MethodDelete, rawURL, opts...)
}

// Post sends a POST request carrying body.
func (c *Client) Post(ctx context.Context, rawURL string, body []byte, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, MethodPost, rawURL, append([]RequestOption{WithBody(body)}, opts...)...)
}

// Put sends a PUT request carrying body.
func (c *Client) Put(ctx context.Context, rawURL string, body []byte, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, MethodPut, rawURL, append([]RequestOption{WithBody(body)}, opts...)...)
}

// Patch sends a PATCH request carrying body.
func (c *Client) Patch(ctx context.Context, rawURL string, body []byte, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, MethodPatch, rawURL, append([]RequestOption{WithBody(body)}, opts...)...)
}

// compose builds the outgoing request. Default headers go first, then
// the per-request ones, then the auth credential; all of them are sent.
func (c *Client) compose(ctx context.Context, method Method, rawURL string, opts ...RequestOption) (*http.Request, error) {
	var settings requestOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, &Error{Op: "request", Err: ErrInvalidValue, Cause: err}
		}
	}

	verb, err := method.verb()
	if err != nil {
		return nil, err
	}

	if err := settings.headers.validate("request"); err != nil {
		return nil, err
	}

	var body io.Reader
	if settings.hasBody {
		body = bytes.NewReader(settings.body)
	}

	req, err := http.NewRequestWithContext(ctx, verb, rawURL, body)
	if err != nil {
		return nil, &Error{Op: "request", Err: ErrInvalidValue, Cause: unwrapURLError(err)}
	}
	if req.URL.Scheme == "" || req.URL.Host == "" {
		return nil, newError("request", ErrInvalidValue, "url must be absolute: "+req.URL.Redacted())
	}

	c.headers.applyTo(req.Header)
	settings.headers.applyTo(req.Header)
	c.auth.apply(req.Header)

	return req, nil
}

// send runs req through the transport chain inside a client span.
// The response body is left open for the caller.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	ctx, span := c.tracer.Start(req.Context(), "gufohttp.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.Redacted()),
		),
	)
	defer span.End()

	requestID := span.SpanContext().TraceID().String()
	if !span.SpanContext().TraceID().IsValid() {
		requestID = uuid.New().String()
	}

	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	done := c.metrics.Start(req.Method)
	start := time.Now()

	resp, err := c.hc.Do(req)
	if err != nil {
		err = classify("request", err)
		done(0, errKind(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("request failed",
			"request_id", requestID,
			"method", req.Method,
			"url", req.URL.Redacted(),
			"took", time.Since(start).String(),
			"error", err,
		)
		return nil, err
	}

	done(resp.StatusCode, "")
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug("request sent",
		"request_id", requestID,
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"took", time.Since(start).String(),
	)

	return resp, nil
}

// errKind names the sentinel of err for metric labels.
func errKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConnect):
		return "connect"
	case errors.Is(err, ErrRedirect):
		return "redirect"
	case errors.Is(err, ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, ErrInvalidType):
		return "invalid_type"
	case errors.Is(err, ErrAlreadyRead):
		return "already_read"
	case errors.Is(err, ErrShutdown):
		return "shutdown"
	default:
		return "request"
	}
}
