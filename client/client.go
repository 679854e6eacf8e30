package client

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gufolabs/gufohttp/client/encoding"
	"github.com/gufolabs/gufohttp/client/metrics"
	"github.com/gufolabs/gufohttp/client/throttle"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/net/http2"
)

// errRedirectLimit is returned by the redirect policy and classified as [ErrRedirect].
var errRedirectLimit = errors.New("redirect limit reached")

// Client owns a configured transport and an auth method. It is
// immutable after [Build] and safe for concurrent use.
type Client struct {
	hc      *http.Client
	auth    AuthMethod
	headers Headers
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Collector
	queue   *queue
}

// Build resolves cfg into a Client. Any invalid setting aborts the build
// and no Client is returned.
func Build(cfg Config, optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if err := validateStruct(cfg); err != nil {
		return nil, &Error{Op: "build", Err: ErrInvalidValue, Cause: err}
	}

	client := &Client{
		auth:   cfg.Auth,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("no-op tracer"),
		queue:  newQueue(opts.maxConcurrency),
	}
	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	hc := &http.Client{
		Timeout:       cfg.Timeout,
		CheckRedirect: redirectPolicy(cfg.MaxRedirect),
	}

	if err := cfg.Headers.validate("build"); err != nil {
		return nil, err
	}
	client.headers = cfg.Headers.Clone()

	proxy, err := proxyFunc(cfg.Proxies)
	if err != nil {
		return nil, err
	}

	if cfg.UserAgent != "" && !httpguts.ValidHeaderFieldValue(cfg.UserAgent) {
		return nil, newError("build", ErrInvalidValue, fmt.Sprintf("invalid user agent %q", cfg.UserAgent))
	}

	if err := cfg.Auth.validate(); err != nil {
		return nil, err
	}

	var transport http.RoundTripper
	if opts.rt != nil {
		transport = opts.rt
	} else {
		t, err := newTransport(cfg, proxy)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	transport, err = encoding.NewRoundTripper(transport, cfg.Compression.encodings()...)
	if err != nil {
		return nil, &Error{Op: "build", Err: ErrInvalidValue, Cause: err}
	}
	if cfg.UserAgent != "" {
		transport = userAgent{value: cfg.UserAgent, base: transport}
	}
	if opts.throttle != nil {
		transport, err = throttle.NewRoundTripper(*opts.throttle, client.logger, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
	}
	hc.Transport = transport
	client.hc = hc

	if opts.registerer != nil {
		client.metrics = metrics.New(opts.registerer)
	}

	client.logger.Debug("client built",
		"skip_cert_validation", cfg.SkipCertValidation,
		"connect_timeout", cfg.ConnectTimeout.String(),
		"timeout", cfg.Timeout.String(),
		"compression", cfg.Compression.encodings(),
		"proxies", len(cfg.Proxies),
		"auth", cfg.Auth.String(),
	)

	return client, nil
}

// Headers returns a copy of the default headers sent with every request.
func (c *Client) Headers() Headers {
	return c.headers.Clone()
}

// Auth returns the auth method applied to every request.
func (c *Client) Auth() AuthMethod {
	return c.auth
}

// newTransport builds the base transport: explicit proxies only, bounded
// connection setup, HTTP/2 and no built-in gzip handling.
func newTransport(cfg Config, proxy proxyResolver) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	t := &http.Transport{
		Proxy:       proxy,
		DialContext: dialer.DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.SkipCertValidation, //nolint:gosec // explicit opt-out via Config.SkipCertValidation
		},
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		DisableCompression:    true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	if _, err := http2.ConfigureTransports(t); err != nil {
		return nil, &Error{Op: "build", Err: ErrInvalidValue, Detail: "configuring http2", Cause: err}
	}

	return t, nil
}

// redirectPolicy returns the CheckRedirect hook for maxHops. A nil
// maxHops hands the 3xx response back without following Location.
func redirectPolicy(maxHops *int) func(*http.Request, []*http.Request) error {
	if maxHops == nil {
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	limit := *maxHops
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return fmt.Errorf("%w: stopped after %d redirects", errRedirectLimit, limit)
		}
		return nil
	}
}

// userAgent is an http.RoundTripper supplying the configured User-Agent
// when the request carries none.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") != "" {
		return ua.base.RoundTrip(r)
	}
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}
