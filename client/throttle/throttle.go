package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the sustained requests per second and the burst capacity.
type Config struct {
	RPS   int
	Burst int
}

func (c Config) validate() error {
	if c.RPS <= 0 || c.Burst <= 0 {
		return fmt.Errorf("rps[%d] and burst[%d] %w", c.RPS, c.Burst, ErrMustNotBeZero)
	}
	return nil
}

// throttle shares one limiter across every dispatch of a client.
type throttle struct {
	limiter *rate.Limiter
	cfg     Config
	next    http.RoundTripper
	logger  *slog.Logger
}

// NewRoundTripper wraps next with a limiter built from cfg. A nil logger
// disables the exhaustion log lines.
func NewRoundTripper(cfg Config, logger *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if next == nil {
		next = http.DefaultTransport
	}

	return &throttle{
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cfg:     cfg,
		next:    next,
		logger:  logger,
	}, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	if t.limiter.Allow() {
		return t.next.RoundTrip(r)
	}

	if t.logger != nil {
		t.logger.Info("throttle tokens exhausted", "rate", t.cfg.RPS, "burst", t.cfg.Burst, "method", r.Method, "host", r.URL.Host)
	}

	start := time.Now()
	err := t.limiter.Wait(ctx)
	waited := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w after %s: %w", ErrWaitingFailed, waited, err)
	}

	if t.logger != nil {
		t.logger.Info("throttle wait complete", "waited", waited.String(), "host", r.URL.Host)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return t.next.RoundTrip(r)
}
