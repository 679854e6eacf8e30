package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gufolabs/gufohttp/client/encoding"
	"gopkg.in/yaml.v3"
)

// Version of the package, used in the default User-Agent.
const Version = "0.4.0"

// Defaults applied by [DefaultConfig].
const (
	DefaultMaxRedirect    = 10
	DefaultConnectTimeout = 30 * time.Second
	DefaultTimeout        = time.Hour
	DefaultUserAgent      = "gufohttp/" + Version
	DefaultCompression    = Deflate | Gzip | Brotli
)

// Config describes the transport behaviour of a [Client]. It is consumed
// once by [Build] and not retained.
type Config struct {
	// SkipCertValidation disables TLS certificate verification. The zero
	// value keeps verification on.
	SkipCertValidation bool `yaml:"insecure_skip_verify"`
	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gt=0"`
	// Timeout bounds the whole request, body transfer included.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	// MaxRedirect caps followed redirects. Nil forbids following any:
	// the 3xx response is returned as is.
	MaxRedirect *int `yaml:"max_redirect" validate:"omitempty,gte=0"`
	// Headers are sent with every request, ahead of per-request headers.
	Headers Headers `yaml:"-"`
	// Compression selects the negotiated content-encodings.
	Compression Compression `yaml:"compression"`
	// UserAgent replaces the transport's default identification string.
	UserAgent string `yaml:"user_agent"`
	// Auth is attached to every request.
	Auth AuthMethod `yaml:"-"`
	// Proxies are the only proxies used; the environment is ignored.
	Proxies []Proxy `yaml:"-"`
}

// DefaultConfig returns a Config with certificate validation on,
// a 30s connect timeout, a 1h request timeout, up to 10 redirects,
// deflate, gzip and brotli decoding and the package User-Agent.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: DefaultConnectTimeout,
		Timeout:        DefaultTimeout,
		MaxRedirect:    Redirects(DefaultMaxRedirect),
		Compression:    DefaultCompression,
		UserAgent:      DefaultUserAgent,
	}
}

// Redirects returns a MaxRedirect value allowing n hops.
func Redirects(n int) *int {
	return &n
}

// yamlConfig mirrors Config with string durations and named values.
type yamlConfig struct {
	ValidateCert   *bool             `yaml:"validate_cert"`
	SkipVerify     *bool             `yaml:"insecure_skip_verify"`
	ConnectTimeout string            `yaml:"connect_timeout"`
	Timeout        string            `yaml:"timeout"`
	MaxRedirect    yaml.Node         `yaml:"max_redirect"`
	Headers        map[string]string `yaml:"headers"`
	Compression    []string          `yaml:"compression"`
	UserAgent      string            `yaml:"user_agent"`
	Auth           *yamlAuth         `yaml:"auth"`
	Proxies        []string          `yaml:"proxies"`
}

type yamlAuth struct {
	Type     string  `yaml:"type"`
	User     string  `yaml:"user"`
	Password *string `yaml:"password"`
	Token    string  `yaml:"token"`
}

// LoadConfigFile loads a Config from a YAML file. See [LoadConfig].
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	return LoadConfig(bytes.NewReader(data))
}

// LoadConfig parses YAML into a Config, starting from [DefaultConfig].
// Durations use time.ParseDuration syntax, `max_redirect: null` forbids
// redirects, compression lists encoding names (deflate, gzip, br, zstd)
// and auth is `{type: basic, user, password}` or `{type: bearer, token}`.
// Certificate checks are turned off by `validate_cert: false` or
// `insecure_skip_verify: true`.
func LoadConfig(r io.Reader) (Config, error) {
	var yc yamlConfig
	if err := yaml.NewDecoder(r).Decode(&yc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := DefaultConfig()

	if yc.ValidateCert != nil {
		cfg.SkipCertValidation = !*yc.ValidateCert
	}
	if yc.SkipVerify != nil {
		cfg.SkipCertValidation = *yc.SkipVerify
	}
	if yc.ConnectTimeout != "" {
		d, err := time.ParseDuration(yc.ConnectTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}

	switch {
	case yc.MaxRedirect.Kind == 0:
	case yc.MaxRedirect.ShortTag() == "!!null":
		cfg.MaxRedirect = nil
	default:
		var n int
		if err := yc.MaxRedirect.Decode(&n); err != nil {
			return Config{}, fmt.Errorf("parse max_redirect: %w", err)
		}
		cfg.MaxRedirect = &n
	}

	if len(yc.Headers) > 0 {
		var h Headers
		for _, name := range slices.Sorted(maps.Keys(yc.Headers)) {
			h.Add(name, []byte(yc.Headers[name]))
		}
		cfg.Headers = h
	}

	if yc.Compression != nil {
		c, err := parseCompression(yc.Compression)
		if err != nil {
			return Config{}, err
		}
		cfg.Compression = c
	}

	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}

	if yc.Auth != nil {
		a, err := yc.Auth.method()
		if err != nil {
			return Config{}, err
		}
		cfg.Auth = a
	}

	for _, raw := range yc.Proxies {
		p, err := NewProxy(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse proxies: %w", err)
		}
		cfg.Proxies = append(cfg.Proxies, p)
	}

	return cfg, nil
}

func (ya *yamlAuth) method() (AuthMethod, error) {
	switch strings.ToLower(ya.Type) {
	case "", "none":
		return NoAuth(), nil
	case "basic":
		a := BasicAuth(ya.User)
		if ya.Password != nil {
			a = a.WithPassword(*ya.Password)
		}
		return a, nil
	case "bearer":
		return BearerAuth(ya.Token), nil
	default:
		return AuthMethod{}, newError("config", ErrInvalidType, fmt.Sprintf("unsupported auth type %q", ya.Type))
	}
}

func parseCompression(names []string) (Compression, error) {
	var c Compression
	for _, name := range names {
		switch strings.ToLower(name) {
		case encoding.Deflate:
			c |= Deflate
		case encoding.Gzip:
			c |= Gzip
		case encoding.Brotli, "brotli":
			c |= Brotli
		case encoding.Zstd:
			c |= Zstd
		default:
			return 0, newError("config", ErrInvalidValue, fmt.Sprintf("unknown compression %q", name))
		}
	}
	return c, nil
}
