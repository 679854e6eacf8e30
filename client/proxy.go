package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Proxy is a validated proxy endpoint. Only values built by [NewProxy]
// are accepted by [Build].
type Proxy struct {
	u *url.URL
}

// NewProxy validates rawURL and returns a Proxy. The scheme must be
// http or https; it is checked before the URL is parsed because the
// parser accepts any scheme.
func NewProxy(rawURL string) (Proxy, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return Proxy{}, newError("proxy", ErrInvalidValue, fmt.Sprintf("invalid scheme in %q", rawURL))
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Proxy{}, &Error{Op: "proxy", Err: ErrInvalidValue, Cause: err}
	}
	if u.Host == "" {
		return Proxy{}, newError("proxy", ErrInvalidValue, fmt.Sprintf("missing host in %q", rawURL))
	}

	return Proxy{u: u}, nil
}

// URL returns a copy of the proxy URL, or nil for the zero Proxy.
func (p Proxy) URL() *url.URL {
	if p.u == nil {
		return nil
	}
	cpy := *p.u
	return &cpy
}

func (p Proxy) String() string {
	if p.u == nil {
		return "<invalid proxy>"
	}
	return p.u.Redacted()
}

type proxyResolver = func(*http.Request) (*url.URL, error)

// proxyFunc resolves the proxy for a request. Environment settings are
// never consulted. Every proxy matches all targets, so the first one wins.
func proxyFunc(proxies []Proxy) (proxyResolver, error) {
	for i, p := range proxies {
		if p.u == nil {
			return nil, newError("build", ErrInvalidType, fmt.Sprintf("proxy #%d was not created by NewProxy", i))
		}
	}

	if len(proxies) == 0 {
		return nil, nil
	}

	first := proxies[0].URL()
	return http.ProxyURL(first), nil
}
