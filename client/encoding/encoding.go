// Package encoding provides an [http.RoundTripper] that negotiates
// response content-encodings and transparently decodes them.
//
// Only the encodings passed to [NewRoundTripper] are advertised in
// Accept-Encoding and decoded. A response using any other encoding is
// handed back untouched, Content-Encoding header included.
//
//	rt, err := encoding.NewRoundTripper(http.DefaultTransport, encoding.Gzip, encoding.Brotli)
package encoding

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Content-Encoding tokens understood by the package.
const (
	Deflate = "deflate"
	Gzip    = "gzip"
	Brotli  = "br"
	Zstd    = "zstd"
)

// ErrUnknownEncoding is returned for a token without a registered decoder.
var ErrUnknownEncoding = errors.New("unknown content encoding")

// Decoder wraps a compressed stream with a decompressing reader.
type Decoder func(r io.Reader) (io.ReadCloser, error)

var decoders = map[string]Decoder{
	Deflate: func(r io.Reader) (io.ReadCloser, error) {
		return zlib.NewReader(r)
	},
	Gzip: func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	},
	Brotli: func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(brotli.NewReader(r)), nil
	},
	Zstd: func(r io.Reader) (io.ReadCloser, error) {
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	},
}

type decoding struct {
	accept  string
	enabled map[string]Decoder
	next    http.RoundTripper
}

// NewRoundTripper returns a RoundTripper advertising and decoding the
// given encodings, in the given preference order. With no encodings it
// returns next unchanged.
func NewRoundTripper(next http.RoundTripper, encodings ...string) (http.RoundTripper, error) {
	if len(encodings) == 0 {
		return next, nil
	}

	d := &decoding{
		accept:  strings.Join(encodings, ", "),
		enabled: make(map[string]Decoder, len(encodings)),
		next:    next,
	}
	for _, enc := range encodings {
		fn, ok := decoders[enc]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
		}
		d.enabled[enc] = fn
	}

	return d, nil
}

func (d *decoding) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("Accept-Encoding") == "" {
		r = r.Clone(r.Context())
		r.Header.Set("Accept-Encoding", d.accept)
	}

	resp, err := d.next.RoundTrip(r)
	if err != nil {
		return nil, err
	}

	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	fn, ok := d.enabled[enc]
	if !ok || resp.Body == nil || resp.Body == http.NoBody || r.Method == http.MethodHead {
		return resp, nil
	}

	resp.Body = &lazyReader{src: resp.Body, decode: fn}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true

	return resp, nil
}

// lazyReader defers decoder construction to the first Read, since some
// decoders consume the stream header eagerly and an empty body would
// otherwise fail before the caller asked for it.
type lazyReader struct {
	src    io.ReadCloser
	decode Decoder
	dec    io.ReadCloser
	err    error
}

func (l *lazyReader) Read(p []byte) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	if l.dec == nil {
		dec, err := l.decode(l.src)
		if err != nil {
			l.err = fmt.Errorf("decoding body: %w", err)
			return 0, l.err
		}
		l.dec = dec
	}
	return l.dec.Read(p)
}

func (l *lazyReader) Close() error {
	var decErr error
	if l.dec != nil {
		decErr = l.dec.Close()
	}
	return errors.Join(decErr, l.src.Close())
}
