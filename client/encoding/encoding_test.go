package encoding_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/google/go-cmp/cmp"
	"github.com/gufolabs/gufohttp/client/encoding"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

const plain = "the quick brown fox jumps over the lazy dog"

func compress(t *testing.T, enc string) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser
	switch enc {
	case encoding.Deflate:
		w = zlib.NewWriter(&buf)
	case encoding.Gzip:
		w = gzip.NewWriter(&buf)
	case encoding.Brotli:
		w = brotli.NewWriter(&buf)
	case encoding.Zstd:
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatalf("zstd writer: %v", err)
		}
		w = zw
	default:
		t.Fatalf("no compressor for %q", enc)
	}

	if _, err := w.Write([]byte(plain)); err != nil {
		t.Fatalf("compressing: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing compressor: %v", err)
	}
	return buf.Bytes()
}

func TestNewRoundTripper_UnknownEncoding(t *testing.T) {
	_, err := encoding.NewRoundTripper(http.DefaultTransport, "compress")
	if !errors.Is(err, encoding.ErrUnknownEncoding) {
		t.Fatalf("expected ErrUnknownEncoding, got: %v", err)
	}
}

func TestNewRoundTripper_NoEncodings(t *testing.T) {
	rt, err := encoding.NewRoundTripper(http.DefaultTransport)
	if err != nil {
		t.Fatal(err)
	}
	if rt != http.DefaultTransport {
		t.Error("expected next RoundTripper to be returned unchanged")
	}
}

func TestRoundTrip_Decoding(t *testing.T) {
	testCases := map[string]struct {
		enabled     []string
		served      string
		expAccept   string
		expDecoded  bool
		expEncoding string
	}{
		"gzipEnabled": {
			enabled:    []string{encoding.Gzip, encoding.Deflate},
			served:     encoding.Gzip,
			expAccept:  "gzip, deflate",
			expDecoded: true,
		},
		"deflateEnabled": {
			enabled:    []string{encoding.Gzip, encoding.Deflate},
			served:     encoding.Deflate,
			expAccept:  "gzip, deflate",
			expDecoded: true,
		},
		"brotliEnabled": {
			enabled:    []string{encoding.Brotli},
			served:     encoding.Brotli,
			expAccept:  "br",
			expDecoded: true,
		},
		"zstdEnabled": {
			enabled:    []string{encoding.Zstd, encoding.Gzip},
			served:     encoding.Zstd,
			expAccept:  "zstd, gzip",
			expDecoded: true,
		},
		"brotliNotEnabledPassesThrough": {
			enabled:     []string{encoding.Gzip, encoding.Deflate},
			served:      encoding.Brotli,
			expAccept:   "gzip, deflate",
			expEncoding: encoding.Brotli,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			payload := compress(t, tc.served)

			var gotAccept string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAccept = r.Header.Get("Accept-Encoding")
				w.Header().Set("Content-Encoding", tc.served)
				w.Write(payload)
			}))
			defer server.Close()

			tr := &http.Transport{DisableCompression: true}
			defer tr.CloseIdleConnections()

			rt, err := encoding.NewRoundTripper(tr, tc.enabled...)
			if err != nil {
				t.Fatal(err)
			}

			req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, server.URL, nil)
			if err != nil {
				t.Fatal(err)
			}
			resp, err := rt.RoundTrip(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("reading body: %v", err)
			}

			if gotAccept != tc.expAccept {
				t.Errorf("expected Accept-Encoding %q, got %q", tc.expAccept, gotAccept)
			}
			if got := resp.Header.Get("Content-Encoding"); got != tc.expEncoding {
				t.Errorf("expected Content-Encoding %q, got %q", tc.expEncoding, got)
			}

			exp := payload
			if tc.expDecoded {
				exp = []byte(plain)
			}
			if diff := cmp.Diff(exp, body); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip_KeepsCallerAcceptEncoding(t *testing.T) {
	var gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept-Encoding")
	}))
	defer server.Close()

	rt, err := encoding.NewRoundTripper(&http.Transport{DisableCompression: true}, encoding.Gzip)
	if err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if gotAccept != "identity" {
		t.Errorf("expected caller Accept-Encoding to be kept, got %q", gotAccept)
	}
}

func TestRoundTrip_CorruptBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", encoding.Gzip)
		w.Write([]byte("definitely not gzip"))
	}))
	defer server.Close()

	rt, err := encoding.NewRoundTripper(&http.Transport{DisableCompression: true}, encoding.Gzip)
	if err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("expected headers to arrive, got: %v", err)
	}
	defer resp.Body.Close()

	if _, err := io.ReadAll(resp.Body); err == nil {
		t.Error("expected decoding error while reading body")
	}
}
