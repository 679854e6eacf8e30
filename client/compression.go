package client

import "github.com/gufolabs/gufohttp/client/encoding"

// Compression is a bitmask of content-encodings the client negotiates
// and transparently decodes. Bits outside the known set are ignored.
type Compression uint8

const (
	Deflate Compression = 1 << iota
	Gzip
	Brotli
	Zstd
)

// Has reports whether every bit of c2 is set in c.
func (c Compression) Has(c2 Compression) bool {
	return c&c2 == c2
}

// encodings lists the Content-Encoding tokens enabled by c,
// in Accept-Encoding preference order.
func (c Compression) encodings() []string {
	var out []string
	if c.Has(Zstd) {
		out = append(out, encoding.Zstd)
	}
	if c.Has(Brotli) {
		out = append(out, encoding.Brotli)
	}
	if c.Has(Gzip) {
		out = append(out, encoding.Gzip)
	}
	if c.Has(Deflate) {
		out = append(out, encoding.Deflate)
	}
	return out
}
