package client

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// ErrHeaderNotFound is returned by [Headers.Value] when no header matches.
var ErrHeaderNotFound = errors.New("header not found")

// Header is a single name/value pair. Value is an opaque byte sequence
// and is not required to be valid text.
type Header struct {
	Name  string
	Value []byte
}

// Headers is an ordered, case-insensitive multimap of header fields.
// Lookups return the first match; iteration follows insertion order.
// Accessors hand out copies, so a Headers value can be shared by readers
// without coordination once it is no longer being built.
type Headers struct {
	entries []Header
}

// NewHeaders builds Headers from pairs, keeping their order.
func NewHeaders(pairs ...Header) Headers {
	var h Headers
	for _, p := range pairs {
		h.Add(p.Name, p.Value)
	}
	return h
}

// headersFromHTTP converts transport-populated headers. Go's transport
// does not keep wire order, so names are sorted and each name keeps the
// order its values were received in.
func headersFromHTTP(src http.Header) Headers {
	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	slices.Sort(names)

	h := Headers{entries: make([]Header, 0, len(src))}
	for _, name := range names {
		for _, v := range src[name] {
			h.entries = append(h.entries, Header{Name: name, Value: []byte(v)})
		}
	}
	return h
}

// Add appends a header. It never replaces an existing one.
func (h *Headers) Add(name string, value []byte) {
	h.entries = append(h.entries, Header{Name: name, Value: bytes.Clone(value)})
}

// Len returns the number of stored pairs, duplicates included.
func (h Headers) Len() int {
	return len(h.entries)
}

// Get returns the value of the first header matching name.
func (h Headers) Get(name string) ([]byte, bool) {
	for _, e := range h.entries {
		if strings.EqualFold(e.Name, name) {
			return bytes.Clone(e.Value), true
		}
	}
	return nil, false
}

// Value is the indexed lookup: it fails with [ErrHeaderNotFound]
// when name is missing.
func (h Headers) Value(name string) ([]byte, error) {
	v, ok := h.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHeaderNotFound, name)
	}
	return v, nil
}

// GetDefault returns the first value for name, or def when missing.
func (h Headers) GetDefault(name string, def []byte) []byte {
	if v, ok := h.Get(name); ok {
		return v
	}
	return def
}

// Has reports whether a header with the given name exists.
func (h Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Keys yields header names in order. The sequence is a snapshot taken
// when Keys is called.
func (h Headers) Keys() iter.Seq[string] {
	snap := h.snapshot()
	return func(yield func(string) bool) {
		for _, e := range snap {
			if !yield(e.Name) {
				return
			}
		}
	}
}

// Values yields header values in order, from a snapshot taken at call time.
func (h Headers) Values() iter.Seq[[]byte] {
	snap := h.snapshot()
	return func(yield func([]byte) bool) {
		for _, e := range snap {
			if !yield(e.Value) {
				return
			}
		}
	}
}

// Items yields name/value pairs in order, from a snapshot taken at call time.
func (h Headers) Items() iter.Seq2[string, []byte] {
	snap := h.snapshot()
	return func(yield func(string, []byte) bool) {
		for _, e := range snap {
			if !yield(e.Name, e.Value) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (h Headers) Clone() Headers {
	return Headers{entries: h.snapshot()}
}

func (h Headers) snapshot() []Header {
	out := make([]Header, len(h.entries))
	for i, e := range h.entries {
		out[i] = Header{Name: e.Name, Value: bytes.Clone(e.Value)}
	}
	return out
}

// validate checks every pair against the field-name and field-value grammar.
func (h Headers) validate(op string) error {
	for _, e := range h.entries {
		if !httpguts.ValidHeaderFieldName(e.Name) {
			return newError(op, ErrInvalidValue, fmt.Sprintf("invalid header name %q (value %q)", e.Name, e.Value))
		}
		if !httpguts.ValidHeaderFieldValue(string(e.Value)) {
			return newError(op, ErrInvalidValue, fmt.Sprintf("invalid value %q for header %q", e.Value, e.Name))
		}
	}
	return nil
}

// applyTo appends every pair to dst.
func (h Headers) applyTo(dst http.Header) {
	for _, e := range h.entries {
		dst.Add(e.Name, string(e.Value))
	}
}
