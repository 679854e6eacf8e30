package client_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gufolabs/gufohttp/client"
)

func TestHeaders_Lookup(t *testing.T) {
	h := client.NewHeaders(
		client.Header{Name: "Content-Type", Value: []byte("text/plain")},
		client.Header{Name: "X-Trace", Value: []byte("first")},
		client.Header{Name: "x-trace", Value: []byte("second")},
	)

	testCases := map[string]struct {
		name     string
		expValue []byte
		expFound bool
	}{
		"exactCase":      {name: "Content-Type", expValue: []byte("text/plain"), expFound: true},
		"lowerCase":      {name: "content-type", expValue: []byte("text/plain"), expFound: true},
		"firstDuplicate": {name: "X-TRACE", expValue: []byte("first"), expFound: true},
		"missing":        {name: "Accept"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, ok := h.Get(tc.name)
			if ok != tc.expFound {
				t.Fatalf("expected found=%v, got %v", tc.expFound, ok)
			}
			if diff := cmp.Diff(tc.expValue, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
			if h.Has(tc.name) != tc.expFound {
				t.Errorf("Has(%q) disagrees with Get", tc.name)
			}

			_, err := h.Value(tc.name)
			if tc.expFound && err != nil {
				t.Errorf("expected nil err, got: %v", err)
			}
			if !tc.expFound && !errors.Is(err, client.ErrHeaderNotFound) {
				t.Errorf("expected ErrHeaderNotFound, got: %v", err)
			}
		})
	}
}

func TestHeaders_GetDefault(t *testing.T) {
	h := client.NewHeaders(client.Header{Name: "A", Value: []byte("1")})

	if got := string(h.GetDefault("a", []byte("x"))); got != "1" {
		t.Errorf("expected stored value, got %q", got)
	}
	if got := string(h.GetDefault("b", []byte("x"))); got != "x" {
		t.Errorf("expected default, got %q", got)
	}
}

func TestHeaders_Iteration(t *testing.T) {
	var h client.Headers
	h.Add("B", []byte("2"))
	h.Add("A", []byte("1"))
	h.Add("B", []byte("3"))

	if h.Len() != 3 {
		t.Fatalf("expected 3 pairs, got %d", h.Len())
	}

	if diff := cmp.Diff([]string{"B", "A", "B"}, slices.Collect(h.Keys())); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	var values []string
	for v := range h.Values() {
		values = append(values, string(v))
	}
	if diff := cmp.Diff([]string{"2", "1", "3"}, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	var items []string
	for k, v := range h.Items() {
		items = append(items, k+"="+string(v))
	}
	if diff := cmp.Diff([]string{"B=2", "A=1", "B=3"}, items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaders_Snapshot(t *testing.T) {
	var h client.Headers
	h.Add("A", []byte("1"))

	keys := h.Keys()
	h.Add("B", []byte("2"))

	if got := slices.Collect(keys); len(got) != 1 {
		t.Errorf("expected iterator to see the pairs present when it was created, got %v", got)
	}
}

func TestHeaders_CopiesValues(t *testing.T) {
	value := []byte("original")
	var h client.Headers
	h.Add("A", value)
	value[0] = 'X'

	got, _ := h.Get("A")
	if string(got) != "original" {
		t.Fatalf("Add must copy the value, got %q", got)
	}

	got[0] = 'Y'
	again, _ := h.Get("A")
	if string(again) != "original" {
		t.Errorf("Get must return a copy, got %q", again)
	}

	clone := h.Clone()
	clone.Add("B", []byte("2"))
	if h.Len() != 1 {
		t.Errorf("Clone must be independent, original has %d pairs", h.Len())
	}
}
