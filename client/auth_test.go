package client

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAuthMethod_Apply(t *testing.T) {
	testCases := map[string]struct {
		auth    AuthMethod
		preset  []string
		expAuth []string
	}{
		"none": {
			auth: NoAuth(),
		},
		"zeroValueIsNone": {
			auth: AuthMethod{},
		},
		"basicWithoutPassword": {
			auth:    BasicAuth("scott"),
			expAuth: []string{"Basic c2NvdHQ6"},
		},
		"basicWithPassword": {
			auth:    BasicAuth("scott").WithPassword("tiger"),
			expAuth: []string{"Basic c2NvdHQ6dGlnZXI="},
		},
		"bearer": {
			auth:    BearerAuth("12345"),
			expAuth: []string{"Bearer 12345"},
		},
		"bearerAlongsideCaller": {
			auth:    BearerAuth("12345"),
			preset:  []string{"Custom xyz"},
			expAuth: []string{"Custom xyz", "Bearer 12345"},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			h := http.Header{}
			for _, v := range tc.preset {
				h.Add("Authorization", v)
			}

			tc.auth.apply(h)

			if diff := cmp.Diff(tc.expAuth, h.Values("Authorization")); diff != "" {
				t.Errorf("Authorization mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAuthMethod_WithPasswordOnlyForBasic(t *testing.T) {
	a := BearerAuth("t").WithPassword("p")
	if _, ok := a.Password(); ok {
		t.Error("bearer auth must not carry a password")
	}

	b := BasicAuth("u").WithPassword("")
	if p, ok := b.Password(); !ok || p != "" {
		t.Errorf("expected empty password to be set, got %q, %v", p, ok)
	}
}

func TestBuild_InvalidAuthVariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth = AuthMethod{kind: 42}

	_, err := Build(cfg)
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got: %v", err)
	}
	if !errors.Is(err, ErrHTTP) {
		t.Errorf("expected ErrHTTP in chain, got: %v", err)
	}
}
