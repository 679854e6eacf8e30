package client

import (
	"encoding/base64"
	"fmt"
	"net/http"
)

type authKind uint8

const (
	authNone authKind = iota
	authBasic
	authBearer
)

// AuthMethod is the credential strategy of a [Client]. It is a closed set:
// the zero value means no authentication, [BasicAuth] and [BearerAuth]
// build the other variants.
type AuthMethod struct {
	kind        authKind
	user        string
	password    string
	hasPassword bool
	token       string
}

// NoAuth disables authentication. It equals the zero value.
func NoAuth() AuthMethod {
	return AuthMethod{}
}

// BasicAuth authenticates with a user name and no password.
// Use [AuthMethod.WithPassword] to add one.
func BasicAuth(user string) AuthMethod {
	return AuthMethod{kind: authBasic, user: user}
}

// BearerAuth authenticates with an opaque bearer token.
func BearerAuth(token string) AuthMethod {
	return AuthMethod{kind: authBearer, token: token}
}

// WithPassword returns a copy of a basic auth method carrying password.
// Other variants are returned unchanged.
func (a AuthMethod) WithPassword(password string) AuthMethod {
	if a.kind != authBasic {
		return a
	}
	a.password = password
	a.hasPassword = true
	return a
}

// IsNone reports whether no authentication is configured.
func (a AuthMethod) IsNone() bool {
	return a.kind == authNone
}

// Password returns the basic auth password and whether one was set.
func (a AuthMethod) Password() (string, bool) {
	return a.password, a.hasPassword
}

func (a AuthMethod) String() string {
	switch a.kind {
	case authNone:
		return "none"
	case authBasic:
		return "basic"
	case authBearer:
		return "bearer"
	default:
		return fmt.Sprintf("auth(%d)", a.kind)
	}
}

func (a AuthMethod) validate() error {
	switch a.kind {
	case authNone, authBasic, authBearer:
		return nil
	default:
		return newError("build", ErrInvalidType, "auth must be one of none, basic or bearer, got "+a.String())
	}
}

// credential returns the Authorization header value, or "" for none.
// An absent basic password is sent as an empty one.
func (a AuthMethod) credential() string {
	switch a.kind {
	case authBasic:
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(a.user+":"+a.password))
	case authBearer:
		return "Bearer " + a.token
	default:
		return ""
	}
}

// apply appends the credential so it is sent next to, and never replaced
// by, a caller-supplied Authorization header.
func (a AuthMethod) apply(h http.Header) {
	if cred := a.credential(); cred != "" {
		h.Add("Authorization", cred)
	}
}
