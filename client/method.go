package client

import (
	"fmt"
	"net/http"
)

// Method is an HTTP request verb.
type Method int

const (
	MethodGet Method = iota
	MethodHead
	MethodOptions
	MethodDelete
	MethodPost
	MethodPut
	MethodPatch
)

// String returns the wire verb, or "" for an unknown Method.
func (m Method) String() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodHead:
		return http.MethodHead
	case MethodOptions:
		return http.MethodOptions
	case MethodDelete:
		return http.MethodDelete
	case MethodPost:
		return http.MethodPost
	case MethodPut:
		return http.MethodPut
	case MethodPatch:
		return http.MethodPatch
	default:
		return ""
	}
}

func (m Method) verb() (string, error) {
	v := m.String()
	if v == "" {
		return "", newError("request", ErrInvalidValue, fmt.Sprintf("invalid method %d", int(m)))
	}
	return v, nil
}
