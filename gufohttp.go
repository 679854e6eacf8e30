// Package gufohttp is a high-performance HTTP client. The engine lives in
// [github.com/gufolabs/gufohttp/client]; this package exposes the
// constructors most callers need.
package gufohttp

import (
	"fmt"

	"github.com/gufolabs/gufohttp/client"
)

// Version is the released version of the module.
const Version = client.Version

// NewClient builds a *client.Client from cfg. See [client.Build].
func NewClient(cfg client.Config, opts ...client.Option) (*client.Client, error) {
	return client.Build(cfg, opts...)
}

// NewClientFromFile loads a YAML config from path and builds a client
// from it.
func NewClientFromFile(path string, opts ...client.Option) (*client.Client, error) {
	cfg, err := client.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading client config: %w", err)
	}

	return client.Build(cfg, opts...)
}
