// Package e2e holds integration tests that drive the public gufohttp API
// against local servers. Run them with `go test -tags integration ./e2e`.
package e2e
