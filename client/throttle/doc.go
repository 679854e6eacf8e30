// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound requests of a gufohttp client with the token bucket of
// [golang.org/x/time/rate].
//
// Dispatches that find the bucket empty block until a token frees up or
// their context ends. A wait that cannot finish before the request
// deadline fails at once with [ErrWaitingFailed].
//
//	rt, err := throttle.NewRoundTripper(throttle.Config{RPS: 10, Burst: 5}, slog.Default(), http.DefaultTransport)
package throttle
