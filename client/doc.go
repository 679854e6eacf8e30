// Package client is the HTTP client engine of gufohttp. It builds a
// reusable configured client on top of [net/http], composes requests
// and dispatches them in blocking or non-blocking mode.
//
// # Building a Client
//
// Transport behaviour is described by a [Config]. Start from
// [DefaultConfig] or load one with [LoadConfigFile]; runtime
// collaborators are supplied as functional options:
//
//	cfg := client.DefaultConfig()
//	cfg.Auth = client.BearerAuth("secret")
//	cfg.MaxRedirect = client.Redirects(3)
//
//	c, err := client.Build(cfg,
//		client.WithLogger(logger),
//		client.WithThrottle(50, 10),
//	)
//
// # Blocking Requests
//
// [Client.Request] and the verb helpers return once the whole body has
// arrived:
//
//	resp, err := c.Get(ctx, "https://api.example.com/v1/resource")
//	if err != nil { ... }
//	body, err := resp.Read()
//
// # Non-blocking Requests
//
// [Client.Async] returns an [AsyncClient] whose dispatches run in their
// own goroutines and resolve a [Pending] value:
//
//	p := c.Async().Post(ctx, url, payload)
//	resp, err := p.Wait(ctx)
//	body, err := resp.ReadAsync(ctx).Result()
//
// # Response Bodies
//
// A body is read at most once. A second read of the same [Response]
// fails with [ErrAlreadyRead]; an unread body is discarded by
// [Response.Close] or when the Response is garbage collected.
//
// # Errors
//
// Every error wraps [ErrHTTP] and one of its refinements, so callers
// can test with [errors.Is]:
//
//	if errors.Is(err, client.ErrTimeout) { ... }
package client
