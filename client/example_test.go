package client_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gufolabs/gufohttp/client"
)

func ExampleBuild() {
	cfg := client.DefaultConfig()
	cfg.Auth = client.BearerAuth("secret")
	cfg.MaxRedirect = nil

	c, err := client.Build(cfg, client.WithThrottle(50, 10))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("client built with", c.Auth(), "auth")
	// Output: client built with bearer auth
}

func ExampleLoadConfig() {
	cfg, err := client.LoadConfig(strings.NewReader(`
timeout: 30s
max_redirect: null
compression: [gzip, br]
auth: {type: basic, user: scott, password: tiger}
`))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(cfg.Timeout, cfg.MaxRedirect == nil, cfg.Compression.Has(client.Gzip|client.Brotli), cfg.Auth)
	// Output: 30s true true basic
}

func ExampleClient_Get() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	defer ts.Close()

	c, err := client.Build(client.DefaultConfig())
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	resp, err := c.Get(context.Background(), ts.URL)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	body, err := resp.Read()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(resp.Status(), string(body))

	_, err = resp.Read()
	fmt.Println(errors.Is(err, client.ErrAlreadyRead))
	// Output:
	// 200 hello
	// true
}

func ExampleAsyncClient_Post() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c, err := client.Build(client.DefaultConfig(), client.WithMaxConcurrency(4))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	async := c.Async()

	ctx := context.Background()
	p := async.Post(ctx, ts.URL, []byte(`{"name":"alice"}`),
		client.WithHeader("Content-Type", []byte("application/json")),
	)

	resp, err := p.Wait(ctx)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer resp.Close()

	fmt.Println(resp.Status())
	fmt.Println(async.Wait())
	// Output:
	// 201
	// <nil>
}

func ExampleResponse_Expect() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer ts.Close()

	c, err := client.Build(client.DefaultConfig())
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	resp, err := c.Get(context.Background(), ts.URL)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	var statusErr *client.UnexpectedStatusError
	if errors.As(resp.Expect(http.StatusOK), &statusErr) {
		fmt.Println(statusErr.StatusCode, strings.TrimSpace(statusErr.Body))
	}
	// Output: 404 missing
}
