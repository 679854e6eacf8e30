package throttle_test

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gufolabs/gufohttp/client/throttle"
)

func ExampleNewRoundTripper() {
	rt, err := throttle.NewRoundTripper(throttle.Config{RPS: 10, Burst: 5}, slog.Default(), http.DefaultTransport)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	_ = &http.Client{Transport: rt}

	fmt.Println("throttled transport created")
	// Output: throttled transport created
}
