package linkverify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies the validator to remote servers.
const DefaultUserAgent = "promptkit-reference-validator/1.0"

// maxDrain bounds how much of a GET body is read before the connection is reused.
const maxDrain = 64 << 10

type checker struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
}

func newHTTPClient() *http.Client {
	// Clone keeps HTTP_PROXY, HTTPS_PROXY and NO_PROXY handling.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Transport: transport}
}

// check performs one attempt against target. HEAD comes first; servers that
// reject or do not implement HEAD get a GET.
func (c *checker) check(ctx context.Context, target string) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limiter: %w", err)
		}
	}

	status, err := c.do(ctx, http.MethodHead, target)
	if err != nil {
		return 0, err
	}
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return c.do(ctx, http.MethodGet, target)
	}
	return status, nil
}

func (c *checker) do(ctx context.Context, method, target string) (int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrain)

	return resp.StatusCode, nil
}
