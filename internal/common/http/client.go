// internal/common/http/client.go
package http

import (
	"net/http"
	"time"
)

// Doer is the subset of *http.Client outbound callers depend on.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	httpClient *http.Client
}

// NewClient builds an outbound client. A zero timeout leaves cancellation
// entirely to the request context.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}
