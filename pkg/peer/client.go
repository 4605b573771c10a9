// Package peer implements the synchronous lookups one service makes against
// another service's public read endpoints.
package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
)

// Peer names.
const (
	UserService = "user-service"
	PostService = "post-service"
)

// Outcome label values of metrics.PeerRequests.
const (
	outcomeOK          = "ok"
	outcomeNotFound    = "not_found"
	outcomeUnavailable = "unavailable"
)

// Config addresses one peer.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// envelope is the response wrapper every service writes.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client performs single GET lookups against one peer. It does not retry and
// does not cache.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the named peer. The timeout bounds the
// whole round trip and must be set explicitly.
func NewClient(name string, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: base url is required", name)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%s: timeout must be positive", name)
	}

	return &Client{
		name:    name,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: pkglog.NewTransport(name),
		},
	}, nil
}

// get fetches path and decodes the envelope's data into out. A 404 yields a
// NotFound error carrying notFoundMsg; every other failure yields
// DependencyUnavailable.
func (c *Client) get(ctx context.Context, path, notFoundMsg string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return c.unavailable(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.unavailable(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.PeerRequests.WithLabelValues(c.name, outcomeNotFound).Inc()
		return errs.New(errs.ErrNotFound, notFoundMsg)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.unavailable(fmt.Errorf("status %d", resp.StatusCode), "unexpected response")
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return c.unavailable(err, "failed to decode response")
	}
	if !env.Success || len(env.Data) == 0 || string(env.Data) == "null" {
		msg := "empty response"
		if env.Error != nil {
			msg = env.Error.Message
		}
		return c.unavailable(fmt.Errorf("%s", msg), "unsuccessful response")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return c.unavailable(err, "failed to decode data")
	}

	metrics.PeerRequests.WithLabelValues(c.name, outcomeOK).Inc()
	return nil
}

func (c *Client) unavailable(cause error, msg string) error {
	metrics.PeerRequests.WithLabelValues(c.name, outcomeUnavailable).Inc()
	return errs.Wrap(errs.ErrDependencyUnavailable, cause, fmt.Sprintf("%s unavailable: %s", c.name, msg))
}
