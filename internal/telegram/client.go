// Package telegram implements the minimal Bot API surface the engine needs:
// the long-poll getUpdates call. The full typed method catalog is an
// external collaborator and out of scope; only the fetch contract lives here.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/botflow/botflow/internal/update"
)

const defaultBaseURL = "https://api.telegram.org"

// extra time past the long-poll window before the request is abandoned
const pollGrace = 10 * time.Second

type apiResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result"`
	Description string              `json:"description"`
	Parameters  *responseParameters `json:"parameters"`
}

type responseParameters struct {
	RetryAfter int `json:"retry_after"`
}

// Client calls the Bot API getUpdates method.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (for tests and self-hosted Bot API
// servers).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// NewClient creates a getUpdates client for the given bot token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetUpdates long-polls for updates with id >= offset, waiting up to timeout
// for at least one before the server returns an empty batch. Updates come
// back in ascending id order with their receive time stamped.
//
// Failures are classified: a 429 becomes *RateLimitError carrying the
// server-specified delay; anything else network- or protocol-shaped becomes
// *TransportError.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration, allowed []string) ([]update.Update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	if len(allowed) > 0 {
		list, err := json.Marshal(allowed)
		if err != nil {
			return nil, &TransportError{Op: "getUpdates", Err: fmt.Errorf("encode allowed_updates: %w", err)}
		}
		q.Set("allowed_updates", string(list))
	}

	// Bound the request a little past the long-poll window so a hung
	// connection cannot stall the loop indefinitely.
	reqCtx, cancel := context.WithTimeout(ctx, timeout+pollGrace)
	defer cancel()

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", c.baseURL, c.token, q.Encode())
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Op: "getUpdates", Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "getUpdates", Err: err}
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, &TransportError{Op: "getUpdates", Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retry := 5 * time.Second
		if api.Parameters != nil && api.Parameters.RetryAfter > 0 {
			retry = time.Duration(api.Parameters.RetryAfter) * time.Second
		}
		return nil, &RateLimitError{RetryAfter: retry}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "getUpdates", Status: resp.StatusCode, Err: errors.New(api.Description)}
	}

	if !api.OK {
		return nil, &TransportError{Op: "getUpdates", Status: resp.StatusCode, Err: fmt.Errorf("api error: %s", api.Description)}
	}

	var updates []update.Update
	if err := json.Unmarshal(api.Result, &updates); err != nil {
		return nil, &TransportError{Op: "getUpdates", Status: resp.StatusCode, Err: fmt.Errorf("decode updates: %w", err)}
	}

	now := time.Now()
	for i := range updates {
		updates[i].ReceivedAt = now
	}
	return updates, nil
}
