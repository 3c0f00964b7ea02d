// Package collect fetches raw profile records from the Apify actor that
// scrapes public profile pages.
package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"alumni-engine/internal/logging"
	"alumni-engine/internal/netx"
	"alumni-engine/internal/profileurl"
)

const maxErrorBody = 512

// FetchFailed is returned when the collector cannot produce a usable record.
// Status is the upstream HTTP status (200 for malformed or empty datasets).
type FetchFailed struct {
	Status int
	Body   string
	Reason string
	Err    error
}

func (e *FetchFailed) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fetch failed (status %d)", e.Status)
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *FetchFailed) Unwrap() error { return e.Err }

type Client struct {
	BaseURL      string
	ActorID      string
	Token        string
	IncludeEmail bool

	HTTP    *http.Client
	Limiter *netx.HostLimiter
	Retry   netx.RetryConfig
	Timeout time.Duration
	Log     *slog.Logger
}

type runInput struct {
	Username     string `json:"username"`
	IncludeEmail bool   `json:"includeEmail"`
}

// Fetch runs the actor synchronously for one profile and returns the first
// dataset item as raw JSON.
func (c *Client) Fetch(ctx context.Context, profileURL string) ([]byte, error) {
	username, ok := profileurl.Username(profileURL)
	if !ok {
		return nil, &FetchFailed{Reason: fmt.Sprintf("no profile username in %q", profileURL)}
	}
	if c.Token == "" {
		return nil, &FetchFailed{Reason: "collector token is not configured"}
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(runInput{Username: username, IncludeEmail: c.IncludeEmail})
	if err != nil {
		return nil, err
	}
	endpoint := c.endpoint()

	start := time.Now()
	raw, err := netx.RetryDo(ctx, c.Retry, func() ([]byte, error) {
		return c.post(ctx, endpoint, body)
	})
	if err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) {
			return nil, &FetchFailed{Status: se.StatusCode, Body: se.Body}
		}
		var ff *FetchFailed
		if errors.As(err, &ff) {
			return nil, ff
		}
		return nil, &FetchFailed{Reason: "transport error", Err: err}
	}

	item, err := firstItem(raw)
	if err != nil {
		return nil, err
	}
	logging.OrDefault(c.Log).Debug("collector fetch ok",
		"username", username,
		"bytes", len(item),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return item, nil
}

func (c *Client) endpoint() string {
	base := strings.TrimRight(c.BaseURL, "/")
	q := url.Values{}
	q.Set("token", c.Token)
	return fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?%s", base, url.PathEscape(c.ActorID), q.Encode())
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	if err := c.Limiter.WaitURL(ctx, endpoint); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &netx.StatusError{StatusCode: resp.StatusCode, Body: netx.Truncate(string(b), maxErrorBody)}
	}
	return b, nil
}

func firstItem(raw []byte) ([]byte, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &FetchFailed{Status: http.StatusOK, Reason: "malformed dataset", Err: err}
	}
	for _, it := range items {
		t := bytes.TrimSpace(it)
		if len(t) > 0 && t[0] == '{' && !bytes.Equal(t, []byte("{}")) {
			return t, nil
		}
	}
	return nil, &FetchFailed{Status: http.StatusOK, Reason: "empty dataset"}
}
