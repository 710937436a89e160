package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/glimpse"
)

// DefaultMessageTimeout bounds a single bridge round trip.
const DefaultMessageTimeout = 5 * time.Second

var _ glimpse.Bridge = (*Client)(nil)

// Client sends bridge messages to a Handler.
type Client struct {
	URL        string
	HTTPClient *http.Client

	// Timeout bounds each message; zero means DefaultMessageTimeout.
	Timeout time.Duration
}

// NewClient returns a Client for the bridge served at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		URL:        strings.TrimSuffix(baseURL, "/") + "/message",
		HTTPClient: &http.Client{},
	}
}

// Send delivers msg and returns the raw response body. Error responses are
// returned as application errors.
func (c *Client) Send(ctx context.Context, msg glimpse.Message) (json.RawMessage, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultMessageTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, glimpse.Errorf(glimpse.ETIMEOUT, "%s timed out after %s", msg.Action, timeout)
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
			e.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, glimpse.Errorf(errorCode(resp.StatusCode), "%s", e.Error)
	}
	return json.RawMessage(data), nil
}

// FetchPreview requests the attached page's preview.
func (c *Client) FetchPreview(ctx context.Context) (*glimpse.Preview, error) {
	data, err := c.Send(ctx, glimpse.Message{Action: glimpse.ActionFetchOpenGraph})
	if err != nil {
		return nil, err
	}
	var p glimpse.Preview
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode preview: %w", err)
	}
	return &p, nil
}

// Capture requests a screenshot of region.
func (c *Client) Capture(ctx context.Context, region glimpse.Region) (*glimpse.Capture, error) {
	payload, err := json.Marshal(region)
	if err != nil {
		return nil, err
	}
	data, err := c.Send(ctx, glimpse.Message{Action: glimpse.ActionCaptureSelection, Payload: payload})
	if err != nil {
		return nil, err
	}
	var capture glimpse.Capture
	if err := json.Unmarshal(data, &capture); err != nil {
		return nil, fmt.Errorf("failed to decode capture: %w", err)
	}
	return &capture, nil
}

// Save sends item with a save action and reports whether the host accepted
// it. A response without a success flag counts as success.
func (c *Client) Save(ctx context.Context, action string, item *glimpse.Item) (bool, error) {
	if action != glimpse.ActionSaveOpenGraphPreview && action != glimpse.ActionSaveCapturedImage {
		return false, glimpse.Errorf(glimpse.EINVALID, "%q is not a save action", action)
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return false, err
	}
	data, err := c.Send(ctx, glimpse.Message{Action: action, Payload: payload})
	if err != nil {
		return false, err
	}

	var resp struct {
		Success *bool `json:"success"`
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil {
			return false, fmt.Errorf("failed to decode save response: %w", err)
		}
	}
	return resp.Success == nil || *resp.Success, nil
}
