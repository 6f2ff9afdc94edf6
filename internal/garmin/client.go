// Package garmin is the provider client adapter. It talks to the Garmin
// Connect API wrapper service and exposes the two capabilities the sync
// engine consumes: paginated activity listing and per-activity detail lookup.
package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client against the API wrapper at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// ListActivities retrieves one page of activities. The wrapper has returned
// both a bare JSON array and an {"activities": [...]} envelope across
// versions; both are accepted.
func (c *Client) ListActivities(ctx context.Context, offset, limit int) ([]map[string]any, error) {
	reqURL := fmt.Sprintf("%s/activities?start=%d&limit=%d", c.baseURL, offset, limit)

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var asList []json.RawMessage
	if err := json.Unmarshal(body, &asList); err == nil {
		return decodeItems(asList), nil
	}

	var envelope struct {
		Activities []json.RawMessage `json:"activities"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		return decodeItems(envelope.Activities), nil
	}

	return nil, fmt.Errorf("unexpected activities payload shape")
}

// ActivityDetail retrieves detail for one activity, trying each endpoint
// variant the wrapper has exposed. Per-variant failures are swallowed; only
// when every variant fails is an error returned.
func (c *Client) ActivityDetail(ctx context.Context, id string) (map[string]any, error) {
	variants := []string{
		"%s/activities/%s",
		"%s/activity-service/activity/%s",
		"%s/activity/%s",
	}

	var lastErr error
	for _, variant := range variants {
		reqURL := fmt.Sprintf(variant, c.baseURL, url.PathEscape(id))
		body, err := c.get(ctx, reqURL)
		if err != nil {
			lastErr = err
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			lastErr = err
			continue
		}
		return payload, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no detail endpoint available")
	}
	return nil, fmt.Errorf("activity %s detail: %w", id, lastErr)
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ThrottledError{Status: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

func decodeItems(raw []json.RawMessage) []map[string]any {
	items := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		var item map[string]any
		if err := json.Unmarshal(r, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}
