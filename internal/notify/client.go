package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ScanNotice is the outbound message sent after a recorded scan. The
// messaging service decides who gets told; this engine only reports the
// fact.
type ScanNotice struct {
	EventID               string    `json:"event_id"`
	PersonID              string    `json:"person_id"`
	PersonName            string    `json:"person_name"`
	RoleClass             string    `json:"role_class"`
	EventType             string    `json:"event_type"`
	ScannedAt             time.Time `json:"scanned_at"`
	LateMinutes           int       `json:"late_minutes"`
	EarlyDepartureMinutes int       `json:"early_departure_minutes"`
}

// Client calls the notification dispatch service. With Skip set the client
// acknowledges without a network call, for dev and tests.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send posts a scan notice. Failures are the worker's problem to log and
// retry; they never touch the stored event.
func (c *Client) Send(ctx context.Context, notice ScanNotice) error {
	if c.Skip {
		return nil
	}
	body, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/notifications/scan", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("notify service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify service error %s: %s", resp.Status, string(payload))
	}
	return nil
}

// Health checks if the notification service is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("notify service unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify service unhealthy: %s", resp.Status)
	}
	return nil
}
