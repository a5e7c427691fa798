package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"thaipool/internal/models"
)

// Client talks to the platform's order endpoints. The status stream has its
// own client; see internal/stream.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetOrder fetches the authoritative order snapshot with its items.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	endpoint := c.baseURL + "/orders/" + orderID
	var env models.OrderEnvelope
	if err := c.doJSON(ctx, http.MethodGet, endpoint, &env); err != nil {
		return nil, err
	}
	return env.Decode()
}

// CancelOrder asks the backend to cancel the order. The body carries no
// information beyond success or failure.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	endpoint := c.baseURL + "/orders/" + orderID + "/cancel"
	return c.doJSON(ctx, http.MethodPost, endpoint, nil)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(body))
		if msg != "" {
			return fmt.Errorf("api http status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("api http status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
