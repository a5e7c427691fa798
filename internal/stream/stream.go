// Package stream consumes the server-pushed order status feed. The feed is a
// best-effort channel: any failure ends the sequence silently and the caller
// falls back on its own timer and refetching for ground truth.
package stream

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"thaipool/internal/models"
)

type StatusEvent struct {
	Status models.OrderStatus
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, token string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// No client timeout: the connection stays open until the server
		// closes it or ctx is cancelled.
		client: &http.Client{},
		log:    log,
	}
}

// Open starts the status stream for an order and returns a channel of
// parsed events. The channel closes when the server ends the stream, on any
// network or protocol failure, or once ctx is cancelled; cancellation aborts
// the in-flight read and is safe to invoke from any goroutine, repeatedly.
// The order must still be pending when Open is called.
func (c *Client) Open(ctx context.Context, orderID string) <-chan StatusEvent {
	events := make(chan StatusEvent)
	go c.run(ctx, orderID, events)
	return events
}

func (c *Client) run(ctx context.Context, orderID string, events chan<- StatusEvent) {
	defer close(events)

	endpoint := c.baseURL + "/orders/" + orderID + "/status/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.Warn("stream request build failed", zap.String("order", orderID), zap.Error(err))
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("stream connect failed", zap.String("order", orderID), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("stream rejected", zap.String("order", orderID), zap.Int("status", resp.StatusCode))
		return
	}
	c.log.Debug("stream connected", zap.String("order", orderID))

	var dec decoder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range dec.feed(buf[:n]) {
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
		if err != nil {
			if ctx.Err() == nil {
				c.log.Debug("stream closed", zap.String("order", orderID), zap.Error(err))
			}
			return
		}
	}
}
