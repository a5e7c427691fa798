package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"thaipool/internal/models"
)

func collect(t *testing.T, events <-chan StatusEvent, timeout time.Duration) []StatusEvent {
	t.Helper()
	var out []StatusEvent
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatal("stream did not close in time")
		}
	}
}

func TestOpenEmitsStatusChanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/ord-1/status/stream", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"status\":\"pending\"}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: {\"status\":\"paid\"}\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", zap.NewNop())
	events := collect(t, c.Open(context.Background(), "ord-1"), time.Second)

	// The pending frame is filtered; only the transition comes through.
	require.Len(t, events, 1)
	assert.Equal(t, models.OrderPaid, events[0].Status)
}

func TestOpenRejectedResponseEndsSilently(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zap.NewNop())
	events := collect(t, c.Open(context.Background(), "ord-1"), time.Second)
	assert.Empty(t, events)
}

func TestOpenUnreachableEndsSilently(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", zap.NewNop())
	events := collect(t, c.Open(context.Background(), "ord-1"), 5*time.Second)
	assert.Empty(t, events)
}

func TestOpenMalformedFramesDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "noise without prefix\n")
		fmt.Fprint(w, "data: {\"status\":\"won\"}\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", zap.NewNop())
	events := collect(t, c.Open(context.Background(), "ord-1"), time.Second)

	require.Len(t, events, 1)
	assert.Equal(t, models.OrderWon, events[0].Status)
}

func TestCancellationAbortsRead(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()
		close(started)
		// Hold the connection open until the client goes away.
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(srv.URL, "", zap.NewNop())
	events := c.Open(ctx, "ord-1")

	<-started
	cancel()
	cancel() // idempotent

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel must close without emitting")
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not terminate the stream")
	}
}
