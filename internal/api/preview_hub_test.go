package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic-visit-server/internal/service"
)

func dialPreview(t *testing.T, hub *PreviewHub, sessionID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Subscribe(w, r, sessionID); err != nil {
			t.Errorf("subscribe failed: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	// Registration happens after the handshake completes.
	require.Eventually(t, func() bool {
		return hub.subscribers(sessionID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	return client
}

func TestPreviewHubBroadcast(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewPreviewHub(logger)

	client := dialPreview(t, hub, "sess-1")

	hub.Broadcast("sess-1", &service.Preview{Markup: "<html/>"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got service.Preview
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, "<html/>", got.Markup)
}

func TestPreviewHubConcurrentBroadcastsAreSerialized(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewPreviewHub(logger)

	client := dialPreview(t, hub, "sess-1")

	// Regenerate and skip can land on the same session at the same time; the
	// hub must never let two writers hit one connection concurrently.
	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast("sess-1", &service.Preview{Markup: "<html/>"})
		}()
	}

	for i := 0; i < writers; i++ {
		require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got service.Preview
		require.NoError(t, client.ReadJSON(&got))
		assert.Equal(t, "<html/>", got.Markup)
	}
	wg.Wait()
}

func TestPreviewHubDropsClosedSubscribers(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewPreviewHub(logger)

	client := dialPreview(t, hub, "sess-1")
	client.Close()

	require.Eventually(t, func() bool {
		return hub.subscribers("sess-1") == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Broadcasting to a session with no subscribers is a no-op.
	hub.Broadcast("sess-1", &service.Preview{Markup: "<html/>"})
}
