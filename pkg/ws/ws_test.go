package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesConnectedClient(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish("order.created", map[string]any{"order_number": "ORD-12345678-0001"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "order.created", ev.Type)
	assert.Equal(t, "ORD-12345678-0001", ev.Data["order_number"])
}

func TestNilHubIsSafe(t *testing.T) {
	var hub *Hub
	hub.Publish("order.created", nil)
	assert.Equal(t, 0, hub.ClientCount())
}
