package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quicksite/internal/config"
)

func dial(t *testing.T, ctx context.Context, srv *httptest.Server, origin string) (*websocket.Conn, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{origin}},
	})
	return conn, err
}

func TestWebSocketOriginValidation(t *testing.T) {
	s, _ := setupTestServer(t, func(c *config.Config) {
		c.Server.AllowedOrigins = []string{"http://trusted.example"}
	})

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"missing origin", "", false},
		{"foreign origin", "http://evil.example", false},
		{"javascript scheme", "javascript:alert(1)", false},
		{"configured origin", "http://trusted.example", true},
		{"server address", "http://localhost:8080", true},
		{"loopback", "http://127.0.0.1:8080", true},
		{"same host", "http://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			err := s.checkOrigin(req)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebSocketBroadcast(t *testing.T) {
	s, _ := setupTestServer(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go s.hub.Run(ctx)

	conn, err := dial(t, ctx, srv, srv.URL)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return s.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	s.broadcast(UpdateMessage{Type: MessageReload, Targets: []string{"page:home"}})

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.Contains(t, string(data), `"type":"reload"`)
	assert.Contains(t, string(data), `"targets":["page:home"]`)
}

func TestWebSocketClientDisconnect(t *testing.T) {
	s, _ := setupTestServer(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go s.hub.Run(ctx)

	conn, err := dial(t, ctx, srv, srv.URL)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	assert.Eventually(t, func() bool { return s.hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubClose(t *testing.T) {
	s, _ := setupTestServer(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go s.hub.Run(ctx)

	conn, err := dial(t, ctx, srv, srv.URL)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	s.hub.Close()
	s.hub.Close()

	_, _, err = conn.Read(ctx)
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return s.hub.Count() == 0 }, time.Second, 10*time.Millisecond)

	// Broadcasting after close must not block.
	s.hub.Broadcast([]byte(`{}`))
}

func TestHubBroadcastDropsWhenFull(t *testing.T) {
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.Broadcast([]byte(`{"type":"reload"}`))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}
	assert.Len(t, hub.broadcast, cap(hub.broadcast))
}
