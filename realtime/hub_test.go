package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, r.URL.Query().Get("room"))
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?room=" + room
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestUserRoom(t *testing.T) {
	assert.Equal(t, "user:42", UserRoom(42))
}

func TestHub_PublishToUserReachesOnlyThatRoom(t *testing.T) {
	hub, srv := startHub(t)

	alice := dial(t, srv, UserRoom(1))
	bob := dial(t, srv, UserRoom(2))

	// Registration happens asynchronously on the hub goroutine, and a timed
	// out read poisons the connection, so redial until an event arrives.
	require.Eventually(t, func() bool {
		hub.PublishToUser(1, "message.created", map[string]int{"id": 7})
		_ = alice.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		_, data, err := alice.ReadMessage()
		if err != nil {
			alice = dial(t, srv, UserRoom(1))
			return false
		}
		var ev struct {
			Type    string         `json:"type"`
			Payload map[string]int `json:"payload"`
		}
		if json.Unmarshal(data, &ev) != nil {
			return false
		}
		return ev.Type == "message.created" && ev.Payload["id"] == 7
	}, 2*time.Second, 10*time.Millisecond)

	_ = bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err, "user 2 must not see user 1's events")
}

func TestHub_BroadcastAfterStopDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.PublishToUser(1, "x", i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after hub stopped")
	}
}
