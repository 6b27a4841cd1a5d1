package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"carpool/internal/bus"
)

func newWSTestServer(t *testing.T) (*bus.Bus, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := bus.New()
	router := gin.New()
	router.GET("/ws", NewWSHandler(b).Serve)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return b, srv
}

func dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user_id=" + userID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// waitForSubscribers polls until the channel reaches the wanted count.
func waitForSubscribers(t *testing.T, b *bus.Bus, channel string, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for b.SubscriberCount(channel) != want {
		if time.Now().After(deadline) {
			t.Fatalf("channel %s count = %d, want %d", channel, b.SubscriberCount(channel), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServe_AutoSubscribesUserChannel(t *testing.T) {
	b, srv := newWSTestServer(t)

	ws := dialWS(t, srv, "user-1")

	waitForSubscribers(t, b, bus.UserChannel("user-1"), 1)

	b.Publish(bus.UserChannel("user-1"), bus.NewNotification("welcome back"))

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var event bus.Notification
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("undecodable frame: %v", err)
	}
	if event.Type != bus.TypeNotification || event.Message != "welcome back" {
		t.Errorf("event = %+v", event)
	}
}

func TestServe_SubscribeFrameJoinsRideChannel(t *testing.T) {
	b, srv := newWSTestServer(t)

	ws := dialWS(t, srv, "user-1")
	waitForSubscribers(t, b, bus.UserChannel("user-1"), 1)

	if err := ws.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"subscribe","channel":"ride_abc"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitForSubscribers(t, b, "ride_abc", 1)

	b.Publish("ride_abc", bus.NewRideStatus("abc", "full"))

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var event bus.RideStatus
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("undecodable frame: %v", err)
	}
	if event.RideID != "abc" || event.Status != "full" {
		t.Errorf("event = %+v", event)
	}
}

func TestServe_UnsubscribeFrameLeavesRideChannel(t *testing.T) {
	b, srv := newWSTestServer(t)

	ws := dialWS(t, srv, "user-1")
	waitForSubscribers(t, b, bus.UserChannel("user-1"), 1)

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","channel":"ride_abc"}`))
	waitForSubscribers(t, b, "ride_abc", 1)

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"unsubscribe","channel":"ride_abc"}`))
	waitForSubscribers(t, b, "ride_abc", 0)

	// The personal channel stays attached.
	if got := b.SubscriberCount(bus.UserChannel("user-1")); got != 1 {
		t.Errorf("user channel count = %d, want 1", got)
	}
}

func TestServe_DisconnectDetachesEverything(t *testing.T) {
	b, srv := newWSTestServer(t)

	ws := dialWS(t, srv, "user-1")
	waitForSubscribers(t, b, bus.UserChannel("user-1"), 1)

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","channel":"ride_abc"}`))
	waitForSubscribers(t, b, "ride_abc", 1)

	ws.Close()

	waitForSubscribers(t, b, bus.UserChannel("user-1"), 0)
	waitForSubscribers(t, b, "ride_abc", 0)
}

func TestServe_RequiresUserID(t *testing.T) {
	_, srv := newWSTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail without user_id")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Errorf("expected 400 response, got %+v", resp)
	}
}
