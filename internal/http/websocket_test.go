package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status = %d", resp.StatusCode)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readChange(t *testing.T, conn *websocket.Conn) ChangeMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg ChangeMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

func TestHubBroadcastsLedgerChanges(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Handler)
	defer ts.Close()

	conn := dialHub(t, ts)
	if msg := readChange(t, conn); msg.Type != MessageConnected {
		t.Fatalf("first message = %+v, want connected", msg)
	}
	if got := env.hub.Clients(); got != 1 {
		t.Fatalf("Clients = %d, want 1", got)
	}

	resp, err := http.Post(ts.URL+"/api/transactions", "application/json",
		strings.NewReader(`{"amount":-12.5,"category":"food_dining","date":"2025-03-09","description":"Lunch"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	msg := readChange(t, conn)
	want := ChangeMessage{Type: MessageLedgerChange, Entity: "transaction", Action: "created", Month: "2025-03"}
	if msg.Type != want.Type || msg.Entity != want.Entity || msg.Action != want.Action || msg.Month != want.Month {
		t.Errorf("change = %+v, want %+v", msg, want)
	}
	if msg.EntityID == "" {
		t.Error("missing entity id")
	}
}

func TestHubClose(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Handler)
	defer ts.Close()

	conn := dialHub(t, ts)
	readChange(t, conn)

	env.hub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("read after close = %v, want going away", err)
	}

	if _, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil); err == nil {
		t.Error("dial succeeded after Close")
	}
}
