package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, h *Hub, userID string) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, userID)
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return srv, conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHubPublishReachesOnlyThatUser(t *testing.T) {
	h := NewHub(nil, nil)
	defer h.Close()

	srvA, connA := dialHub(t, h, "user-a")
	defer srvA.Close()
	defer connA.Close()
	srvB, connB := dialHub(t, h, "user-b")
	defer srvB.Close()
	defer connB.Close()

	waitFor(t, func() bool { return h.ClientCount("user-a") == 1 && h.ClientCount("user-b") == 1 })

	h.Publish("user-a", "level_up", map[string]int{"level": 2})

	_ = connA.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := connA.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "level_up" || msg.Payload["level"] != 2 {
		t.Errorf("message = %+v", msg)
	}

	_ = connB.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := connB.ReadMessage(); err == nil {
		t.Error("user-b received user-a's event")
	}
}

func TestHubRemovesClosedClients(t *testing.T) {
	h := NewHub(nil, nil)
	defer h.Close()

	srv, conn := dialHub(t, h, "user-a")
	defer srv.Close()
	waitFor(t, func() bool { return h.ClientCount("user-a") == 1 })

	conn.Close()
	waitFor(t, func() bool { return h.ClientCount("user-a") == 0 })

	h.Publish("user-a", "streak_reset", nil)
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{name: "no origin", want: true},
		{name: "same host", origin: "http://example.test", want: true},
		{name: "localhost without allow list", origin: "http://localhost:5173", want: true},
		{name: "foreign origin", origin: "http://evil.test", want: false},
		{name: "allow listed", origin: "https://app.finlearn.test", allowed: []string{"https://app.finlearn.test"}, want: true},
		{name: "localhost with allow list", origin: "http://localhost:5173", allowed: []string{"https://app.finlearn.test"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example.test/api/v1/notifications/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			allowed := make(map[string]bool)
			for _, o := range tt.allowed {
				allowed[o] = true
			}
			if got := checkOrigin(r, allowed); got != tt.want {
				t.Errorf("checkOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}
