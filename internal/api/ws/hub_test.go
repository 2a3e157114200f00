package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/your-org/lpr/internal/models"
	"github.com/your-org/lpr/pkg/dto"
)

func newServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	go hub.Run()

	r := gin.New()
	r.GET("/ws", hub.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	before := hub.ClientCount()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() <= before {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) dto.WSEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var evt dto.WSEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return evt
}

func TestHubBroadcast(t *testing.T) {
	hub, srv := newServer(t)
	conn := dial(t, hub, srv, "")

	runID := uuid.New()
	hub.Notify(models.Notification{
		Kind:        models.NotificationCompleted,
		RunID:       runID,
		ModelID:     "tiny-lpr",
		Title:       "Analysis complete",
		Description: "Found 0 license plates.",
		Time:        time.Now(),
	})

	evt := readEvent(t, conn)
	if evt.Type != "completed" || evt.RunID != runID || evt.Description != "Found 0 license plates." {
		t.Errorf("unexpected event %+v", evt)
	}
}

func TestHubRunFilter(t *testing.T) {
	hub, srv := newServer(t)
	wanted := uuid.New()
	filtered := dial(t, hub, srv, "?run_id="+wanted.String())

	hub.Notify(models.Notification{Kind: models.NotificationStarted, RunID: uuid.New(), Time: time.Now()})
	hub.Notify(models.Notification{Kind: models.NotificationStarted, RunID: wanted, Time: time.Now()})

	evt := readEvent(t, filtered)
	if evt.RunID != wanted {
		t.Errorf("filtered client got run %s, want %s", evt.RunID, wanted)
	}
}

func TestHubUnregistersOnClose(t *testing.T) {
	hub, srv := newServer(t)
	conn := dial(t, hub, srv, "")
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not unregistered after close")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
