package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fieldsignals/georange/core"
	"github.com/fieldsignals/georange/internal/logging"
	"github.com/fieldsignals/georange/model"
)

func dialStream(t *testing.T, engine *core.Engine) (*websocket.Conn, func()) {
	t.Helper()

	hub := NewHub(engine, logging.Noop())
	router := NewRouter(NewServer(engine, logging.Noop()), hub, nil, logging.Noop())
	srv := httptest.NewServer(router)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial %s: %v", wsURL, err)
	}

	waitForSubscribers(t, engine, 1)
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func waitForSubscribers(t *testing.T, engine *core.Engine, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for engine.SubscriberCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber count never reached %d (now %d)", want, engine.SubscriberCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) streamFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame streamFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read stream frame: %v", err)
	}
	return frame
}

func TestStreamRelaysNotifications(t *testing.T) {
	engine := core.NewEngine()
	conn, cleanup := dialStream(t, engine)
	defer cleanup()

	// Roster update with no position yet yields an empty set.
	engine.UpdateAgentRoster([]model.Agent{{
		ID:         "a1",
		Coordinate: model.Coordinate{Latitude: 37.7750, Longitude: -122.4194},
	}})
	if frame := readFrame(t, conn); frame.Count != 0 {
		t.Fatalf("first frame count = %d, want 0", frame.Count)
	}

	engine.UpdateUserPosition(model.Position{
		Coordinate: model.Coordinate{Latitude: 37.7749, Longitude: -122.4194},
	})
	frame := readFrame(t, conn)
	if frame.Count != 1 || len(frame.Agents) != 1 || frame.Agents[0].ID != "a1" {
		t.Fatalf("second frame = %+v, want a1 in range", frame)
	}
}

func TestStreamUnsubscribesOnDisconnect(t *testing.T) {
	engine := core.NewEngine()
	conn, cleanup := dialStream(t, engine)
	defer cleanup()

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for engine.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription not cancelled after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamSlowClientDoesNotBlockDispatch(t *testing.T) {
	engine := core.NewEngine()
	conn, cleanup := dialStream(t, engine)
	defer cleanup()

	// A client that never reads fills the relay buffer. Updates run the
	// full dispatch pass synchronously, so returning from each call
	// proves the callback dropped rather than blocked.
	engine.UpdateUserPosition(model.Position{
		Coordinate: model.Coordinate{Latitude: 37.7749, Longitude: -122.4194},
	})
	for i := 0; i < 64; i++ {
		engine.UpdateAgentRoster([]model.Agent{{
			ID:         "a1",
			Coordinate: model.Coordinate{Latitude: 37.7750, Longitude: -122.4194},
		}})
	}

	// The connection still works and eventually serves a frame with the
	// latest state. Frames queued before the roster arrived report an
	// empty set, so skip past them.
	for i := 0; i < 32; i++ {
		if frame := readFrame(t, conn); frame.Count == 1 {
			return
		}
	}
	t.Fatalf("never observed a frame with the latest in-range set")
}

func TestStreamRejectsPlainHTTP(t *testing.T) {
	engine := core.NewEngine()
	hub := NewHub(engine, logging.Noop())
	router := NewRouter(NewServer(engine, logging.Noop()), hub, nil, logging.Noop())

	req := httptest.NewRequest(http.MethodGet, "/v1/stream", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("plain GET on stream status = %d, want 400", rec.Code)
	}
}
