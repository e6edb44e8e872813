package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fieldsignals/georange/core"
	"github.com/fieldsignals/georange/internal/logging"
	"github.com/fieldsignals/georange/model"
)

// Hub upgrades presentation consumers to WebSocket connections and
// relays each engine notification to them as a JSON frame. Every
// connection holds its own engine subscription for its lifetime.
type Hub struct {
	engine   *core.Engine
	log      logging.Logger
	upgrader websocket.Upgrader
}

// NewHub constructs a hub over the given engine.
func NewHub(engine *core.Engine, log logging.Logger) *Hub {
	if log == nil {
		log = logging.Noop()
	}
	return &Hub{
		engine: engine,
		log:    log,
		upgrader: websocket.Upgrader{
			// Companion-app clients connect from app-local webviews;
			// origin enforcement belongs at the edge proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// streamFrame is the wire shape of one in-range notification.
type streamFrame struct {
	Agents []model.Agent `json:"agents"`
	Count  int           `json:"count"`
}

// HandleStream upgrades the request and forwards in-range notifications
// until the client disconnects. The engine dispatch path must never
// block on a slow socket, so the subscription callback hands each
// snapshot to a buffered channel and the write loop drains it; when the
// buffer is full the oldest frame is dropped so the freshest state wins.
func (h *Hub) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()

	frames := make(chan []model.Agent, 16)
	sub := h.engine.Subscribe(func(inRange []model.Agent) {
		// The notification slice is shared between subscribers; copy
		// before handing it off the dispatch path.
		set := append([]model.Agent(nil), inRange...)
		select {
		case frames <- set:
		default:
			select {
			case <-frames:
			default:
			}
			select {
			case frames <- set:
			default:
			}
		}
	})
	defer sub.Cancel()

	h.log.Debug(r.Context(), "stream client connected",
		logging.String("remote", conn.RemoteAddr().String()))

	// Reader loop exists only to observe the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case set := <-frames:
			if set == nil {
				set = []model.Agent{}
			}
			if err := conn.WriteJSON(streamFrame{Agents: set, Count: len(set)}); err != nil {
				h.log.Debug(r.Context(), "stream write failed; dropping client", logging.Err(err))
				return
			}
		}
	}
}
