package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/shelforder/internal/runner"
	"github.com/wonny/shelforder/pkg/logger"
)

const (
	// PingInterval keeps idle connections alive through proxies
	PingInterval = 30 * time.Second

	writeWait  = 10 * time.Second
	pongWait   = PingInterval * 2
	bufferSize = 32
)

// Hub fans run events out to websocket subscribers.
// Publish never blocks; a subscriber that falls behind loses events.
// ⭐ SSOT: 실행 이벤트 스트림은 여기서만
type Hub struct {
	mu       sync.RWMutex
	subs     map[chan runner.Event]struct{}
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subs: make(map[chan runner.Event]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // admin 내부망 전용
		},
		logger: log,
	}
}

// Publish implements runner.Publisher
func (h *Hub) Publish(ev runner.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.WithField("type", ev.Type).Warn("Event dropped for slow subscriber")
		}
	}
}

// Subscribe registers a buffered channel; call the returned func to leave
func (h *Hub) Subscribe() (<-chan runner.Event, func()) {
	ch := make(chan runner.Event, bufferSize)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeWS upgrades the request and streams events as JSON text frames
// GET /api/events
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, leave := h.Subscribe()
	defer leave()

	h.logger.WithField("remote", r.RemoteAddr).Debug("Event subscriber connected")

	done := make(chan struct{})
	go h.readLoop(conn, done)

	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.WithError(err).Error("Failed to encode event")
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close frames are processed
func (h *Hub) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithError(err).Debug("Event subscriber read ended")
			}
			return
		}
	}
}
