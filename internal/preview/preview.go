// Package preview streams the frames pushed to a strip to websocket
// clients.
package preview

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ws28xx/model"
)

type Hub struct {
	mu      sync.RWMutex
	leds    int
	model   model.Model
	driver  string
	frameID uint64
	start   time.Time
	clients map[*websocket.Conn]bool
}

func NewHub(leds int, m model.Model, driver string) *Hub {
	return &Hub{
		leds:    leds,
		model:   m,
		driver:  driver,
		start:   time.Now(),
		clients: map[*websocket.Conn]bool{},
	}
}

// Handler serves /ws (frames) and /health.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleFramesWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.sendTopology(conn)

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resp := map[string]any{
		"frame_id": h.frameID,
		"uptime_s": time.Since(h.start).Seconds(),
		"leds":     h.leds,
		"model":    h.model.String(),
		"clients":  len(h.clients),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Hub) sendTopology(conn *websocket.Conn) {
	h.mu.RLock()
	top := map[string]any{
		"leds":   h.leds,
		"model":  h.model.String(),
		"order":  h.model.Order().String(),
		"driver": h.driver,
	}
	h.mu.RUnlock()
	b, _ := json.Marshal(top)
	// Writes to a connection are serialised by the hub lock.
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

// Frame is the message sent for every pushed frame. RGB holds r, g, b per
// pixel.
type Frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

// Broadcast sends px to every connected client.
func (h *Hub) Broadcast(px []model.Pixel) {
	rgb := make([]byte, 0, len(px)*3)
	for _, p := range px {
		b := p.Bytes()
		rgb = append(rgb, b[:]...)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.frameID++
	b, _ := json.Marshal(Frame{T: time.Now().UnixNano(), FrameID: h.frameID, RGB: rgb})
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}
