package ws

import (
	"encoding/json"
	"sync"

	"go-brindes-ws/internal/metrics"
	"go-brindes-ws/pkg/logger"

	"github.com/gofiber/contrib/websocket"
)

// Event is the envelope pushed to every connected dashboard.
type Event struct {
	Type    string      `json:"type"` // stock_update | sample_update | protocol_update
	Action  string      `json:"action"`
	Actor   string      `json:"actor"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, 64),
	}
}

// Publish encodes ev and queues it for broadcast without blocking the caller.
// When the buffer is full the event is dropped: dashboards are live views and
// reload state on their next fetch.
func (h *Hub) Publish(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.LogError("ws", "Publish", "marshal event", ev.Type, err)
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		metrics.EventsDropped.WithLabelValues(ev.Type).Inc()
		logger.Get().WithField("type", ev.Type).Warn("ws broadcast buffer full, event dropped")
	}
}

// ClientCount is the number of connected sockets.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

func (h *Hub) Run() {
	log := logger.Get()
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.WithField("clients", h.ClientCount()).Info("ws client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
