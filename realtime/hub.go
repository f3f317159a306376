// Package realtime bridges the dispatcher to websocket clients, so the
// mobile UI and the portal see booking changes without polling.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"subiclife/dispatch"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; adjust for production if needed
		return true
	},
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // dispatcher callbacks may fire from concurrent mutators
}

func (c *client) send(change dispatch.Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type Hub struct {
	bus     *dispatch.Dispatcher
	mu      sync.Mutex
	clients map[*client]string // client -> subscription id
}

func NewHub(bus *dispatch.Dispatcher) *Hub {
	return &Hub{bus: bus, clients: make(map[*client]string)}
}

// HandleWS subscribes the connection to one table's change feed,
// optionally narrowed by a "column=eq.value" filter.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	table := r.URL.Query().Get("table")
	if table == "" {
		http.Error(w, "table query parameter is required", http.StatusBadRequest)
		return
	}
	filter := r.URL.Query().Get("filter")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "WebSocket upgrade failed", http.StatusBadRequest)
		return
	}
	c := &client{conn: conn}

	subID := h.bus.Subscribe(dispatch.Subscription{
		Channel: "ws",
		Event:   dispatch.EventAll,
		Table:   table,
		Filter:  filter,
		Callback: func(change dispatch.Change) {
			_ = c.send(change)
		},
	})

	h.mu.Lock()
	h.clients[c] = subID
	h.mu.Unlock()

	// Keep the connection open until the client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(c)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	subID, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		h.bus.Unsubscribe(subID)
	}
	c.conn.Close()
}

// Stop disconnects every client, used on shutdown.
func (h *Hub) Stop() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.drop(c)
	}
}
