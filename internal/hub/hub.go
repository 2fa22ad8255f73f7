package hub

import (
	"encoding/json"
	"sync"

	"github.com/BrianBNeal/DistributedDemo/internal/config"
	"github.com/BrianBNeal/DistributedDemo/internal/log"
)

// envelope is one fan-out: to a single target, to everyone, or to
// everyone except one connection.
type envelope struct {
	target  string // non-empty: deliver to this connection only
	exclude string // non-empty: skip this connection
	payload []byte
}

// Hub owns the set of live connections and fans typed events out to them.
// It satisfies the chat service's Router.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *envelope
	mu         sync.RWMutex
	cfg        config.WebSocketConfig
}

// NewHub creates a hub; call Run in its own goroutine.
func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *envelope, 256),
		cfg:        cfg,
	}
}

// Run processes register, unregister and fan-out events until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldConnID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldConnID, client.ID).Msg("client unregistered")

		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

func (h *Hub) deliver(env *envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if env.target != "" {
		if client, ok := h.clients[env.target]; ok {
			h.push(client, env.payload)
		}
		return
	}

	for id, client := range h.clients {
		if id == env.exclude {
			continue
		}
		h.push(client, env.payload)
	}
}

func (h *Hub) push(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		// Slow client; drop it rather than stall the fan-out.
		go h.Unregister(client)
	}
}

// Register attaches a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister detaches a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// All delivers v to every connection.
func (h *Hub) All(v interface{}) error {
	return h.send(&envelope{}, v)
}

// Others delivers v to every connection except excludeConnectionID.
func (h *Hub) Others(excludeConnectionID string, v interface{}) error {
	return h.send(&envelope{exclude: excludeConnectionID}, v)
}

// To delivers v to one connection only.
func (h *Hub) To(connectionID string, v interface{}) error {
	return h.send(&envelope{target: connectionID}, v)
}

func (h *Hub) send(env *envelope, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	env.payload = data
	h.broadcast <- env
	return nil
}

// ClientCount returns the number of attached connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
