package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type envelope struct {
	accountID uuid.UUID
	payload   []byte
}

// Hub tracks live connections per account and delivers messages addressed to an account to all of its
// connections. Run owns the client map writes; SendTo never blocks the caller.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	direct     chan envelope
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	logger     *zap.Logger
	done       chan struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		direct:     make(chan envelope, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run serves registrations and deliveries until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for id, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, id)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			set, ok := h.clients[client.accountID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.accountID] = set
			}
			set[client] = struct{}{}
			total := h.countLocked()
			h.mutex.Unlock()
			h.logger.Debug("ws connected", zap.String("account_id", client.accountID.String()), zap.Int("total_clients", total))

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.remove(client)

		case msg := <-h.direct:
			h.mutex.RLock()
			targets := make([]*Client, 0, len(h.clients[msg.accountID]))
			for c := range h.clients[msg.accountID] {
				targets = append(targets, c)
			}
			h.mutex.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- msg.payload:
				default:
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	set, ok := h.clients[client.accountID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.accountID)
	}
	h.logger.Debug("ws disconnected", zap.String("account_id", client.accountID.String()), zap.Int("total_clients", h.countLocked()))
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendTo queues payload for every connection of accountID. It reports false when the queue is full.
func (h *Hub) SendTo(accountID uuid.UUID, payload []byte) bool {
	if h == nil {
		return false
	}
	select {
	case h.direct <- envelope{accountID: accountID, payload: payload}:
		return true
	default:
		h.logger.Warn("ws message dropped", zap.String("reason", "buffer_full"), zap.String("account_id", accountID.String()))
		return false
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.countLocked()
}
