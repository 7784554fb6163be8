package signaling

import (
	"context"
	"math/rand/v2"

	"github.com/mossy-p/roulette-signaling/internal/models"
	"go.uber.org/zap"
)

// Hub is the single serialization point of the relay.
// The registry, waiting queue and pairing table are owned by the Run goroutine;
// everything else talks to it through channels.
type Hub struct {
	// clients is the connection registry, keyed by connection ID.
	clients map[string]*Client

	// waiting holds connection IDs in arrival order.
	waiting []string

	// pairs holds mirrored entries: A -> B and B -> A.
	pairs map[string]string

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	status     chan chan models.Status
	done       chan struct{}

	pick     func(n int) int
	observer Observer
	logger   *zap.Logger
}

type inbound struct {
	client *Client
	msg    models.Inbound
}

// Option configures a Hub
type Option func(*Hub)

// WithObserver attaches hooks that are told about lifecycle events. Observers run on the
// hub goroutine and must not block.
func WithObserver(o Observer) Option {
	return func(h *Hub) {
		h.observer = o
	}
}

// WithPicker replaces the random candidate selection. pick(n) must return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(h *Hub) {
		h.pick = pick
	}
}

// NewHub creates a Hub. Call Run to start processing.
func NewHub(logger *zap.Logger, opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		pairs:      make(map[string]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound),
		status:     make(chan chan models.Status),
		done:       make(chan struct{}),
		pick:       rand.IntN,
		observer:   nopObserver{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes requests one at a time until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case in := <-h.inbound:
			h.handleInbound(in.client, in.msg)

		case reply := <-h.status:
			reply <- h.snapshot()
		}
	}
}

// Register adds a freshly connected client. It returns false if the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister tears down everything the client owns and closes its send channel
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Dispatch hands a decoded client event to the hub
func (h *Hub) Dispatch(c *Client, msg models.Inbound) {
	select {
	case h.inbound <- inbound{client: c, msg: msg}:
	case <-h.done:
	}
}

// Status returns a snapshot of the online count, queue depth and active pairs
func (h *Hub) Status() models.Status {
	reply := make(chan models.Status, 1)
	select {
	case h.status <- reply:
		return <-reply
	case <-h.done:
		return models.Status{}
	}
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) handleRegister(c *Client) {
	if _, exists := h.clients[c.ID]; exists {
		h.logger.Warn("duplicate registration ignored", zap.String("conn_id", c.ID))
		return
	}

	c.state = stateIdle
	h.clients[c.ID] = c

	h.logger.Info("user connected", zap.String("conn_id", c.ID), zap.Int("online", len(h.clients)))
	h.observer.ConnectionOpened(c.ID)
	h.broadcastOnlineCount()
}

func (h *Hub) handleUnregister(c *Client) {
	if registered, ok := h.clients[c.ID]; !ok || registered != c {
		return
	}

	h.removeFromQueue(c)
	h.endPairing(c)

	delete(h.clients, c.ID)
	close(c.Send)

	h.logger.Info("user disconnected", zap.String("conn_id", c.ID), zap.Int("online", len(h.clients)))
	h.observer.ConnectionClosed(c.ID)
	h.broadcastOnlineCount()
}

func (h *Hub) handleInbound(c *Client, msg models.Inbound) {
	// Events can still be in flight after the client was unregistered
	if registered, ok := h.clients[c.ID]; !ok || registered != c {
		return
	}

	switch m := msg.(type) {
	case models.FindPartner:
		h.requestPartner(c, m.UserData)
	case models.SkipPartner:
		h.skipPartner(c)
	case models.StopSearch:
		h.stopSearch(c)
	case models.Signal, models.ChatMessage:
		h.relay(c, m)
		return
	default:
		h.logger.Warn("unhandled event", zap.String("conn_id", c.ID), zap.String("type", string(msg.Event())))
		return
	}
	h.observer.StatusChanged(h.snapshot())
}

func (h *Hub) snapshot() models.Status {
	return models.Status{
		Online:      len(h.clients),
		Waiting:     len(h.waiting),
		ActivePairs: len(h.pairs) / 2,
	}
}

// shutdown closes every remaining client so their write pumps send a close frame
func (h *Hub) shutdown() {
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
	h.waiting = nil
	clear(h.pairs)
	h.logger.Info("hub stopped")
}

// send queues data for a client without blocking the hub
func (h *Hub) send(c *Client, data []byte) {
	select {
	case c.Send <- data:
	default:
		h.logger.Warn("send buffer full, dropping message", zap.String("conn_id", c.ID))
		h.observer.SendDropped(c.ID)
	}
}

func (h *Hub) sendEvent(c *Client, eventType models.EventType, payload any) {
	data, err := models.Encode(eventType, payload)
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("type", string(eventType)), zap.Error(err))
		return
	}
	h.send(c, data)
}

func (h *Hub) broadcastOnlineCount() {
	data, err := models.Encode(models.EventOnlineCount, len(h.clients))
	if err != nil {
		h.logger.Error("failed to encode online count", zap.Error(err))
		return
	}
	for _, c := range h.clients {
		h.send(c, data)
	}
	h.observer.StatusChanged(h.snapshot())
}
