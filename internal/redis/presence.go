package redis

import (
	"context"
	"time"

	"github.com/mossy-p/roulette-signaling/internal/models"
	"go.uber.org/zap"
)

// Presence is the subset of Store the hub observer writes to
type Presence interface {
	Online(ctx context.Context, connID string) error
	Offline(ctx context.Context, connID string) error
	RecordMatch(ctx context.Context) error
}

type presenceOp struct {
	kind   string
	connID string
}

// Mirror is a hub observer that forwards presence changes to Redis on its own goroutine.
// Updates are dropped when the queue is full so the hub never waits on the network.
type Mirror struct {
	presence Presence
	ops      chan presenceOp
	logger   *zap.Logger
	timeout  time.Duration
}

func NewMirror(presence Presence, logger *zap.Logger, queueSize int) *Mirror {
	return &Mirror{
		presence: presence,
		ops:      make(chan presenceOp, queueSize),
		logger:   logger,
		timeout:  2 * time.Second,
	}
}

// Run applies queued updates in order until ctx is cancelled
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-m.ops:
			m.apply(ctx, op)
		}
	}
}

func (m *Mirror) apply(ctx context.Context, op presenceOp) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var err error
	switch op.kind {
	case "online":
		err = m.presence.Online(ctx, op.connID)
	case "offline":
		err = m.presence.Offline(ctx, op.connID)
	case "match":
		err = m.presence.RecordMatch(ctx)
	}
	if err != nil {
		m.logger.Warn("presence update failed", zap.String("op", op.kind), zap.String("conn_id", op.connID), zap.Error(err))
	}
}

func (m *Mirror) enqueue(op presenceOp) {
	select {
	case m.ops <- op:
	default:
		m.logger.Warn("presence queue full, dropping update", zap.String("op", op.kind))
	}
}

func (m *Mirror) ConnectionOpened(id string)  { m.enqueue(presenceOp{kind: "online", connID: id}) }
func (m *Mirror) ConnectionClosed(id string)  { m.enqueue(presenceOp{kind: "offline", connID: id}) }
func (m *Mirror) PairCreated(string, string)  { m.enqueue(presenceOp{kind: "match"}) }
func (m *Mirror) PairEnded(string, string)    {}
func (m *Mirror) Relayed(models.EventType)    {}
func (m *Mirror) SendDropped(string)          {}
func (m *Mirror) StatusChanged(models.Status) {}
