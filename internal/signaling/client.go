package signaling

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mossy-p/roulette-signaling/internal/models"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP offers with many candidates can be large.
	maxMessageSize = 64 * 1024
)

type state int

const (
	stateIdle state = iota
	stateWaiting
	statePaired
)

func (s state) String() string {
	switch s {
	case stateWaiting:
		return "waiting"
	case statePaired:
		return "paired"
	default:
		return "idle"
	}
}

// Client represents a WebSocket client connection
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	// Identity is the subject of a verified token presented at connect time, if any.
	Identity string

	// Owned by the hub goroutine.
	userData *models.UserData
	state    state
}

// NewClient wraps a connection with a fresh connection ID
func NewClient(conn *websocket.Conn, identity string, sendBuffer int) *Client {
	return &Client{
		ID:       uuid.New().String(),
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Identity: identity,
	}
}

// ReadPump decodes client events and hands them to the hub until the connection fails.
// It unregisters the client on exit.
func (c *Client) ReadPump(hub *Hub, logger *zap.Logger) {
	defer func() {
		hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket error", zap.String("conn_id", c.ID), zap.Error(err))
			}
			return
		}

		msg, err := models.Decode(message)
		if err != nil {
			if errors.Is(err, models.ErrUnknownEvent) {
				logger.Debug("ignoring unknown event", zap.String("conn_id", c.ID), zap.Error(err))
			} else {
				logger.Warn("failed to parse message", zap.String("conn_id", c.ID), zap.Error(err))
			}
			continue
		}

		hub.Dispatch(c, msg)
	}
}

// WritePump writes queued messages and keepalive pings until the hub closes Send
func (c *Client) WritePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("failed to write message", zap.String("conn_id", c.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
