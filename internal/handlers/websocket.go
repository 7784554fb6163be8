package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mossy-p/roulette-signaling/internal/middleware"
	"github.com/mossy-p/roulette-signaling/internal/signaling"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

// HandleSignaling upgrades the request and hands the connection to the hub.
// An optional ?token= query parameter supplies a verified identity.
func HandleSignaling(hub *signaling.Hub, jwtSecret string, sendBuffer int, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var identity string
		if token := c.Query("token"); token != "" {
			userID, err := middleware.ParseToken(jwtSecret, token)
			if err != nil {
				// Identity is best-effort; an unusable token only means an anonymous session
				logger.Debug("ignoring invalid signaling token", zap.Error(err))
			} else {
				identity = userID
			}
		}

		// Upgrade HTTP connection to WebSocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("failed to upgrade connection", zap.Error(err))
			return
		}

		client := signaling.NewClient(conn, identity, sendBuffer)
		if !hub.Register(client) {
			logger.Warn("hub stopped, rejecting connection", zap.String("conn_id", client.ID))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		go client.WritePump(logger)
		go client.ReadPump(hub, logger)
	}
}
