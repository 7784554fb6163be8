package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mossy-p/roulette-signaling/internal/middleware"
	"go.uber.org/zap"
)

const guestTokenTTL = 24 * time.Hour

// LoginResponse represents the guest login response
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// GuestLogin issues a signed guest identity. Clients may present it on the websocket
// so partners see a stable identity; the relay never requires it.
func GuestLogin(jwtSecret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := "guest-" + uuid.New().String()

		token, err := middleware.IssueToken(jwtSecret, userID, guestTokenTTL)
		if err != nil {
			logger.Error("failed to issue guest token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate token",
			})
			return
		}

		c.JSON(http.StatusOK, LoginResponse{
			Token:  token,
			UserID: userID,
		})
	}
}
