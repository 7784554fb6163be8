package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/roulette-signaling/internal/middleware"
	"github.com/mossy-p/roulette-signaling/internal/models"
	"go.uber.org/zap"
)

const serviceName = "Roulette Signaling Server"

// StatusSource provides read-only relay snapshots
type StatusSource interface {
	Status() models.Status
}

// MatchCounter reads the lifetime match total from the presence store
type MatchCounter interface {
	MatchTotal(ctx context.Context) (int64, error)
}

// Health reports liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// APIStatus reports the online count and queue depth
func APIStatus(source StatusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := source.Status()
		c.JSON(http.StatusOK, gin.H{
			"status":         "online",
			"service":        serviceName,
			"onlineUsers":    status.Online,
			"waitingInQueue": status.Waiting,
			"activePairs":    status.ActivePairs,
		})
	}
}

// AdminStats adds the persisted match total to the snapshot. counter may be nil.
func AdminStats(source StatusSource, counter MatchCounter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"status":      source.Status(),
			"requestedBy": c.GetString(middleware.ContextUserID),
		}

		if counter != nil {
			total, err := counter.MatchTotal(c.Request.Context())
			if err != nil {
				logger.Warn("failed to read match total", zap.Error(err))
			} else {
				resp["matchTotal"] = total
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}
