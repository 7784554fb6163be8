package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/roulette-signaling/internal/middleware"
	"github.com/mossy-p/roulette-signaling/internal/signaling"
	"go.uber.org/zap"
)

// RouterConfig collects the dependencies of the HTTP surface
type RouterConfig struct {
	Hub            *signaling.Hub
	AllowedOrigins []string
	JWTSecret      string
	SendBuffer     int
	StaticDir      string

	// Metrics is served on /metrics when set.
	Metrics http.Handler

	// Matches adds the persisted match total to admin stats when set.
	Matches MatchCounter

	Logger *zap.Logger
}

// NewRouter wires every route of the signaling server
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(cfg.Logger))

	// Global CORS middleware (runs before routing)
	router.Use(OriginFilter(cfg.AllowedOrigins))

	router.GET("/health", Health)
	router.GET("/api-status", APIStatus(cfg.Hub))
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/auth/guest", GuestLogin(cfg.JWTSecret, cfg.Logger))
		apiGroup.GET("/admin/stats", middleware.JWTAuth(cfg.JWTSecret), AdminStats(cfg.Hub, cfg.Matches, cfg.Logger))
	}

	router.GET("/ws", HandleSignaling(cfg.Hub, cfg.JWTSecret, cfg.SendBuffer, cfg.Logger))

	// The browser client can be served from the same origin
	if cfg.StaticDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))
	}

	return router
}

// RequestLogger logs one line per HTTP request
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
