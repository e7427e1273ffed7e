package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-engine/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas de sesiones.
// Si authSvc esta habilitado, todas las rutas de /sessions exigen token.
func NewRouter(logger *zap.Logger, sessionH *SessionHandler, authSvc *service.AuthService) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	sessions := r.Group("/sessions")
	if authSvc.Enabled() {
		sessions.Use(CallerAuthMiddleware(authSvc, logger))
	}
	sessions.POST("", sessionH.CreateSession)
	sessions.POST("/:story_id/decisions", sessionH.ScoreDecision)
	sessions.GET("/:story_id/summary", sessionH.GetSummary)
	sessions.GET("/:story_id/reveals", sessionH.GetReveals)
	sessions.DELETE("/:story_id", sessionH.EndSession)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if claims, ok := CallerFromContext(c); ok {
			fields = append(fields, zap.String("caller", claims.Caller))
		}
		if storyID := c.Param("story_id"); storyID != "" {
			fields = append(fields, zap.String("story_id", storyID))
		}
		logger.Info("request", fields...)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
