package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-engine/internal/service"
)

const callerClaimsKey = "caller_claims"

// CallerAuthMiddleware exige un token de cliente emitido por AuthService y deja
// sus claims en el contexto para el log de requests y los handlers.
func CallerAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := authSvc.ParseToken(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, service.ErrTokenExpired) {
				msg = "token expired"
			}
			logger.Warn("caller token rejected",
				zap.String("path", c.FullPath()),
				zap.String("reason", msg),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(callerClaimsKey, claims)
		c.Next()
	}
}

// bearerToken extrae el token de un header "Bearer <token>".
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CallerFromContext devuelve los claims del cliente autenticado, si los hay.
func CallerFromContext(c *gin.Context) (service.CallerClaims, bool) {
	val, ok := c.Get(callerClaimsKey)
	if !ok {
		return service.CallerClaims{}, false
	}
	claims, ok := val.(service.CallerClaims)
	return claims, ok
}
