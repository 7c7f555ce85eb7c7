package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

// RequireAuth verifies the bearer token and attaches the caller's identity
// to the request context. Aborts with 401 on any verification failure.
func RequireAuth(auth services.AuthService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthenticated", fmt.Errorf("missing bearer token"))
			c.Abort()
			return
		}
		ctx, err := auth.SetContextFromToken(c.Request.Context(), token)
		if err != nil {
			log.Debug("Token verification failed", "path", c.FullPath(), "error", err)
			response.RespondError(c, http.StatusUnauthorized, "unauthenticated", fmt.Errorf("invalid or expired token"))
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(c.Query("token"))
}
