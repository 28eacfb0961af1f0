package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/shared"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// AuthMiddleware verifies the bearer access token and attaches the caller identity
// to both the gin context and the request context.
func AuthMiddleware(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateAccessToken(parts[1])
		if err != nil {
			logger.Debug("access token rejected: " + err.Error())
			abortUnauthorized(c, "invalid token")
			return
		}

		memberID, err := uuid.Parse(claims.UserID)
		if err != nil {
			abortUnauthorized(c, "invalid user ID in token")
			return
		}

		id := shared.Identity{MemberID: memberID, Role: claims.Role}
		if !id.Verified() {
			abortUnauthorized(c, "token carries no role")
			return
		}

		c.Set(ContextUserID, memberID)
		c.Set(ContextRole, claims.Role)
		c.Request = c.Request.WithContext(shared.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(401, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "AUTH_001",
			"message": message,
		},
	})
}
