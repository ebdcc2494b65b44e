package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys under which AuthMiddleware stores the caller's identity in the gin context.
const (
	ContextUserID          = "userID"
	ContextUserEmail       = "userEmail"
	ContextUserDisplayName = "userDisplayName"
)

// TokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware provides Gin middleware for Firebase token authentication.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// VerifyToken verifies the bearer ID token and stores the caller's UID, email
// and display name in the gin context. Failures are answered with a callable
// UNAUTHENTICATED error.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthenticated(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortUnauthenticated(c, "Authorization header format must be 'Bearer {token}'")
			return
		}

		token, err := m.verifier.VerifyIDToken(c.Request.Context(), parts[1])
		if err != nil {
			m.logger.Warn("Error verifying Firebase ID token", zap.Error(err))
			abortUnauthenticated(c, "Invalid or expired authentication token")
			return
		}

		c.Set(ContextUserID, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set(ContextUserEmail, email)
		}
		if name, ok := token.Claims["name"].(string); ok {
			c.Set(ContextUserDisplayName, name)
		}
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"status": "UNAUTHENTICATED", "message": message},
	})
}
