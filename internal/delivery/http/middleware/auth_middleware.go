package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (domain.Session, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth resolves the bearer token into a session. Browsers cannot set
// headers on a websocket handshake, so a "token" query parameter is accepted
// as well.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}

		session, err := m.verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

func SessionFrom(c *gin.Context) (domain.Session, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return domain.Session{}, false
	}
	session, ok := value.(domain.Session)
	return session, ok && session.Valid()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
