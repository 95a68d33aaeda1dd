package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"authapi/internal/domain/entity"
	"authapi/pkg/helpers"
	"authapi/pkg/response"
)

const ctxUserKey = "authenticatedUser"

// UserResolver turns a verified token subject into the stored record.
type UserResolver interface {
	ResolveUser(ctx context.Context, userID string) (*entity.User, error)
}

// Auth validates the bearer token from the Authorization header, resolves
// its subject to a stored record and attaches the hash-free record to the
// context. Every failure short-circuits with 401: a missing header, a bad
// or expired signature, and a subject whose record has vanished all look
// the same to the client.
func Auth(jwt *helpers.JWTManager, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "not authorized, token missing", nil)
			c.Abort()
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "not authorized, token invalid", nil)
			c.Abort()
			return
		}
		u, err := users.ResolveUser(c.Request.Context(), claims.Subject)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "not authorized, token invalid", nil)
			c.Abort()
			return
		}
		c.Set(ctxUserKey, u)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentUser returns the principal attached by Auth.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok
}
