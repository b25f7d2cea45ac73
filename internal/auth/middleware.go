package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userContextKey = "auth.user"

type Middleware struct {
	service *Service
	log     *zap.Logger
}

func NewMiddleware(service *Service, log *zap.Logger) *Middleware {
	return &Middleware{
		service: service,
		log:     log,
	}
}

// RequireAuth runs full verification (token signature/expiry, session row,
// live user) and stores the user in the request context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, "token missing", "provide a Bearer token in the Authorization header")
			c.Abort()
			return
		}

		result, err := m.service.Verify(token)
		if err != nil {
			if errors.Is(err, ErrAccountInactive) {
				writeError(c, http.StatusForbidden, "account inactive", "account was deactivated by an administrator")
			} else {
				writeError(c, http.StatusUnauthorized, "unauthorized", "invalid or expired authentication")
			}
			c.Abort()
			return
		}

		c.Set(userContextKey, result.User)
		c.Next()
	}
}

// UserFromContext returns the authenticated user stored by RequireAuth.
func UserFromContext(c *gin.Context) (*User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*User)
	return user, ok
}
