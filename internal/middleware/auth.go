package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskflow/internal/domain"
	"taskflow/internal/pkg/jwt"
)

// UserLookup resolves the user embedded in a validated access token. The
// token alone is not enough: the account may have been deleted since issue.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

const (
	CtxUserIDKey = "user_id"
	CtxUserKey   = "user"
)

// Auth validates the bearer access token on every protected request and
// attaches the resolved identity to the context. Every failure maps to the
// same generic 401 so callers learn nothing about why the token was bad.
func Auth(jwtSvc *jwt.Service, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			unauthorized(c)
			return
		}

		claims, err := jwtSvc.ValidateAccessToken(tokenStr)
		if err != nil {
			unauthorized(c)
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxUserKey, user)

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "Unauthorized",
	})
}
