package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"tours-service/apperr"
	"tours-service/models"
)

const userKey = "currentUser"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// Protect lets the request through only with a valid bearer token and stores
// the resolved user on the context.
func Protect(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RestrictTo must run after Protect.
func RestrictTo(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !allowed[user.Role] {
			_ = c.Error(apperr.Authz("You do not have permission to perform this action"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
