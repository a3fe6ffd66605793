package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"audioscribe/internal/app"
	"audioscribe/internal/pkg/jwtutil"
	"audioscribe/internal/transport/http/response"
)

const (
	ContextUserKey  = "current_user"
	ContextEmailKey = "email"
)

// AuthJWT validates the bearer token, resolves the subject to an active user
// and stores the user on the request context.
func AuthJWT(secret string, authService *app.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		user, err := authService.GetUserByEmail(claims.Email)
		if err != nil {
			response.Error(c, 500, response.CodeInternalServer, "resolve current user failed")
			c.Abort()
			return
		}
		if user == nil {
			response.Error(c, 401, response.CodeUnauthorized, "user not found")
			c.Abort()
			return
		}
		if !user.IsActive {
			response.Error(c, 401, response.CodeInactiveUser, "inactive user")
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextEmailKey, user.Email)
		c.Next()
	}
}
