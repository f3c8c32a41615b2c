package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"certify-backend/internal/shared/auth"
	"certify-backend/internal/shared/server/respond"
)

const (
	userIDKey   = "userId"
	userNameKey = "userName"
	userRoleKey = "userRole"
)

// Auth validates bearer JWTs and stores the caller's identity in context.
// Requests for publicPaths pass through without identity.
func Auth(publicPaths ...string) gin.HandlerFunc {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if _, ok := public[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		SetPrincipal(c, claims.Principal())
		c.Next()
	}
}

// RequireRole rejects callers whose role is not role.
func RequireRole(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFromContext(c).Role != role {
			respond.Error(c, http.StatusForbidden, "forbidden", "not allowed", nil)
			return
		}
		c.Next()
	}
}

// SetPrincipal stores p in the request context.
func SetPrincipal(c *gin.Context, p auth.Principal) {
	c.Set(userIDKey, p.ID)
	if p.DisplayName != "" {
		c.Set(userNameKey, p.DisplayName)
	}
	c.Set(userRoleKey, string(p.Role))
}

// PrincipalFromContext rebuilds the caller identity set by the auth middleware.
func PrincipalFromContext(c *gin.Context) auth.Principal {
	return auth.Principal{
		ID:          UserIDFromContext(c),
		DisplayName: UserNameFromContext(c),
		Role:        auth.ParseRole(UserRoleFromContext(c)),
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

// UserRoleFromContext fetches the raw role set by the auth middleware.
func UserRoleFromContext(c *gin.Context) string {
	return stringFromContext(c, userRoleKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
