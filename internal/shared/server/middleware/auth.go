package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/server/respond"
)

const principalKey = "principal"

// Auth checks a static bearer token. An empty token disables the check.
// Health and metrics endpoints stay open for probes.
func Auth(token string) gin.HandlerFunc {
	token = strings.TrimSpace(token)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if token == "" || isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		got := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(principalKey, "token:"+tokenSuffix(got))
		c.Next()
	}
}

func isPublicPath(path string) bool {
	return path == "/api/v1/health" || path == "/metrics"
}

func tokenSuffix(token string) string {
	if len(token) <= 4 {
		return token
	}
	return token[len(token)-4:]
}

// PrincipalFromContext returns the caller identity set by Auth, if any.
func PrincipalFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(principalKey)
	if p, ok := val.(string); ok {
		return p
	}
	return ""
}
