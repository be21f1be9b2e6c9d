package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nohatek/autoblog/internal/pkg/response"
)

// AdminAuth returns a middleware that enforces the static admin bearer
// token. With no token configured every request is rejected; the admin API
// is never open by accident.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := NormalizeToken(c.GetHeader("Authorization"))
		if token == "" || presented == "" {
			response.Unauthorized(c)
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			response.Unauthorized(c)
			return
		}
		c.Next()
	}
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
