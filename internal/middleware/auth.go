package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"iapkit/internal/response"

	"github.com/gin-gonic/gin"
)

// APIKeyAuthMiddleware requires one of keys in the X-API-Key header (or the
// api_key query parameter). With no keys configured every request passes.
func APIKeyAuthMiddleware(keys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("request_time", time.Now())
		if len(keys) == 0 {
			c.Next()
			return
		}

		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if apiKey == "" {
			response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "Missing api_key")
			c.Abort()
			return
		}

		if !validKey(keys, apiKey) {
			response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid api_key")
			c.Abort()
			return
		}

		c.Next()
	}
}

func validKey(keys []string, candidate string) bool {
	valid := false
	for _, key := range keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			valid = true
		}
	}
	return valid
}
