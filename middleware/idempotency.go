package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/orderflow-labs/storefront-api/idempotency"
)

// RequireIdempotencyKey rejects mutating requests that carry no
// Idempotency-Key header. A missing key is a client error; the core never
// sees the request.
func RequireIdempotencyKey(c *gin.Context) {
	key := strings.TrimSpace(c.GetHeader(idempotency.Header))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": idempotency.Header + " header is required",
			"code":  "validation",
		})
		c.Abort()
		return
	}
	c.Next()
}
