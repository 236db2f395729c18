package errs

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a typed error as the standard error envelope. Untyped
// errors are reported as internal without leaking their message.
func JSON(c *gin.Context, err error) {
	if e, ok := As(err); ok {
		c.JSON(e.Status, gin.H{"error": e.Message, "code": e.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
}
