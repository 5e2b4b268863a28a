package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/pkg/httputil"
)

// Recovery turns a handler panic into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			event := RequestLogger(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("method", c.Request.Method).
				Str("path", c.FullPath())
			if userID, ok := c.Get(ContextUserID); ok {
				event = event.Interface("user_id", userID)
			}
			event.Msg("Request panic recovered")

			if !c.Writer.Written() {
				httputil.RespondWithStatus(c, http.StatusInternalServerError, "Internal server error")
			}
			c.Abort()
		}()
		c.Next()
	}
}
