package middlewares

import (
	"net/http"

	"github.com/geocoder89/warehouse/internal/http/apierror"
	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies. Declared oversize bodies are rejected
// up front; streamed ones fail at bind time.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > max {
			apierror.Abort(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}
