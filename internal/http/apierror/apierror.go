// Package apierror renders the JSON error envelope shared by handlers and
// middlewares.
package apierror

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CtxRequestID    = "request_id"
	RequestIDHeader = "X-Request-Id"
)

type Body struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	Method    string `json:"method"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func New(ctx *gin.Context, status int, code, message string, details any) Body {
	return Body{
		Status:    status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      ctx.Request.URL.Path,
		Method:    ctx.Request.Method,
		RequestID: RequestIDFrom(ctx),
		Details:   details,
	}
}

func Respond(ctx *gin.Context, status int, code, message string, details any) {
	ctx.JSON(status, New(ctx, status, code, message, details))
}

// Abort responds and stops the handler chain.
func Abort(ctx *gin.Context, status int, code, message string, details any) {
	ctx.AbortWithStatusJSON(status, New(ctx, status, code, message, details))
}

func RequestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString(CtxRequestID); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader(RequestIDHeader)
}
