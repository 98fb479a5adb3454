package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/warehouse/internal/domain"
	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/geocoder89/warehouse/internal/domain/user"
	"github.com/geocoder89/warehouse/internal/http/apierror"
	"github.com/geocoder89/warehouse/internal/repo"
	"github.com/geocoder89/warehouse/internal/service"
	"github.com/gin-gonic/gin"
)

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	apierror.Respond(ctx, status, code, message, details)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondUnavailable(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusServiceUnavailable, "service_unavailable", message, nil)
}

// RespondServiceError maps domain and infrastructure errors onto the
// envelope. Infrastructure causes are logged, never echoed.
func RespondServiceError(ctx *gin.Context, err error) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		RespondError(ctx, http.StatusBadRequest, "validation_failed", "Validation failed", verr)
	case errors.Is(err, product.ErrNotFound):
		RespondNotFound(ctx, "Product not found")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, product.ErrSKUTaken):
		RespondConflict(ctx, "sku_taken", "A product with this SKU already exists")
	case errors.Is(err, user.ErrUsernameTaken):
		RespondConflict(ctx, "username_taken", "Username is already in use")
	case errors.Is(err, service.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, "invalid_credentials", "Username or password is incorrect")
	case errors.Is(err, repo.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		slog.Default().ErrorContext(ctx.Request.Context(), "storage unavailable",
			"err", err, "route", ctx.FullPath(), "request_id", apierror.RequestIDFrom(ctx))
		RespondUnavailable(ctx, "Service temporarily unavailable")
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "unexpected error",
			"err", err, "route", ctx.FullPath(), "request_id", apierror.RequestIDFrom(ctx))
		RespondInternal(ctx, "Internal server error")
	}
}
