package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/warehouse/internal/config"
	"github.com/geocoder89/warehouse/internal/domain/user"
	"github.com/geocoder89/warehouse/internal/http/middlewares"
	"github.com/geocoder89/warehouse/internal/service"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, error)
	IssueToken(ctx context.Context, req user.TokenRequest) (service.Token, error)
	Me(ctx context.Context, userID string) (user.User, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Token(ctx *gin.Context) {
	var req user.TokenRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt plus a lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	tok, err := h.svc.IssueToken(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, tok)
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.svc.Register(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.svc.Me(cctx, userID)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}
