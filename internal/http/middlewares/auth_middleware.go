package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/warehouse/internal/actorctx"
	"github.com/geocoder89/warehouse/internal/auth"
	"github.com/geocoder89/warehouse/internal/http/apierror"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			apierror.Abort(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header", nil)
			return
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			apierror.Abort(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token", nil)
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			apierror.Abort(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token", nil)
			return
		}

		// Stash useful bits of identity on the context
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxRole, claims.Role)

		c.Request = c.Request.WithContext(actorctx.With(c.Request.Context(), actorctx.Actor{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		}))

		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(CtxUserID)
	return id, id != ""
}

func RoleFromContext(c *gin.Context) (string, bool) {
	role := c.GetString(CtxRole)
	return role, role != ""
}
