package middlewares

import (
	"net/http"
	"slices"
	"strings"

	"github.com/geocoder89/warehouse/internal/http/apierror"
	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the caller holds any of roles.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	msg := "Requires role " + strings.Join(roles, " or ")

	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok {
			apierror.Abort(c, http.StatusUnauthorized, "unauthorized", "Missing identity context", nil)
			return
		}
		if !slices.Contains(roles, role) {
			apierror.Abort(c, http.StatusForbidden, "forbidden", msg, nil)
			return
		}
		c.Next()
	}
}
