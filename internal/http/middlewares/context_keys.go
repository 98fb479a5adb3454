package middlewares

import "github.com/geocoder89/warehouse/internal/http/apierror"

// gin context keys
const (
	CtxRequestID = apierror.CtxRequestID
	CtxUserID    = "auth.userID"
	CtxUsername  = "auth.username"
	CtxRole      = "auth.role"
)
