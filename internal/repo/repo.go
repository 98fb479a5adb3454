package repo

import (
	"context"
	"errors"

	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/geocoder89/warehouse/internal/domain/user"
)

// ErrUnavailable wraps every infrastructure failure a backend cannot
// attribute to the caller: unreachable database, timeouts, platform errors.
var ErrUnavailable = errors.New("storage unavailable")

// Backend is one storage strategy with both repositories bound.
type Backend struct {
	Name     string
	Users    user.Repository
	Products product.Repository
	Ping     func(ctx context.Context) error
	Close    func() error
}
