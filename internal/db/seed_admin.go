package db

import (
	"context"
	"log/slog"

	"github.com/geocoder89/warehouse/internal/config"
	"github.com/geocoder89/warehouse/internal/domain/user"
	"github.com/geocoder89/warehouse/internal/service"
)

// EnsureAdminUser seeds the configured admin account on whichever backend
// is active. It is a no-op when no admin credentials are configured.
func EnsureAdminUser(ctx context.Context, users user.Repository, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	// token issuing is never reached from EnsureAdmin
	svc := service.NewAuthService(users, nil, log, nil)

	_, err := svc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	return err
}
