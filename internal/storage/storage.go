package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/warehouse/internal/config"
	"github.com/geocoder89/warehouse/internal/observability"
	"github.com/geocoder89/warehouse/internal/repo"
	"github.com/geocoder89/warehouse/internal/repo/hosted"
	"github.com/geocoder89/warehouse/internal/repo/memory"
	"github.com/geocoder89/warehouse/internal/repo/orm"
)

// ResolveDriver picks the backend: an explicit STORAGE_DRIVER wins, then
// hosted when HOSTED_URL is set, then orm when DATABASE_URL is set.
func ResolveDriver(cfg config.Config) string {
	switch {
	case cfg.StorageDriver != "":
		return cfg.StorageDriver
	case cfg.HostedURL != "":
		return config.DriverHosted
	case cfg.DBURL != "":
		return config.DriverORM
	default:
		return config.DriverMemory
	}
}

// Open builds the selected backend with both repositories bound.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (*repo.Backend, error) {
	driver := ResolveDriver(cfg)

	var (
		b   *repo.Backend
		err error
	)

	switch driver {
	case config.DriverMemory:
		b = openMemory()
	case config.DriverORM:
		b, err = openORM(ctx, cfg, prom)
	case config.DriverHosted:
		b, err = openHosted(cfg, prom)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", driver, err)
	}

	log.Info("storage ready", "backend", b.Name)
	return b, nil
}

func openMemory() *repo.Backend {
	return &repo.Backend{
		Name:     config.DriverMemory,
		Users:    memory.NewUsersRepo(),
		Products: memory.NewProductsRepo(),
		Ping:     func(context.Context) error { return nil },
		Close:    func() error { return nil },
	}
}

func openORM(ctx context.Context, cfg config.Config, prom *observability.Prom) (*repo.Backend, error) {
	if cfg.DBURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the %s driver", config.DriverORM)
	}

	store, err := orm.Open(ctx, orm.Config{
		Dialect:  cfg.DBDialect,
		DSN:      cfg.DBURL,
		MaxConns: cfg.DBMaxConns,
	}, prom)
	if err != nil {
		return nil, err
	}

	return &repo.Backend{
		Name:     config.DriverORM,
		Users:    store.Users(),
		Products: store.Products(),
		Ping:     store.Ping,
		Close:    store.Close,
	}, nil
}

func openHosted(cfg config.Config, prom *observability.Prom) (*repo.Backend, error) {
	client, err := hosted.NewClient(hosted.Config{
		URL:        cfg.HostedURL,
		ServiceKey: cfg.HostedServiceKey,
		Timeout:    cfg.HostedTimeout,
	}, prom)
	if err != nil {
		return nil, err
	}

	return &repo.Backend{
		Name:     config.DriverHosted,
		Users:    client.Users(),
		Products: client.Products(),
		Ping:     client.Ping,
		Close:    client.Close,
	}, nil
}
