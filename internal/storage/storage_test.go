package storage_test

import (
	"context"
	"testing"

	"github.com/geocoder89/warehouse/internal/config"
	"github.com/geocoder89/warehouse/internal/observability"
	"github.com/geocoder89/warehouse/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestResolveDriver(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"default", config.Config{}, config.DriverMemory},
		{"database url", config.Config{DBURL: "postgres://x"}, config.DriverORM},
		{"hosted url wins over database url", config.Config{DBURL: "postgres://x", HostedURL: "https://p.example"}, config.DriverHosted},
		{"explicit driver wins", config.Config{StorageDriver: config.DriverMemory, HostedURL: "https://p.example"}, config.DriverMemory},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, storage.ResolveDriver(tc.cfg))
		})
	}
}

func TestOpen_Memory(t *testing.T) {
	b, err := storage.Open(context.Background(), config.Config{}, observability.Discard(), nil)
	require.NoError(t, err)
	defer b.Close()

	require.Equal(t, config.DriverMemory, b.Name)
	require.NotNil(t, b.Users)
	require.NotNil(t, b.Products)
	require.NoError(t, b.Ping(context.Background()))
}

func TestOpen_SQLite(t *testing.T) {
	cfg := config.Config{
		StorageDriver: config.DriverORM,
		DBDialect:     "sqlite",
		DBURL:         ":memory:",
	}

	b, err := storage.Open(context.Background(), cfg, observability.Discard(), nil)
	require.NoError(t, err)
	defer b.Close()

	require.Equal(t, config.DriverORM, b.Name)
	require.NoError(t, b.Ping(context.Background()))
}

func TestOpen_ORMWithoutURL(t *testing.T) {
	_, err := storage.Open(context.Background(), config.Config{StorageDriver: config.DriverORM}, observability.Discard(), nil)
	require.Error(t, err)
}

func TestOpen_HostedRequiresKey(t *testing.T) {
	cfg := config.Config{StorageDriver: config.DriverHosted, HostedURL: "https://project.example"}

	_, err := storage.Open(context.Background(), cfg, observability.Discard(), nil)
	require.Error(t, err)

	cfg.HostedServiceKey = "key"
	b, err := storage.Open(context.Background(), cfg, observability.Discard(), nil)
	require.NoError(t, err)
	require.Equal(t, config.DriverHosted, b.Name)
	require.NoError(t, b.Close())
}
