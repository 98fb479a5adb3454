package config

import (
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("port = %d", cfg.Port)
	}
	if cfg.JWTSecret != devJWTSecret {
		t.Fatalf("expected dev secret fallback")
	}
	if cfg.JWTAccessTTL != 15*time.Minute {
		t.Fatalf("ttl = %s", cfg.JWTAccessTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:4200" {
		t.Fatalf("cors = %v", cfg.CORSOrigins)
	}
}

func TestParse_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")

	_, err := Parse()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestParse_RejectsUnknownDriverAndDialect(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_DRIVER", "mongo")
	t.Setenv("DB_DIALECT", "mysql")

	_, err := Parse()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "STORAGE_DRIVER") || !strings.Contains(err.Error(), "DB_DIALECT") {
		t.Fatalf("expected both errors, got %v", err)
	}
}

func TestParse_NormalizesValues(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_DRIVER", " ORM ")
	t.Setenv("DB_DIALECT", "SQLite")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.StorageDriver != DriverORM || cfg.DBDialect != "sqlite" {
		t.Fatalf("driver=%q dialect=%q", cfg.StorageDriver, cfg.DBDialect)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("cors = %v", cfg.CORSOrigins)
	}
}

func TestParse_AdminCredentialsTogether(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_PASSWORD", "")

	if _, err := Parse(); err == nil {
		t.Fatal("expected error for half-configured admin")
	}
}
