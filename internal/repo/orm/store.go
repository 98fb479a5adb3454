package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/warehouse/internal/db"
	"github.com/geocoder89/warehouse/internal/observability"
	"github.com/geocoder89/warehouse/internal/repo"
	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const backendName = "orm"

type Config struct {
	Dialect  string
	DSN      string
	MaxConns int32
}

// Store owns the gorm handle and, for Postgres, the pgx pool underneath it.
type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
	pool  *pgxpool.Pool
	prom  *observability.Prom
}

// Open connects, migrates the users and products tables and returns a
// ready Store.
func Open(ctx context.Context, cfg Config, prom *observability.Prom) (*Store, error) {
	s := &Store{prom: prom}

	var dialector gorm.Dialector

	switch cfg.Dialect {
	case DialectPostgres, "":
		pool, err := db.NewPool(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("%w: connect postgres: %w", repo.ErrUnavailable, err)
		}
		s.pool = pool
		dialector = postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)})
	case DialectSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown orm dialect %q", cfg.Dialect)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		s.closePool()
		return nil, fmt.Errorf("%w: open gorm: %w", repo.ErrUnavailable, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		s.closePool()
		return nil, err
	}
	s.db = gdb
	s.sqlDB = sqlDB

	if cfg.Dialect == DialectSQLite {
		// one writer; also keeps ":memory:" databases alive across calls
		sqlDB.SetMaxOpenConns(1)
	}

	if err := gdb.WithContext(ctx).AutoMigrate(&userModel{}, &productModel{}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{db: s.db, prom: s.prom}
}

func (s *Store) Products() *ProductsRepo {
	return &ProductsRepo{db: s.db, prom: s.prom}
}

func (s *Store) Ping(ctx context.Context) error {
	var err error
	if s.pool != nil {
		err = s.pool.Ping(ctx)
	} else {
		err = s.sqlDB.PingContext(ctx)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", repo.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	err := s.sqlDB.Close()
	s.closePool()
	return err
}

func (s *Store) closePool() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// mapErr folds driver errors into the domain taxonomy.
func mapErr(err, notFound, conflict error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case isUniqueViolation(err):
		return conflict
	default:
		return fmt.Errorf("%w: %w", repo.ErrUnavailable, err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isDomainErr(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

// Truncate empties both tables. Used by integration tests.
func (s *Store) Truncate(ctx context.Context) error {
	tx := s.db.WithContext(ctx)
	if err := tx.Exec("DELETE FROM products").Error; err != nil {
		return err
	}
	return tx.Exec("DELETE FROM users").Error
}
