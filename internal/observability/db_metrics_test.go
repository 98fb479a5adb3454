package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"pg unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"pg wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "40P01"}), "deadlock"},
		{"pg other", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: products.sku (2067)"), "unique_violation"},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{"dial", errors.New("failed to connect: connection refused"), "connection"},
		{"other", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyDBErr(tt.err); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObserveDB_CountsUnexpectedErrorsOnly(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())
	notFound := errors.New("not found")

	isNotFound := func(err error) bool { return errors.Is(err, notFound) }

	_ = p.ObserveDB("orm", "products.get", func() error { return notFound }, isNotFound)
	_ = p.ObserveDB("orm", "products.get", func() error { return errors.New("connection reset") }, isNotFound)

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("orm", "products.get", "connection")); got != 1 {
		t.Fatalf("got %v connection errors, want 1", got)
	}
	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 1 {
		t.Fatalf("expected a single error series, got %d", got)
	}
}

func TestObserveDB_NilPromStillRunsFn(t *testing.T) {
	var p *Prom
	called := false

	err := p.ObserveDB("memory", "noop", func() error {
		called = true
		return nil
	})

	if err != nil || !called {
		t.Fatalf("fn not run through nil Prom: called=%v err=%v", called, err)
	}
}
