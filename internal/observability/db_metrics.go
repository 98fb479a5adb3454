package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times one logical storage operation. Domain outcomes such as
// not-found are reported by fn through its return value and still count as
// errors here; callers that want them excluded pass isExpected.
func (p *Prom) ObserveDB(backend, op string, fn func() error, isExpected ...func(error) bool) error {
	start := time.Now()
	err := fn()

	if p == nil {
		return err
	}

	status := "ok"

	if err != nil && !expected(err, isExpected) {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(backend, op, ClassifyDBErr(err)).Inc()
	}
	p.DbQueryDuration.WithLabelValues(backend, op, status).Observe(time.Since(start).Seconds())
	return err
}

func expected(err error, checks []func(error) bool) bool {
	for _, check := range checks {
		if check(err) {
			return true
		}
	}
	return false
}

func ClassifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate"):
		return "unique_violation"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection") || strings.Contains(msg, "unavailable"):
		return "connection"
	default:
		return "unknown"
	}
}
