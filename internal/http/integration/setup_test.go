package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/warehouse/internal/cache"
	"github.com/geocoder89/warehouse/internal/config"
	"github.com/geocoder89/warehouse/internal/db"
	apphttp "github.com/geocoder89/warehouse/internal/http"
	"github.com/geocoder89/warehouse/internal/observability"
	"github.com/geocoder89/warehouse/internal/repo"
	"github.com/geocoder89/warehouse/internal/repo/memory"
	"github.com/geocoder89/warehouse/internal/repo/orm"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	adminUsername = "admin"
	adminPassword = "admin-password-123"
)

func testConfig() config.Config {
	return config.Config{
		Env:           "test",
		JWTSecret:     "test-secret-key",
		JWTAccessTTL:  time.Hour,
		AdminUsername: adminUsername,
		AdminPassword: adminPassword,
		CORSOrigins:   []string{"http://localhost:4200"},
		MaxBodyBytes:  1 << 20,
		ServiceName:   "warehouse-test",
	}
}

type backendFactory struct {
	name string
	open func(t *testing.T) *repo.Backend
}

// backends lists every storage strategy the flows run against. Postgres
// joins only when TEST_DB_DSN is set.
func backends() []backendFactory {
	out := []backendFactory{
		{name: "memory", open: func(t *testing.T) *repo.Backend {
			return &repo.Backend{
				Name:     "memory",
				Users:    memory.NewUsersRepo(),
				Products: memory.NewProductsRepo(),
				Ping:     func(context.Context) error { return nil },
				Close:    func() error { return nil },
			}
		}},
		{name: "sqlite", open: func(t *testing.T) *repo.Backend {
			return ormBackend(t, orm.Config{Dialect: orm.DialectSQLite, DSN: ":memory:"})
		}},
	}

	if dsn := os.Getenv("TEST_DB_DSN"); dsn != "" {
		out = append(out, backendFactory{name: "postgres", open: func(t *testing.T) *repo.Backend {
			return ormBackend(t, orm.Config{Dialect: orm.DialectPostgres, DSN: dsn, MaxConns: 4})
		}})
	}

	return out
}

func ormBackend(t *testing.T, cfg orm.Config) *repo.Backend {
	t.Helper()

	store, err := orm.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open %s: %v", cfg.Dialect, err)
	}
	if err := store.Truncate(context.Background()); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return &repo.Backend{
		Name:     "orm",
		Users:    store.Users(),
		Products: store.Products(),
		Ping:     store.Ping,
		Close:    store.Close,
	}
}

func setupRouter(t *testing.T, backend *repo.Backend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	log := observability.Discard()

	if err := db.EnsureAdminUser(context.Background(), backend.Users, cfg, log); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	prom := observability.NewProm(prometheus.NewRegistry())

	return apphttp.NewRouter(log, cfg, backend, cache.New(time.Minute), prom)
}

// helpers

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}

	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

type apiErrorResponse struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	Method    string `json:"method"`
	RequestID string `json:"requestId"`
}

func login(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/v1/auth/token",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login %s got status %d, body=%s", username, w.Code, w.Body.String())
	}

	var tok tokenResponse
	mustReadJSON(t, w, &tok)
	return tok.AccessToken
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) apiErrorResponse {
	t.Helper()

	if w.Code != status {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, status, w.Body.String())
	}

	var e apiErrorResponse
	mustReadJSON(t, w, &e)
	if e.Code != code {
		t.Fatalf("got code %q, want %q", e.Code, code)
	}
	return e
}
