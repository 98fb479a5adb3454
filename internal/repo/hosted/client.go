// Package hosted stores users and products in a hosted Postgres reached
// through its PostgREST interface (Supabase and similar platforms).
package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/warehouse/internal/observability"
	"github.com/geocoder89/warehouse/internal/repo"
)

const backendName = "hosted"

var (
	errConflict = errors.New("hosted: unique violation")
	errNoRows   = errors.New("hosted: no rows")
)

type Config struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
}

type Client struct {
	restURL    string
	serviceKey string
	httpClient *http.Client
	prom       *observability.Prom
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func NewClient(cfg Config, prom *observability.Prom) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("hosted: invalid url %q", cfg.URL)
	}

	if cfg.ServiceKey == "" {
		return nil, errors.New("hosted: service key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		restURL:    u.String() + "/rest/v1",
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: timeout},
		prom:       prom,
	}, nil
}

func (c *Client) Users() *UsersRepo {
	return &UsersRepo{c: c}
}

func (c *Client) Products() *ProductsRepo {
	return &ProductsRepo{c: c}
}

// Ping checks the platform is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")

	_, err := c.do(ctx, http.MethodHead, "products", q, nil, "", nil)
	return err
}

type response struct {
	total int
}

// do sends one request and decodes the JSON body into dst when set.
func (c *Client) do(ctx context.Context, method, table string, q url.Values, body any, prefer string, dst any) (response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return response{}, fmt.Errorf("hosted: marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	endpoint := c.restURL + "/" + table
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return response{}, fmt.Errorf("hosted: create request: %w", err)
	}

	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("%w: %w", repo.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return response{}, statusErr(resp)
	}

	out := response{total: -1}
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		out.total = parseTotal(cr)
	}

	if dst != nil && method != http.MethodHead {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return response{}, fmt.Errorf("%w: decode %s response: %w", repo.ErrUnavailable, table, err)
		}
	}

	return out, nil
}

func statusErr(resp *http.Response) error {
	var apiErr apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &apiErr)

	switch {
	case resp.StatusCode == http.StatusConflict || apiErr.Code == "23505":
		return fmt.Errorf("%w: %s", errConflict, apiErr.Message)
	case resp.StatusCode == http.StatusNotFound || apiErr.Code == "PGRST116":
		return errNoRows
	default:
		return fmt.Errorf("%w: platform returned %d %s %s", repo.ErrUnavailable, resp.StatusCode, apiErr.Code, apiErr.Message)
	}
}

// parseTotal reads the total from "0-24/137" or "*/0". Unknown totals ("*")
// come back as -1.
func parseTotal(contentRange string) int {
	i := strings.LastIndexByte(contentRange, '/')
	if i < 0 {
		return -1
	}

	n, err := strconv.Atoi(contentRange[i+1:])
	if err != nil {
		return -1
	}
	return n
}

func eq(v string) string { return "eq." + v }

// quote wraps a value for use inside or=(...) groups.
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
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

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
