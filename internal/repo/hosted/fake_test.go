package hosted_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const testKey = "service-key"

type row = map[string]any

// fakePostgREST covers the slice of PostgREST the hosted client speaks:
// eq/gte/lte/ilike/imatch filters, or=(...) groups, order by created_at,id,
// limit/offset, Prefer count=exact and unique constraints.
type fakePostgREST struct {
	mu     sync.Mutex
	tables map[string][]row
	unique map[string][]string

	// forced status for every request when non-zero
	failWith int
}

func newFakePostgREST(t *testing.T) (*fakePostgREST, *httptest.Server) {
	t.Helper()

	f := &fakePostgREST{
		tables: map[string][]row{"users": {}, "products": {}},
		unique: map[string][]string{
			"users":    {"id", "username"},
			"products": {"id", "sku"},
		},
	}

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	return f, srv
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("apikey") != testKey || r.Header.Get("Authorization") != "Bearer "+testKey {
		writeErr(w, http.StatusUnauthorized, "PGRST301", "invalid api key")
		return
	}

	if f.failWith != 0 {
		writeErr(w, f.failWith, "XX000", "forced failure")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	q := r.URL.Query()

	source := name
	if name == "low_stock_products" {
		source = "products"
	}

	if _, ok := f.tables[source]; !ok {
		writeErr(w, http.StatusNotFound, "42P01", "relation does not exist")
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		matched := f.match(source, q)
		if name == "low_stock_products" {
			matched = lowStock(matched)
		}
		sortRows(matched)

		total := len(matched)
		offset, _ := strconv.Atoi(q.Get("offset"))
		if offset > len(matched) {
			offset = len(matched)
		}
		matched = matched[offset:]
		if l := q.Get("limit"); l != "" {
			n, _ := strconv.Atoi(l)
			if n < len(matched) {
				matched = matched[:n]
			}
		}

		if strings.Contains(r.Header.Get("Prefer"), "count=exact") {
			if len(matched) == 0 {
				w.Header().Set("Content-Range", fmt.Sprintf("*/%d", total))
			} else {
				w.Header().Set("Content-Range", fmt.Sprintf("%d-%d/%d", offset, offset+len(matched)-1, total))
			}
		}
		writeJSON(w, http.StatusOK, matched)

	case http.MethodPost:
		var in row
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, http.StatusBadRequest, "PGRST102", err.Error())
			return
		}
		if col := f.violates(source, in, nil); col != "" {
			writeErr(w, http.StatusConflict, "23505", fmt.Sprintf("duplicate key value violates unique constraint \"%s_%s_key\"", source, col))
			return
		}
		f.tables[source] = append(f.tables[source], in)
		writeJSON(w, http.StatusCreated, []row{in})

	case http.MethodPatch:
		var patch row
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeErr(w, http.StatusBadRequest, "PGRST102", err.Error())
			return
		}

		matched := f.match(source, q)
		for _, m := range matched {
			next := row{}
			for k, v := range m {
				next[k] = v
			}
			for k, v := range patch {
				next[k] = v
			}
			if col := f.violates(source, next, m); col != "" {
				writeErr(w, http.StatusConflict, "23505", fmt.Sprintf("duplicate key value violates unique constraint \"%s_%s_key\"", source, col))
				return
			}
		}

		out := []row{}
		for _, m := range matched {
			for k, v := range patch {
				m[k] = v
			}
			out = append(out, m)
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodDelete:
		matched := f.match(source, q)
		keep := f.tables[source][:0]
		for _, existing := range f.tables[source] {
			if !contains(matched, existing) {
				keep = append(keep, existing)
			}
		}
		f.tables[source] = keep
		writeJSON(w, http.StatusOK, matched)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakePostgREST) match(table string, q url.Values) []row {
	out := []row{}
	for _, r := range f.tables[table] {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakePostgREST) violates(table string, candidate, self row) string {
	for _, col := range f.unique[table] {
		for _, existing := range f.tables[table] {
			if self != nil && sameRow(existing, self) {
				continue
			}
			if existing[col] == candidate[col] {
				return col
			}
		}
	}
	return ""
}

func matches(r row, q url.Values) bool {
	for key, values := range q {
		switch key {
		case "select", "order", "limit", "offset":
			continue
		case "or":
			if !matchOr(r, values[0]) {
				return false
			}
			continue
		}

		for _, v := range values {
			if !matchOne(r, key, v) {
				return false
			}
		}
	}
	return true
}

// matchOr handles (col.op.value,col.op.value) with optional quoting.
func matchOr(r row, group string) bool {
	group = strings.TrimSuffix(strings.TrimPrefix(group, "("), ")")

	for _, part := range splitOr(group) {
		col, expr, _ := strings.Cut(part, ".")
		op, val, _ := strings.Cut(expr, ".")
		val = unquote(val)
		if matchOne(r, col, op+"."+val) {
			return true
		}
	}
	return false
}

// unquote strips the surrounding quotes and backslash escapes.
func unquote(v string) string {
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return v
	}
	v = v[1 : len(v)-1]

	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			i++
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

func splitOr(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			cur.WriteByte(c)
			cur.WriteByte(s[i+1])
			i++
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ',' && !inQuote:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(parts, cur.String())
}

func matchOne(r row, col, expr string) bool {
	op, val, _ := strings.Cut(expr, ".")
	got := r[col]

	switch op {
	case "eq":
		return render(got) == val
	case "ilike":
		if got == nil {
			return false
		}
		return ilike(render(got), val)
	case "imatch":
		if got == nil {
			return false
		}
		re, err := regexp.Compile("(?i)" + val)
		if err != nil {
			return false
		}
		return re.MatchString(render(got))
	case "gte", "lte":
		n, ok := got.(float64)
		if !ok {
			return false
		}
		want, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return false
		}
		if op == "gte" {
			return n >= want
		}
		return n <= want
	}
	return false
}

func ilike(s, pattern string) bool {
	s, pattern = strings.ToLower(s), strings.ToLower(pattern)
	prefix := strings.HasPrefix(pattern, "*")
	suffix := strings.HasSuffix(pattern, "*")
	core := strings.Trim(pattern, "*")

	switch {
	case prefix && suffix:
		return strings.Contains(s, core)
	case prefix:
		return strings.HasSuffix(s, core)
	case suffix:
		return strings.HasPrefix(s, core)
	default:
		return s == core
	}
}

func render(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func lowStock(rows []row) []row {
	out := []row{}
	for _, r := range rows {
		minimum, ok := r["minimum_stock"].(float64)
		if !ok {
			continue
		}
		if qty, _ := r["quantity"].(float64); qty <= minimum {
			out = append(out, r)
		}
	}
	return out
}

func sortRows(rows []row) {
	parse := func(r row) time.Time {
		s, _ := r["created_at"].(string)
		ts, _ := time.Parse(time.RFC3339Nano, s)
		return ts
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := parse(rows[i]), parse(rows[j])
		if !a.Equal(b) {
			return a.Before(b)
		}
		return render(rows[i]["id"]) < render(rows[j]["id"])
	})
}

func sameRow(a, b row) bool {
	return render(a["id"]) == render(b["id"])
}

func contains(rows []row, r row) bool {
	for _, x := range rows {
		if sameRow(x, r) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"code": code, "message": msg})
}
