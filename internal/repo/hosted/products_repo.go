package hosted

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/geocoder89/warehouse/internal/domain/product"
)

const (
	productsTable = "products"
	// lowStockView is products filtered to quantity <= minimum_stock.
	lowStockView = "low_stock_products"
)

type ProductsRepo struct {
	c *Client
}

var productOutcome = isDomainErr(product.ErrNotFound, product.ErrSKUTaken)

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) (product.Product, error) {
	err := r.c.prom.ObserveDB(backendName, "products.create", func() error {
		var rows []productRow
		_, err := r.c.do(ctx, http.MethodPost, productsTable, nil, productRowFrom(p), "return=representation", &rows)
		return mapProductErr(err)
	}, productOutcome)

	if err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	return r.one(ctx, "products.get_by_id", "id", id)
}

func (r *ProductsRepo) GetBySKU(ctx context.Context, sku string) (product.Product, error) {
	return r.one(ctx, "products.get_by_sku", "sku", sku)
}

func (r *ProductsRepo) one(ctx context.Context, op, column, value string) (product.Product, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set(column, eq(value))
	q.Set("limit", "1")

	var rows []productRow
	err := r.c.prom.ObserveDB(backendName, op, func() error {
		_, err := r.c.do(ctx, http.MethodGet, productsTable, q, nil, "", &rows)
		if err == nil && len(rows) == 0 {
			err = errNoRows
		}
		return mapProductErr(err)
	}, productOutcome)

	if err != nil {
		return product.Product{}, err
	}
	return rows[0].toDomain(), nil
}

func (r *ProductsRepo) List(ctx context.Context, f product.ListFilter) ([]product.Product, int, error) {
	table := productsTable
	if f.LowStock {
		table = lowStockView
	}

	q := listQuery(f)

	var rows []productRow
	var total int

	err := r.c.prom.ObserveDB(backendName, "products.list", func() error {
		res, err := r.c.do(ctx, http.MethodGet, table, q, nil, "count=exact", &rows)
		if err != nil {
			return mapProductErr(err)
		}
		total = res.total
		if total < 0 {
			total = len(rows)
		}
		return nil
	})

	if err != nil {
		return nil, 0, err
	}

	out := make([]product.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, total, nil
}

func (r *ProductsRepo) Update(ctx context.Context, id string, patch product.UpdateProductRequest, now time.Time) (product.Product, error) {
	q := url.Values{}
	q.Set("id", eq(id))

	var rows []productRow
	err := r.c.prom.ObserveDB(backendName, "products.update", func() error {
		_, err := r.c.do(ctx, http.MethodPatch, productsTable, q, patch.Columns(now), "return=representation", &rows)
		if err == nil && len(rows) == 0 {
			err = errNoRows
		}
		return mapProductErr(err)
	}, productOutcome)

	if err != nil {
		return product.Product{}, err
	}
	return rows[0].toDomain(), nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", eq(id))
	q.Set("select", "id")

	return r.c.prom.ObserveDB(backendName, "products.delete", func() error {
		var rows []struct {
			ID string `json:"id"`
		}
		_, err := r.c.do(ctx, http.MethodDelete, productsTable, q, nil, "return=representation", &rows)
		if err == nil && len(rows) == 0 {
			err = errNoRows
		}
		return mapProductErr(err)
	}, productOutcome)
}

func listQuery(f product.ListFilter) url.Values {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.asc,id.asc")

	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
		q.Set("offset", strconv.Itoa(f.Offset()))
	}

	if f.Status != nil {
		q.Set("status", eq(string(*f.Status)))
	}
	// imatch is ~*; QuoteMeta keeps user input literal where ilike would
	// treat *, % and _ as wildcards
	if f.Category != nil {
		q.Set("category", "imatch.^"+regexp.QuoteMeta(*f.Category)+"$")
	}
	if f.Brand != nil {
		q.Set("brand", "imatch.^"+regexp.QuoteMeta(*f.Brand)+"$")
	}
	if f.Query != nil {
		pattern := quote(regexp.QuoteMeta(*f.Query))
		q.Set("or", "(name.imatch."+pattern+",sku.imatch."+pattern+")")
	}
	if f.MinQuantity != nil {
		q.Add("quantity", "gte."+strconv.Itoa(*f.MinQuantity))
	}
	if f.MaxQuantity != nil {
		q.Add("quantity", "lte."+strconv.Itoa(*f.MaxQuantity))
	}
	if f.MinPriceCents != nil {
		q.Add("unit_price_cents", "gte."+strconv.FormatInt(*f.MinPriceCents, 10))
	}
	if f.MaxPriceCents != nil {
		q.Add("unit_price_cents", "lte."+strconv.FormatInt(*f.MaxPriceCents, 10))
	}

	return q
}

func mapProductErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNoRows):
		return product.ErrNotFound
	case errors.Is(err, errConflict):
		return product.ErrSKUTaken
	default:
		return err
	}
}
