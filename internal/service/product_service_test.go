package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/geocoder89/warehouse/internal/actorctx"
	"github.com/geocoder89/warehouse/internal/cache"
	"github.com/geocoder89/warehouse/internal/domain"
	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/geocoder89/warehouse/internal/observability"
	"github.com/geocoder89/warehouse/internal/repo"
	"github.com/geocoder89/warehouse/internal/repo/memory"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func int64Ptr(i int64) *int64 { return &i }

// countingRepo records reads so cache hits are observable.
type countingRepo struct {
	product.Repository
	gets  int
	lists int
	fail  error
}

func (r *countingRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	r.gets++
	if r.fail != nil {
		return product.Product{}, r.fail
	}
	return r.Repository.GetByID(ctx, id)
}

func (r *countingRepo) List(ctx context.Context, f product.ListFilter) ([]product.Product, int, error) {
	r.lists++
	if r.fail != nil {
		return nil, 0, r.fail
	}
	return r.Repository.List(ctx, f)
}

func newProductService(t *testing.T) (*ProductService, *countingRepo) {
	t.Helper()

	r := &countingRepo{Repository: memory.NewProductsRepo()}
	return NewProductService(r, cache.New(time.Minute), observability.Discard(), nil), r
}

func validCreate(sku string) product.CreateProductRequest {
	return product.CreateProductRequest{
		SKU:            sku,
		Name:           "Widget " + sku,
		Quantity:       5,
		UnitPriceCents: 250,
	}
}

func TestProductService_CreateNormalizes(t *testing.T) {
	svc, _ := newProductService(t)

	req := validCreate("  ab-12 ")
	req.Name = "  Torque wrench  "
	req.Category = strPtr("   ")
	req.Brand = strPtr(" Acme ")

	p, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, "AB-12", p.SKU)
	require.Equal(t, "Torque wrench", p.Name)
	require.Nil(t, p.Category)
	require.Equal(t, "Acme", *p.Brand)
	require.Equal(t, product.StatusActive, p.Status)
	require.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestProductService_CreateValidates(t *testing.T) {
	svc, _ := newProductService(t)
	ctx := context.Background()

	cases := []struct {
		field  string
		mutate func(*product.CreateProductRequest)
	}{
		{"sku", func(r *product.CreateProductRequest) { r.SKU = "   " }},
		{"sku", func(r *product.CreateProductRequest) { r.SKU = "HAS SPACE" }},
		{"name", func(r *product.CreateProductRequest) { r.Name = " " }},
		{"quantity", func(r *product.CreateProductRequest) { r.Quantity = -1 }},
		{"minimumStock", func(r *product.CreateProductRequest) { r.MinimumStock = intPtr(-3) }},
		{"unitPriceCents", func(r *product.CreateProductRequest) { r.UnitPriceCents = -1 }},
		{"status", func(r *product.CreateProductRequest) { r.Status = "archived" }},
		{"imageUrl", func(r *product.CreateProductRequest) { r.ImageURL = strPtr("ftp://files/x.png") }},
		{"imageUrl", func(r *product.CreateProductRequest) { r.ImageURL = strPtr("/relative.png") }},
	}

	for _, tc := range cases {
		req := validCreate("V-1")
		tc.mutate(&req)

		_, err := svc.Create(ctx, req)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, "field %s", tc.field)
		require.Equal(t, tc.field, verr.Field)
	}
}

func TestProductService_DuplicateSKUAfterNormalization(t *testing.T) {
	svc, _ := newProductService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validCreate("dup-1"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validCreate(" DUP-1"))
	require.ErrorIs(t, err, product.ErrSKUTaken)
}

func TestProductService_GetUsesCacheAndMutationsInvalidate(t *testing.T) {
	svc, r := newProductService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validCreate("C-1"))
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, r.gets)

	_, err = svc.Update(ctx, p.ID, product.UpdateProductRequest{Quantity: intPtr(1)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 2, r.gets)
	require.Equal(t, 1, got.Quantity)
}

// racingRepo runs onGet after the row has been read and before the service
// fills the cache, the window a concurrent write can land in.
type racingRepo struct {
	product.Repository
	onGet func()
}

func (r *racingRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	p, err := r.Repository.GetByID(ctx, id)
	if r.onGet != nil {
		hook := r.onGet
		r.onGet = nil
		hook()
	}
	return p, err
}

func TestProductService_FillRacingUpdateIsNotServed(t *testing.T) {
	r := &racingRepo{Repository: memory.NewProductsRepo()}
	svc := NewProductService(r, cache.New(time.Minute), observability.Discard(), nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, validCreate("RACE-1"))
	require.NoError(t, err)

	r.onGet = func() {
		_, err := svc.Update(ctx, p.ID, product.UpdateProductRequest{Quantity: intPtr(99)})
		require.NoError(t, err)
	}

	stale, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stale.Quantity)

	fresh, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 99, fresh.Quantity)
}

func TestProductService_ListCachesPerFilter(t *testing.T) {
	svc, r := newProductService(t)
	ctx := context.Background()

	for _, sku := range []string{"L-1", "L-2", "L-3"} {
		_, err := svc.Create(ctx, validCreate(sku))
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, product.ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Len(t, page.Items, 2)
	require.Equal(t, 3, page.Total)
	require.Equal(t, 2, page.TotalPages)

	_, err = svc.List(ctx, product.ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 1, r.lists)

	_, err = svc.List(ctx, product.ListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 2, r.lists)

	require.NoError(t, svc.Delete(ctx, page.Items[0].ID))

	page, err = svc.List(ctx, product.ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 3, r.lists)
	require.Equal(t, 2, page.Total)
}

func TestProductService_ListDefaultsAndValidation(t *testing.T) {
	svc, _ := newProductService(t)
	ctx := context.Background()

	page, err := svc.List(ctx, product.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, DefaultPageLimit, page.Limit)
	require.NotNil(t, page.Items)

	bad := product.Status("gone")
	cases := []struct {
		field  string
		filter product.ListFilter
	}{
		{"limit", product.ListFilter{Limit: MaxPageLimit + 1}},
		{"limit", product.ListFilter{Limit: -1}},
		{"page", product.ListFilter{Page: -2}},
		{"status", product.ListFilter{Status: &bad}},
		{"minQuantity", product.ListFilter{MinQuantity: intPtr(10), MaxQuantity: intPtr(2)}},
		{"maxQuantity", product.ListFilter{MaxQuantity: intPtr(-1)}},
		{"maxPriceCents", product.ListFilter{MaxPriceCents: int64Ptr(-1)}},
		{"page", product.ListFilter{Page: 922337203685477580, Limit: 20}},
		{"page", product.ListFilter{Page: math.MaxInt}},
	}

	for _, tc := range cases {
		_, err := svc.List(ctx, tc.filter)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, tc.field, verr.Field)
	}
}

func TestProductService_UpdateRules(t *testing.T) {
	svc, _ := newProductService(t)
	ctx := actorctx.With(context.Background(), actorctx.Actor{UserID: "u-1", Role: "manager"})

	p, err := svc.Create(ctx, validCreate("U-1"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, product.UpdateProductRequest{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "body", verr.Field)

	_, err = svc.Update(ctx, p.ID, product.UpdateProductRequest{Name: strPtr("  ")})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "name", verr.Field)

	svc.now = func() time.Time { return p.CreatedAt.Add(time.Hour) }
	updated, err := svc.Update(ctx, p.ID, product.UpdateProductRequest{SKU: strPtr(" u-2 "), Notes: strPtr("fragile")})
	require.NoError(t, err)
	require.Equal(t, "U-2", updated.SKU)
	require.Equal(t, "fragile", *updated.Notes)
	require.True(t, updated.UpdatedAt.After(p.UpdatedAt))
	require.True(t, updated.CreatedAt.Equal(p.CreatedAt))

	bySKU, err := svc.GetBySKU(ctx, "u-2")
	require.NoError(t, err)
	require.Equal(t, p.ID, bySKU.ID)
}

func TestProductService_NotFoundAndUnavailablePropagate(t *testing.T) {
	svc, r := newProductService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "4b0c9d5e-0000-4000-8000-000000000000")
	require.ErrorIs(t, err, product.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "4b0c9d5e-0000-4000-8000-000000000000"), product.ErrNotFound)

	r.fail = errors.Join(repo.ErrUnavailable, errors.New("dial tcp: refused"))
	_, err = svc.List(ctx, product.ListFilter{})
	require.ErrorIs(t, err, repo.ErrUnavailable)
}
