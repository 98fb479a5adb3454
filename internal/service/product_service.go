package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/geocoder89/warehouse/internal/actorctx"
	"github.com/geocoder89/warehouse/internal/cache"
	"github.com/geocoder89/warehouse/internal/domain"
	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/geocoder89/warehouse/internal/observability"
	"github.com/geocoder89/warehouse/internal/utils"
	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9._-]{1,64}$`)

type ProductService struct {
	products product.Repository
	cache    cache.Store
	log      *slog.Logger
	prom     *observability.Prom
	now      func() time.Time
}

// NewProductService wires the repository with an optional cache; a nil
// store disables caching.
func NewProductService(products product.Repository, store cache.Store, log *slog.Logger, prom *observability.Prom) *ProductService {
	return &ProductService{
		products: products,
		cache:    store,
		log:      log,
		prom:     prom,
		now:      time.Now,
	}
}

func (s *ProductService) Create(ctx context.Context, req product.CreateProductRequest) (product.Product, error) {
	req = normalizeCreate(req)
	if err := validateCreate(req); err != nil {
		return product.Product{}, err
	}

	p := product.NewFromCreateRequest(req, s.clock())

	created, err := s.products.Create(ctx, p)
	if err != nil {
		return product.Product{}, err
	}

	s.invalidate(ctx)
	s.log.InfoContext(ctx, "product created", "product_id", created.ID, "sku", created.SKU, "actor_id", actorID(ctx))

	return created, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (product.Product, error) {
	key := s.cacheKey(ctx, utils.ProductCacheKey(id))

	var cached product.Product
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return product.Product{}, err
	}

	s.store(ctx, key, p)
	return p, nil
}

func (s *ProductService) GetBySKU(ctx context.Context, sku string) (product.Product, error) {
	return s.products.GetBySKU(ctx, normalizeSKU(sku))
}

func (s *ProductService) List(ctx context.Context, f product.ListFilter) (product.Page, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return product.Page{}, err
	}

	key := s.cacheKey(ctx, utils.BuildProductsListCacheKey(f))

	var cached product.Page
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	items, total, err := s.products.List(ctx, f)
	if err != nil {
		return product.Page{}, err
	}

	if items == nil {
		items = []product.Product{}
	}

	page := product.Page{
		Items:      items,
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}

	s.store(ctx, key, page)
	return page, nil
}

func (s *ProductService) Update(ctx context.Context, id string, patch product.UpdateProductRequest) (product.Product, error) {
	if patch.IsEmpty() {
		return product.Product{}, domain.Invalid("body", "at least one field must be provided")
	}

	patch = normalizeUpdate(patch)
	if err := validateUpdate(patch); err != nil {
		return product.Product{}, err
	}

	updated, err := s.products.Update(ctx, id, patch, s.clock())
	if err != nil {
		return product.Product{}, err
	}

	s.invalidate(ctx)
	s.log.InfoContext(ctx, "product updated", "product_id", updated.ID, "sku", updated.SKU, "actor_id", actorID(ctx))

	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.InfoContext(ctx, "product deleted", "product_id", id, "actor_id", actorID(ctx))

	return nil
}

func (s *ProductService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *ProductService) lookup(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}

	raw, ok := s.cache.Get(ctx, key)
	if ok && json.Unmarshal(raw, dst) == nil {
		s.prom.ObserveCache(true)
		return true
	}

	s.prom.ObserveCache(false)
	return false
}

func (s *ProductService) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		s.log.WarnContext(ctx, "cache encode failed", "key", key, "err", err)
		return
	}
	s.cache.Set(ctx, key, raw)
}

// cacheKey scopes key to the current generation. A read that raced a
// mutation stores under the old generation, which nothing reads again.
func (s *ProductService) cacheKey(ctx context.Context, key string) string {
	if s.cache == nil {
		return key
	}
	return key + "@" + s.generation(ctx)
}

// generation values are never reused; a missing one is replaced, not reset.
func (s *ProductService) generation(ctx context.Context) string {
	if raw, ok := s.cache.Get(ctx, utils.ProductsGenerationKey); ok && len(raw) > 0 {
		return string(raw)
	}

	gen := uuid.NewString()
	s.cache.Set(ctx, utils.ProductsGenerationKey, []byte(gen))
	return gen
}

// invalidate moves the generation first, then drops the old entries. If the
// cache rejects both, stale entries live until the cache TTL.
func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Set(ctx, utils.ProductsGenerationKey, []byte(uuid.NewString()))
	s.cache.DeletePrefix(ctx, utils.ProductsCachePrefix)
}

func actorID(ctx context.Context) string {
	id, _ := actorctx.UserIDFrom(ctx)
	return id
}

func normalizeSKU(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// trim keeps empty strings: on update they clear the field.
func trim(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// trimOrNil drops blank filter values.
func trimOrNil(s *string) *string {
	v := trim(s)
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func normalizeCreate(req product.CreateProductRequest) product.CreateProductRequest {
	req.SKU = normalizeSKU(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	req.Barcode = trimOrNil(req.Barcode)
	req.Category = trimOrNil(req.Category)
	req.Brand = trimOrNil(req.Brand)
	req.ImageURL = trimOrNil(req.ImageURL)
	req.Location = trimOrNil(req.Location)
	req.Notes = trimOrNil(req.Notes)
	req.Status = product.Status(strings.ToLower(strings.TrimSpace(string(req.Status))))
	if req.Status == "" {
		req.Status = product.StatusActive
	}
	return req
}

func normalizeUpdate(p product.UpdateProductRequest) product.UpdateProductRequest {
	if p.SKU != nil {
		v := normalizeSKU(*p.SKU)
		p.SKU = &v
	}
	p.Name = trim(p.Name)
	p.Barcode = trim(p.Barcode)
	p.Category = trim(p.Category)
	p.Brand = trim(p.Brand)
	p.ImageURL = trim(p.ImageURL)
	p.Location = trim(p.Location)
	p.Notes = trim(p.Notes)
	if p.Status != nil {
		v := product.Status(strings.ToLower(strings.TrimSpace(string(*p.Status))))
		p.Status = &v
	}
	return p
}

func validateCreate(req product.CreateProductRequest) error {
	if err := validateSKU(req.SKU); err != nil {
		return err
	}
	if err := validateName(req.Name); err != nil {
		return err
	}
	if req.Quantity < 0 {
		return domain.Invalid("quantity", "must be zero or greater")
	}
	if req.MinimumStock != nil && *req.MinimumStock < 0 {
		return domain.Invalid("minimumStock", "must be zero or greater")
	}
	if req.UnitPriceCents < 0 {
		return domain.Invalid("unitPriceCents", "must be zero or greater")
	}
	if !req.Status.Valid() {
		return domain.Invalid("status", "must be one of active, inactive")
	}
	return validateOptional(req.Barcode, req.Category, req.Brand, req.ImageURL, req.Location, req.Notes)
}

func validateUpdate(p product.UpdateProductRequest) error {
	if p.SKU != nil {
		if err := validateSKU(*p.SKU); err != nil {
			return err
		}
	}
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return domain.Invalid("quantity", "must be zero or greater")
	}
	if p.MinimumStock != nil && *p.MinimumStock < 0 {
		return domain.Invalid("minimumStock", "must be zero or greater")
	}
	if p.UnitPriceCents != nil && *p.UnitPriceCents < 0 {
		return domain.Invalid("unitPriceCents", "must be zero or greater")
	}
	if p.Status != nil && !p.Status.Valid() {
		return domain.Invalid("status", "must be one of active, inactive")
	}
	return validateOptional(p.Barcode, p.Category, p.Brand, p.ImageURL, p.Location, p.Notes)
}

func validateSKU(sku string) error {
	if !skuPattern.MatchString(sku) {
		return domain.Invalid("sku", "must be 1-64 characters of A-Z, 0-9, '.', '_' or '-'")
	}
	return nil
}

func validateName(name string) error {
	if n := utf8.RuneCountInString(name); n < 1 || n > 200 {
		return domain.Invalid("name", "must be 1-200 characters")
	}
	return nil
}

func validateOptional(barcode, category, brand, imageURL, location, notes *string) error {
	limits := []struct {
		field string
		value *string
		max   int
	}{
		{"barcode", barcode, 64},
		{"category", category, 100},
		{"brand", brand, 100},
		{"location", location, 100},
		{"notes", notes, 2000},
		{"imageUrl", imageURL, 2048},
	}

	for _, l := range limits {
		if l.value != nil && utf8.RuneCountInString(*l.value) > l.max {
			return domain.Invalid(l.field, "is too long")
		}
	}

	// empty means "clear" on update
	if imageURL != nil && *imageURL != "" && !isHTTPURL(*imageURL) {
		return domain.Invalid("imageUrl", "must be an absolute http or https URL")
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func normalizeFilter(f product.ListFilter) (product.ListFilter, error) {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = DefaultPageLimit
	}

	if f.Page < 1 {
		return f, domain.Invalid("page", "must be 1 or greater")
	}
	if f.Limit < 1 || f.Limit > MaxPageLimit {
		return f, domain.Invalid("limit", "must be between 1 and 100")
	}
	// offset (page-1)*limit must fit in an int
	if f.Page > math.MaxInt/f.Limit {
		return f, domain.Invalid("page", "is out of range")
	}

	if f.Status != nil {
		v := product.Status(strings.ToLower(strings.TrimSpace(string(*f.Status))))
		if !v.Valid() {
			return f, domain.Invalid("status", "must be one of active, inactive")
		}
		f.Status = &v
	}

	f.Category = trimOrNil(f.Category)
	f.Brand = trimOrNil(f.Brand)
	f.Query = trimOrNil(f.Query)

	if f.MinQuantity != nil && *f.MinQuantity < 0 {
		return f, domain.Invalid("minQuantity", "must be zero or greater")
	}
	if f.MaxQuantity != nil && *f.MaxQuantity < 0 {
		return f, domain.Invalid("maxQuantity", "must be zero or greater")
	}
	if f.MinPriceCents != nil && *f.MinPriceCents < 0 {
		return f, domain.Invalid("minPriceCents", "must be zero or greater")
	}
	if f.MaxPriceCents != nil && *f.MaxPriceCents < 0 {
		return f, domain.Invalid("maxPriceCents", "must be zero or greater")
	}
	if f.MinQuantity != nil && f.MaxQuantity != nil && *f.MinQuantity > *f.MaxQuantity {
		return f, domain.Invalid("minQuantity", "must not exceed maxQuantity")
	}
	if f.MinPriceCents != nil && f.MaxPriceCents != nil && *f.MinPriceCents > *f.MaxPriceCents {
		return f, domain.Invalid("minPriceCents", "must not exceed maxPriceCents")
	}

	return f, nil
}
