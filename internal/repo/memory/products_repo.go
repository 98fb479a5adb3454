package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/warehouse/internal/domain/product"
)

type ProductsRepo struct {
	mu    sync.RWMutex
	items map[string]product.Product // id -> product
	bySKU map[string]string          // sku -> id
}

func NewProductsRepo() *ProductsRepo {
	return &ProductsRepo{
		items: make(map[string]product.Product),
		bySKU: make(map[string]string),
	}
}

func (r *ProductsRepo) Create(_ context.Context, p product.Product) (product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.bySKU[p.SKU]; taken {
		return product.Product{}, product.ErrSKUTaken
	}

	r.items[p.ID] = p
	r.bySKU[p.SKU] = p.ID

	return p, nil
}

func (r *ProductsRepo) GetByID(_ context.Context, id string) (product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

func (r *ProductsRepo) GetBySKU(_ context.Context, sku string) (product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySKU[sku]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return r.items[id], nil
}

func (r *ProductsRepo) List(_ context.Context, filter product.ListFilter) ([]product.Product, int, error) {
	r.mu.RLock()
	matched := make([]product.Product, 0, len(r.items))
	for _, p := range r.items {
		if matches(p, filter) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	// stable ordering for pagination
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	start := filter.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (r *ProductsRepo) Update(_ context.Context, id string, patch product.UpdateProductRequest, now time.Time) (product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}

	updated := current.Apply(patch, now)

	if updated.SKU != current.SKU {
		if _, taken := r.bySKU[updated.SKU]; taken {
			return product.Product{}, product.ErrSKUTaken
		}
		delete(r.bySKU, current.SKU)
		r.bySKU[updated.SKU] = id
	}

	r.items[id] = updated
	return updated, nil
}

func (r *ProductsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return product.ErrNotFound
	}

	delete(r.items, id)
	delete(r.bySKU, p.SKU)
	return nil
}

func matches(p product.Product, f product.ListFilter) bool {
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.Category != nil && !equalFoldPtr(p.Category, *f.Category) {
		return false
	}
	if f.Brand != nil && !equalFoldPtr(p.Brand, *f.Brand) {
		return false
	}
	if f.Query != nil {
		q := strings.ToLower(*f.Query)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.SKU), q) {
			return false
		}
	}
	if f.MinQuantity != nil && p.Quantity < *f.MinQuantity {
		return false
	}
	if f.MaxQuantity != nil && p.Quantity > *f.MaxQuantity {
		return false
	}
	if f.MinPriceCents != nil && p.UnitPriceCents < *f.MinPriceCents {
		return false
	}
	if f.MaxPriceCents != nil && p.UnitPriceCents > *f.MaxPriceCents {
		return false
	}
	if f.LowStock && !p.LowStock() {
		return false
	}
	return true
}

func equalFoldPtr(v *string, want string) bool {
	return v != nil && strings.EqualFold(*v, want)
}
