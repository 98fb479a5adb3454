package orm

import (
	"context"
	"strings"
	"time"

	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/geocoder89/warehouse/internal/observability"
	"gorm.io/gorm"
)

type ProductsRepo struct {
	db   *gorm.DB
	prom *observability.Prom
}

var productOutcome = isDomainErr(product.ErrNotFound, product.ErrSKUTaken)

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) (product.Product, error) {
	err := r.prom.ObserveDB(backendName, "products.create", func() error {
		m := productModelFrom(p)
		return mapErr(r.db.WithContext(ctx).Create(&m).Error, product.ErrNotFound, product.ErrSKUTaken)
	}, productOutcome)

	if err != nil {
		return product.Product{}, err
	}
	return p, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	return r.first(ctx, "products.get_by_id", "id = ?", id)
}

func (r *ProductsRepo) GetBySKU(ctx context.Context, sku string) (product.Product, error) {
	return r.first(ctx, "products.get_by_sku", "sku = ?", sku)
}

func (r *ProductsRepo) first(ctx context.Context, op, cond string, arg any) (product.Product, error) {
	var m productModel

	err := r.prom.ObserveDB(backendName, op, func() error {
		return mapErr(r.db.WithContext(ctx).Where(cond, arg).First(&m).Error, product.ErrNotFound, product.ErrSKUTaken)
	}, productOutcome)

	if err != nil {
		return product.Product{}, err
	}
	return m.toDomain(), nil
}

func (r *ProductsRepo) List(ctx context.Context, filter product.ListFilter) ([]product.Product, int, error) {
	var rows []productModel
	var total int64

	err := r.prom.ObserveDB(backendName, "products.list", func() error {
		scope := filterScope(filter)

		err := r.db.WithContext(ctx).Model(&productModel{}).Scopes(scope).Count(&total).Error
		if err != nil {
			return mapErr(err, product.ErrNotFound, product.ErrSKUTaken)
		}

		// stable ordering for pagination
		q := r.db.WithContext(ctx).Scopes(scope).Order("created_at ASC, id ASC").Offset(filter.Offset())
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}

		return mapErr(q.Find(&rows).Error, product.ErrNotFound, product.ErrSKUTaken)
	})

	if err != nil {
		return nil, 0, err
	}

	out := make([]product.Product, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}

	return out, int(total), nil
}

func (r *ProductsRepo) Update(ctx context.Context, id string, patch product.UpdateProductRequest, now time.Time) (product.Product, error) {
	var m productModel

	err := r.prom.ObserveDB(backendName, "products.update", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&productModel{}).Where("id = ?", id).Updates(patch.Columns(now))
			if res.Error != nil {
				return mapErr(res.Error, product.ErrNotFound, product.ErrSKUTaken)
			}

			if res.RowsAffected == 0 {
				return product.ErrNotFound
			}

			return mapErr(tx.Where("id = ?", id).First(&m).Error, product.ErrNotFound, product.ErrSKUTaken)
		})
	}, productOutcome)

	if err != nil {
		return product.Product{}, err
	}
	return m.toDomain(), nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	return r.prom.ObserveDB(backendName, "products.delete", func() error {
		res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&productModel{})
		if res.Error != nil {
			return mapErr(res.Error, product.ErrNotFound, product.ErrSKUTaken)
		}

		// if no rows were deleted as a result return a not found error
		if res.RowsAffected == 0 {
			return product.ErrNotFound
		}
		return nil
	}, productOutcome)
}

// likeEscaper makes user input match literally inside LIKE ... ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func filterScope(f product.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.Status != nil {
			q = q.Where("status = ?", string(*f.Status))
		}
		if f.Category != nil {
			q = q.Where("LOWER(category) = LOWER(?)", *f.Category)
		}
		if f.Brand != nil {
			q = q.Where("LOWER(brand) = LOWER(?)", *f.Brand)
		}
		if f.Query != nil {
			like := "%" + likeEscaper.Replace(strings.ToLower(*f.Query)) + "%"
			q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(sku) LIKE ? ESCAPE '\')`, like, like)
		}
		if f.MinQuantity != nil {
			q = q.Where("quantity >= ?", *f.MinQuantity)
		}
		if f.MaxQuantity != nil {
			q = q.Where("quantity <= ?", *f.MaxQuantity)
		}
		if f.MinPriceCents != nil {
			q = q.Where("unit_price_cents >= ?", *f.MinPriceCents)
		}
		if f.MaxPriceCents != nil {
			q = q.Where("unit_price_cents <= ?", *f.MaxPriceCents)
		}
		if f.LowStock {
			q = q.Where("minimum_stock IS NOT NULL AND quantity <= minimum_stock")
		}
		return q
	}
}
