package product

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Product struct {
	ID             string    `json:"id"`
	SKU            string    `json:"sku"`
	Barcode        *string   `json:"barcode,omitempty"`
	Category       *string   `json:"category,omitempty"`
	Brand          *string   `json:"brand,omitempty"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	MinimumStock   *int      `json:"minimumStock,omitempty"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	ImageURL       *string   `json:"imageUrl,omitempty"`
	Status         Status    `json:"status"`
	Location       *string   `json:"location,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// LowStock reports whether quantity has fallen to the configured minimum.
func (p Product) LowStock() bool {
	return p.MinimumStock != nil && p.Quantity <= *p.MinimumStock
}

var (
	ErrNotFound = errors.New("product not found")
	ErrSKUTaken = errors.New("sku already exists")
)

// Repository is implemented by the memory, orm and hosted backends.
type Repository interface {
	Create(ctx context.Context, p Product) (Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	GetBySKU(ctx context.Context, sku string) (Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, int, error)
	Update(ctx context.Context, id string, patch UpdateProductRequest, now time.Time) (Product, error)
	Delete(ctx context.Context, id string) error
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Page          int
	Limit         int
	Status        *Status
	Category      *string
	Brand         *string
	Query         *string
	MinQuantity   *int
	MaxQuantity   *int
	MinPriceCents *int64
	MaxPriceCents *int64
	LowStock      bool
}

func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type Page struct {
	Items      []Product `json:"items"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
}
