package hosted

import (
	"time"

	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/geocoder89/warehouse/internal/domain/user"
)

type userRow struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r userRow) toDomain() user.User {
	return user.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         user.Role(r.Role),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type productRow struct {
	ID             string    `json:"id"`
	SKU            string    `json:"sku"`
	Barcode        *string   `json:"barcode"`
	Category       *string   `json:"category"`
	Brand          *string   `json:"brand"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	MinimumStock   *int      `json:"minimum_stock"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	ImageURL       *string   `json:"image_url"`
	Status         string    `json:"status"`
	Location       *string   `json:"location"`
	Notes          *string   `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func productRowFrom(p product.Product) productRow {
	return productRow{
		ID:             p.ID,
		SKU:            p.SKU,
		Barcode:        p.Barcode,
		Category:       p.Category,
		Brand:          p.Brand,
		Name:           p.Name,
		Quantity:       p.Quantity,
		MinimumStock:   p.MinimumStock,
		UnitPriceCents: p.UnitPriceCents,
		ImageURL:       p.ImageURL,
		Status:         string(p.Status),
		Location:       p.Location,
		Notes:          p.Notes,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (r productRow) toDomain() product.Product {
	return product.Product{
		ID:             r.ID,
		SKU:            r.SKU,
		Barcode:        r.Barcode,
		Category:       r.Category,
		Brand:          r.Brand,
		Name:           r.Name,
		Quantity:       r.Quantity,
		MinimumStock:   r.MinimumStock,
		UnitPriceCents: r.UnitPriceCents,
		ImageURL:       r.ImageURL,
		Status:         product.Status(r.Status),
		Location:       r.Location,
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
