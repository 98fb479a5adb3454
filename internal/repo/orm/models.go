package orm

import (
	"time"

	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/geocoder89/warehouse/internal/domain/user"
)

type userModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:16;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

func userModelFrom(u user.User) userModel {
	return userModel{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m userModel) toDomain() user.User {
	return user.User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         user.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type productModel struct {
	ID             string  `gorm:"primaryKey;size:36"`
	SKU            string  `gorm:"column:sku;uniqueIndex;size:64;not null"`
	Barcode        *string `gorm:"size:64"`
	Category       *string `gorm:"size:100;index"`
	Brand          *string `gorm:"size:100"`
	Name           string  `gorm:"size:200;not null"`
	Quantity       int     `gorm:"not null;default:0"`
	MinimumStock   *int
	UnitPriceCents int64   `gorm:"not null;default:0"`
	ImageURL       *string `gorm:"column:image_url;size:2048"`
	Status         string  `gorm:"size:16;not null;index"`
	Location       *string `gorm:"size:100"`
	Notes          *string
	CreatedAt      time.Time `gorm:"index:idx_products_created_id,priority:1"`
	UpdatedAt      time.Time
}

func (productModel) TableName() string { return "products" }

func productModelFrom(p product.Product) productModel {
	return productModel{
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

func (m productModel) toDomain() product.Product {
	return product.Product{
		ID:             m.ID,
		SKU:            m.SKU,
		Barcode:        m.Barcode,
		Category:       m.Category,
		Brand:          m.Brand,
		Name:           m.Name,
		Quantity:       m.Quantity,
		MinimumStock:   m.MinimumStock,
		UnitPriceCents: m.UnitPriceCents,
		ImageURL:       m.ImageURL,
		Status:         product.Status(m.Status),
		Location:       m.Location,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
