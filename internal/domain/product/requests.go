package product

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Binding tags only guard shape. Business rules run after normalization in
// the product service.
type CreateProductRequest struct {
	SKU            string  `json:"sku" binding:"required"`
	Barcode        *string `json:"barcode"`
	Category       *string `json:"category"`
	Brand          *string `json:"brand"`
	Name           string  `json:"name" binding:"required"`
	Quantity       int     `json:"quantity" binding:"min=0"`
	MinimumStock   *int    `json:"minimumStock" binding:"omitempty,min=0"`
	UnitPriceCents int64   `json:"unitPriceCents" binding:"min=0"`
	ImageURL       *string `json:"imageUrl"`
	Status         Status  `json:"status"`
	Location       *string `json:"location"`
	Notes          *string `json:"notes"`
}

// UpdateProductRequest is a partial patch. A nil field is left untouched, an
// empty optional string clears the field, and an explicit JSON null for
// minimumStock clears the threshold.
type UpdateProductRequest struct {
	SKU               *string `json:"sku"`
	Barcode           *string `json:"barcode"`
	Category          *string `json:"category"`
	Brand             *string `json:"brand"`
	Name              *string `json:"name"`
	Quantity          *int    `json:"quantity" binding:"omitempty,min=0"`
	MinimumStock      *int    `json:"minimumStock" binding:"omitempty,min=0"`
	ClearMinimumStock bool    `json:"-"`
	UnitPriceCents    *int64  `json:"unitPriceCents" binding:"omitempty,min=0"`
	ImageURL          *string `json:"imageUrl"`
	Status            *Status `json:"status"`
	Location          *string `json:"location"`
	Notes             *string `json:"notes"`
}

func (r *UpdateProductRequest) UnmarshalJSON(b []byte) error {
	type alias UpdateProductRequest

	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if v, ok := raw["minimumStock"]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		a.ClearMinimumStock = true
	}

	*r = UpdateProductRequest(a)
	return nil
}

func (r UpdateProductRequest) IsEmpty() bool {
	return r.SKU == nil && r.Barcode == nil && r.Category == nil && r.Brand == nil &&
		r.Name == nil && r.Quantity == nil && r.MinimumStock == nil && !r.ClearMinimumStock &&
		r.UnitPriceCents == nil && r.ImageURL == nil && r.Status == nil &&
		r.Location == nil && r.Notes == nil
}

func NewFromCreateRequest(req CreateProductRequest, now time.Time) Product {
	status := req.Status
	if status == "" {
		status = StatusActive
	}

	return Product{
		ID:             uuid.NewString(),
		SKU:            req.SKU,
		Barcode:        optional(req.Barcode),
		Category:       optional(req.Category),
		Brand:          optional(req.Brand),
		Name:           req.Name,
		Quantity:       req.Quantity,
		MinimumStock:   req.MinimumStock,
		UnitPriceCents: req.UnitPriceCents,
		ImageURL:       optional(req.ImageURL),
		Status:         status,
		Location:       optional(req.Location),
		Notes:          optional(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Apply merges a patch onto p and refreshes UpdatedAt.
func (p Product) Apply(req UpdateProductRequest, now time.Time) Product {
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.Barcode != nil {
		p.Barcode = optional(req.Barcode)
	}
	if req.Category != nil {
		p.Category = optional(req.Category)
	}
	if req.Brand != nil {
		p.Brand = optional(req.Brand)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.ClearMinimumStock {
		p.MinimumStock = nil
	} else if req.MinimumStock != nil {
		v := *req.MinimumStock
		p.MinimumStock = &v
	}
	if req.UnitPriceCents != nil {
		p.UnitPriceCents = *req.UnitPriceCents
	}
	if req.ImageURL != nil {
		p.ImageURL = optional(req.ImageURL)
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Location != nil {
		p.Location = optional(req.Location)
	}
	if req.Notes != nil {
		p.Notes = optional(req.Notes)
	}

	p.UpdatedAt = now
	return p
}

// Columns renders the patch as snake_case column assignments for the SQL
// and REST backends. Cleared fields map to nil.
func (r UpdateProductRequest) Columns(now time.Time) map[string]any {
	cols := map[string]any{"updated_at": now}

	if r.SKU != nil {
		cols["sku"] = *r.SKU
	}
	if r.Barcode != nil {
		cols["barcode"] = nullable(r.Barcode)
	}
	if r.Category != nil {
		cols["category"] = nullable(r.Category)
	}
	if r.Brand != nil {
		cols["brand"] = nullable(r.Brand)
	}
	if r.Name != nil {
		cols["name"] = *r.Name
	}
	if r.Quantity != nil {
		cols["quantity"] = *r.Quantity
	}
	if r.ClearMinimumStock {
		cols["minimum_stock"] = nil
	} else if r.MinimumStock != nil {
		cols["minimum_stock"] = *r.MinimumStock
	}
	if r.UnitPriceCents != nil {
		cols["unit_price_cents"] = *r.UnitPriceCents
	}
	if r.ImageURL != nil {
		cols["image_url"] = nullable(r.ImageURL)
	}
	if r.Status != nil {
		cols["status"] = string(*r.Status)
	}
	if r.Location != nil {
		cols["location"] = nullable(r.Location)
	}
	if r.Notes != nil {
		cols["notes"] = nullable(r.Notes)
	}

	return cols
}

func optional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
