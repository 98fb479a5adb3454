// Package repotest holds the behavioural suite every storage backend must
// pass. Backend packages call it from their own tests.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/geocoder89/warehouse/internal/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Base is the fixed clock used by the suite. Microsecond precision keeps
// round trips exact on Postgres.
var Base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// NewProduct builds a product the way the service would after normalization.
func NewProduct(sku string, offset time.Duration) product.Product {
	at := Base.Add(offset)
	return product.Product{
		ID:             uuid.NewString(),
		SKU:            sku,
		Name:           "Item " + sku,
		Quantity:       10,
		UnitPriceCents: 1999,
		Status:         product.StatusActive,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

// RunProducts exercises a fresh product.Repository per subtest.
func RunProducts(t *testing.T, newRepo func(t *testing.T) product.Repository) {
	t.Helper()
	ctx := context.Background()

	t.Run("create_then_fetch_round_trips", func(t *testing.T) {
		r := newRepo(t)

		p := NewProduct("RT-1", 0)
		p.Barcode = strPtr("0123456789012")
		p.Category = strPtr("fasteners")
		p.Brand = strPtr("Acme")
		p.MinimumStock = intPtr(3)
		p.ImageURL = strPtr("https://cdn.example.com/rt-1.png")
		p.Location = strPtr("A-01-03")
		p.Notes = strPtr("keep dry")

		_, err := r.Create(ctx, p)
		require.NoError(t, err)

		got, err := r.GetByID(ctx, p.ID)
		require.NoError(t, err)
		RequireSameProduct(t, p, got)

		bySKU, err := r.GetBySKU(ctx, "RT-1")
		require.NoError(t, err)
		require.Equal(t, p.ID, bySKU.ID)
	})

	t.Run("duplicate_sku_is_rejected", func(t *testing.T) {
		r := newRepo(t)

		_, err := r.Create(ctx, NewProduct("DUP-1", 0))
		require.NoError(t, err)

		_, err = r.Create(ctx, NewProduct("DUP-1", time.Second))
		require.ErrorIs(t, err, product.ErrSKUTaken)
	})

	t.Run("missing_product_is_not_found", func(t *testing.T) {
		r := newRepo(t)
		missing := uuid.NewString()

		_, err := r.GetByID(ctx, missing)
		require.ErrorIs(t, err, product.ErrNotFound)

		_, err = r.GetBySKU(ctx, "NOPE")
		require.ErrorIs(t, err, product.ErrNotFound)

		_, err = r.Update(ctx, missing, product.UpdateProductRequest{Name: strPtr("x")}, Base)
		require.ErrorIs(t, err, product.ErrNotFound)

		require.ErrorIs(t, r.Delete(ctx, missing), product.ErrNotFound)
	})

	t.Run("update_merges_patch_and_refreshes_updated_at", func(t *testing.T) {
		r := newRepo(t)

		p := NewProduct("UPD-1", 0)
		p.MinimumStock = intPtr(5)
		p.Notes = strPtr("old")
		_, err := r.Create(ctx, p)
		require.NoError(t, err)

		later := Base.Add(time.Hour)
		inactive := product.StatusInactive
		got, err := r.Update(ctx, p.ID, product.UpdateProductRequest{
			Quantity:          intPtr(42),
			Status:            &inactive,
			Notes:             strPtr(""),
			ClearMinimumStock: true,
		}, later)
		require.NoError(t, err)

		require.Equal(t, 42, got.Quantity)
		require.Equal(t, product.StatusInactive, got.Status)
		require.Nil(t, got.Notes)
		require.Nil(t, got.MinimumStock)
		require.Equal(t, p.Name, got.Name)
		require.True(t, got.CreatedAt.Equal(p.CreatedAt), "createdAt changed")
		require.True(t, got.UpdatedAt.Equal(later), "updatedAt not refreshed: %s", got.UpdatedAt)

		fetched, err := r.GetByID(ctx, p.ID)
		require.NoError(t, err)
		RequireSameProduct(t, got, fetched)
	})

	t.Run("update_to_taken_sku_conflicts", func(t *testing.T) {
		r := newRepo(t)

		_, err := r.Create(ctx, NewProduct("A-1", 0))
		require.NoError(t, err)
		b := NewProduct("B-1", time.Second)
		_, err = r.Create(ctx, b)
		require.NoError(t, err)

		_, err = r.Update(ctx, b.ID, product.UpdateProductRequest{SKU: strPtr("A-1")}, Base)
		require.ErrorIs(t, err, product.ErrSKUTaken)
	})

	t.Run("delete_removes_product", func(t *testing.T) {
		r := newRepo(t)

		p := NewProduct("DEL-1", 0)
		_, err := r.Create(ctx, p)
		require.NoError(t, err)

		require.NoError(t, r.Delete(ctx, p.ID))

		_, err = r.GetByID(ctx, p.ID)
		require.ErrorIs(t, err, product.ErrNotFound)
		require.ErrorIs(t, r.Delete(ctx, p.ID), product.ErrNotFound)
	})

	t.Run("pagination_never_exceeds_limit", func(t *testing.T) {
		r := newRepo(t)

		for i := 0; i < 7; i++ {
			_, err := r.Create(ctx, NewProduct(fmt.Sprintf("PG-%d", i), time.Duration(i)*time.Minute))
			require.NoError(t, err)
		}

		seen := map[string]bool{}
		for page := 1; page <= 3; page++ {
			items, total, err := r.List(ctx, product.ListFilter{Page: page, Limit: 3})
			require.NoError(t, err)
			require.Equal(t, 7, total)
			require.LessOrEqual(t, len(items), 3)
			for _, it := range items {
				require.False(t, seen[it.ID], "product %s returned twice", it.SKU)
				seen[it.ID] = true
			}
		}
		require.Len(t, seen, 7)

		first, _, err := r.List(ctx, product.ListFilter{Page: 1, Limit: 2})
		require.NoError(t, err)
		require.Equal(t, "PG-0", first[0].SKU)
		require.Equal(t, "PG-1", first[1].SKU)

		beyond, total, err := r.List(ctx, product.ListFilter{Page: 10, Limit: 3})
		require.NoError(t, err)
		require.Empty(t, beyond)
		require.Equal(t, 7, total)
	})

	t.Run("filters_restrict_results", func(t *testing.T) {
		r := newRepo(t)

		active := NewProduct("F-ACT", 0)
		active.Quantity = 2
		active.MinimumStock = intPtr(5)
		active.Category = strPtr("paint")
		inactive := NewProduct("F-INA", time.Minute)
		inactive.Status = product.StatusInactive
		inactive.Quantity = 50
		inactive.UnitPriceCents = 50000
		other := NewProduct("F-OTH", 2*time.Minute)
		other.Name = "Blue hammer"
		other.Quantity = 20

		for _, p := range []product.Product{active, inactive, other} {
			_, err := r.Create(ctx, p)
			require.NoError(t, err)
		}

		statusInactive := product.StatusInactive
		items, total, err := r.List(ctx, product.ListFilter{Page: 1, Limit: 10, Status: &statusInactive})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, "F-INA", items[0].SKU)

		statusActive := product.StatusActive
		items, total, err = r.List(ctx, product.ListFilter{Page: 1, Limit: 10, Status: &statusActive})
		require.NoError(t, err)
		require.Equal(t, 2, total)
		for _, it := range items {
			require.Equal(t, product.StatusActive, it.Status)
		}

		items, _, err = r.List(ctx, product.ListFilter{Page: 1, Limit: 10, MinQuantity: intPtr(10), MaxQuantity: intPtr(30)})
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, "F-OTH", items[0].SKU)

		minPrice := int64(10000)
		items, _, err = r.List(ctx, product.ListFilter{Page: 1, Limit: 10, MinPriceCents: &minPrice})
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, "F-INA", items[0].SKU)

		items, _, err = r.List(ctx, product.ListFilter{Page: 1, Limit: 10, Category: strPtr("paint")})
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, "F-ACT", items[0].SKU)

		items, _, err = r.List(ctx, product.ListFilter{Page: 1, Limit: 10, Query: strPtr("hammer")})
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, "F-OTH", items[0].SKU)

		items, _, err = r.List(ctx, product.ListFilter{Page: 1, Limit: 10, LowStock: true})
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, "F-ACT", items[0].SKU)
	})

	t.Run("filters_match_special_characters_literally", func(t *testing.T) {
		r := newRepo(t)

		pct := NewProduct("S-PCT", 0)
		pct.Name = "50% off paint"
		pct.Category = strPtr("Paint")
		und := NewProduct("S-UND", time.Minute)
		und.Name = "Spray_can"
		und.Brand = strPtr("A_B")
		star := NewProduct("S-STR", 2*time.Minute)
		star.Name = `Bolt "M8", (zinc) *star*`

		for _, p := range []product.Product{pct, und, star} {
			_, err := r.Create(ctx, p)
			require.NoError(t, err)
		}

		cases := []struct {
			name   string
			filter product.ListFilter
			want   []string
		}{
			{"percent", product.ListFilter{Query: strPtr("%")}, []string{"S-PCT"}},
			{"underscore", product.ListFilter{Query: strPtr("_")}, []string{"S-UND"}},
			{"asterisk", product.ListFilter{Query: strPtr("*")}, []string{"S-STR"}},
			{"backslash", product.ListFilter{Query: strPtr(`\`)}, nil},
			{"regex dot", product.ListFilter{Query: strPtr(".")}, nil},
			{"quotes and commas", product.ListFilter{Query: strPtr(`"m8", (`)}, []string{"S-STR"}},
			{"category equality", product.ListFilter{Category: strPtr("paint")}, []string{"S-PCT"}},
			{"category wildcard", product.ListFilter{Category: strPtr("P%")}, nil},
			{"category star", product.ListFilter{Category: strPtr("P*")}, nil},
			{"brand underscore", product.ListFilter{Brand: strPtr("a_b")}, []string{"S-UND"}},
			{"brand single char wildcard", product.ListFilter{Brand: strPtr("A.B")}, nil},
			{"brand prefix", product.ListFilter{Brand: strPtr("A_")}, nil},
		}

		for _, tc := range cases {
			tc.filter.Page, tc.filter.Limit = 1, 10

			items, total, err := r.List(ctx, tc.filter)
			require.NoError(t, err, tc.name)
			require.Equal(t, len(tc.want), total, tc.name)

			got := make([]string, 0, len(items))
			for _, it := range items {
				got = append(got, it.SKU)
			}
			require.ElementsMatch(t, tc.want, got, tc.name)
		}
	})
}

// RunUsers exercises a fresh user.Repository per subtest.
func RunUsers(t *testing.T, newRepo func(t *testing.T) user.Repository) {
	t.Helper()
	ctx := context.Background()

	newUser := func(name string) user.User {
		return user.User{
			ID:           uuid.NewString(),
			Username:     name,
			PasswordHash: "$2a$10$hash",
			Role:         user.RoleViewer,
			CreatedAt:    Base,
			UpdatedAt:    Base,
		}
	}

	t.Run("create_then_fetch_round_trips", func(t *testing.T) {
		r := newRepo(t)
		u := newUser("alice")

		_, err := r.Create(ctx, u)
		require.NoError(t, err)

		byID, err := r.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Username, byID.Username)
		require.Equal(t, u.PasswordHash, byID.PasswordHash)
		require.Equal(t, u.Role, byID.Role)
		require.True(t, byID.CreatedAt.Equal(u.CreatedAt))

		byName, err := r.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, u.ID, byName.ID)
	})

	t.Run("duplicate_username_is_rejected", func(t *testing.T) {
		r := newRepo(t)

		_, err := r.Create(ctx, newUser("bob"))
		require.NoError(t, err)

		_, err = r.Create(ctx, newUser("bob"))
		require.ErrorIs(t, err, user.ErrUsernameTaken)
	})

	t.Run("missing_user_is_not_found", func(t *testing.T) {
		r := newRepo(t)

		_, err := r.GetByID(ctx, uuid.NewString())
		require.ErrorIs(t, err, user.ErrNotFound)

		_, err = r.GetByUsername(ctx, "ghost")
		require.ErrorIs(t, err, user.ErrNotFound)
	})
}

// RequireSameProduct compares field by field; timestamps use Equal since
// backends may hand back a different *time.Location.
func RequireSameProduct(t *testing.T, want, got product.Product) {
	t.Helper()

	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.SKU, got.SKU)
	require.Equal(t, want.Barcode, got.Barcode)
	require.Equal(t, want.Category, got.Category)
	require.Equal(t, want.Brand, got.Brand)
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.Quantity, got.Quantity)
	require.Equal(t, want.MinimumStock, got.MinimumStock)
	require.Equal(t, want.UnitPriceCents, got.UnitPriceCents)
	require.Equal(t, want.ImageURL, got.ImageURL)
	require.Equal(t, want.Status, got.Status)
	require.Equal(t, want.Location, got.Location)
	require.Equal(t, want.Notes, got.Notes)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt: want %s got %s", want.CreatedAt, got.CreatedAt)
	require.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updatedAt: want %s got %s", want.UpdatedAt, got.UpdatedAt)
}
