package utils

import (
	"strconv"
	"strings"

	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/google/uuid"
)

const ProductsCachePrefix = "products:"

// ProductsGenerationKey holds the current cache generation. It sits outside
// ProductsCachePrefix so prefix invalidation never removes it.
const ProductsGenerationKey = "products-generation"

func ProductCacheKey(id string) string {
	return ProductsCachePrefix + "id:" + id
}

func BuildProductsListCacheKey(f product.ListFilter) string {
	status := ""
	if f.Status != nil {
		status = string(*f.Status)
	}

	return ProductsCachePrefix + "list:v1:page=" + strconv.Itoa(f.Page) +
		":limit=" + strconv.Itoa(f.Limit) +
		":status=" + status +
		":category=" + lower(f.Category) +
		":brand=" + lower(f.Brand) +
		":q=" + lower(f.Query) +
		":qty=" + intBound(f.MinQuantity) + "-" + intBound(f.MaxQuantity) +
		":price=" + int64Bound(f.MinPriceCents) + "-" + int64Bound(f.MaxPriceCents) +
		":low=" + strconv.FormatBool(f.LowStock)
}

// IsUUID accepts the canonical 8-4-4-4-12 form only.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func lower(s *string) string {
	if s == nil {
		return ""
	}
	// escaped so user input cannot forge another segment
	return strconv.Quote(strings.ToLower(strings.TrimSpace(*s)))
}

func intBound(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func int64Bound(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
