package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/warehouse/internal/config"
	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/geocoder89/warehouse/internal/utils"
	"github.com/gin-gonic/gin"
)

type ProductService interface {
	Create(ctx context.Context, req product.CreateProductRequest) (product.Product, error)
	Get(ctx context.Context, id string) (product.Product, error)
	GetBySKU(ctx context.Context, sku string) (product.Product, error)
	List(ctx context.Context, f product.ListFilter) (product.Page, error)
	Update(ctx context.Context, id string, patch product.UpdateProductRequest) (product.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductsHandler struct {
	svc     ProductService
	timeout time.Duration
}

func NewProductsHandler(svc ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc, timeout: 5 * time.Second}
}

func (h *ProductsHandler) CreateProduct(ctx *gin.Context) {
	var req product.CreateProductRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.svc.Create(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.Header("Location", "/v1/products/"+p.ID)
	ctx.JSON(http.StatusCreated, p)
}

func (h *ProductsHandler) ListProducts(ctx *gin.Context) {
	filter, ok := parseListFilter(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	page, err := h.svc.List(cctx, filter)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

func (h *ProductsHandler) GetProductByID(ctx *gin.Context) {
	id, ok := productID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.svc.Get(cctx, id)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

func (h *ProductsHandler) GetProductBySKU(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.svc.GetBySKU(cctx, ctx.Param("sku"))
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProductsHandler) UpdateProduct(ctx *gin.Context) {
	id, ok := productID(ctx)
	if !ok {
		return
	}

	var req product.UpdateProductRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.svc.Update(cctx, id, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProductsHandler) DeleteProduct(ctx *gin.Context) {
	id, ok := productID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.Delete(cctx, id); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func productID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "Product id must be a UUID", gin.H{"id": id})
		return "", false
	}
	return id, true
}

// parseListFilter reads query parameters. Range and paging rules are the
// service's job; only syntax is checked here.
func parseListFilter(ctx *gin.Context) (product.ListFilter, bool) {
	var f product.ListFilter
	var bad []FieldError

	intParam := func(name string) *int {
		raw, ok := ctx.GetQuery(name)
		if !ok {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			bad = append(bad, FieldError{Field: name, Rule: "int", Message: "must be an integer"})
			return nil
		}
		return &v
	}

	int64Param := func(name string) *int64 {
		raw, ok := ctx.GetQuery(name)
		if !ok {
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			bad = append(bad, FieldError{Field: name, Rule: "int", Message: "must be an integer"})
			return nil
		}
		return &v
	}

	strParam := func(name string) *string {
		raw, ok := ctx.GetQuery(name)
		if !ok {
			return nil
		}
		return &raw
	}

	if v := intParam("page"); v != nil {
		f.Page = *v
		if *v < 1 {
			bad = append(bad, FieldError{Field: "page", Rule: "min", Param: "1", Message: "must be at least 1"})
		}
	}
	if v := intParam("limit"); v != nil {
		f.Limit = *v
		if *v < 1 {
			bad = append(bad, FieldError{Field: "limit", Rule: "min", Param: "1", Message: "must be at least 1"})
		}
	}

	if s := strParam("status"); s != nil && *s != "" {
		st := product.Status(*s)
		f.Status = &st
	}

	f.Category = strParam("category")
	f.Brand = strParam("brand")
	f.Query = strParam("q")
	f.MinQuantity = intParam("minQuantity")
	f.MaxQuantity = intParam("maxQuantity")
	f.MinPriceCents = int64Param("minPriceCents")
	f.MaxPriceCents = int64Param("maxPriceCents")

	if raw, ok := ctx.GetQuery("lowStock"); ok && raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			bad = append(bad, FieldError{Field: "lowStock", Rule: "bool", Message: "must be true or false"})
		}
		f.LowStock = v
	}

	if len(bad) > 0 {
		RespondError(ctx, http.StatusBadRequest, "invalid_query", "Invalid query parameters", gin.H{"fields": bad})
		return f, false
	}

	return f, true
}
