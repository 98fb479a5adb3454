package http

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/warehouse/internal/auth"
	"github.com/geocoder89/warehouse/internal/cache"
	"github.com/geocoder89/warehouse/internal/config"
	"github.com/geocoder89/warehouse/internal/domain/user"
	"github.com/geocoder89/warehouse/internal/http/apierror"
	"github.com/geocoder89/warehouse/internal/http/handlers"
	"github.com/geocoder89/warehouse/internal/http/middlewares"
	"github.com/geocoder89/warehouse/internal/observability"
	"github.com/geocoder89/warehouse/internal/repo"
	"github.com/geocoder89/warehouse/internal/service"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter wires services over the backend and mounts the /v1 API.
// store and prom may be nil.
func NewRouter(log *slog.Logger, cfg config.Config, backend *repo.Backend, store cache.Store, prom *observability.Prom) *gin.Engine {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(middlewares.Recovery(log))
	r.Use(middlewares.RequestID())
	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// wire up services
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(backend.Users, jwtManager, log, prom)
	productService := service.NewProductService(backend.Products, store, log, prom)

	authHandler := handlers.NewAuthHandler(authService)
	productsHandler := handlers.NewProductsHandler(productService)

	checks := []handlers.ReadinessCheck{{Name: "storage", Ping: backend.Ping}}
	if store != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "cache", Ping: store.Ping})
	}
	healthHandler := handlers.NewHealthHandler(backend.Name, checks...)

	authMW := middlewares.NewAuthMiddleware(jwtManager)

	v1 := r.Group("/v1")

	v1.GET("/health/live", healthHandler.Live)
	v1.GET("/health/ready", healthHandler.Ready)

	v1.POST("/auth/token", authHandler.Token)
	v1.POST("/auth/register", authHandler.Register)
	v1.GET("/auth/me", authMW.RequireAuth(), authHandler.Me)

	writers := authMW.RequireRole(string(user.RoleAdmin), string(user.RoleManager))

	products := v1.Group("/products", authMW.RequireAuth())
	{
		products.GET("", productsHandler.ListProducts)
		products.GET("/:id", productsHandler.GetProductByID)
		products.GET("/sku/:sku", productsHandler.GetProductBySKU)
		products.POST("", writers, productsHandler.CreateProduct)
		products.PATCH("/:id", writers, productsHandler.UpdateProduct)
		products.DELETE("/:id", authMW.RequireRole(string(user.RoleAdmin)), productsHandler.DeleteProduct)
	}

	if prom != nil {
		r.GET("/metrics", gin.WrapH(prom.Handler()))
	}

	r.NoRoute(func(ctx *gin.Context) {
		apierror.Respond(ctx, http.StatusNotFound, "route_not_found", "No route for "+ctx.Request.Method+" "+ctx.Request.URL.Path, nil)
	})

	return r
}
