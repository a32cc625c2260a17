package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	JWTSecret      []byte
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	SecureCookies  bool
}

type Handlers struct {
	Catalog    *CatalogHandler
	Cart       *CartHandler
	Checkout   *CheckoutHandler
	Orders     *OrdersHandler
	Payments   *PaymentsHandler
	BackOffice *BackOfficeHandler
	DB         Pinger
}

func NewRouter(cfg RouterConfig, h Handlers, log zerolog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	for _, mw := range RequestLogger(log) {
		r.Use(mw)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(Authenticate(cfg.JWTSecret))

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	session := CartSession(h.Cart.cart, cfg.SecureCookies)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if h.DB != nil {
			if err := h.DB.Ping(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/products", h.Catalog.ListProducts)
	r.Get("/products/{id}", h.Catalog.GetProduct)
	r.With(limiter.Middleware).Get("/products/{id}/price", h.Catalog.Quote)
	r.Get("/categories", h.Catalog.ListCategories)
	r.Get("/deals", h.BackOffice.ActiveDeals)

	r.Route("/cart", func(r chi.Router) {
		r.Use(session)
		r.Get("/", h.Cart.GetCart)
		r.Delete("/", h.Cart.ClearCart)
		r.With(limiter.Middleware).Post("/items", h.Cart.AddItem)
		r.With(limiter.Middleware).Patch("/items/{itemId}", h.Cart.UpdateQuantity)
		r.Delete("/items/{itemId}", h.Cart.RemoveItem)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Use(session, limiter.Middleware)
		r.Post("/shipping-quote", h.Checkout.ShippingQuote)
		r.With(RequireAuth).Post("/promotion", h.Checkout.PreviewPromotion)
		r.With(RequireAuth).Post("/", h.Checkout.Checkout)
	})

	r.Post("/payments/webhook", h.Payments.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Get("/orders", h.Orders.ListOrders)
		r.Get("/orders/{id}", h.Orders.GetOrder)
		r.With(limiter.Middleware).Post("/orders/{id}/artwork/upload", h.Orders.UploadArtwork)
		r.With(limiter.Middleware).Post("/orders/{id}/artwork/approve", h.Orders.ApproveArtwork)
		r.With(limiter.Middleware).Post("/orders/{id}/artwork/revision", h.Orders.RequestRevision)

		r.With(limiter.Middleware).Post("/designs", h.BackOffice.CreateDesign)
		r.Get("/designs/{id}", h.BackOffice.GetDesign)

		r.Get("/notifications", h.BackOffice.Notifications)
		r.Post("/notifications/{id}/read", h.BackOffice.MarkNotificationRead)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin)

		r.Post("/products", h.Catalog.CreateProduct)
		r.Post("/products/bulk-adjust", h.Catalog.BulkAdjust)
		r.Put("/products/{id}", h.Catalog.UpdateProduct)
		r.Delete("/products/{id}", h.Catalog.DeleteProduct)
		r.Put("/products/{id}/options", h.Catalog.ReplaceOptions)
		r.Put("/products/{id}/pricing-tiers", h.Catalog.ReplaceProductTiers)
		r.Get("/pricing/global-tiers", h.Catalog.GlobalTiers)
		r.Put("/pricing/global-tiers", h.Catalog.ReplaceGlobalTiers)
		r.Post("/categories", h.Catalog.CreateCategory)

		r.Get("/orders", h.Orders.AdminListOrders)
		r.Get("/orders/{id}", h.Orders.AdminGetOrder)
		r.Patch("/orders/{id}/status", h.Orders.UpdateStatus)
		r.Patch("/orders/{id}/artwork", h.Orders.UpdateArtwork)
		r.Post("/orders/{id}/artwork/restore", h.Orders.RestoreArtwork)

		r.Get("/promotions", h.BackOffice.ListPromotions)
		r.Post("/promotions", h.BackOffice.CreatePromotion)
		r.Put("/promotions/{id}", h.BackOffice.UpdatePromotion)
		r.Delete("/promotions/{id}", h.BackOffice.DeletePromotion)

		r.Get("/deals", h.BackOffice.ListDeals)
		r.Post("/deals", h.BackOffice.CreateDeal)
		r.Put("/deals/{id}", h.BackOffice.UpdateDeal)
		r.Delete("/deals/{id}", h.BackOffice.DeleteDeal)

		r.Get("/email-templates/{key}", h.BackOffice.GetTemplate)
		r.Put("/email-templates/{key}", h.BackOffice.PutTemplate)

		r.Get("/settings/shipping", h.BackOffice.ShippingSettings)
		r.Put("/settings/shipping", h.BackOffice.SaveShippingSettings)

		r.Get("/activity-logs", h.BackOffice.ActivityLog)
	})

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
