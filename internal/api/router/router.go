package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/grocery/internal/api"
	m "github.com/RoyceAzure/lab/grocery/internal/api/middleware"
	"github.com/RoyceAzure/lab/grocery/internal/pkg/limiter"
	"github.com/RoyceAzure/lab/grocery/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// SetupRouter registerLimiter 為 nil 時註冊不限流
func SetupRouter(server *api.Server, identity service.IIdentityService, registerLimiter limiter.ILimiter, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(middleware.RealIP)
	r.Use(m.RequestIdMiddleware)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware(logger))

	auth := m.AuthMiddleware(identity)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", server.AuthHandler.Login)
			if registerLimiter != nil {
				r.With(limiter.NewRateLimitMiddleware(registerLimiter, limiter.KeyByIP)).Post("/register", server.AuthHandler.Register)
			} else {
				r.Post("/register", server.AuthHandler.Register)
			}
			r.Post("/logout", server.AuthHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Get("/me", server.AuthHandler.Me)
				r.Patch("/me", server.AuthHandler.UpdateMe)
				r.Post("/me/addresses", server.AuthHandler.AddAddress)
				r.Delete("/me/addresses/{addressID}", server.AuthHandler.RemoveAddress)
				r.Put("/me/addresses/{addressID}/default", server.AuthHandler.SetDefaultAddress)
			})
		})

		r.Route("/loyalty", func(r chi.Router) {
			r.Use(auth)
			r.Get("/", server.LoyaltyHandler.Summary)
			r.Post("/redeem", server.LoyaltyHandler.Redeem)
		})

		// 目錄與購物車不需要登入
		r.Get("/products", server.CatalogHandler.ListProducts)
		r.Get("/products/{productID}", server.CatalogHandler.GetProduct)
		r.Get("/categories", server.CatalogHandler.ListCategories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", server.CartHandler.GetCart)
			r.Delete("/", server.CartHandler.ClearCart)
			r.Post("/items", server.CartHandler.AddItem)
			r.Put("/items/{productID}", server.CartHandler.UpdateItem)
			r.Delete("/items/{productID}", server.CartHandler.RemoveItem)
		})

		r.With(auth).Post("/checkout", server.CheckoutHandler.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Use(auth)
			r.Get("/", server.OrderHandler.ListMine)
			r.Get("/track/{orderNumber}", server.OrderHandler.Track)
			r.Get("/{orderID}", server.OrderHandler.GetOrder)
			r.Get("/{orderID}/ws", server.OrderHandler.Watch)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth)
			r.Use(m.AdminMiddleware)
			r.Get("/orders", server.AdminHandler.ListOrders)
			r.Get("/orders/export", server.AdminHandler.ExportOrders)
			r.Put("/orders/{orderID}/status", server.AdminHandler.UpdateStatus)
			r.Put("/orders/{orderID}/payment-status", server.AdminHandler.UpdatePaymentStatus)
			r.Get("/stats", server.AdminHandler.Stats)
			r.Get("/customers", server.AdminHandler.Customers)
		})
	})

	return r
}

// PrintRoutes 啟動時列出所有路由
func PrintRoutes(r chi.Routes, logger zerolog.Logger) error {
	return chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		logger.Debug().Str("method", method).Str("route", route).Msg("route registered")
		return nil
	})
}
