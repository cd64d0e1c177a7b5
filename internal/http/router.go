package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Profiles Profiles
	Catalog  Catalog
	Checkout Checkout
	Logger   *zap.Logger

	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	MaxImageSize       int64
}

// NewRouter wires the storefront API.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = 1 << 20
	}
	if cfg.MaxImageSize <= 0 {
		cfg.MaxImageSize = 5 << 20
	}

	cartHandler := NewCartHandler(cfg.Profiles)
	wishlistHandler := NewWishlistHandler(cfg.Profiles)
	chatHandler := NewChatHandler(cfg.Profiles, cfg.MaxImageSize)
	checkoutHandler := NewCheckoutHandler(cfg.Profiles, cfg.Checkout, cfg.RequestTimeout)
	productHandler := NewProductHandler(cfg.Catalog, cfg.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Compress(5))

	timeout := middleware.Timeout(cfg.RequestTimeout)
	bodyLimit := middleware.RequestSize(cfg.MaxRequestBodySize)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.With(timeout).Get("/products", productHandler.List)
		r.With(timeout).Get("/products/{id}", productHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(ProfileMiddleware)

			r.Group(func(r chi.Router) {
				r.Use(timeout)
				r.Use(bodyLimit)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartHandler.GetCart)
					r.Delete("/", cartHandler.ClearCart)
					r.Post("/items", cartHandler.AddItem)
					r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
					r.Delete("/items/{product_id}", cartHandler.RemoveItem)
				})

				r.Get("/wishlist", wishlistHandler.Get)
				r.Post("/wishlist/{product_id}", wishlistHandler.Toggle)

				r.Get("/chat", chatHandler.Get)

				r.Post("/checkout", checkoutHandler.PlaceOrder)
				r.Post("/checkout/{order_id}/payment", checkoutHandler.Pay)
			})

			// A chat turn always runs to the bot's reply; each backend call
			// inside it carries its own timeout.
			r.With(bodyLimit).Post("/chat/messages", chatHandler.PostMessage)
			r.Post("/chat/image", chatHandler.PostImage)
		})
	})

	return r
}
