package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kajal19803/dairyfrontend/internal/cart"
	"github.com/kajal19803/dairyfrontend/internal/domain"
	"github.com/kajal19803/dairyfrontend/internal/session"
	"go.uber.org/zap"
)

// Profiles hands out the live state of a browser profile.
type Profiles interface {
	Get(ctx context.Context, profileID string) (*session.Profile, error)
}

// loadProfile resolves the caller's profile. When its saved state cannot be
// read it answers 503 and reports false.
func loadProfile(ctx context.Context, w http.ResponseWriter, profiles Profiles) (*session.Profile, bool) {
	p, err := profiles.Get(ctx, getProfileID(ctx))
	if err != nil {
		zap.L().Warn("profile unavailable", zap.String("profile_id", getProfileID(ctx)), zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "your saved cart could not be loaded, try again")
		return nil, false
	}
	return p, true
}

type CartHandler struct {
	profiles Profiles
}

func NewCartHandler(profiles Profiles) *CartHandler {
	return &CartHandler{profiles: profiles}
}

type CartItemResponse struct {
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Price     domain.Price `json:"price"`
	Image     string       `json:"image,omitempty"`
	Quantity  int          `json:"quantity"`
	UnitPrice float64      `json:"unit_price"`
	Subtotal  float64      `json:"subtotal"`
}

type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPrice float64            `json:"total_price"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	profile, ok := loadProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}
	c := profile.Cart
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// AddItem takes the product as the storefront shows it and bumps its line.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if strings.TrimSpace(p.ID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_argument", "product id is required")
		return
	}

	profile, ok := loadProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}
	c := profile.Cart
	c.AddItem(p)
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// UpdateQuantity sets a line's quantity. Quantities below one leave the
// line as it is.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	profile, ok := loadProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}
	c := profile.Cart
	if c.Quantity(productID) == 0 {
		respondError(w, http.StatusNotFound, "not_found", "product is not in the cart")
		return
	}
	c.UpdateQuantity(productID, req.Quantity)
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	profile, ok := loadProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}
	c := profile.Cart
	c.RemoveItem(productID)
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	profile, ok := loadProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}
	c := profile.Cart
	c.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func toCartResponse(c *cart.Store) CartResponse {
	lines := c.Lines()
	items := make([]CartItemResponse, len(lines))
	for i, l := range lines {
		items[i] = CartItemResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Image:     l.Image,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice(),
			Subtotal:  l.Subtotal(),
		}
	}
	return CartResponse{
		Items:      items,
		TotalItems: c.Count(),
		TotalPrice: c.TotalPrice(),
	}
}
