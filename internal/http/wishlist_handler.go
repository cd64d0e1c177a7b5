package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type WishlistHandler struct {
	profiles Profiles
}

func NewWishlistHandler(profiles Profiles) *WishlistHandler {
	return &WishlistHandler{profiles: profiles}
}

type WishlistResponse struct {
	ProductIDs []string `json:"product_ids"`
}

type ToggleResponse struct {
	ProductID  string `json:"product_id"`
	Wishlisted bool   `json:"wishlisted"`
}

func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, ok := loadProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}
	wl := profile.Wishlist
	respondJSON(w, http.StatusOK, WishlistResponse{ProductIDs: wl.IDs()})
}

func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_argument", "product id is required")
		return
	}

	profile, ok := loadProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}
	wl := profile.Wishlist
	respondJSON(w, http.StatusOK, ToggleResponse{
		ProductID:  productID,
		Wishlisted: wl.Toggle(productID),
	})
}
