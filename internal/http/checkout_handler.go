package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kajal19803/dairyfrontend/internal/checkout"
	"github.com/kajal19803/dairyfrontend/internal/domain"
)

type Checkout interface {
	PlaceOrder(ctx context.Context, userID string, cart checkout.Cart, contact checkout.Contact) (checkout.Placed, error)
	Pay(ctx context.Context, cart checkout.Cart, orderID string, method domain.PaymentMethod, payer checkout.Payer) (checkout.PaymentResult, error)
}

type CheckoutHandler struct {
	profiles Profiles
	checkout Checkout
	timeout  time.Duration
}

func NewCheckoutHandler(profiles Profiles, svc Checkout, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		profiles: profiles,
		checkout: svc,
		timeout:  timeout,
	}
}

type PaymentRequest struct {
	Method domain.PaymentMethod `json:"method"`
	Name   string               `json:"name"`
	Email  string               `json:"email"`
	Phone  string               `json:"phone"`
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	identity := getIdentity(r.Context())
	if identity.UserID == "" {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to check out")
		return
	}

	var contact checkout.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	profile, ok := loadProfile(ctx, w, h.profiles)
	if !ok {
		return
	}
	c := profile.Cart
	placed, err := h.checkout.PlaceOrder(ctx, identity.UserID, c, contact)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, placed)
}

// Pay starts payment of a placed order. Payer details missing from the body
// fall back to the signed-in user's token claims.
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	identity := getIdentity(r.Context())
	payer := checkout.Payer{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if payer.Name == "" {
		payer.Name = identity.Name
	}
	if payer.Email == "" {
		payer.Email = identity.Email
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	profile, ok := loadProfile(ctx, w, h.profiles)
	if !ok {
		return
	}
	c := profile.Cart
	res, err := h.checkout.Pay(ctx, c, orderID, req.Method, payer)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrIncompleteContact):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, checkout.ErrMissingPayer):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, checkout.ErrUnknownPaymentMethod):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, checkout.ErrUnknownOrder):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, checkout.ErrMissingSession):
		respondError(w, http.StatusBadGateway, "backend_error", err.Error())
	default:
		handleBackendError(w, err)
	}
}
