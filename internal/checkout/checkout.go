// Package checkout turns a cart into a backend order and hands it over to
// the payment step.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kajal19803/dairyfrontend/internal/domain"
	"github.com/kajal19803/dairyfrontend/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrIncompleteContact    = errors.New("full name, street, city, state, zip and phone are required")
	ErrMissingPayer         = errors.New("payer name and email are required")
	ErrMissingSession       = errors.New("payment gateway returned no session id")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrUnknownOrder         = errors.New("order was not placed through this storefront")
)

type Backend interface {
	UpdateContact(ctx context.Context, address domain.Address, phone string) error
	PlaceOrder(ctx context.Context, order domain.Order) (string, error)
	CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (string, error)
	PlaceCOD(ctx context.Context, orderID string) error
}

// Cart is the part of a cart checkout needs.
type Cart interface {
	Lines() []domain.CartLine
	Clear()
}

type Contact struct {
	Address domain.Address `json:"address"`
	Phone   string         `json:"phone"`
}

func (c Contact) Complete() bool {
	return c.Address.Complete() && strings.TrimSpace(c.Phone) != ""
}

type Placed struct {
	OrderID string  `json:"orderId"`
	Total   float64 `json:"total"`
}

type Payer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type PaymentResult struct {
	Method    domain.PaymentMethod `json:"method"`
	OrderID   string               `json:"orderId"`
	SessionID string               `json:"sessionId,omitempty"`
	ReturnURL string               `json:"returnUrl,omitempty"`
}

// placedOrder is what the storefront remembers of an order awaiting
// payment, so online payments charge what was ordered rather than what the
// client claims.
type placedOrder struct {
	Total    float64   `json:"total"`
	PlacedAt time.Time `json:"placed_at"`
}

func orderKey(orderID string) string {
	return "order:" + orderID
}

type Service struct {
	backend   Backend
	store     storage.Store
	publicURL string
	log       *zap.Logger
}

// NewService returns a checkout that keeps placed totals in st, so any
// instance sharing the store can take the payment.
func NewService(backend Backend, st storage.Store, publicURL string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		backend:   backend,
		store:     st,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       log,
	}
}

// BuildOrder snapshots the cart lines into an order payload.
func BuildOrder(userID string, lines []domain.CartLine, contact Contact) domain.Order {
	order := domain.Order{
		UserID:  userID,
		Items:   make([]domain.OrderItem, 0, len(lines)),
		Address: contact.Address,
		Phone:   contact.Phone,
		Status:  domain.OrderStatusPending,
	}
	for _, line := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice(),
		})
		order.TotalPrice += line.Subtotal()
	}
	return order
}

// PlaceOrder saves the contact details, posts the order and empties the
// cart once the backend accepted it.
func (s *Service) PlaceOrder(ctx context.Context, userID string, cart Cart, contact Contact) (Placed, error) {
	lines := cart.Lines()
	if len(lines) == 0 {
		return Placed{}, ErrEmptyCart
	}
	if !contact.Complete() {
		return Placed{}, ErrIncompleteContact
	}

	if err := s.backend.UpdateContact(ctx, contact.Address, contact.Phone); err != nil {
		return Placed{}, fmt.Errorf("update contact: %w", err)
	}

	order := BuildOrder(userID, lines, contact)
	orderID, err := s.backend.PlaceOrder(ctx, order)
	if err != nil {
		return Placed{}, fmt.Errorf("place order: %w", err)
	}

	// the backend has the order either way; without the saved total only
	// cash on delivery remains possible
	if err := storage.SaveJSON(ctx, s.store, orderKey(orderID), placedOrder{Total: order.TotalPrice, PlacedAt: time.Now()}); err != nil {
		s.log.Warn("failed to remember placed order", zap.String("order_id", orderID), zap.Error(err))
	}

	cart.Clear()
	s.log.Info("order placed",
		zap.String("order_id", orderID),
		zap.Int("items", len(order.Items)),
		zap.Float64("total", order.TotalPrice))

	return Placed{OrderID: orderID, Total: order.TotalPrice}, nil
}

// Pay hands a placed order to the chosen payment method. Online payments
// return the gateway session and the page the gateway sends the user back
// to; cash on delivery confirms the order and clears the cart.
func (s *Service) Pay(ctx context.Context, cart Cart, orderID string, method domain.PaymentMethod, payer Payer) (PaymentResult, error) {
	switch method {
	case domain.PaymentOnline:
		if payer.Name == "" || payer.Email == "" {
			return PaymentResult{}, ErrMissingPayer
		}
		var placed placedOrder
		if err := storage.LoadJSON(ctx, s.store, orderKey(orderID), &placed); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return PaymentResult{}, ErrUnknownOrder
			}
			return PaymentResult{}, fmt.Errorf("load placed order: %w", err)
		}

		session, err := s.backend.CreatePaymentLink(ctx, domain.PaymentLinkRequest{
			Amount:  placed.Total,
			Name:    payer.Name,
			Email:   payer.Email,
			Phone:   payer.Phone,
			OrderID: orderID,
		})
		if err != nil {
			return PaymentResult{}, fmt.Errorf("create payment link: %w", err)
		}
		if session == "" {
			return PaymentResult{}, ErrMissingSession
		}

		return PaymentResult{
			Method:    method,
			OrderID:   orderID,
			SessionID: session,
			ReturnURL: s.publicURL + "/payment-status?order_id=" + url.QueryEscape(orderID),
		}, nil

	case domain.PaymentCOD:
		if err := s.backend.PlaceCOD(ctx, orderID); err != nil {
			return PaymentResult{}, fmt.Errorf("place cod order: %w", err)
		}
		cart.Clear()
		if err := s.forget(ctx, orderID); err != nil {
			s.log.Warn("failed to forget settled order", zap.String("order_id", orderID), zap.Error(err))
		}
		s.log.Info("cash on delivery confirmed", zap.String("order_id", orderID))
		return PaymentResult{Method: method, OrderID: orderID}, nil
	}

	return PaymentResult{}, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, method)
}

// Settled drops the remembered total of an order that finished elsewhere.
func (s *Service) Settled(ctx context.Context, orderID string) error {
	return s.forget(ctx, orderID)
}

func (s *Service) forget(ctx context.Context, orderID string) error {
	if err := s.store.Delete(ctx, orderKey(orderID)); err != nil {
		return fmt.Errorf("forget order %s: %w", orderID, err)
	}
	return nil
}
