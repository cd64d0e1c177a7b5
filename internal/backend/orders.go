package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kajal19803/dairyfrontend/internal/domain"
)

func (c *Client) UpdateContact(ctx context.Context, address domain.Address, phone string) error {
	body := struct {
		Address     domain.Address `json:"address"`
		PhoneNumber string         `json:"phoneNumber"`
	}{address, phone}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/update-contact", body, nil)
}

// PlaceOrder stores order and returns its backend id.
func (c *Client) PlaceOrder(ctx context.Context, order domain.Order) (string, error) {
	var resp struct {
		MongoID json.RawMessage `json:"_id"`
		OrderID json.RawMessage `json:"orderId"`
		ID      json.RawMessage `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/orders/orders", order, &resp); err != nil {
		return "", err
	}

	for _, raw := range []json.RawMessage{resp.MongoID, resp.OrderID, resp.ID} {
		if id := scalar(raw); id != "" {
			return id, nil
		}
	}
	return "", errors.New("order response has no id")
}

// CreatePaymentLink opens an online payment session and returns its id. An
// empty id means the gateway refused to open one.
func (c *Client) CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (string, error) {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/orders/payment/create-link", req, &resp)
	return resp.SessionID, err
}

func (c *Client) PlaceCOD(ctx context.Context, orderID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/orders/place-cod", map[string]string{"orderId": orderID}, nil)
}
