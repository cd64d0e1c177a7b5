package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kajal19803/dairyfrontend/internal/domain"
)

// Products lists the catalog. The backend answers either with a bare array
// or with {"products": [...]}.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/products", nil, &raw); err != nil {
		return nil, err
	}

	var products []domain.Product
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		if err := json.Unmarshal(raw, &products); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
		return products, nil
	}

	var wrapped struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return wrapped.Products, nil
}

func (c *Client) Product(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := c.doJSON(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &p)
	return p, err
}
