package http

import (
	"net/http"
	"testing"
)

func TestWishlist_Toggle(t *testing.T) {
	env := newTestEnv(t, CatalogMock{})

	rr := env.do(http.MethodPost, "/api/v1/wishlist/p7", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if resp := decode[ToggleResponse](t, rr); !resp.Wishlisted {
		t.Errorf("first toggle should add the product")
	}

	if resp := decode[WishlistResponse](t, env.do(http.MethodGet, "/api/v1/wishlist", nil)); len(resp.ProductIDs) != 1 || resp.ProductIDs[0] != "p7" {
		t.Errorf("expected [p7], got %v", resp.ProductIDs)
	}

	if resp := decode[ToggleResponse](t, env.do(http.MethodPost, "/api/v1/wishlist/p7", nil)); resp.Wishlisted {
		t.Errorf("second toggle should remove the product")
	}

	if resp := decode[WishlistResponse](t, env.do(http.MethodGet, "/api/v1/wishlist", nil)); len(resp.ProductIDs) != 0 {
		t.Errorf("expected empty wishlist, got %v", resp.ProductIDs)
	}
}
