package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"storefront/domain"
)

// FetchCart returns the backend's cart for the current identity. The result
// is cached until the next mutation; a fetch that was in flight when an
// invalidation happened is discarded rather than written into the cache.
func (c *Client) FetchCart(ctx context.Context) ([]domain.CartLineItem, error) {
	c.cacheMu.Lock()
	if c.hasCache {
		out := make([]domain.CartLineItem, len(c.cached))
		copy(out, c.cached)
		c.cacheMu.Unlock()
		return out, nil
	}
	gen := c.gen
	c.cacheMu.Unlock()

	req, err := c.newRequest(ctx, http.MethodGet, "cart", nil, nil)
	if err != nil {
		return nil, err
	}
	var raw []byte
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	items, err := normalizeCartLines(raw)
	if err != nil {
		return nil, err
	}

	c.cacheMu.Lock()
	if c.gen == gen {
		c.cached = items
		c.hasCache = true
	}
	c.cacheMu.Unlock()
	return items, nil
}

// InvalidateCart drops the cached cart view so the next FetchCart reads the
// server's canonical state.
func (c *Client) InvalidateCart() {
	c.cacheMu.Lock()
	c.gen++
	c.hasCache = false
	c.cached = nil
	c.cacheMu.Unlock()
}

// AddItem adds quantity units of the product to the remote cart.
func (c *Client) AddItem(ctx context.Context, productID string, quantity int) error {
	body := map[string]any{"productId": productID, "quantity": quantity}
	if id := c.identity(); id.Kind == domain.IdentityGuest {
		body["guestId"] = id.GuestID
	}
	return c.mutate(ctx, http.MethodPost, "cart/add", body)
}

// UpdateItem replaces the quantity of the given cart line.
func (c *Client) UpdateItem(ctx context.Context, lineID string, quantity int) error {
	return c.mutate(ctx, http.MethodPut, "cart/"+lineID, map[string]any{"quantity": quantity})
}

// RemoveItem deletes the given cart line.
func (c *Client) RemoveItem(ctx context.Context, lineID string) error {
	return c.mutate(ctx, http.MethodDelete, "cart/"+lineID, nil)
}

// ClearCart empties the remote cart.
func (c *Client) ClearCart(ctx context.Context) error {
	var body map[string]any
	if id := c.identity(); id.Kind == domain.IdentityGuest {
		body = map[string]any{"guestId": id.GuestID}
	}
	return c.mutate(ctx, http.MethodPost, "cart/clear", body)
}

// mutate runs one mutating cart call and invalidates the cached view on
// success. Mutations are serialized per client; there are no retries.
func (c *Client) mutate(ctx context.Context, method, path string, body any) error {
	c.mutMu.Lock()
	defer c.mutMu.Unlock()

	req, err := c.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return err
	}
	c.InvalidateCart()
	return nil
}

// normalizeCartLines flattens whatever shape the backend answered with into
// a line sequence: a bare array, or an object wrapped under one of the known
// keys (nested wrappers unwrap recursively).
func normalizeCartLines(b []byte) ([]domain.CartLineItem, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return []domain.CartLineItem{}, nil
	}
	if b[0] == '[' {
		var items []domain.CartLineItem
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, fmt.Errorf("cart response: %w", err)
		}
		return items, nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return nil, fmt.Errorf("cart response: %w", err)
	}
	for _, key := range []string{"cartItems", "items", "data", "cart"} {
		if raw, ok := wrapper[key]; ok {
			return normalizeCartLines(raw)
		}
	}
	return nil, fmt.Errorf("cart response: unrecognized shape")
}
