package api

import (
	"context"
	"fmt"
	"net/http"

	"storefront/domain"
)

// PlaceOrder turns the current cart into an order. The server empties the
// cart on success, so the cached cart view is invalidated too.
func (c *Client) PlaceOrder(ctx context.Context) (*domain.Order, error) {
	var body map[string]any
	if id := c.identity(); id.Kind == domain.IdentityGuest {
		body = map[string]any{"guestId": id.GuestID}
	}
	req, err := c.newRequest(ctx, http.MethodPost, "orders/buy", nil, body)
	if err != nil {
		return nil, err
	}
	var out domain.Order
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	c.InvalidateCart()
	return &out, nil
}

// Orders lists the session's orders.
func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "orders", nil, nil)
	if err != nil {
		return nil, err
	}
	var raw []byte
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	var out []domain.Order
	if err := decodeList(raw, &out, "orders", "items", "data"); err != nil {
		return nil, fmt.Errorf("orders response: %w", err)
	}
	return out, nil
}

// Order fetches one order by id.
func (c *Client) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "orders/"+orderID, nil, nil)
	if err != nil {
		return nil, err
	}
	var out domain.Order
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
