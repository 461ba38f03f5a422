package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"storefront/domain"
)

// Products lists catalog products with the given filters.
func (c *Client) Products(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*filter.MinPrice, 'f', -1, 64))
	}
	if filter.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*filter.MaxPrice, 'f', -1, 64))
	}
	if filter.SortBy != "" {
		q.Set("sortBy", filter.SortBy)
		q.Set("order", filter.Order)
	}
	req, err := c.newRequest(ctx, http.MethodGet, "products", q, nil)
	if err != nil {
		return nil, err
	}
	var raw []byte
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	var out []domain.Product
	if err := decodeList(raw, &out, "products", "items", "data"); err != nil {
		return nil, fmt.Errorf("products response: %w", err)
	}
	return out, nil
}

// Product fetches one product by id.
func (c *Client) Product(ctx context.Context, productID string) (*domain.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "products/"+productID, nil, nil)
	if err != nil {
		return nil, err
	}
	var out domain.Product
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeList decodes a bare JSON array, or an object wrapping the array
// under one of the given keys, into out.
func decodeList(b []byte, out any, keys ...string) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, out)
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return err
	}
	for _, key := range keys {
		if raw, ok := wrapper[key]; ok {
			return decodeList(raw, out, keys...)
		}
	}
	return fmt.Errorf("unrecognized shape")
}
