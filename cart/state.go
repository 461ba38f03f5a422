// Package cart implements the client-side cart: pure state transitions,
// the persisted local store and the mode coordinator.
package cart

import "storefront/domain"

// The transition functions below are pure: they take a state and return a
// new state, leaving the input untouched. Persistence happens one layer up,
// in Store, so the transitions stay independently testable.

// Add appends a line with quantity 1 for a new product, or increments the
// existing line by 1. The increment never pushes the line past
// min(stock, MaxQuantityPerLine). Aggregates are adjusted by the delta.
func Add(s domain.CartState, p domain.Product) domain.CartState {
	next := cloneState(s)
	price := p.UnitPrice()
	for i := range next.Items {
		if next.Items[i].ProductID != p.ID {
			continue
		}
		if next.Items[i].Quantity >= next.Items[i].MaxQuantity() {
			return next
		}
		next.Items[i].Quantity++
		next.TotalItems++
		next.TotalAmount += next.Items[i].UnitPrice
		return next
	}
	next.Items = append(next.Items, domain.CartLineItem{
		ProductID:      p.ID,
		Name:           p.Name,
		UnitPrice:      price,
		Quantity:       1,
		StockAvailable: p.Stock,
	})
	next.TotalItems++
	next.TotalAmount += price
	return next
}

// Remove deletes the line entirely, subtracting its full contribution from
// both aggregates. Absent product is a no-op.
func Remove(s domain.CartState, productID string) domain.CartState {
	next := cloneState(s)
	for i, li := range next.Items {
		if li.ProductID != productID {
			continue
		}
		next.TotalItems -= li.Quantity
		next.TotalAmount -= float64(li.Quantity) * li.UnitPrice
		next.Items = append(next.Items[:i], next.Items[i+1:]...)
		return next
	}
	return next
}

// SetQuantity replaces the line's quantity, clamped to the line bound, and
// adjusts aggregates by the delta using the stored unit price (the price is
// never re-derived from the catalog). No-op when quantity <= 0 or the
// product is absent.
func SetQuantity(s domain.CartState, productID string, quantity int) domain.CartState {
	next := cloneState(s)
	if quantity <= 0 {
		return next
	}
	for i := range next.Items {
		li := &next.Items[i]
		if li.ProductID != productID {
			continue
		}
		q := quantity
		if max := li.MaxQuantity(); q > max {
			q = max
		}
		next.TotalItems += q - li.Quantity
		next.TotalAmount += float64(q-li.Quantity) * li.UnitPrice
		li.Quantity = q
		return next
	}
	return next
}

// Clear yields the empty cart.
func Clear() domain.CartState {
	return domain.EmptyCart()
}

// FromLines rebuilds a full CartState, aggregates included, from a flat line
// sequence (as fetched from the backend).
func FromLines(items []domain.CartLineItem) domain.CartState {
	s := domain.EmptyCart()
	s.Items = make([]domain.CartLineItem, len(items))
	copy(s.Items, items)
	for _, li := range s.Items {
		s.TotalItems += li.Quantity
		s.TotalAmount += float64(li.Quantity) * li.UnitPrice
	}
	return s
}

func cloneState(s domain.CartState) domain.CartState {
	out := s
	out.Items = make([]domain.CartLineItem, len(s.Items))
	copy(out.Items, s.Items)
	return out
}
