// Package domain defines core business types and interfaces.
package domain

// MaxQuantityPerLine is the hard cap on the quantity of a single cart line,
// regardless of available stock.
const MaxQuantityPerLine = 10

// CartLineItem is one product entry in the cart with its quantity and a
// price snapshot taken at the time the line was created.
type CartLineItem struct {
	// ID is the server-assigned line identifier. Empty for lines that only
	// exist in the local (guest) cart.
	ID             string  `json:"id,omitempty"`
	ProductID      string  `json:"productId"`
	Name           string  `json:"name"`
	UnitPrice      float64 `json:"unitPrice"`
	Quantity       int     `json:"quantity"`
	StockAvailable int     `json:"stockAvailable"`
}

// MaxQuantity returns the largest quantity this line may hold:
// min(StockAvailable, MaxQuantityPerLine).
func (li CartLineItem) MaxQuantity() int {
	if li.StockAvailable < MaxQuantityPerLine {
		return li.StockAvailable
	}
	return MaxQuantityPerLine
}

// CartState is the full client-side cart: ordered lines unique by ProductID
// plus aggregates kept consistent with the lines after every transition.
type CartState struct {
	Items       []CartLineItem `json:"items"`
	TotalItems  int            `json:"totalItems"`
	TotalAmount float64        `json:"totalAmount"`
}

// EmptyCart returns the zero-value cart state.
func EmptyCart() CartState {
	return CartState{Items: []CartLineItem{}}
}
