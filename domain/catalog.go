package domain

// Product represents a catalog product as served by the backend.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	OfferPrice  float64 `json:"offerPrice,omitempty"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
}

// UnitPrice is the price a cart line snapshots: the offer price when one is
// set and differs from the original price, otherwise the original price.
func (p Product) UnitPrice() float64 {
	if p.OfferPrice > 0 && p.OfferPrice != p.Price {
		return p.OfferPrice
	}
	return p.Price
}

// ProductFilter allows filtering and sorting catalog listings.
type ProductFilter struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	SortBy   string // "name", "price"
	Order    string // "asc" or "desc"
}
