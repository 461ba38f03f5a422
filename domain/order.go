package domain

import "time"

// Order is a placed order as returned by the backend.
type Order struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId,omitempty"`
	Items       []CartLineItem `json:"items"`
	TotalAmount float64        `json:"totalAmount"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
}
