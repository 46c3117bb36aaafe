package models

import "time"

// LineItem is a single product entry of a cart.
type LineItem struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Cart is a collection of line items owned by one user, as returned by the /carts endpoint.
type Cart struct {
	ID       int        `json:"id"`
	UserID   int        `json:"userId"`
	Date     time.Time  `json:"date"`
	Products []LineItem `json:"products"`
}
