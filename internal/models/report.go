package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryTotal is the summed value of all cart line items in one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// CartValue describes the most valuable cart and its owner.
type CartValue struct {
	CartID int     `json:"cartId"`
	UserID int     `json:"userId"`
	Name   Name    `json:"name"`
	Value  float64 `json:"value"`
}

// UserPair holds two users and the distance between their geolocations in kilometers.
type UserPair struct {
	UserOne  Name    `json:"userOne"`
	UserTwo  Name    `json:"userTwo"`
	Distance float64 `json:"distance"`
}

// Report is the result of a single analysis run.
type Report struct {
	ID            uuid.UUID       `json:"id"`
	CreatedAt     time.Time       `json:"createdAt"`
	Categories    []CategoryTotal `json:"categories"`
	HighestCart   CartValue       `json:"highestCart"`
	FarthestUsers UserPair        `json:"farthestUsers"`
}
