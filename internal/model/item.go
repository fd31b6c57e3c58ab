package model

import "time"

// InventoryItem is a pantry item the user currently has on hand.
type InventoryItem struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	MinQuantity float64    `json:"min_quantity"`
	PhotoMime   string     `json:"photo_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ShoppingItem is an item the user still needs to buy. It carries no expiry
// and no reorder threshold; those only exist once the item is in the pantry.
type ShoppingItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultMinQuantity is the reorder threshold applied when none is given.
const DefaultMinQuantity = 1
