package model

import "time"

// Item represents a single owned unit of digital inventory.
// An item is locked while it is attached to an active listing or a
// pending trade/offer, which keeps it out of any other sale or trade.
type Item struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageMime   string    `json:"image_mime,omitempty"`
	Tradable    bool      `json:"tradable"`
	Marketable  bool      `json:"marketable"`
	Locked      bool      `json:"locked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
