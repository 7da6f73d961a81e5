package model

import "time"

// Trade represents a public offer by a user to trade away one item.
// Status strings are carried over from the upstream product database.
type Trade struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	OffererID string    `json:"offerer_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	ItemName    string `json:"item_name,omitempty"`
	OffererName string `json:"offerer_name,omitempty"`
}

// Trade statuses.
const (
	TradeStatusPending   = "pendiente"
	TradeStatusCompleted = "completado"
	TradeStatusCancelled = "cancelado"
)

// TradeOffer represents a counter-offer attaching another item to a trade.
type TradeOffer struct {
	ID        string    `json:"id"`
	TradeID   string    `json:"trade_id"`
	OffererID string    `json:"offerer_id"`
	ItemID    string    `json:"item_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	ItemName    string `json:"item_name,omitempty"`
	OffererName string `json:"offerer_name,omitempty"`
}

// Trade offer statuses.
const (
	OfferStatusPending   = "pendiente"
	OfferStatusAccepted  = "aceptado"
	OfferStatusRejected  = "rechazado"
	OfferStatusCancelled = "cancelado"
)
