package model

import "time"

// Listing represents an offer to sell one item at a fixed price.
type Listing struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	SellerID   string    `json:"seller_id"`
	PriceCents int64     `json:"price_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	ItemName   string `json:"item_name,omitempty"`
	SellerName string `json:"seller_name,omitempty"`
}

// Listing statuses.
const (
	ListingStatusActive    = "active"
	ListingStatusSold      = "sold"
	ListingStatusCancelled = "cancelled"
)

// RepriceResult is returned by a price update. When the requested price
// equals the current one the update is a no-op and Unchanged is set.
type RepriceResult struct {
	Listing   *Listing `json:"listing"`
	Unchanged bool     `json:"unchanged"`
}

// PurchaseResult is the snapshot returned by a successful (or replayed)
// purchase.
type PurchaseResult struct {
	TransactionID       string `json:"transaction_id"`
	ListingID           string `json:"listing_id"`
	ItemID              string `json:"item_id"`
	PriceCents          int64  `json:"price_cents"`
	CommissionCents     int64  `json:"commission_cents"`
	SellerReceivesCents int64  `json:"seller_receives_cents"`
	AlreadyProcessed    bool   `json:"already_processed,omitempty"`
}
