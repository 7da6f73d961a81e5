package model

import "time"

// WalletTransaction is an immutable ledger entry. Purchase entries carry a
// negative amount for the buyer; the daily spending limit is derived from
// them, never from a cached counter.
type WalletTransaction struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	AmountCents     int64     `json:"amount_cents"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	IdempotencyKey  string    `json:"idempotency_key,omitempty"`
	ListingID       string    `json:"listing_id,omitempty"`
	CommissionCents int64     `json:"commission_cents,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Transaction types.
const (
	TransactionTypePurchase = "purchase"
	TransactionTypeDeposit  = "deposit"
)

// Transaction statuses.
const (
	TransactionStatusCompleted = "completed"
)
