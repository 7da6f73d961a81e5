package model

import "time"

// Privacy visibility levels.
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

// Privacy resource classes.
const (
	PrivacyClassInventory   = "inventory"
	PrivacyClassTrade       = "trade"
	PrivacyClassMarketplace = "marketplace"
)

// ValidVisibility reports whether v is a known visibility level.
func ValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityFriends || v == VisibilityPrivate
}

// PrivacySettings holds a user's visibility level per resource class.
// A user without a stored row defaults to public everywhere.
type PrivacySettings struct {
	UserID      string `json:"user_id"`
	Inventory   string `json:"inventory"`
	Trade       string `json:"trade"`
	Marketplace string `json:"marketplace"`
}

// Class returns the visibility level for the given resource class, or ""
// when the class is unknown.
func (p *PrivacySettings) Class(class string) string {
	switch class {
	case PrivacyClassInventory:
		return p.Inventory
	case PrivacyClassTrade:
		return p.Trade
	case PrivacyClassMarketplace:
		return p.Marketplace
	}
	return ""
}

// AccessDecision is the result of a privacy check.
type AccessDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Friendship statuses.
const (
	FriendshipStatusPending  = "pending"
	FriendshipStatusAccepted = "accepted"
	FriendshipStatusRejected = "rejected"
)

// Friendship represents a (symmetric) relation between two users.
type Friendship struct {
	RequesterID string    `json:"requester_id"`
	AddresseeID string    `json:"addressee_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined fields (not always populated).
	RequesterName string `json:"requester_name,omitempty"`
	AddresseeName string `json:"addressee_name,omitempty"`
}
