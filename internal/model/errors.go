package model

// Machine-readable error codes surfaced by the engine. The API layer maps
// these to HTTP statuses; the messages are safe to show to end users.
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeNotAvailable      = "NOT_AVAILABLE"
	CodeForbidden         = "FORBIDDEN"
	CodePrivacyRestricted = "PRIVACY_RESTRICTED"
	CodeConflict          = "CONFLICT"
	CodeMaxListings       = "MAX_LISTINGS_REACHED"
	CodeMaxTrades         = "MAX_TRADES_REACHED"
	CodeMaxOffers         = "MAX_OFFERS_REACHED"
	CodeDailyLimit        = "DAILY_LIMIT_EXCEEDED"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// Error is a structured engine failure: a stable code, a human-readable
// message, and optional details (quota counts, remaining headroom).
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// NewError creates an engine error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// With attaches a detail entry and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}
