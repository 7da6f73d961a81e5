package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/erazemk/trznica/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("error encoding response: %v", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// statusForCode maps engine error codes to HTTP statuses.
var statusForCode = map[string]int{
	model.CodeBadRequest:        http.StatusBadRequest,
	model.CodeNotFound:          http.StatusNotFound,
	model.CodeNotAvailable:      http.StatusConflict,
	model.CodeConflict:          http.StatusConflict,
	model.CodeForbidden:         http.StatusForbidden,
	model.CodePrivacyRestricted: http.StatusForbidden,
	model.CodeMaxListings:       http.StatusTooManyRequests,
	model.CodeMaxTrades:         http.StatusTooManyRequests,
	model.CodeMaxOffers:         http.StatusTooManyRequests,
	model.CodeDailyLimit:        http.StatusTooManyRequests,
	model.CodeInsufficientFunds: http.StatusPaymentRequired,
}

// engineError writes an engine error with its code and details, or a
// generic 500 for unexpected failures.
func engineError(w http.ResponseWriter, err error) {
	var engineErr *model.Error
	if errors.As(err, &engineErr) {
		status, ok := statusForCode[engineErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		jsonResponse(w, status, engineErr)
		return
	}

	log.Printf("internal error: %v", err)
	jsonError(w, http.StatusInternalServerError, "internal error")
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
