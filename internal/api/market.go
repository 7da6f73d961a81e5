package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/trznica/internal/config"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// MarketHandler handles listing lifecycle and purchase endpoints.
type MarketHandler struct {
	DB     *sql.DB
	Policy config.Policy
}

type createListingRequest struct {
	ItemID string  `json:"item_id"`
	Price  float64 `json:"price"`
}

type repriceRequest struct {
	Price float64 `json:"price"`
}

type purchaseRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
}

// List handles GET /api/market. Listings from sellers whose marketplace is
// not visible to the caller are filtered out.
func (h *MarketHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	listings, err := store.ListActiveListings(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list market")
		return
	}

	visible := []model.Listing{}
	for _, listing := range listings {
		access, err := store.CheckAccess(r.Context(), h.DB, listing.SellerID, claims.UserID, model.PrivacyClassMarketplace)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if access.Allowed {
			visible = append(visible, listing)
		}
	}
	jsonResponse(w, http.StatusOK, visible)
}

// Create handles POST /api/market. Prices are decimal dollars.
func (h *MarketHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, ok := model.ToCents(req.Price)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid price")
		return
	}

	listing, err := store.CreateListing(r.Context(), h.DB, h.Policy, claims.UserID, req.ItemID, cents)
	if err != nil {
		engineError(w, err)
		return
	}

	slog.Info("listing created", "listing", listing.ID, "seller", claims.Username, "price", model.Dollars(cents))
	jsonResponse(w, http.StatusCreated, listing)
}

// Get handles GET /api/market/{id}.
func (h *MarketHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, err := store.GetListing(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get listing")
		return
	}
	if listing == nil {
		jsonError(w, http.StatusNotFound, "listing not found")
		return
	}
	jsonResponse(w, http.StatusOK, listing)
}

// Cancel handles DELETE /api/market/{id}.
func (h *MarketHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	listing, err := store.CancelListing(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}

	slog.Info("listing cancelled", "listing", listing.ID, "seller", claims.Username)
	jsonResponse(w, http.StatusOK, listing)
}

// UpdatePrice handles PUT /api/market/{id}/price. Repricing to the current
// price is a no-op.
func (h *MarketHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req repriceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, ok := model.ToCents(req.Price)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid price")
		return
	}

	result, err := store.UpdateListingPrice(r.Context(), h.DB, h.Policy, claims.UserID, r.PathValue("id"), cents)
	if err != nil {
		engineError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, result)
}

// Purchase handles POST /api/market/{id}/purchase. The price comes from the
// stored listing; the request carries only an idempotency key.
func (h *MarketHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := store.PurchaseListing(r.Context(), h.DB, h.Policy, claims.UserID, r.PathValue("id"), req.IdempotencyKey)
	if err != nil {
		engineError(w, err)
		return
	}

	if result.AlreadyProcessed {
		jsonResponse(w, http.StatusOK, result)
		return
	}

	slog.Info("listing purchased", "listing", result.ListingID, "buyer", claims.Username,
		"price", model.Dollars(result.PriceCents), "commission", model.Dollars(result.CommissionCents))
	jsonResponse(w, http.StatusCreated, result)
}
