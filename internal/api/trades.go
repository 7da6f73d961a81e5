package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/trznica/internal/config"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// TradesHandler handles trade and trade-offer endpoints.
type TradesHandler struct {
	DB     *sql.DB
	Policy config.Policy
}

type createTradeRequest struct {
	ItemID string `json:"item_id"`
}

type createOfferRequest struct {
	ItemID string `json:"item_id"`
}

// List handles GET /api/trades. Trades from users whose trade board is not
// visible to the caller are filtered out.
func (h *TradesHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	trades, err := store.ListActiveTrades(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	visible := []model.Trade{}
	for _, trade := range trades {
		access, err := store.CheckAccess(r.Context(), h.DB, trade.OffererID, claims.UserID, model.PrivacyClassTrade)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if access.Allowed {
			visible = append(visible, trade)
		}
	}
	jsonResponse(w, http.StatusOK, visible)
}

// Create handles POST /api/trades.
func (h *TradesHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createTradeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trade, err := store.CreateTrade(r.Context(), h.DB, h.Policy, claims.UserID, req.ItemID)
	if err != nil {
		engineError(w, err)
		return
	}

	slog.Info("trade posted", "trade", trade.ID, "user", claims.Username)
	jsonResponse(w, http.StatusCreated, trade)
}

// Get handles GET /api/trades/{id}.
func (h *TradesHandler) Get(w http.ResponseWriter, r *http.Request) {
	trade, err := store.GetTrade(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get trade")
		return
	}
	if trade == nil {
		jsonError(w, http.StatusNotFound, "trade not found")
		return
	}
	jsonResponse(w, http.StatusOK, trade)
}

// Cancel handles DELETE /api/trades/{id}.
func (h *TradesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	trade, err := store.CancelTrade(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}

	slog.Info("trade cancelled", "trade", trade.ID, "user", claims.Username)
	jsonResponse(w, http.StatusOK, trade)
}

// ListOffers handles GET /api/trades/{id}/offers.
func (h *TradesHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := store.ListTradeOffers(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list offers")
		return
	}
	if offers == nil {
		offers = []model.TradeOffer{}
	}
	jsonResponse(w, http.StatusOK, offers)
}

// CreateOffer handles POST /api/trades/{id}/offers.
func (h *TradesHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createOfferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	offer, err := store.CreateTradeOffer(r.Context(), h.DB, h.Policy, claims.UserID, r.PathValue("id"), req.ItemID)
	if err != nil {
		engineError(w, err)
		return
	}

	slog.Info("trade offer made", "trade", offer.TradeID, "offer", offer.ID, "user", claims.Username)
	jsonResponse(w, http.StatusCreated, offer)
}

// AcceptOffer handles POST /api/offers/{id}/accept.
func (h *TradesHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	offer, err := store.AcceptTradeOffer(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}

	slog.Info("trade completed", "trade", offer.TradeID, "offer", offer.ID, "user", claims.Username)
	jsonResponse(w, http.StatusOK, offer)
}

// RejectOffer handles POST /api/offers/{id}/reject.
func (h *TradesHandler) RejectOffer(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	offer, err := store.RejectTradeOffer(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, offer)
}

// CancelOffer handles DELETE /api/offers/{id}.
func (h *TradesHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	offer, err := store.CancelTradeOffer(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, offer)
}
