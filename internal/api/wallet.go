package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	DB *sql.DB
}

type walletResponse struct {
	BalanceCents int64                     `json:"balance_cents"`
	Balance      float64                   `json:"balance"`
	Transactions []model.WalletTransaction `json:"transactions"`
}

// Get handles GET /api/wallet: the caller's balance and ledger.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	transactions, err := store.ListTransactions(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []model.WalletTransaction{}
	}

	jsonResponse(w, http.StatusOK, walletResponse{
		BalanceCents: user.BalanceCents,
		Balance:      model.Dollars(user.BalanceCents),
		Transactions: transactions,
	})
}
