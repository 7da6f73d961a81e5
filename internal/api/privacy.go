package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// PrivacyHandler handles privacy settings and friendship endpoints.
type PrivacyHandler struct {
	DB *sql.DB
}

type updatePrivacyRequest struct {
	Inventory   string `json:"inventory"`
	Trade       string `json:"trade"`
	Marketplace string `json:"marketplace"`
}

type friendRequest struct {
	Username string `json:"username"`
}

// Get handles GET /api/privacy (the caller's own settings).
func (h *PrivacyHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	settings, err := store.GetPrivacySettings(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get privacy settings")
		return
	}
	jsonResponse(w, http.StatusOK, settings)
}

// Update handles PUT /api/privacy.
func (h *PrivacyHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req updatePrivacyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := store.UpdatePrivacySettings(r.Context(), h.DB, claims.UserID,
		req.Inventory, req.Trade, req.Marketplace)
	if err != nil {
		engineError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, settings)
}

// ListFriends handles GET /api/friends.
func (h *PrivacyHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	friendships, err := store.ListFriendships(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list friends")
		return
	}
	if friendships == nil {
		friendships = []model.Friendship{}
	}
	jsonResponse(w, http.StatusOK, friendships)
}

// RequestFriend handles POST /api/friends. Friends are addressed by
// username, not ID.
func (h *PrivacyHandler) RequestFriend(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req friendRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	addressee, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if addressee == nil || addressee.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	friendship, err := store.RequestFriendship(r.Context(), h.DB, claims.UserID, addressee.ID)
	if err != nil {
		engineError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, friendship)
}

// AcceptFriend handles PUT /api/friends/{id}, where {id} is the requester.
func (h *PrivacyHandler) AcceptFriend(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	friendship, err := store.AcceptFriendship(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		engineError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, friendship)
}
