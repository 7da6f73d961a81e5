package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/trznica/internal/imaging"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// ItemsHandler handles inventory and item endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

// Inventory handles GET /api/inventory (the caller's own items).
func (h *ItemsHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	items, err := store.ListUserItems(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// UserInventory handles GET /api/users/{id}/inventory, gated by the
// owner's inventory visibility.
func (h *ItemsHandler) UserInventory(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	ownerID := r.PathValue("id")

	access, err := store.CheckAccess(r.Context(), h.DB, ownerID, claims.UserID, model.PrivacyClassInventory)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !access.Allowed {
		jsonError(w, http.StatusForbidden, access.Reason)
		return
	}

	items, err := store.ListUserItems(r.Context(), h.DB, ownerID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}. Non-owners see the item only when the
// owner's inventory is visible to them.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	access, err := store.CheckAccess(r.Context(), h.DB, item.OwnerID, claims.UserID, model.PrivacyClassInventory)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !access.Allowed {
		// Hide the item's existence rather than admitting it is hidden.
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// UploadImage handles PUT /api/items/{id}/image. Only the owner may set an
// item's artwork.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	if !imaging.AllowedMIME[header.Header.Get("Content-Type")] {
		jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
		return
	}

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, r.PathValue("id"), claims.UserID, result.Data, result.MIME); err != nil {
		engineError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
