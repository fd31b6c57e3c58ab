package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/larder-app/larder/internal/cache"
	"github.com/larder-app/larder/internal/imaging"
	"github.com/larder-app/larder/internal/model"
	"github.com/larder-app/larder/internal/store"
)

// InventoryHandler handles pantry item endpoints.
type InventoryHandler struct {
	DB    *sql.DB
	Cache *cache.Lists[model.InventoryItem]
}

type createInventoryRequest struct {
	Name        string   `json:"name" validate:"required,no_digits"`
	Quantity    *float64 `json:"quantity" validate:"required,gte=0"`
	Unit        string   `json:"unit" validate:"omitempty,no_digits"`
	ExpiryDate  string   `json:"expiry_date"`
	MinQuantity *float64 `json:"min_quantity" validate:"omitempty,gt=0"`
}

type updateInventoryRequest struct {
	Name        *string  `json:"name" validate:"omitempty,no_digits"`
	Quantity    *float64 `json:"quantity" validate:"omitempty,gte=0"`
	Unit        *string  `json:"unit" validate:"omitempty,no_digits"`
	ExpiryDate  *string  `json:"expiry_date"`
	MinQuantity *float64 `json:"min_quantity" validate:"omitempty,gt=0"`
}

// inventoryStats summarizes the pantry for the dashboard alerts.
type inventoryStats struct {
	Total        int `json:"total"`
	OutOfStock   int `json:"out_of_stock"`
	LowStock     int `json:"low_stock"`
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiring_soon"`
}

// List handles GET /api/inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if items, ok := h.Cache.Get(claims.UserID); ok {
		jsonResponse(w, http.StatusOK, items)
		return
	}

	// Take the generation before the store read, so a mutation committed in
	// between keeps this refill out of the cache.
	gen := h.Cache.Generation(claims.UserID)
	items, err := store.ListInventoryItems(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}

	h.Cache.Set(claims.UserID, gen, items)
	jsonResponse(w, http.StatusOK, items)
}

// Stats handles GET /api/inventory/stats. Statuses are classified against the
// current clock on every call, never cached.
func (h *InventoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	items, err := store.ListInventoryItems(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}

	now := time.Now()
	stats := inventoryStats{Total: len(items)}
	for _, item := range items {
		switch model.StockStatus(item.Quantity, item.MinQuantity).Severity {
		case model.StockOut:
			stats.OutOfStock++
		case model.StockLow:
			stats.LowStock++
		}
		switch model.ExpiryStatus(item.ExpiryDate, now).Severity {
		case model.SeverityExpired:
			stats.Expired++
		case model.SeverityCritical:
			stats.ExpiringSoon++
		}
	}

	jsonResponse(w, http.StatusOK, stats)
}

// Create handles POST /api/inventory.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if !validRequest(w, req) {
		return
	}

	var expiry *time.Time
	if req.ExpiryDate != "" {
		t, err := parseDate(req.ExpiryDate)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		expiry = &t
	}

	minQuantity := float64(model.DefaultMinQuantity)
	if req.MinQuantity != nil {
		minQuantity = *req.MinQuantity
	}

	claims := GetClaims(r.Context())
	item, err := store.CreateInventoryItem(r.Context(), h.DB, claims.UserID, req.Name, *req.Quantity, req.Unit, expiry, minQuantity)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	h.Cache.Invalidate(claims.UserID)
	slog.Info("inventory item created", "user", claims.UserID, "item", item.Name)
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/inventory/{id}. Fields absent from the body are
// left unchanged.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			jsonError(w, http.StatusBadRequest, "name cannot be blank")
			return
		}
		req.Name = &trimmed
	}
	if !validRequest(w, req) {
		return
	}

	params := store.UpdateInventoryParams{
		Name:        req.Name,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		MinQuantity: req.MinQuantity,
	}
	if req.ExpiryDate != nil {
		t, err := parseDate(*req.ExpiryDate)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.ExpiryDate = &t
	}

	claims := GetClaims(r.Context())
	item, err := store.UpdateInventoryItem(r.Context(), h.DB, claims.UserID, id, params)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	h.Cache.Invalidate(claims.UserID)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/inventory/{id}.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := GetClaims(r.Context())

	err := store.DeleteInventoryItem(r.Context(), h.DB, claims.UserID, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	h.Cache.Invalidate(claims.UserID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadPhoto handles PUT /api/inventory/{id}/photo.
func (h *InventoryHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	data, mime, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims := GetClaims(r.Context())
	err = store.SetInventoryItemPhoto(r.Context(), h.DB, claims.UserID, id, data, mime)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	h.Cache.Invalidate(claims.UserID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/inventory/{id}/photo.
func (h *InventoryHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	claims := GetClaims(r.Context())

	data, mime, err := store.GetInventoryItemPhoto(r.Context(), h.DB, claims.UserID, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
