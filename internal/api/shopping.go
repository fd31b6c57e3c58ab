package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/larder-app/larder/internal/cache"
	"github.com/larder-app/larder/internal/model"
	"github.com/larder-app/larder/internal/store"
)

// ShoppingHandler handles shopping list endpoints, including the two moves
// between the list and the pantry.
type ShoppingHandler struct {
	DB             *sql.DB
	Cache          *cache.Lists[model.ShoppingItem]
	InventoryCache *cache.Lists[model.InventoryItem]
}

// createShoppingRequest covers both ways onto the list: a manual entry
// (name, quantity, and unit all required) or a move from the pantry
// (inventory_item_id plus the quantity to buy; name and unit are copied
// from the pantry item, so the move path may omit them).
type createShoppingRequest struct {
	InventoryItemID string   `json:"inventory_item_id"`
	Name            string   `json:"name" validate:"required_without=InventoryItemID,no_digits"`
	Quantity        *float64 `json:"quantity" validate:"required,gt=0"`
	Unit            string   `json:"unit" validate:"required_without=InventoryItemID,no_digits"`
}

type updateShoppingRequest struct {
	Name     string   `json:"name" validate:"required,no_digits"`
	Quantity *float64 `json:"quantity" validate:"required,gt=0"`
	Unit     string   `json:"unit" validate:"required,no_digits"`
}

// deleteShoppingRequest is the optional body on DELETE. With moving set the
// item is purchased into the pantry instead of just removed.
type deleteShoppingRequest struct {
	Moving     bool   `json:"moving"`
	ExpiryDate string `json:"expiry_date"`
}

// List handles GET /api/shopping.
func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if items, ok := h.Cache.Get(claims.UserID); ok {
		jsonResponse(w, http.StatusOK, items)
		return
	}

	gen := h.Cache.Generation(claims.UserID)
	items, err := store.ListShoppingItems(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list shopping items")
		return
	}
	if items == nil {
		items = []model.ShoppingItem{}
	}

	h.Cache.Set(claims.UserID, gen, items)
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/shopping.
func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createShoppingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if !validRequest(w, req) {
		return
	}

	claims := GetClaims(r.Context())

	if req.InventoryItemID != "" {
		item, err := store.MoveToShopping(r.Context(), h.DB, claims.UserID, req.InventoryItemID, *req.Quantity)
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to move item")
			return
		}

		h.Cache.Invalidate(claims.UserID)
		h.InventoryCache.Invalidate(claims.UserID)
		slog.Info("item moved to shopping list", "user", claims.UserID, "item", item.Name)
		jsonResponse(w, http.StatusCreated, item)
		return
	}

	item, err := store.CreateShoppingItem(r.Context(), h.DB, claims.UserID, req.Name, *req.Quantity, req.Unit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	h.Cache.Invalidate(claims.UserID)
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/shopping/{id}.
func (h *ShoppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateShoppingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if !validRequest(w, req) {
		return
	}

	claims := GetClaims(r.Context())
	item, err := store.UpdateShoppingItem(r.Context(), h.DB, claims.UserID, id, req.Name, *req.Quantity, req.Unit)
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

// Delete handles DELETE /api/shopping/{id}. An empty body, or one without
// moving set, removes the entry. With moving the entry is converted into a
// pantry item, optionally stamped with an expiry date.
func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req deleteShoppingRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())

	if req.Moving {
		var expiry *time.Time
		if req.ExpiryDate != "" {
			t, err := parseDate(req.ExpiryDate)
			if err != nil {
				jsonError(w, http.StatusBadRequest, err.Error())
				return
			}
			expiry = &t
		}

		item, err := store.MarkPurchased(r.Context(), h.DB, claims.UserID, id, expiry)
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to move item")
			return
		}

		h.Cache.Invalidate(claims.UserID)
		h.InventoryCache.Invalidate(claims.UserID)
		slog.Info("item purchased into pantry", "user", claims.UserID, "item", item.Name)
		jsonResponse(w, http.StatusOK, item)
		return
	}

	err := store.DeleteShoppingItem(r.Context(), h.DB, claims.UserID, id)
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
