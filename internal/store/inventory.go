package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/larder-app/larder/internal/model"
)

const inventoryColumns = `id, user_id, name, quantity, unit, expiry_date, min_quantity, photo_mime, created_at, updated_at`

// CreateInventoryItem adds an item to the user's pantry. A non-positive
// minQuantity falls back to the default threshold of 1.
func CreateInventoryItem(ctx context.Context, db *sql.DB, userID, name string, quantity float64, unit string, expiry *time.Time, minQuantity float64) (*model.InventoryItem, error) {
	if minQuantity <= 0 {
		minQuantity = model.DefaultMinQuantity
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO inventory_items (id, user_id, name, quantity, unit, expiry_date, min_quantity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, name, quantity, unit, expiry, minQuantity,
	)
	if err != nil {
		return nil, fmt.Errorf("creating inventory item: %w", err)
	}

	return GetInventoryItem(ctx, db, userID, id)
}

// GetInventoryItem returns the user's item by ID.
func GetInventoryItem(ctx context.Context, db *sql.DB, userID, id string) (*model.InventoryItem, error) {
	item := &model.InventoryItem{}
	var unit, photoMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory_items WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &unit, &item.ExpiryDate,
		&item.MinQuantity, &photoMime, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory item: %w", err)
	}
	item.Unit = unit.String
	item.PhotoMime = photoMime.String
	return item, nil
}

// ListInventoryItems returns all of the user's pantry items in insertion order.
func ListInventoryItems(ctx context.Context, db *sql.DB, userID string) ([]model.InventoryItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory_items WHERE user_id = ? ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory items: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		var unit, photoMime sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &unit, &item.ExpiryDate,
			&item.MinQuantity, &photoMime, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning inventory item: %w", err)
		}
		item.Unit = unit.String
		item.PhotoMime = photoMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateInventoryParams holds the fields to change. Nil fields stay as they are.
type UpdateInventoryParams struct {
	Name        *string
	Quantity    *float64
	Unit        *string
	ExpiryDate  *time.Time
	MinQuantity *float64
}

// UpdateInventoryItem applies the provided fields to the user's item. The
// lookup and the mutation run as a single statement scoped by id and owner.
func UpdateInventoryItem(ctx context.Context, db *sql.DB, userID, id string, p UpdateInventoryParams) (*model.InventoryItem, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any

	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *p.Quantity)
	}
	if p.Unit != nil {
		sets = append(sets, "unit = ?")
		args = append(args, *p.Unit)
	}
	if p.ExpiryDate != nil {
		sets = append(sets, "expiry_date = ?")
		args = append(args, *p.ExpiryDate)
	}
	if p.MinQuantity != nil {
		sets = append(sets, "min_quantity = ?")
		args = append(args, *p.MinQuantity)
	}

	args = append(args, id, userID)
	result, err := db.ExecContext(ctx,
		`UPDATE inventory_items SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating inventory item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return GetInventoryItem(ctx, db, userID, id)
}

// DeleteInventoryItem removes the user's item.
func DeleteInventoryItem(ctx context.Context, db *sql.DB, userID, id string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM inventory_items WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting inventory item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetInventoryItemPhoto stores a processed photo on the user's item.
func SetInventoryItemPhoto(ctx context.Context, db *sql.DB, userID, id string, photo []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE inventory_items SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		photo, mime, id, userID,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking photo update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetInventoryItemPhoto returns the photo data and MIME type for the user's
// item. The data is nil when the item exists but has no photo.
func GetInventoryItemPhoto(ctx context.Context, db *sql.DB, userID, id string) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM inventory_items WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}
