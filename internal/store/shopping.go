package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/larder-app/larder/internal/model"
)

const shoppingColumns = `id, user_id, name, quantity, unit, created_at, updated_at`

// CreateShoppingItem adds a manual entry to the user's shopping list.
func CreateShoppingItem(ctx context.Context, db *sql.DB, userID, name string, quantity float64, unit string) (*model.ShoppingItem, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO shopping_items (id, user_id, name, quantity, unit) VALUES (?, ?, ?, ?, ?)`,
		id, userID, name, quantity, unit,
	)
	if err != nil {
		return nil, fmt.Errorf("creating shopping item: %w", err)
	}

	return GetShoppingItem(ctx, db, userID, id)
}

// GetShoppingItem returns the user's shopping item by ID.
func GetShoppingItem(ctx context.Context, db *sql.DB, userID, id string) (*model.ShoppingItem, error) {
	item := &model.ShoppingItem{}
	var unit sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT `+shoppingColumns+` FROM shopping_items WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &unit, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting shopping item: %w", err)
	}
	item.Unit = unit.String
	return item, nil
}

// ListShoppingItems returns the user's shopping list in insertion order.
func ListShoppingItems(ctx context.Context, db *sql.DB, userID string) ([]model.ShoppingItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+shoppingColumns+` FROM shopping_items WHERE user_id = ? ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing shopping items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		var item model.ShoppingItem
		var unit sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Quantity, &unit, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning shopping item: %w", err)
		}
		item.Unit = unit.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateShoppingItem replaces the user's shopping item's name, quantity, and unit.
func UpdateShoppingItem(ctx context.Context, db *sql.DB, userID, id, name string, quantity float64, unit string) (*model.ShoppingItem, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE shopping_items SET name = ?, quantity = ?, unit = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		name, quantity, unit, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating shopping item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return GetShoppingItem(ctx, db, userID, id)
}

// DeleteShoppingItem removes the user's shopping item without buying it.
func DeleteShoppingItem(ctx context.Context, db *sql.DB, userID, id string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM shopping_items WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting shopping item: %w", err)
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

// MoveToShopping flags a pantry item for restocking: a shopping item is
// created carrying the inventory item's name and unit with the quantity the
// user intends to buy, then the inventory item is removed. Both writes run in
// one transaction, destination created before the source is deleted, so the
// item can never exist in both lists or in neither.
func MoveToShopping(ctx context.Context, db *sql.DB, userID, inventoryItemID string, buyQuantity float64) (*model.ShoppingItem, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	var unit sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT name, unit FROM inventory_items WHERE id = ? AND user_id = ?`,
		inventoryItemID, userID,
	).Scan(&name, &unit)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up inventory item: %w", err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO shopping_items (id, user_id, name, quantity, unit) VALUES (?, ?, ?, ?, ?)`,
		id, userID, name, buyQuantity, unit.String,
	); err != nil {
		return nil, fmt.Errorf("creating shopping item: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM inventory_items WHERE id = ? AND user_id = ?`,
		inventoryItemID, userID,
	); err != nil {
		return nil, fmt.Errorf("removing inventory item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing move to shopping list: %w", err)
	}

	return GetShoppingItem(ctx, db, userID, id)
}

// MarkPurchased moves a shopping item into the pantry: an inventory item is
// created with the shopping item's name, quantity, and unit, the caller's
// optional expiry date, and the default reorder threshold, then the shopping
// item is removed. Same single-transaction, create-before-delete ordering as
// MoveToShopping.
func MarkPurchased(ctx context.Context, db *sql.DB, userID, shoppingItemID string, expiry *time.Time) (*model.InventoryItem, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	var quantity float64
	var unit sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT name, quantity, unit FROM shopping_items WHERE id = ? AND user_id = ?`,
		shoppingItemID, userID,
	).Scan(&name, &quantity, &unit)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up shopping item: %w", err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO inventory_items (id, user_id, name, quantity, unit, expiry_date, min_quantity)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, name, quantity, unit.String, expiry, model.DefaultMinQuantity,
	); err != nil {
		return nil, fmt.Errorf("creating inventory item: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM shopping_items WHERE id = ? AND user_id = ?`,
		shoppingItemID, userID,
	); err != nil {
		return nil, fmt.Errorf("removing shopping item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing purchase: %w", err)
	}

	return GetInventoryItem(ctx, db, userID, id)
}
