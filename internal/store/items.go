package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/trznica/internal/model"
)

const itemColumns = `id, owner_id, name, description, image_mime,
	tradable, marketable, locked, created_at, updated_at`

// GrantItem creates a new item in a user's inventory. This is the entry
// point used by inventory sync; items start unlocked.
func GrantItem(ctx context.Context, db *sql.DB, ownerID, name, description string, tradable, marketable bool) (*model.Item, error) {
	if !ValidID(ownerID) {
		return nil, errBadID("owner")
	}
	if name == "" {
		return nil, model.NewError(model.CodeBadRequest, "item name required")
	}

	id := NewID()
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, owner_id, name, description, tradable, marketable)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, ownerID, name, description, tradable, marketable,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, q Querier, id string) (*model.Item, error) {
	item := &model.Item{}
	var description, imageMime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.OwnerID, &item.Name, &description, &imageMime,
		&item.Tradable, &item.Marketable, &item.Locked, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	item.ImageMime = imageMime.String
	return item, nil
}

// ListUserItems returns a user's inventory, newest first.
func ListUserItems(ctx context.Context, db *sql.DB, ownerID string) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var description, imageMime sql.NullString
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &description, &imageMime,
			&item.Tradable, &item.Marketable, &item.Locked, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		item.ImageMime = imageMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetItemImage sets an item's image data. Only the owner may do this.
func SetItemImage(ctx context.Context, db *sql.DB, id, ownerID string, image []byte, mime string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`,
		image, mime, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return model.NewError(model.CodeNotFound, "item not available")
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
