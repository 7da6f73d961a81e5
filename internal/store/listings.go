package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/erazemk/trznica/internal/config"
	"github.com/erazemk/trznica/internal/model"
)

const listingColumns = `l.id, l.item_id, l.seller_id, l.price_cents, l.status, l.created_at, l.updated_at`

// CreateListing lists an item for sale. The item must be owned by the
// seller, marketable and unlocked; the seller must be under the
// active-listing cap. All checks run inside the transaction.
func CreateListing(ctx context.Context, db *sql.DB, pol config.Policy, sellerID, itemID string, priceCents int64) (*model.Listing, error) {
	if !ValidID(sellerID) {
		return nil, errBadID("seller")
	}
	if !ValidID(itemID) {
		return nil, errBadID("item")
	}
	if priceCents < pol.MinPriceCents || priceCents > pol.MaxPriceCents {
		return nil, model.NewError(model.CodeBadRequest,
			fmt.Sprintf("price must be between $%.2f and $%.2f",
				model.Dollars(pol.MinPriceCents), model.Dollars(pol.MaxPriceCents)))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := GetItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.OwnerID != sellerID {
		return nil, model.NewError(model.CodeNotFound, "item not available")
	}
	if item.Locked {
		return nil, model.NewError(model.CodeConflict, "item is already in a sale or trade")
	}
	if !item.Marketable {
		return nil, model.NewError(model.CodeConflict, "item cannot be sold")
	}

	count, err := CountActiveListings(ctx, tx, sellerID)
	if err != nil {
		return nil, err
	}
	if count >= pol.MaxActiveListings {
		return nil, model.NewError(model.CodeMaxListings, "active listing limit reached").
			With("count", count).With("limit", pol.MaxActiveListings)
	}

	id := NewID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO listings (id, item_id, seller_id, price_cents) VALUES (?, ?, ?, ?)`,
		id, itemID, sellerID, priceCents,
	)
	if err != nil {
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET locked = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("locking item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing listing: %w", err)
	}

	return GetListing(ctx, db, id)
}

// GetListing returns a listing by ID with item and seller names joined.
func GetListing(ctx context.Context, q Querier, id string) (*model.Listing, error) {
	l := &model.Listing{}
	err := q.QueryRowContext(ctx,
		`SELECT `+listingColumns+`, i.name, u.username
		 FROM listings l
		 JOIN items i ON i.id = l.item_id
		 JOIN users u ON u.id = l.seller_id
		 WHERE l.id = ?`, id,
	).Scan(&l.ID, &l.ItemID, &l.SellerID, &l.PriceCents, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		&l.ItemName, &l.SellerName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting listing: %w", err)
	}
	return l, nil
}

// ListActiveListings returns all active listings, newest first. The browse
// view may be stale by design; the purchase transaction re-validates.
func ListActiveListings(ctx context.Context, db *sql.DB) ([]model.Listing, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+listingColumns+`, i.name, u.username
		 FROM listings l
		 JOIN items i ON i.id = l.item_id
		 JOIN users u ON u.id = l.seller_id
		 WHERE l.status = 'active'
		 ORDER BY l.created_at DESC, l.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing marketplace: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(&l.ID, &l.ItemID, &l.SellerID, &l.PriceCents, &l.Status, &l.CreatedAt, &l.UpdatedAt,
			&l.ItemName, &l.SellerName); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// CancelListing cancels an active listing and unlocks its item. Only the
// seller may cancel.
func CancelListing(ctx context.Context, db *sql.DB, sellerID, listingID string) (*model.Listing, error) {
	if !ValidID(sellerID) {
		return nil, errBadID("seller")
	}
	if !ValidID(listingID) {
		return nil, errBadID("listing")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	listing, err := GetListing(ctx, tx, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, model.NewError(model.CodeNotFound, "listing not found")
	}
	if listing.SellerID != sellerID {
		return nil, model.NewError(model.CodeForbidden, "not your listing")
	}
	if listing.Status != model.ListingStatusActive {
		return nil, model.NewError(model.CodeConflict, "listing is not active")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE listings SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'active'`, listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("cancelling listing: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, model.NewError(model.CodeConflict, "listing is not active")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET locked = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, listing.ItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("unlocking item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing cancellation: %w", err)
	}

	return GetListing(ctx, db, listingID)
}

// UpdateListingPrice changes the price of an active listing. Setting the
// current price again is an idempotent no-op that leaves updated_at
// untouched.
func UpdateListingPrice(ctx context.Context, db *sql.DB, pol config.Policy, sellerID, listingID string, priceCents int64) (*model.RepriceResult, error) {
	if !ValidID(sellerID) {
		return nil, errBadID("seller")
	}
	if !ValidID(listingID) {
		return nil, errBadID("listing")
	}
	if priceCents < pol.MinPriceCents || priceCents > pol.MaxPriceCents {
		return nil, model.NewError(model.CodeBadRequest,
			fmt.Sprintf("price must be between $%.2f and $%.2f",
				model.Dollars(pol.MinPriceCents), model.Dollars(pol.MaxPriceCents)))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	listing, err := GetListing(ctx, tx, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, model.NewError(model.CodeNotFound, "listing not found")
	}
	if listing.SellerID != sellerID {
		return nil, model.NewError(model.CodeForbidden, "not your listing")
	}
	if listing.Status != model.ListingStatusActive {
		return nil, model.NewError(model.CodeConflict, "listing is not active")
	}

	if listing.PriceCents == priceCents {
		return &model.RepriceResult{Listing: listing, Unchanged: true}, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE listings SET price_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		priceCents, listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating price: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing price update: %w", err)
	}

	updated, err := GetListing(ctx, db, listingID)
	if err != nil {
		return nil, err
	}
	return &model.RepriceResult{Listing: updated}, nil
}

// PurchaseListing buys an active listing. The debited amount is the price
// persisted on the listing row at commit time, never a caller-supplied
// value. A replayed idempotency key returns the original transaction
// without re-debiting. Exactly one of any number of concurrent purchases
// of the same listing succeeds.
func PurchaseListing(ctx context.Context, db *sql.DB, pol config.Policy, buyerID, listingID, idempotencyKey string) (*model.PurchaseResult, error) {
	if !ValidID(buyerID) {
		return nil, errBadID("buyer")
	}
	if !ValidID(listingID) {
		return nil, errBadID("listing")
	}
	if idempotencyKey == "" || len(idempotencyKey) > 128 {
		return nil, model.NewError(model.CodeBadRequest, "idempotency key required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Replay check first: a retried request must observe the original
	// result even if the listing has since been sold to this buyer.
	if prev, err := getTransactionByKey(ctx, tx, buyerID, idempotencyKey); err != nil {
		return nil, err
	} else if prev != nil {
		if prev.ListingID != listingID {
			return nil, model.NewError(model.CodeConflict, "idempotency key already used for another purchase")
		}
		listing, err := GetListing(ctx, tx, prev.ListingID)
		if err != nil {
			return nil, err
		}
		price := -prev.AmountCents
		return &model.PurchaseResult{
			TransactionID:       prev.ID,
			ListingID:           prev.ListingID,
			ItemID:              listing.ItemID,
			PriceCents:          price,
			CommissionCents:     prev.CommissionCents,
			SellerReceivesCents: price - prev.CommissionCents,
			AlreadyProcessed:    true,
		}, nil
	}

	// Authoritative state read: price and status come from the row, not
	// from anything validated earlier in the request.
	listing, err := GetListing(ctx, tx, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil || listing.Status != model.ListingStatusActive {
		return nil, model.NewError(model.CodeNotAvailable, "listing is no longer available")
	}
	if listing.SellerID == buyerID {
		return nil, model.NewError(model.CodeConflict, "cannot buy your own item")
	}

	access, err := CheckAccess(ctx, tx, listing.SellerID, buyerID, model.PrivacyClassMarketplace)
	if err != nil {
		return nil, err
	}
	if !access.Allowed {
		return nil, model.NewError(model.CodePrivacyRestricted, access.Reason)
	}

	spent, err := DailySpentCents(ctx, tx, buyerID)
	if err != nil {
		return nil, err
	}
	if spent+listing.PriceCents > pol.DailyLimitCents {
		remaining := pol.DailyLimitCents - spent
		if remaining < 0 {
			remaining = 0
		}
		return nil, model.NewError(model.CodeDailyLimit, "daily purchase limit exceeded").
			With("remaining", model.Dollars(remaining)).
			With("limit", model.Dollars(pol.DailyLimitCents))
	}

	// Debit with a balance guard so a concurrent spend cannot overdraw.
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance_cents = balance_cents - ?
		 WHERE id = ? AND deleted_at IS NULL AND balance_cents >= ?`,
		listing.PriceCents, buyerID, listing.PriceCents,
	)
	if err != nil {
		return nil, fmt.Errorf("debiting buyer: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, model.NewError(model.CodeInsufficientFunds, "insufficient funds").
			With("price", model.Dollars(listing.PriceCents))
	}

	commission := int64(math.Round(float64(listing.PriceCents) * pol.CommissionRate))
	sellerReceives := listing.PriceCents - commission

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET balance_cents = balance_cents + ? WHERE id = ?`,
		sellerReceives, listing.SellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("crediting seller: %w", err)
	}

	// Compare-and-swap on status: of two concurrent purchases exactly one
	// sees the row still active.
	res, err = tx.ExecContext(ctx,
		`UPDATE listings SET status = 'sold', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'active'`, listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("marking listing sold: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, model.NewError(model.CodeNotAvailable, "listing is no longer available")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET owner_id = ?, locked = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		buyerID, listing.ItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("transferring item: %w", err)
	}

	txID := NewID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (id, user_id, amount_cents, type, idempotency_key, listing_id, commission_cents)
		 VALUES (?, ?, ?, 'purchase', ?, ?, ?)`,
		txID, buyerID, -listing.PriceCents, idempotencyKey, listingID, commission,
	)
	if err != nil {
		return nil, fmt.Errorf("recording purchase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing purchase: %w", err)
	}

	return &model.PurchaseResult{
		TransactionID:       txID,
		ListingID:           listingID,
		ItemID:              listing.ItemID,
		PriceCents:          listing.PriceCents,
		CommissionCents:     commission,
		SellerReceivesCents: sellerReceives,
	}, nil
}
