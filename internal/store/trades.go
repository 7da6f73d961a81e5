package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/trznica/internal/config"
	"github.com/erazemk/trznica/internal/model"
)

const tradeColumns = `t.id, t.item_id, t.offerer_id, t.status, t.created_at, t.updated_at`
const offerColumns = `o.id, o.trade_id, o.offerer_id, o.item_id, o.status, o.created_at, o.updated_at`

// CreateTrade posts a public trade for one of the offerer's items. The
// item is locked for the trade's lifetime.
func CreateTrade(ctx context.Context, db *sql.DB, pol config.Policy, offererID, itemID string) (*model.Trade, error) {
	if !ValidID(offererID) {
		return nil, errBadID("offerer")
	}
	if !ValidID(itemID) {
		return nil, errBadID("item")
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
	if item == nil || item.OwnerID != offererID {
		return nil, model.NewError(model.CodeNotFound, "item not available")
	}
	if item.Locked {
		return nil, model.NewError(model.CodeConflict, "item is already in a sale or trade")
	}
	if !item.Tradable {
		return nil, model.NewError(model.CodeConflict, "item cannot be traded")
	}

	count, err := CountActiveTrades(ctx, tx, offererID)
	if err != nil {
		return nil, err
	}
	if count >= pol.MaxActiveTrades {
		return nil, model.NewError(model.CodeMaxTrades, "active trade limit reached").
			With("count", count).With("limit", pol.MaxActiveTrades)
	}

	id := NewID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO trades (id, item_id, offerer_id) VALUES (?, ?, ?)`,
		id, itemID, offererID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating trade: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET locked = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("locking item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing trade: %w", err)
	}

	return GetTrade(ctx, db, id)
}

// GetTrade returns a trade by ID with item and offerer names joined.
func GetTrade(ctx context.Context, q Querier, id string) (*model.Trade, error) {
	t := &model.Trade{}
	err := q.QueryRowContext(ctx,
		`SELECT `+tradeColumns+`, i.name, u.username
		 FROM trades t
		 JOIN items i ON i.id = t.item_id
		 JOIN users u ON u.id = t.offerer_id
		 WHERE t.id = ?`, id,
	).Scan(&t.ID, &t.ItemID, &t.OffererID, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		&t.ItemName, &t.OffererName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting trade: %w", err)
	}
	return t, nil
}

// ListActiveTrades returns all pending trades, newest first. An empty
// marketplace yields an empty list, not an error.
func ListActiveTrades(ctx context.Context, db *sql.DB) ([]model.Trade, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+tradeColumns+`, i.name, u.username
		 FROM trades t
		 JOIN items i ON i.id = t.item_id
		 JOIN users u ON u.id = t.offerer_id
		 WHERE t.status = 'pendiente'
		 ORDER BY t.created_at DESC, t.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		if err := rows.Scan(&t.ID, &t.ItemID, &t.OffererID, &t.Status, &t.CreatedAt, &t.UpdatedAt,
			&t.ItemName, &t.OffererName); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetTradeOffer returns an offer by ID.
func GetTradeOffer(ctx context.Context, q Querier, id string) (*model.TradeOffer, error) {
	o := &model.TradeOffer{}
	err := q.QueryRowContext(ctx,
		`SELECT `+offerColumns+`, i.name, u.username
		 FROM trade_offers o
		 JOIN items i ON i.id = o.item_id
		 JOIN users u ON u.id = o.offerer_id
		 WHERE o.id = ?`, id,
	).Scan(&o.ID, &o.TradeID, &o.OffererID, &o.ItemID, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		&o.ItemName, &o.OffererName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting trade offer: %w", err)
	}
	return o, nil
}

// ListTradeOffers returns all offers on a trade, oldest first.
func ListTradeOffers(ctx context.Context, db *sql.DB, tradeID string) ([]model.TradeOffer, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+offerColumns+`, i.name, u.username
		 FROM trade_offers o
		 JOIN items i ON i.id = o.item_id
		 JOIN users u ON u.id = o.offerer_id
		 WHERE o.trade_id = ?
		 ORDER BY o.created_at, o.id`, tradeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing trade offers: %w", err)
	}
	defer rows.Close()

	var offers []model.TradeOffer
	for rows.Next() {
		var o model.TradeOffer
		if err := rows.Scan(&o.ID, &o.TradeID, &o.OffererID, &o.ItemID, &o.Status, &o.CreatedAt, &o.UpdatedAt,
			&o.ItemName, &o.OffererName); err != nil {
			return nil, fmt.Errorf("scanning trade offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// CreateTradeOffer attaches a counter-offer to a pending trade. The trade
// owner's privacy setting, the offers-per-trade cap and the duplicate
// check are all verified inside the transaction.
func CreateTradeOffer(ctx context.Context, db *sql.DB, pol config.Policy, offererID, tradeID, itemID string) (*model.TradeOffer, error) {
	if !ValidID(offererID) {
		return nil, errBadID("offerer")
	}
	if !ValidID(tradeID) {
		return nil, errBadID("trade")
	}
	if !ValidID(itemID) {
		return nil, errBadID("item")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	trade, err := GetTrade(ctx, tx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, model.NewError(model.CodeNotFound, "trade not found")
	}
	if trade.Status != model.TradeStatusPending {
		return nil, model.NewError(model.CodeConflict, "trade is no longer open")
	}
	if trade.OffererID == offererID {
		return nil, model.NewError(model.CodeConflict, "cannot offer on your own trade")
	}

	access, err := CheckAccess(ctx, tx, trade.OffererID, offererID, model.PrivacyClassTrade)
	if err != nil {
		return nil, err
	}
	if !access.Allowed {
		return nil, model.NewError(model.CodePrivacyRestricted, access.Reason)
	}

	count, err := CountPendingOffers(ctx, tx, tradeID)
	if err != nil {
		return nil, err
	}
	if count >= pol.MaxOffersPerTrade {
		return nil, model.NewError(model.CodeMaxOffers, "offer limit reached for this trade").
			With("count", count).With("limit", pol.MaxOffersPerTrade)
	}

	var duplicates int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trade_offers
		 WHERE trade_id = ? AND offerer_id = ? AND item_id = ? AND status = 'pendiente'`,
		tradeID, offererID, itemID,
	).Scan(&duplicates)
	if err != nil {
		return nil, fmt.Errorf("checking duplicate offer: %w", err)
	}
	if duplicates > 0 {
		return nil, model.NewError(model.CodeConflict, "you already offered this item on this trade")
	}

	item, err := GetItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.OwnerID != offererID {
		return nil, model.NewError(model.CodeNotFound, "item not available")
	}
	if item.Locked {
		return nil, model.NewError(model.CodeConflict, "item is already in a sale or trade")
	}
	if !item.Tradable {
		return nil, model.NewError(model.CodeConflict, "item cannot be traded")
	}

	id := NewID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO trade_offers (id, trade_id, offerer_id, item_id) VALUES (?, ?, ?, ?)`,
		id, tradeID, offererID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating trade offer: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET locked = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("locking item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing trade offer: %w", err)
	}

	return GetTradeOffer(ctx, db, id)
}

// AcceptTradeOffer completes a trade: the trade's item and the offer's
// item swap owners, both unlock, the offer becomes accepted and the trade
// completed. Sibling pending offers are rejected and their items unlocked
// in the same transaction, so no lock outlives the trade.
func AcceptTradeOffer(ctx context.Context, db *sql.DB, callerID, offerID string) (*model.TradeOffer, error) {
	if !ValidID(callerID) {
		return nil, errBadID("caller")
	}
	if !ValidID(offerID) {
		return nil, errBadID("offer")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	offer, err := GetTradeOffer(ctx, tx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, model.NewError(model.CodeNotFound, "offer not found")
	}
	if offer.Status != model.OfferStatusPending {
		return nil, model.NewError(model.CodeConflict, "offer is already resolved")
	}

	trade, err := GetTrade(ctx, tx, offer.TradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil || trade.Status != model.TradeStatusPending {
		return nil, model.NewError(model.CodeConflict, "trade is no longer open")
	}
	if trade.OffererID != callerID {
		return nil, model.NewError(model.CodeForbidden, "not your trade")
	}

	// Two-way ownership swap; both items unlock.
	_, err = tx.ExecContext(ctx,
		`UPDATE items SET owner_id = ?, locked = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		offer.OffererID, trade.ItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("transferring trade item: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE items SET owner_id = ?, locked = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		trade.OffererID, offer.ItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("transferring offered item: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE trade_offers SET status = 'aceptado', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pendiente'`, offerID,
	)
	if err != nil {
		return nil, fmt.Errorf("accepting offer: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, model.NewError(model.CodeConflict, "offer is already resolved")
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE trades SET status = 'completado', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pendiente'`, trade.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("completing trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, model.NewError(model.CodeConflict, "trade is no longer open")
	}

	if err := resolveSiblingOffers(ctx, tx, trade.ID, model.OfferStatusRejected); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing trade acceptance: %w", err)
	}

	return GetTradeOffer(ctx, db, offerID)
}

// RejectTradeOffer rejects a pending offer and unlocks its item. Only the
// trade owner may reject; the parent trade stays open.
func RejectTradeOffer(ctx context.Context, db *sql.DB, callerID, offerID string) (*model.TradeOffer, error) {
	return resolveOffer(ctx, db, callerID, offerID, model.OfferStatusRejected)
}

// CancelTradeOffer withdraws a pending offer and unlocks its item. Only
// the offer's author may cancel; the parent trade stays open.
func CancelTradeOffer(ctx context.Context, db *sql.DB, callerID, offerID string) (*model.TradeOffer, error) {
	return resolveOffer(ctx, db, callerID, offerID, model.OfferStatusCancelled)
}

func resolveOffer(ctx context.Context, db *sql.DB, callerID, offerID, status string) (*model.TradeOffer, error) {
	if !ValidID(callerID) {
		return nil, errBadID("caller")
	}
	if !ValidID(offerID) {
		return nil, errBadID("offer")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	offer, err := GetTradeOffer(ctx, tx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, model.NewError(model.CodeNotFound, "offer not found")
	}
	if offer.Status != model.OfferStatusPending {
		return nil, model.NewError(model.CodeConflict, "offer is already resolved")
	}

	// Rejecting is the trade owner's call, cancelling the offerer's.
	switch status {
	case model.OfferStatusRejected:
		trade, err := GetTrade(ctx, tx, offer.TradeID)
		if err != nil {
			return nil, err
		}
		if trade == nil || trade.OffererID != callerID {
			return nil, model.NewError(model.CodeForbidden, "not your trade")
		}
	case model.OfferStatusCancelled:
		if offer.OffererID != callerID {
			return nil, model.NewError(model.CodeForbidden, "not your offer")
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE trade_offers SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pendiente'`, status, offerID,
	)
	if err != nil {
		return nil, fmt.Errorf("resolving offer: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, model.NewError(model.CodeConflict, "offer is already resolved")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET locked = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, offer.ItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("unlocking item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing offer resolution: %w", err)
	}

	return GetTradeOffer(ctx, db, offerID)
}

// CancelTrade cancels a pending trade, unlocks its item and releases every
// still-pending offer's item in the same transaction.
func CancelTrade(ctx context.Context, db *sql.DB, callerID, tradeID string) (*model.Trade, error) {
	if !ValidID(callerID) {
		return nil, errBadID("caller")
	}
	if !ValidID(tradeID) {
		return nil, errBadID("trade")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	trade, err := GetTrade(ctx, tx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, model.NewError(model.CodeNotFound, "trade not found")
	}
	if trade.OffererID != callerID {
		return nil, model.NewError(model.CodeForbidden, "not your trade")
	}
	if trade.Status != model.TradeStatusPending {
		return nil, model.NewError(model.CodeConflict, "trade is no longer open")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE trades SET status = 'cancelado', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pendiente'`, tradeID,
	)
	if err != nil {
		return nil, fmt.Errorf("cancelling trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, model.NewError(model.CodeConflict, "trade is no longer open")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET locked = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, trade.ItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("unlocking trade item: %w", err)
	}

	if err := resolveSiblingOffers(ctx, tx, tradeID, model.OfferStatusCancelled); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing trade cancellation: %w", err)
	}

	return GetTrade(ctx, db, tradeID)
}

// resolveSiblingOffers moves every still-pending offer on a trade to the
// given terminal status and unlocks the offered items.
func resolveSiblingOffers(ctx context.Context, tx *sql.Tx, tradeID, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE items SET locked = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE id IN (SELECT item_id FROM trade_offers WHERE trade_id = ? AND status = 'pendiente')`,
		tradeID,
	)
	if err != nil {
		return fmt.Errorf("unlocking offered items: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE trade_offers SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE trade_id = ? AND status = 'pendiente'`,
		status, tradeID,
	)
	if err != nil {
		return fmt.Errorf("resolving sibling offers: %w", err)
	}
	return nil
}
