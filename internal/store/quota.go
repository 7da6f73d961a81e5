package store

import (
	"context"
	"fmt"
)

// Quota aggregates are always computed fresh from the state tables, never
// cached. Handlers may call them as advisory pre-checks; the mutating
// operations repeat them inside their transaction, and that re-check is
// the one whose failure is surfaced.

// CountActiveListings returns the number of a seller's active listings.
func CountActiveListings(ctx context.Context, q Querier, sellerID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listings WHERE seller_id = ? AND status = 'active'`,
		sellerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting active listings: %w", err)
	}
	return count, nil
}

// CountActiveTrades returns the number of a user's pending trades.
func CountActiveTrades(ctx context.Context, q Querier, offererID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trades WHERE offerer_id = ? AND status = 'pendiente'`,
		offererID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting active trades: %w", err)
	}
	return count, nil
}

// CountPendingOffers returns the number of pending offers on a trade.
func CountPendingOffers(ctx context.Context, q Querier, tradeID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trade_offers WHERE trade_id = ? AND status = 'pendiente'`,
		tradeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pending offers: %w", err)
	}
	return count, nil
}

// DailySpentCents sums the absolute value of a buyer's completed purchase
// transactions since UTC midnight (SQLite 'now' is UTC).
func DailySpentCents(ctx context.Context, q Querier, userID string) (int64, error) {
	var spent int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ABS(amount_cents)), 0) FROM wallet_transactions
		 WHERE user_id = ? AND type = 'purchase' AND status = 'completed'
		   AND created_at >= datetime('now', 'start of day')`,
		userID,
	).Scan(&spent)
	if err != nil {
		return 0, fmt.Errorf("summing daily spend: %w", err)
	}
	return spent, nil
}
