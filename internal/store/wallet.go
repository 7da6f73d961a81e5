package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/trznica/internal/model"
)

const walletTxColumns = `id, user_id, amount_cents, type, status,
	idempotency_key, listing_id, commission_cents, created_at`

// GetTransaction returns a ledger entry by ID.
func GetTransaction(ctx context.Context, q Querier, id string) (*model.WalletTransaction, error) {
	t := &model.WalletTransaction{}
	var key, listingID sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT `+walletTxColumns+` FROM wallet_transactions WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.AmountCents, &t.Type, &t.Status,
		&key, &listingID, &t.CommissionCents, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	t.IdempotencyKey = key.String
	t.ListingID = listingID.String
	return t, nil
}

// ListTransactions returns a user's ledger entries, newest first.
func ListTransactions(ctx context.Context, db *sql.DB, userID string) ([]model.WalletTransaction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+walletTxColumns+` FROM wallet_transactions
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.WalletTransaction
	for rows.Next() {
		var t model.WalletTransaction
		var key, listingID sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.AmountCents, &t.Type, &t.Status,
			&key, &listingID, &t.CommissionCents, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.IdempotencyKey = key.String
		t.ListingID = listingID.String
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// getTransactionByKey looks up a buyer's ledger entry by idempotency key.
func getTransactionByKey(ctx context.Context, q Querier, userID, key string) (*model.WalletTransaction, error) {
	var id string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM wallet_transactions WHERE user_id = ? AND idempotency_key = ?`,
		userID, key,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up idempotency key: %w", err)
	}
	return GetTransaction(ctx, q, id)
}
