package store

import (
	"context"
	"testing"

	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if !ValidID(user.ID) {
		t.Errorf("expected a valid user ID, got %q", user.ID)
	}
	if user.BalanceCents != 0 {
		t.Errorf("expected empty wallet, got %d", user.BalanceCents)
	}

	got, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Errorf("lookup by username mismatch: %+v", got)
	}

	// Creating a user also creates their privacy row.
	var count int
	if err := database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM privacy_settings WHERE user_id = ?`, user.ID,
	).Scan(&count); err != nil {
		t.Fatalf("counting privacy rows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 privacy row, got %d", count)
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "alice", "hash", model.RoleUser); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := CreateUser(ctx, database, "alice", "hash", model.RoleUser); err == nil {
		t.Error("expected duplicate username to fail")
	}
}

func TestDeleteUserFreesUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got == nil || got.DeletedAt == nil {
		t.Fatal("expected soft-deleted user to remain readable")
	}

	users, _ := ListUsers(ctx, database)
	for _, u := range users {
		if u.ID == user.ID {
			t.Error("soft-deleted user must not appear in listings")
		}
	}

	// The partial unique index only covers live users.
	if _, err := CreateUser(ctx, database, "alice", "hash", model.RoleUser); err != nil {
		t.Errorf("expected username reusable after deletion: %v", err)
	}
}

func TestUpdateUserRoleAndPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	if err := UpdateUser(ctx, database, user.ID, model.RoleAdmin); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.Role != model.RoleAdmin || got.PasswordHash != "newhash" {
		t.Errorf("unexpected user after updates: role=%q hash=%q", got.Role, got.PasswordHash)
	}
}

func TestDepositCreditsWalletAndLedger(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)

	entry, err := Deposit(ctx, database, user.ID, 2500)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if entry.Type != model.TransactionTypeDeposit || entry.AmountCents != 2500 {
		t.Errorf("unexpected ledger entry: %+v", entry)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.BalanceCents != 2500 {
		t.Errorf("expected balance 2500, got %d", got.BalanceCents)
	}

	// Deposits never count against the daily purchase limit.
	spent, err := DailySpentCents(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("DailySpentCents: %v", err)
	}
	if spent != 0 {
		t.Errorf("expected deposits excluded from daily spend, got %d", spent)
	}
}

func TestDepositValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)

	_, err := Deposit(ctx, database, user.ID, 0)
	assertCode(t, err, model.CodeBadRequest)
	_, err = Deposit(ctx, database, user.ID, -100)
	assertCode(t, err, model.CodeBadRequest)
	_, err = Deposit(ctx, database, NewID(), 100)
	assertCode(t, err, model.CodeNotFound)

	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	_, err = Deposit(ctx, database, user.ID, 100)
	assertCode(t, err, model.CodeNotFound)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	for _, amount := range []int64{100, 200, 300} {
		if _, err := Deposit(ctx, database, user.ID, amount); err != nil {
			t.Fatalf("Deposit(%d): %v", amount, err)
		}
	}

	entries, err := ListTransactions(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// ULIDs are monotonic enough within a process to break timestamp ties.
	if entries[0].AmountCents != 300 || entries[2].AmountCents != 100 {
		t.Errorf("expected newest first, got %d then %d", entries[0].AmountCents, entries[2].AmountCents)
	}
}
