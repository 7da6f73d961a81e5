package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/trznica/internal/model"
)

// newTestUser creates a user with the given wallet balance.
func newTestUser(t *testing.T, db *sql.DB, username string, balanceCents int64) *model.User {
	t.Helper()

	user, err := CreateUser(context.Background(), db, username, "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	if balanceCents > 0 {
		if _, err := Deposit(context.Background(), db, user.ID, balanceCents); err != nil {
			t.Fatalf("Deposit(%s): %v", username, err)
		}
	}
	return user
}

// newTestItem grants a tradable, marketable item to a user.
func newTestItem(t *testing.T, db *sql.DB, ownerID, name string) *model.Item {
	t.Helper()

	item, err := GrantItem(context.Background(), db, ownerID, name, "", true, true)
	if err != nil {
		t.Fatalf("GrantItem(%s): %v", name, err)
	}
	return item
}

// assertCode fails unless err is an engine error with the given code.
func assertCode(t *testing.T, err error, code string) *model.Error {
	t.Helper()

	var engineErr *model.Error
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected engine error with code %s, got %v", code, err)
	}
	if engineErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, engineErr.Code, engineErr.Message)
	}
	return engineErr
}
