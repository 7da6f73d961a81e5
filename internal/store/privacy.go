package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/trznica/internal/model"
)

// GetPrivacySettings returns a user's privacy settings. Users without a
// stored row default to public everywhere; a missing row is not an error.
func GetPrivacySettings(ctx context.Context, q Querier, userID string) (*model.PrivacySettings, error) {
	p := &model.PrivacySettings{UserID: userID}
	err := q.QueryRowContext(ctx,
		`SELECT inventory, trade, marketplace FROM privacy_settings WHERE user_id = ?`,
		userID,
	).Scan(&p.Inventory, &p.Trade, &p.Marketplace)
	if err == sql.ErrNoRows {
		p.Inventory = model.VisibilityPublic
		p.Trade = model.VisibilityPublic
		p.Marketplace = model.VisibilityPublic
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting privacy settings: %w", err)
	}
	return p, nil
}

// UpdatePrivacySettings upserts a user's privacy settings. Only the owner
// may call this; the handler enforces that the caller is userID.
func UpdatePrivacySettings(ctx context.Context, db *sql.DB, userID, inventory, trade, marketplace string) (*model.PrivacySettings, error) {
	if !ValidID(userID) {
		return nil, errBadID("user")
	}
	for _, v := range []string{inventory, trade, marketplace} {
		if !model.ValidVisibility(v) {
			return nil, model.NewError(model.CodeBadRequest, "visibility must be public, friends or private")
		}
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO privacy_settings (user_id, inventory, trade, marketplace)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET inventory = ?, trade = ?, marketplace = ?`,
		userID, inventory, trade, marketplace, inventory, trade, marketplace,
	)
	if err != nil {
		return nil, fmt.Errorf("updating privacy settings: %w", err)
	}

	return GetPrivacySettings(ctx, db, userID)
}

// AreFriends reports whether two users have an accepted friendship in
// either direction. A user is always friends with themself.
func AreFriends(ctx context.Context, q Querier, a, b string) (bool, error) {
	if a == b {
		return true, nil
	}

	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM friendships
		 WHERE status = 'accepted'
		   AND ((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?))`,
		a, b, b, a,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return count > 0, nil
}

// privateReasons are the class-specific denial messages for private
// resources. They deliberately do not reveal anything beyond the setting.
var privateReasons = map[string]string{
	model.PrivacyClassInventory:   "this inventory is private",
	model.PrivacyClassTrade:       "this user is not accepting trade offers",
	model.PrivacyClassMarketplace: "this user's marketplace is private",
}

// CheckAccess resolves whether viewerID may interact with ownerID's
// resources of the given class. An empty viewerID means unauthenticated.
// Unknown classes and malformed identifiers deny (fail closed). The check
// is read-only and safe to run concurrently, inside or outside a
// transaction.
func CheckAccess(ctx context.Context, q Querier, ownerID, viewerID, class string) (model.AccessDecision, error) {
	denied := model.AccessDecision{Allowed: false, Reason: "not available"}

	if !ValidID(ownerID) {
		return denied, nil
	}
	if viewerID != "" && !ValidID(viewerID) {
		return denied, nil
	}
	if viewerID == ownerID {
		return model.AccessDecision{Allowed: true}, nil
	}

	settings, err := GetPrivacySettings(ctx, q, ownerID)
	if err != nil {
		return denied, err
	}

	switch settings.Class(class) {
	case model.VisibilityPublic:
		return model.AccessDecision{Allowed: true}, nil
	case model.VisibilityPrivate:
		return model.AccessDecision{Allowed: false, Reason: privateReasons[class]}, nil
	case model.VisibilityFriends:
		if viewerID == "" {
			return model.AccessDecision{Allowed: false, Reason: "sign in to view this"}, nil
		}
		friends, err := AreFriends(ctx, q, ownerID, viewerID)
		if err != nil {
			return denied, err
		}
		if !friends {
			return model.AccessDecision{Allowed: false, Reason: "only visible to friends"}, nil
		}
		return model.AccessDecision{Allowed: true}, nil
	}

	// Unknown resource class.
	return denied, nil
}

// RequestFriendship creates a pending friendship request.
func RequestFriendship(ctx context.Context, db *sql.DB, requesterID, addresseeID string) (*model.Friendship, error) {
	if !ValidID(requesterID) || !ValidID(addresseeID) {
		return nil, errBadID("user")
	}
	if requesterID == addresseeID {
		return nil, model.NewError(model.CodeBadRequest, "cannot befriend yourself")
	}

	addressee, err := GetUser(ctx, db, addresseeID)
	if err != nil {
		return nil, err
	}
	if addressee == nil || addressee.DeletedAt != nil {
		return nil, model.NewError(model.CodeNotFound, "user not found")
	}

	existing, err := getFriendship(ctx, db, requesterID, addresseeID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status != model.FriendshipStatusRejected {
		return nil, model.NewError(model.CodeConflict, "friendship already exists")
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO friendships (requester_id, addressee_id, status) VALUES (?, ?, 'pending')
		 ON CONFLICT (requester_id, addressee_id) DO UPDATE SET status = 'pending', created_at = CURRENT_TIMESTAMP`,
		requesterID, addresseeID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating friendship request: %w", err)
	}

	return getFriendship(ctx, db, requesterID, addresseeID)
}

// AcceptFriendship accepts a pending request addressed to userID.
func AcceptFriendship(ctx context.Context, db *sql.DB, userID, requesterID string) (*model.Friendship, error) {
	if !ValidID(userID) || !ValidID(requesterID) {
		return nil, errBadID("user")
	}

	res, err := db.ExecContext(ctx,
		`UPDATE friendships SET status = 'accepted'
		 WHERE requester_id = ? AND addressee_id = ? AND status = 'pending'`,
		requesterID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("accepting friendship: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, model.NewError(model.CodeNotFound, "no pending request from this user")
	}

	return getFriendship(ctx, db, requesterID, userID)
}

// ListFriendships returns all friendships involving userID.
func ListFriendships(ctx context.Context, db *sql.DB, userID string) ([]model.Friendship, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT f.requester_id, f.addressee_id, f.status, f.created_at,
		        ru.username AS requester_name, au.username AS addressee_name
		 FROM friendships f
		 JOIN users ru ON ru.id = f.requester_id
		 JOIN users au ON au.id = f.addressee_id
		 WHERE f.requester_id = ? OR f.addressee_id = ?
		 ORDER BY f.created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friendships: %w", err)
	}
	defer rows.Close()

	var friendships []model.Friendship
	for rows.Next() {
		var f model.Friendship
		if err := rows.Scan(&f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt,
			&f.RequesterName, &f.AddresseeName); err != nil {
			return nil, fmt.Errorf("scanning friendship: %w", err)
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

func getFriendship(ctx context.Context, q Querier, a, b string) (*model.Friendship, error) {
	f := &model.Friendship{}
	err := q.QueryRowContext(ctx,
		`SELECT requester_id, addressee_id, status, created_at FROM friendships
		 WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)`,
		a, b, b, a,
	).Scan(&f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting friendship: %w", err)
	}
	return f, nil
}
