package store

import (
	"context"
	"testing"

	"github.com/erazemk/trznica/internal/config"
	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
)

func TestCreateTradeLocksItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pol := config.DefaultPolicy()

	owner := newTestUser(t, database, "owner", 0)
	item := newTestItem(t, database, owner.ID, "Sword")

	trade, err := CreateTrade(ctx, database, pol, owner.ID, item.ID)
	if err != nil {
		t.Fatalf("CreateTrade: %v", err)
	}
	if trade.Status != model.TradeStatusPending {
		t.Errorf("expected pending trade, got %q", trade.Status)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if !got.Locked {
		t.Error("expected item locked while trade is open")
	}

	// A locked item cannot be traded or listed again.
	_, err = CreateTrade(ctx, database, pol, owner.ID, item.ID)
	assertCode(t, err, model.CodeConflict)
	_, err = CreateListing(ctx, database, pol, owner.ID, item.ID, 1000)
	assertCode(t, err, model.CodeConflict)
}

func TestCreateTradeValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pol := config.DefaultPolicy()

	owner := newTestUser(t, database, "owner", 0)
	other := newTestUser(t, database, "other", 0)
	item := newTestItem(t, database, owner.ID, "Sword")

	_, err := CreateTrade(ctx, database, pol, other.ID, item.ID)
	assertCode(t, err, model.CodeNotFound)

	untradable, err := GrantItem(ctx, database, owner.ID, "Bound", "", false, true)
	if err != nil {
		t.Fatalf("GrantItem: %v", err)
	}
	_, err = CreateTrade(ctx, database, pol, owner.ID, untradable.ID)
	assertCode(t, err, model.CodeConflict)
}

func TestActiveTradeCap(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pol := config.DefaultPolicy()
	pol.MaxActiveTrades = 2

	owner := newTestUser(t, database, "owner", 0)
	for i := 0; i < 2; i++ {
		item := newTestItem(t, database, owner.ID, "Item")
		if _, err := CreateTrade(ctx, database, pol, owner.ID, item.ID); err != nil {
			t.Fatalf("CreateTrade %d: %v", i, err)
		}
	}

	extra := newTestItem(t, database, owner.ID, "One too many")
	_, err := CreateTrade(ctx, database, pol, owner.ID, extra.ID)
	engineErr := assertCode(t, err, model.CodeMaxTrades)
	if engineErr.Details["count"] != 2 {
		t.Errorf("expected count detail 2, got %v", engineErr.Details["count"])
	}
}

func TestOffersPerTradeCap(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pol := config.DefaultPolicy()
	pol.MaxOffersPerTrade = 3

	owner := newTestUser(t, database, "owner", 0)
	bidder := newTestUser(t, database, "bidder", 0)
	item := newTestItem(t, database, owner.ID, "Sword")
	trade, _ := CreateTrade(ctx, database, pol, owner.ID, item.ID)

	for i := 0; i < 3; i++ {
		offered := newTestItem(t, database, bidder.ID, "Offered")
		if _, err := CreateTradeOffer(ctx, database, pol, bidder.ID, trade.ID, offered.ID); err != nil {
			t.Fatalf("CreateTradeOffer %d: %v", i, err)
		}
	}

	extra := newTestItem(t, database, bidder.ID, "Extra")
	_, err := CreateTradeOffer(ctx, database, pol, bidder.ID, trade.ID, extra.ID)
	engineErr := assertCode(t, err, model.CodeMaxOffers)
	if engineErr.Details["count"] != 3 {
		t.Errorf("expected count detail 3, got %v", engineErr.Details["count"])
	}
	if engineErr.Details["limit"] != 3 {
		t.Errorf("expected limit detail 3, got %v", engineErr.Details["limit"])
	}
}

func TestCreateTradeOfferValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pol := config.DefaultPolicy()

	owner := newTestUser(t, database, "owner", 0)
	bidder := newTestUser(t, database, "bidder", 0)
	item := newTestItem(t, database, owner.ID, "Sword")
	trade, _ := CreateTrade(ctx, database, pol, owner.ID, item.ID)

	// Cannot offer on your own trade.
	own := newTestItem(t, database, owner.ID, "Own item")
	_, err := CreateTradeOffer(ctx, database, pol, owner.ID, trade.ID, own.ID)
	assertCode(t, err, model.CodeConflict)

	// The trade item itself is locked and cannot be counter-offered.
	_, err = CreateTradeOffer(ctx, database, pol, bidder.ID, trade.ID, item.ID)
	assertCode(t, err, model.CodeNotFound)

	// Unknown trade.
	offered := newTestItem(t, database, bidder.ID, "Offered")
	_, err = CreateTradeOffer(ctx, database, pol, bidder.ID, NewID(), offered.ID)
	assertCode(t, err, model.CodeNotFound)
}

func TestDuplicatePendingOfferRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pol := config.DefaultPolicy()

	owner := newTestUser(t, database, "owner", 0)
	bidder := newTestUser(t, database, "bidder", 0)
	item := newTestItem(t, database, owner.ID, "Sword")
	trade, _ := CreateTrade(ctx, database, pol, owner.ID, item.ID)

	offered := newTestItem(t, database, bidder.ID, "Offered")
	offer, err := CreateTradeOffer(ctx, database, pol, bidder.ID, trade.ID, offered.ID)
	if err != nil {
		t.Fatalf("CreateTradeOffer: %v", err)
	}

	// The same item is locked by its own pending offer, so the duplicate
	// surfaces as a conflict either way.
	_, err = CreateTradeOffer(ctx, database, pol, bidder.ID, trade.ID, offered.ID)
	assertCode(t, err, model.CodeConflict)

	// After cancelling, the item may be offered again.
	if _, err := CancelTradeOffer(ctx, database, bidder.ID, offer.ID); err != nil {
		t.Fatalf("CancelTradeOffer: %v", err)
	}
	if _, err := CreateTradeOffer(ctx, database, pol, bidder.ID, trade.ID, offered.ID); err != nil {
		t.Fatalf("re-offer after cancel: %v", err)
	}
}

func TestTradeOfferPrivacy(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pol := config.DefaultPolicy()

	owner := newTestUser(t, database, "owner", 0)
	stranger := newTestUser(t, database, "stranger", 0)
	friend := newTestUser(t, database, "friend", 0)
	item := newTestItem(t, database, owner.ID, "Sword")
	trade, _ := CreateTrade(ctx, database, pol, owner.ID, item.ID)

	UpdatePrivacySettings(ctx, database, owner.ID,
		model.VisibilityPublic, model.VisibilityFriends, model.VisibilityPublic)

	offered := newTestItem(t, database, stranger.ID, "Offered")
	_, err := CreateTradeOffer(ctx, database, pol, stranger.ID, trade.ID, offered.ID)
	assertCode(t, err, model.CodePrivacyRestricted)

	RequestFriendship(ctx, database, friend.ID, owner.ID)
	AcceptFriendship(ctx, database, owner.ID, friend.ID)

	friendItem := newTestItem(t, database, friend.ID, "Friend item")
	if _, err := CreateTradeOffer(ctx, database, pol, friend.ID, trade.ID, friendItem.ID); err != nil {
		t.Fatalf("friend offer: %v", err)
	}
}

func TestAcceptOfferSwapsOwnership(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pol := config.DefaultPolicy()

	owner := newTestUser(t, database, "owner", 0)
	bidder := newTestUser(t, database, "bidder", 0)
	other := newTestUser(t, database, "other", 0)

	tradeItem := newTestItem(t, database, owner.ID, "Sword")
	trade, _ := CreateTrade(ctx, database, pol, owner.ID, tradeItem.ID)

	offeredItem := newTestItem(t, database, bidder.ID, "Shield")
	offer, _ := CreateTradeOffer(ctx, database, pol, bidder.ID, trade.ID, offeredItem.ID)

	siblingItem := newTestItem(t, database, other.ID, "Helmet")
	sibling, _ := CreateTradeOffer(ctx, database, pol, other.ID, trade.ID, siblingItem.ID)

	// Only the trade owner may accept.
	_, err := AcceptTradeOffer(ctx, database, bidder.ID, offer.ID)
	assertCode(t, err, model.CodeForbidden)

	accepted, err := AcceptTradeOffer(ctx, database, owner.ID, offer.ID)
	if err != nil {
		t.Fatalf("AcceptTradeOffer: %v", err)
	}
	if accepted.Status != model.OfferStatusAccepted {
		t.Errorf("expected accepted offer, got %q", accepted.Status)
	}

	// Two-way swap, both items unlocked.
	swapped, _ := GetItem(ctx, database, tradeItem.ID)
	if swapped.OwnerID != bidder.ID || swapped.Locked {
		t.Errorf("trade item: owner %s locked %v, want owner %s unlocked", swapped.OwnerID, swapped.Locked, bidder.ID)
	}
	swapped, _ = GetItem(ctx, database, offeredItem.ID)
	if swapped.OwnerID != owner.ID || swapped.Locked {
		t.Errorf("offered item: owner %s locked %v, want owner %s unlocked", swapped.OwnerID, swapped.Locked, owner.ID)
	}

	// Parent trade completed, sibling offer rejected and its item freed.
	done, _ := GetTrade(ctx, database, trade.ID)
	if done.Status != model.TradeStatusCompleted {
		t.Errorf("expected completed trade, got %q", done.Status)
	}
	rejected, _ := GetTradeOffer(ctx, database, sibling.ID)
	if rejected.Status != model.OfferStatusRejected {
		t.Errorf("expected sibling rejected, got %q", rejected.Status)
	}
	freed, _ := GetItem(ctx, database, siblingItem.ID)
	if freed.Locked {
		t.Error("expected sibling item unlocked")
	}
	if freed.OwnerID != other.ID {
		t.Error("sibling item must stay with its owner")
	}

	// Accepting again is a conflict.
	_, err = AcceptTradeOffer(ctx, database, owner.ID, offer.ID)
	assertCode(t, err, model.CodeConflict)
	// As is accepting the already-rejected sibling.
	_, err = AcceptTradeOffer(ctx, database, owner.ID, sibling.ID)
	assertCode(t, err, model.CodeConflict)
}

func TestRejectAndCancelOffer(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pol := config.DefaultPolicy()

	owner := newTestUser(t, database, "owner", 0)
	bidder := newTestUser(t, database, "bidder", 0)
	item := newTestItem(t, database, owner.ID, "Sword")
	trade, _ := CreateTrade(ctx, database, pol, owner.ID, item.ID)

	offered := newTestItem(t, database, bidder.ID, "Shield")
	offer, _ := CreateTradeOffer(ctx, database, pol, bidder.ID, trade.ID, offered.ID)

	// The bidder cannot reject, the owner cannot cancel.
	_, err := RejectTradeOffer(ctx, database, bidder.ID, offer.ID)
	assertCode(t, err, model.CodeForbidden)
	_, err = CancelTradeOffer(ctx, database, owner.ID, offer.ID)
	assertCode(t, err, model.CodeForbidden)

	rejected, err := RejectTradeOffer(ctx, database, owner.ID, offer.ID)
	if err != nil {
		t.Fatalf("RejectTradeOffer: %v", err)
	}
	if rejected.Status != model.OfferStatusRejected {
		t.Errorf("expected rejected offer, got %q", rejected.Status)
	}

	freed, _ := GetItem(ctx, database, offered.ID)
	if freed.Locked {
		t.Error("expected offered item unlocked after rejection")
	}

	// The parent trade stays open.
	open, _ := GetTrade(ctx, database, trade.ID)
	if open.Status != model.TradeStatusPending {
		t.Errorf("expected pending trade, got %q", open.Status)
	}
}

func TestCancelTradeCascadesOffers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pol := config.DefaultPolicy()

	owner := newTestUser(t, database, "owner", 0)
	bidder := newTestUser(t, database, "bidder", 0)
	item := newTestItem(t, database, owner.ID, "Sword")
	trade, _ := CreateTrade(ctx, database, pol, owner.ID, item.ID)

	offered := newTestItem(t, database, bidder.ID, "Shield")
	offer, _ := CreateTradeOffer(ctx, database, pol, bidder.ID, trade.ID, offered.ID)

	// Only the trade owner may cancel the trade.
	_, err := CancelTrade(ctx, database, bidder.ID, trade.ID)
	assertCode(t, err, model.CodeForbidden)

	cancelled, err := CancelTrade(ctx, database, owner.ID, trade.ID)
	if err != nil {
		t.Fatalf("CancelTrade: %v", err)
	}
	if cancelled.Status != model.TradeStatusCancelled {
		t.Errorf("expected cancelled trade, got %q", cancelled.Status)
	}

	// Trade item and every pending offer's item are released.
	freed, _ := GetItem(ctx, database, item.ID)
	if freed.Locked {
		t.Error("expected trade item unlocked")
	}
	gone, _ := GetTradeOffer(ctx, database, offer.ID)
	if gone.Status != model.OfferStatusCancelled {
		t.Errorf("expected offer cancelled, got %q", gone.Status)
	}
	freed, _ = GetItem(ctx, database, offered.ID)
	if freed.Locked {
		t.Error("expected offered item unlocked")
	}

	// No new offers on a closed trade.
	late := newTestItem(t, database, bidder.ID, "Late")
	_, err = CreateTradeOffer(ctx, database, pol, bidder.ID, trade.ID, late.ID)
	assertCode(t, err, model.CodeConflict)
}

func TestListActiveTradesEmpty(t *testing.T) {
	database := db.NewTestDB(t)

	trades, err := ListActiveTrades(context.Background(), database)
	if err != nil {
		t.Fatalf("ListActiveTrades: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("expected empty trade list, got %d", len(trades))
	}
}
