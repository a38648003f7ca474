package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

func createTestUser(t *testing.T, database *sql.DB, username string) int64 {
	t.Helper()
	user, err := CreateUser(context.Background(), database, username, "hash")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return user.ID
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "maja")

	item, err := CreateItem(ctx, database, owner, model.TypeLost, "wallet", "Brown wallet", "Lost near the park", 46.05, 14.5)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Type != model.TypeLost {
		t.Errorf("expected type 'lost', got %q", item.Type)
	}
	if item.IsResolved {
		t.Error("expected new item to be unresolved")
	}
	if item.ResolutionType != model.ResolutionNone {
		t.Errorf("expected resolution 'none', got %q", item.ResolutionType)
	}

	got, err := GetItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil || got.Title != "Brown wallet" {
		t.Errorf("expected to fetch created item back, got %+v", got)
	}

	missing, err := GetItem(ctx, database, 9999)
	if err != nil {
		t.Fatalf("GetItem(missing): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing item, got %+v", missing)
	}
}

func TestListOpenCandidates(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "maja")

	CreateItem(ctx, database, owner, model.TypeFound, "wallet", "Found wallet", "", 46.05, 14.5)
	CreateItem(ctx, database, owner, model.TypeFound, "phone", "Found phone", "", 46.05, 14.5)
	CreateItem(ctx, database, owner, model.TypeLost, "wallet", "Lost wallet", "", 46.05, 14.5)
	resolved, _ := CreateItem(ctx, database, owner, model.TypeFound, "wallet", "Resolved wallet", "", 46.05, 14.5)
	ResolveItem(ctx, database, owner, resolved.ID, nil, model.ResolutionOther)

	candidates, err := ListOpenCandidates(ctx, database, model.TypeFound, "wallet")
	if err != nil {
		t.Fatalf("ListOpenCandidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 open found wallet, got %d", len(candidates))
	}
	if candidates[0].Title != "Found wallet" {
		t.Errorf("unexpected candidate: %+v", candidates[0])
	}
}

func TestResolveItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "maja")

	item, _ := CreateItem(ctx, database, owner, model.TypeLost, "wallet", "Lost wallet", "", 46.05, 14.5)

	counterpart, err := ResolveItem(ctx, database, owner, item.ID, nil, model.ResolutionOther)
	if err != nil {
		t.Fatalf("ResolveItem: %v", err)
	}
	if counterpart != nil {
		t.Errorf("expected no counterpart, got %+v", counterpart)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if !got.IsResolved {
		t.Error("expected item to be resolved")
	}
	if got.ResolutionType != model.ResolutionOther {
		t.Errorf("expected resolution 'other', got %q", got.ResolutionType)
	}
	if got.ResolvedAt == nil {
		t.Error("expected resolved_at to be set")
	}
}

func TestResolveItemChecks(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "maja")
	other := createTestUser(t, database, "ana")

	item, _ := CreateItem(ctx, database, owner, model.TypeLost, "wallet", "Lost wallet", "", 46.05, 14.5)

	if _, err := ResolveItem(ctx, database, owner, 9999, nil, model.ResolutionOther); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := ResolveItem(ctx, database, other, item.ID, nil, model.ResolutionOther); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}

	if _, err := ResolveItem(ctx, database, owner, item.ID, nil, model.ResolutionOther); err != nil {
		t.Fatalf("ResolveItem: %v", err)
	}
	// Second resolve must hit the compare-and-swap guard.
	if _, err := ResolveItem(ctx, database, owner, item.ID, nil, model.ResolutionOther); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("expected ErrAlreadyResolved on double resolve, got %v", err)
	}
}

func TestResolveItemWithMatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "maja")
	finder := createTestUser(t, database, "ana")

	lost, _ := CreateItem(ctx, database, owner, model.TypeLost, "wallet", "Lost wallet", "", 46.05, 14.5)
	found, _ := CreateItem(ctx, database, finder, model.TypeFound, "wallet", "Found wallet", "", 46.051, 14.5)

	counterpart, err := ResolveItem(ctx, database, owner, lost.ID, &found.ID, model.ResolutionMatched)
	if err != nil {
		t.Fatalf("ResolveItem: %v", err)
	}
	if counterpart == nil || counterpart.ID != found.ID {
		t.Fatalf("expected counterpart %d, got %+v", found.ID, counterpart)
	}

	gotLost, _ := GetItem(ctx, database, lost.ID)
	if !gotLost.IsResolved || gotLost.LinkedItemID == nil || *gotLost.LinkedItemID != found.ID {
		t.Errorf("expected lost item resolved and linked to %d, got %+v", found.ID, gotLost)
	}

	gotFound, _ := GetItem(ctx, database, found.ID)
	if !gotFound.IsResolved || gotFound.ResolutionType != model.ResolutionMatched {
		t.Errorf("expected found item resolved as matched, got %+v", gotFound)
	}
	if gotFound.LinkedItemID == nil || *gotFound.LinkedItemID != lost.ID {
		t.Errorf("expected found item linked back to %d, got %+v", lost.ID, gotFound.LinkedItemID)
	}

	records, err := ListResolutionsForItem(ctx, database, lost.ID)
	if err != nil {
		t.Fatalf("ListResolutionsForItem: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 resolution record, got %d", len(records))
	}
	if records[0].MatchedItemID != found.ID || records[0].ResolvedBy != owner {
		t.Errorf("unexpected resolution record: %+v", records[0])
	}
}

func TestResolveItemMissingCounterpart(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "maja")

	item, _ := CreateItem(ctx, database, owner, model.TypeLost, "wallet", "Lost wallet", "", 46.05, 14.5)

	missing := int64(9999)
	counterpart, err := ResolveItem(ctx, database, owner, item.ID, &missing, model.ResolutionMatched)
	if err != nil {
		t.Fatalf("ResolveItem with missing counterpart: %v", err)
	}
	if counterpart != nil {
		t.Errorf("expected nil counterpart, got %+v", counterpart)
	}

	// The primary item still resolves; no resolution record is written.
	got, _ := GetItem(ctx, database, item.ID)
	if !got.IsResolved {
		t.Error("expected item to be resolved despite missing counterpart")
	}
	records, _ := ListResolutionsForItem(ctx, database, item.ID)
	if len(records) != 0 {
		t.Errorf("expected no resolution records, got %d", len(records))
	}
}

func TestExpireItemsBefore(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "maja")

	old, _ := CreateItem(ctx, database, owner, model.TypeLost, "wallet", "Old wallet", "", 46.05, 14.5)
	recent, _ := CreateItem(ctx, database, owner, model.TypeLost, "phone", "Recent phone", "", 46.05, 14.5)

	// Backdate one item past the retention window.
	if _, err := database.ExecContext(ctx,
		`UPDATE items SET created_at = datetime('now', '-91 days') WHERE id = ?`, old.ID,
	); err != nil {
		t.Fatalf("backdating item: %v", err)
	}
	if _, err := database.ExecContext(ctx,
		`UPDATE items SET created_at = datetime('now', '-89 days') WHERE id = ?`, recent.ID,
	); err != nil {
		t.Fatalf("backdating item: %v", err)
	}

	cutoff := time.Now().AddDate(0, 0, -90)
	n, err := ExpireItemsBefore(ctx, database, cutoff)
	if err != nil {
		t.Fatalf("ExpireItemsBefore: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired item, got %d", n)
	}

	gotOld, _ := GetItem(ctx, database, old.ID)
	if !gotOld.IsResolved || gotOld.ResolutionType != model.ResolutionExpired {
		t.Errorf("expected old item expired, got %+v", gotOld)
	}

	gotRecent, _ := GetItem(ctx, database, recent.ID)
	if gotRecent.IsResolved {
		t.Error("expected recent item to stay open")
	}

	// No matching items is a no-op.
	n, err = ExpireItemsBefore(ctx, database, cutoff)
	if err != nil {
		t.Fatalf("ExpireItemsBefore (second run): %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 expired items on second run, got %d", n)
	}
}

func TestItemPhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, database, "maja")

	item, _ := CreateItem(ctx, database, owner, model.TypeFound, "keys", "Found keys", "", 46.05, 14.5)

	photoData := []byte("fake photo data")
	if err := SetItemPhoto(ctx, database, item.ID, photoData, "image/jpeg"); err != nil {
		t.Fatalf("SetItemPhoto: %v", err)
	}

	data, mime, err := GetItemPhoto(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItemPhoto: %v", err)
	}
	if string(data) != "fake photo data" {
		t.Errorf("expected photo data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}
}
