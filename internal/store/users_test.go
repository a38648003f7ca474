package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/najdeno/internal/db"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "maja", "hash123")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "maja" {
		t.Errorf("expected username 'maja', got %q", user.Username)
	}

	got, err := GetUserByUsername(ctx, database, "maja")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Errorf("expected to fetch user back, got %+v", got)
	}

	missing, err := GetUserByUsername(ctx, database, "nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername(missing): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing user, got %+v", missing)
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "maja", "hash1"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := CreateUser(ctx, database, "maja", "hash2")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken for duplicate username, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "maja", "old-hash")
	if err := UpdateUserPassword(ctx, database, user.ID, "new-hash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "new-hash" {
		t.Errorf("expected updated hash, got %q", got.PasswordHash)
	}
}
