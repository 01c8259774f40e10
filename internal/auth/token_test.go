package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenCreateAndConsume(t *testing.T) {
	d := testDB(t)
	user := createTestUser(t, d, "confirm@example.com")
	store := NewTokenStore(d)
	ctx := context.Background()

	token, err := store.Create(ctx, user.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	userID, err := store.Consume(ctx, token)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if userID != user.ID {
		t.Errorf("user id = %q, want %q", userID, user.ID)
	}

	if _, err := store.Consume(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reuse: err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenInvalid(t *testing.T) {
	store := NewTokenStore(testDB(t))

	if _, err := store.Consume(context.Background(), "bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenExpired(t *testing.T) {
	d := testDB(t)
	user := createTestUser(t, d, "late@example.com")
	store := NewTokenStore(d)
	ctx := context.Background()

	token, err := store.Create(ctx, user.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(ConfirmationExpiry + time.Minute) }
	if _, err := store.Consume(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}

	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM auth_tokens").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("got %d tokens after cleanup, want 0", count)
	}
}
