package auth

import (
	"context"
	"testing"

	"github.com/go-webauthn/webauthn/webauthn"
)

func TestPasskeySaveAndList(t *testing.T) {
	d := testDB(t)
	user := createTestUser(t, d, "keys@example.com")
	store := NewPasskeyStore(d)
	ctx := context.Background()

	cred := &webauthn.Credential{
		ID:        []byte("test-credential-id"),
		PublicKey: []byte("test-public-key"),
	}
	if err := store.Save(ctx, user.ID, "My Laptop", cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, err := store.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d credentials, want 1", len(stored))
	}
	if stored[0].Name != "My Laptop" {
		t.Errorf("name = %q, want %q", stored[0].Name, "My Laptop")
	}
	if stored[0].UserID != user.ID {
		t.Errorf("user id = %q, want %q", stored[0].UserID, user.ID)
	}
	if string(stored[0].Credential.ID) != string(cred.ID) {
		t.Error("credential ID mismatch")
	}

	creds, err := store.WebAuthnCredentials(ctx, user.ID)
	if err != nil {
		t.Fatalf("webauthn credentials: %v", err)
	}
	if len(creds) != 1 || string(creds[0].PublicKey) != "test-public-key" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestPasskeyListIsolatedByUser(t *testing.T) {
	d := testDB(t)
	alice := createTestUser(t, d, "alice@example.com")
	bob := createTestUser(t, d, "bob@example.com")
	store := NewPasskeyStore(d)
	ctx := context.Background()

	if err := store.Save(ctx, alice.ID, "Phone", &webauthn.Credential{ID: []byte("a1")}); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, err := store.ListByUser(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("bob sees %d credentials, want 0", len(stored))
	}
}

func TestPasskeyDelete(t *testing.T) {
	d := testDB(t)
	alice := createTestUser(t, d, "alice@example.com")
	bob := createTestUser(t, d, "bob@example.com")
	store := NewPasskeyStore(d)
	ctx := context.Background()

	if err := store.Save(ctx, alice.ID, "Phone", &webauthn.Credential{ID: []byte("a1")}); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, err := store.ListByUser(ctx, alice.ID)
	if err != nil || len(stored) != 1 {
		t.Fatalf("list: %v (%d)", err, len(stored))
	}
	id := stored[0].ID

	if err := store.Delete(ctx, id, bob.ID); err == nil {
		t.Error("expected error deleting another user's credential")
	}
	if err := store.Delete(ctx, id, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, id, alice.ID); err == nil {
		t.Error("expected error deleting twice")
	}
}

func TestPasskeyUser(t *testing.T) {
	u := &User{ID: "user-1", Email: "a@example.com"}
	pu := NewPasskeyUser(u, []webauthn.Credential{{ID: []byte("c")}})

	if string(pu.WebAuthnID()) != "user-1" {
		t.Errorf("webauthn id = %q", pu.WebAuthnID())
	}
	if pu.WebAuthnName() != "a@example.com" || pu.WebAuthnDisplayName() != "a@example.com" {
		t.Error("expected email as name")
	}
	if len(pu.WebAuthnCredentials()) != 1 {
		t.Error("expected one credential")
	}
	if pu.User() != u {
		t.Error("User() should return the wrapped user")
	}
}
