package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/been/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})
	return d
}

func testUserStore(t *testing.T) *UserStore {
	t.Helper()
	s := NewUserStore(testDB(t))
	s.bcryptCost = bcrypt.MinCost
	return s
}

// createTestUser adds a confirmed account and returns it.
func createTestUser(t *testing.T, d *sql.DB, email string) *User {
	t.Helper()
	users := NewUserStore(d)
	users.bcryptCost = bcrypt.MinCost
	u, err := users.Create(context.Background(), email, "secret123", true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
