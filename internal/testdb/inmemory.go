// Package testdb opens throwaway encrypted in-memory stores for tests.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/jinwoo-notes/jinwoo/internal/crypto"
	"github.com/jinwoo-notes/jinwoo/internal/db"
)

// TestKey is the fixed SQLCipher key used by in-memory test databases.
var TestKey = crypto.DeriveKey([]byte("jinwoo-test-master-key-000000000"), "test", 1)

// NewInMemory opens a migrated in-memory store. The caller must Close it.
func NewInMemory(name string) (*db.Store, error) {
	store, err := db.Open(context.Background(), db.Options{
		DSN: db.InMemoryDSN(name, TestKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	// One connection keeps the shared-cache database alive and serializes
	// transactions, which avoids SQLITE_LOCKED between pooled connections.
	sqlDB := store.DB()
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := applyFastSQLitePragmas(sqlDB); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to apply fast SQLite pragmas: %w", err)
	}
	return store, nil
}

// New opens a migrated in-memory store that is closed when the test ends.
func New(tb testing.TB) *db.Store {
	tb.Helper()
	store, err := NewInMemory(tb.Name())
	if err != nil {
		tb.Fatalf("testdb: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })
	return store
}

func applyFastSQLitePragmas(sqlDB *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA synchronous=OFF",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA secure_delete=OFF",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}
