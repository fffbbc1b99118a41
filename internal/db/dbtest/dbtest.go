// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/finance_tracker/internal/db"
)

// Open returns a migrated in-memory sqlite database private to the test.
// The pool is capped at one connection because every new ":memory:"
// connection would otherwise see its own empty database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err, "open in-memory db")

	t.Cleanup(func() {
		_ = db.Close(gdb)
	})

	return gdb
}
