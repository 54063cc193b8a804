// Package sqlitetest provides an isolated, migrated in-memory database for
// service and repository tests.
package sqlitetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/repository/sqlite"
	"github.com/stretchr/testify/require"
)

var counter atomic.Int64

// NewTestDB returns a fresh database that is closed when t finishes.
func NewTestDB(t testing.TB) *database.SQLiteDB {
	t.Helper()

	name := fmt.Sprintf("test_%d_%d", counter.Add(1), len(t.Name()))
	db, err := database.NewSQLiteMemoryDB(name)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqlite.Migrate(context.Background(), db))
	return db
}
