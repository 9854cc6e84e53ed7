// Package dbtest opens a migrated SQLite database for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	_ "github.com/shashiranjanraj/souq/database/migrations"
	"github.com/shashiranjanraj/souq/pkg/database"
	"github.com/shashiranjanraj/souq/pkg/migration"
)

// New returns a freshly migrated database in the test's temp dir.
//
// The pool holds a single connection, so concurrent callers queue at the pool
// the way they would queue on row locks in PostgreSQL. Code under test must
// therefore run every statement of a unit of work on the transaction handle.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "souq.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := database.Open("sqlite", dsn, database.Options{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db, nil).Run(context.Background())
	require.NoError(t, err)
	return db
}
