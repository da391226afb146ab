package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"maisync/internal/db"
)

// SetupDB opens an in-memory sqlite database with the schema applied, it is
// closed when the test ends.
func SetupDB(t testing.TB) *sql.DB {
	return setupDB(t, ":memory:")
}

// SetupFileDB is SetupDB backed by a sqlite file in a temporary directory,
// so that several connections share it.
func SetupFileDB(t testing.TB) *sql.DB {
	return setupDB(t, filepath.Join(t.TempDir(), "maisync.db"))
}

func setupDB(t testing.TB, path string) *sql.DB {
	sqlite, err := db.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		sqlite.Close()
	})

	err = db.Bootstrap(context.Background(), sqlite)
	if err != nil {
		t.Fatal(err)
	}
	return sqlite
}
