package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_CreatesFileAndDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "comparisons.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)
	assert.IsType(t, SQLiteDialect{}, db.Dialect())
}

func TestOpen_SchemaAndPragmas(t *testing.T) {
	db := openTestDB(t)

	var cols []string
	rows, err := db.DB().Query("SELECT name FROM pragma_table_info('comparisons') ORDER BY cid")
	require.NoError(t, err)
	for rows.Next() {
		var c string
		require.NoError(t, rows.Scan(&c))
		cols = append(cols, c)
	}
	require.NoError(t, rows.Err())
	rows.Close()
	assert.Equal(t, []string{"id", "name", "fingerprint", "monsters", "created_at", "snapshot"}, cols)

	for _, idx := range []string{"idx_comparisons_name", "idx_comparisons_fingerprint"} {
		var n int
		require.NoError(t, db.DB().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", idx).Scan(&n))
		assert.Equal(t, 1, n, idx)
	}

	var mode string
	require.NoError(t, db.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	// Pragmas hold on every pooled connection, not just the first.
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		conn, err := db.DB().Conn(ctx)
		require.NoError(t, err)
		defer conn.Close()
		var fk, timeout int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		assert.Equal(t, 1, fk)
		assert.Equal(t, 5000, timeout)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := Open(path)
	require.NoError(t, err)
	_, err = first.SaveComparison("kept", testSnapshot(10))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err, "migrations run again on an existing file")
	defer second.Close()

	list, err := second.ListComparisons()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "kept", list[0].Name)
}

func TestClose(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.ListComparisons()
	assert.Error(t, err, "queries fail once closed")
}
