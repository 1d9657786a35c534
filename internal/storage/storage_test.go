package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err, "tableExists query failed")
	return n > 0
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"/tmp/x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		DSN("/tmp/x.db"))
	assert.Equal(t,
		":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		DSN(MemoryPath))
	assert.Equal(t,
		"file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		DSN("file:x.db?mode=rwc"))
}

func TestOpen_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "escolario.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"goose_db_version", "users", "notes", "preferences"} {
		assert.True(t, tableExists(t, db, table), table)
	}

	v, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	db, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	var on int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&on))
	assert.Equal(t, 1, on)

	_, err = db.Exec(`INSERT INTO notes(user_id, subject, type, content, date) VALUES (999, 's', 'Prova', 'c', '01/01/2024')`)
	require.Error(t, err, "orphan note must be rejected")
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := sql.Open(driverName, DSN(path))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db), "first run")
	require.NoError(t, RunMigrations(ctx, db), "second run should be idempotent")

	assert.True(t, tableExists(t, db, "users"))
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO preferences(bucket, key, value) VALUES ('b', 'k', 'v')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var v string
	require.NoError(t, db.QueryRow(`SELECT value FROM preferences WHERE bucket='b' AND key='k'`).Scan(&v))
	assert.Equal(t, "v", v)
}

func TestUsersSchema_Constraints(t *testing.T) {
	db, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	ins := `INSERT INTO users(name, email, password, cpf, is_admin) VALUES (?, ?, ?, ?, 0)`

	_, err = db.Exec(ins, "Ana", "ana@x.com", "h", "12345678901")
	require.NoError(t, err)

	_, err = db.Exec(ins, "Bia", "ANA@X.COM", "h", "98765432100")
	require.Error(t, err, "email is unique case-insensitively")

	_, err = db.Exec(ins, "Bia", "bia@x.com", "h", "12345678901")
	require.Error(t, err, "cpf is unique")

	_, err = db.Exec(ins, "", "c@x.com", "h", "11111111111")
	require.Error(t, err, "empty name rejected")
}
