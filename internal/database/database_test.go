package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	for _, name := range []string{"mysql", "postgres", "sqlite3", "MySQL"} {
		_, err := DialectFor(name)
		assert.NoError(t, err, name)
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg, err := DialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b <= $2 LIMIT $3",
		pg.Rebind("SELECT * FROM t WHERE a = ? AND b <= ? LIMIT ?"))

	my, err := DialectFor("mysql")
	require.NoError(t, err)
	assert.Equal(t, "a = ? AND b = ?", my.Rebind("a = ? AND b = ?"))
}

func TestNormalizeMySQLDSN(t *testing.T) {
	dsn, err := normalizeMySQLDSN("tracker:secret@tcp(localhost:3306)/tracker")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	_, err = normalizeMySQLDSN("not a dsn")
	assert.Error(t, err)
}

func TestNewConnectionCreatesSchema(t *testing.T) {
	dialect, err := DialectFor("sqlite3")
	require.NoError(t, err)

	ctx := context.Background()
	db, err := NewConnection(ctx, dialect, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'exercises')`).Scan(&n))
	assert.Equal(t, 2, n)

	// running the bootstrap twice is harmless
	assert.NoError(t, EnsureSchema(ctx, db, dialect))
}
