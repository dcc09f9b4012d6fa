package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyncCursor_RoundTrip(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "cursor.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = GetSyncCursor(db, "xion1abc")
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, SetSyncCursor(db, "xion1abc", 100))
	require.NoError(t, SetSyncCursor(db, "xion1abc", 250))
	require.NoError(t, SetSyncCursor(db, "xion1other", 7))

	cursor, err := GetSyncCursor(db, "xion1abc")
	require.NoError(t, err)
	require.Equal(t, int64(250), cursor.Height)
	require.NotZero(t, cursor.UpdatedAt)

	require.NoError(t, ResetSyncCursor(db, "xion1abc"))
	_, err = GetSyncCursor(db, "xion1abc")
	require.ErrorIs(t, err, sql.ErrNoRows)

	other, err := GetSyncCursor(db, "xion1other")
	require.NoError(t, err)
	require.Equal(t, int64(7), other.Height)
}

func TestInitDB_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor.db")
	db, err := InitDB(path)
	require.NoError(t, err)
	require.NoError(t, SetSyncCursor(db, "xion1abc", 3))
	require.NoError(t, db.Close())

	db, err = InitDB(path)
	require.NoError(t, err)
	defer db.Close()
	cursor, err := GetSyncCursor(db, "xion1abc")
	require.NoError(t, err)
	require.Equal(t, int64(3), cursor.Height)
}
