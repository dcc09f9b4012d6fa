package repository

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/aliasbackend/database"
	"github.com/camden-git/aliasbackend/models"
)

func setupTestRepo(t *testing.T) *AliasRepository {
	t.Helper()
	db, err := database.InitGormDB(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewAliasRepository(db)
}

func TestSaveEntries_SkipsKnownHashes(t *testing.T) {
	repo := setupTestRepo(t)

	n, err := repo.SaveEntries([]models.MemoEntry{
		{Account: "xion1abc", Hash: "H1", Height: 1, Memo: "alias:a", Kind: "register"},
		{Account: "xion1abc", Hash: "H2", Height: 2, Memo: "confirm:a->b", Kind: "confirm"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	n, err = repo.SaveEntries([]models.MemoEntry{
		{Account: "xion1abc", Hash: "H2", Height: 2, Memo: "confirm:a->b", Kind: "confirm"},
		{Account: "xion1abc", Hash: "H3", Height: 2, TxIndex: 1, Memo: "gm", Kind: "unknown"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	entries, err := repo.ListEntries("xion1abc")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, []string{"H1", "H2", "H3"}, []string{entries[0].Hash, entries[1].Hash, entries[2].Hash})
	require.NotZero(t, entries[0].CreatedAt)

	others, err := repo.ListEntries("xion1other")
	require.NoError(t, err)
	require.Empty(t, others)
}

func TestReplaceRecords(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.ReplaceRecords([]models.AliasRecord{
		{Alias: "a", Height: 1, Hash: "H1"},
		{Alias: "b", Height: 2, Hash: "H2"},
	}))
	require.NoError(t, repo.ReplaceRecords([]models.AliasRecord{
		{Alias: "c", Height: 3, Hash: "H3"},
		{Alias: "b", Height: 2, Hash: "H2"},
	}))

	records, err := repo.ListRecords()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "b", records[0].Alias)
	require.Equal(t, "c", records[1].Alias)

	_, err = repo.GetRecord("a")
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	rec, err := repo.GetRecord("c")
	require.NoError(t, err)
	require.Equal(t, "H3", rec.Hash)

	require.NoError(t, repo.ReplaceRecords(nil))
	records, err = repo.ListRecords()
	require.NoError(t, err)
	require.Empty(t, records)
}
