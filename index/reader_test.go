package index

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/aliasbackend/models"
)

type memStore struct {
	records   []models.AliasRecord
	listCalls int
	err       error
}

func (s *memStore) ListRecords() ([]models.AliasRecord, error) {
	s.listCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *memStore) GetRecord(alias string) (*models.AliasRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, r := range s.records {
		if r.Alias == alias {
			rec := r
			return &rec, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func TestReader_ListOrders(t *testing.T) {
	store := &memStore{records: []models.AliasRecord{
		{Alias: "demo10", Height: 5, Hash: "H5"},
		{Alias: "demo2", Height: 9, Hash: "H9"},
		{Alias: "alpha", Height: 7, Hash: "H7"},
	}}
	r := NewReader(store, time.Minute)

	byHeight, err := r.List("")
	require.NoError(t, err)
	require.Equal(t, []string{"demo10", "alpha", "demo2"}, aliases(byHeight))

	byName, err := r.List("name")
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "demo2", "demo10"}, aliases(byName))

	_, err = r.List("size")
	require.Error(t, err)
}

func TestReader_ListIsCachedUntilInvalidated(t *testing.T) {
	store := &memStore{records: []models.AliasRecord{{Alias: "a", Height: 1, Hash: "H1"}}}
	r := NewReader(store, time.Minute)

	_, err := r.List("height")
	require.NoError(t, err)
	_, err = r.List("name")
	require.NoError(t, err)
	require.Equal(t, 1, store.listCalls)

	store.records = append(store.records, models.AliasRecord{Alias: "b", Height: 2, Hash: "H2"})
	r.Invalidate()

	got, err := r.List("height")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, aliases(got))
	require.Equal(t, 2, store.listCalls)
}

func TestReader_Lookup(t *testing.T) {
	store := &memStore{records: []models.AliasRecord{{Alias: "a", Height: 1, Hash: "H1"}}}
	r := NewReader(store, time.Minute)

	rec, ok, err := r.Lookup("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Record{Alias: "a", Height: 1, Hash: "H1"}, rec)

	_, ok, err = r.Lookup("A")
	require.NoError(t, err)
	require.False(t, ok, "aliases are case-sensitive")
}

func TestReader_StoreErrors(t *testing.T) {
	r := NewReader(&memStore{err: errors.New("disk I/O error")}, time.Minute)

	_, err := r.List("")
	require.Error(t, err)
	_, _, err = r.Lookup("a")
	require.ErrorContains(t, err, "disk I/O error")
}

func aliases(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Alias)
	}
	return out
}
