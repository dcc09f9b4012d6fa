package index

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/facette/natsort"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/camden-git/aliasbackend/database"
	"github.com/camden-git/aliasbackend/models"
)

const listCacheKey = "aliases"

// RecordStore is the persisted alias table.
type RecordStore interface {
	ListRecords() ([]models.AliasRecord, error)
	GetRecord(alias string) (*models.AliasRecord, error)
}

// Reader answers "which aliases exist" and "is this alias taken" from the
// persisted table. Results trail the chain by however long the syncer takes
// to pick up a new block; nothing here waits for in-flight submissions.
type Reader struct {
	store RecordStore
	cache *gocache.Cache
}

func NewReader(store RecordStore, ttl time.Duration) *Reader {
	return &Reader{store: store, cache: gocache.New(ttl, 2*ttl)}
}

// List returns every bound alias in the given order (database.SortHeightAsc
// or database.SortNameNat).
func (r *Reader) List(order string) ([]Record, error) {
	if order == "" {
		order = database.DefaultSortOrder
	}
	if !database.IsValidSortOrder(order) {
		return nil, fmt.Errorf("unknown sort order '%s'", order)
	}

	records, err := r.listByHeight()
	if err != nil {
		return nil, err
	}

	out := make([]Record, len(records))
	copy(out, records)
	if order == database.SortNameNat {
		sort.SliceStable(out, func(i, j int) bool { return natsort.Compare(out[i].Alias, out[j].Alias) })
	}
	return out, nil
}

func (r *Reader) listByHeight() ([]Record, error) {
	if cached, ok := r.cache.Get(listCacheKey); ok {
		if records, ok := cached.([]Record); ok {
			return records, nil
		}
	}

	rows, err := r.store.ListRecords()
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, fromModel(row))
	}
	SortByHeight(records)

	r.cache.Set(listCacheKey, records, gocache.DefaultExpiration)
	return records, nil
}

// Lookup reports whether alias is currently bound and to which transaction.
func (r *Reader) Lookup(alias string) (Record, bool, error) {
	row, err := r.store.GetRecord(alias)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to look up alias '%s': %w", alias, err)
	}
	return fromModel(*row), true, nil
}

// Invalidate drops cached results. The syncer calls it after each rebuild.
func (r *Reader) Invalidate() {
	r.cache.Flush()
}

func fromModel(m models.AliasRecord) Record {
	return Record{Alias: m.Alias, Height: m.Height, Hash: m.Hash, TxIndex: m.TxIndex}
}

// ToModels converts fold output to rows for the alias_records table.
func ToModels(records []Record) []models.AliasRecord {
	out := make([]models.AliasRecord, 0, len(records))
	for _, r := range records {
		out = append(out, models.AliasRecord{Alias: r.Alias, Height: r.Height, TxIndex: r.TxIndex, Hash: r.Hash})
	}
	return out
}
