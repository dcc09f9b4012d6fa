// Package index rebuilds the alias table from the memos found on chain.
//
// The chain is an append-only log; nothing on it enforces uniqueness. The
// reading rule applied here is last write wins: entries are replayed in
// (height, tx index) order and a later memo naming an alias replaces
// whatever an earlier one said.
package index

import (
	"sort"

	"github.com/camden-git/aliasbackend/memo"
)

// Entry is one scanned transaction.
type Entry struct {
	Hash    string
	Height  int64
	TxIndex uint32
	Memo    string
}

// Record is the current binding of an alias: the transaction that last
// registered it or confirmed a transfer to it.
type Record struct {
	Alias   string `json:"alias"`
	Height  int64  `json:"height"`
	Hash    string `json:"hash"`
	TxIndex uint32 `json:"-"`
}

// Before orders entries by block height, then position in the block.
func (e Entry) Before(other Entry) bool {
	if e.Height != other.Height {
		return e.Height < other.Height
	}
	return e.TxIndex < other.TxIndex
}

type Fold struct {
	records map[string]Record
}

func NewFold() *Fold {
	return &Fold{records: make(map[string]Record)}
}

// Apply folds one entry in. Entries must be applied in order. It reports
// whether the memo was recognized.
//
// A confirm retires the from alias and binds the to alias, even when from
// was never registered: the log says to is now in use and that is all the
// reader can know.
func (f *Fold) Apply(e Entry) bool {
	op, ok := memo.Decode(e.Memo)
	if !ok {
		return false
	}
	switch op.Kind {
	case memo.KindRegister:
		f.bind(op.Alias, e)
	case memo.KindConfirm:
		delete(f.records, op.From)
		f.bind(op.To, e)
	}
	return true
}

func (f *Fold) bind(alias string, e Entry) {
	f.records[alias] = Record{Alias: alias, Height: e.Height, Hash: e.Hash, TxIndex: e.TxIndex}
}

// Lookup returns the current record for alias.
func (f *Fold) Lookup(alias string) (Record, bool) {
	r, ok := f.records[alias]
	return r, ok
}

// Records returns all bound aliases by height ascending, then tx index,
// then alias.
func (f *Fold) Records() []Record {
	out := make([]Record, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	SortByHeight(out)
	return out
}

// Build sorts entries into log order and folds them.
func Build(entries []Entry) []Record {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	f := NewFold()
	for _, e := range sorted {
		f.Apply(e)
	}
	return f.Records()
}

func SortByHeight(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		if a.TxIndex != b.TxIndex {
			return a.TxIndex < b.TxIndex
		}
		return a.Alias < b.Alias
	})
}
