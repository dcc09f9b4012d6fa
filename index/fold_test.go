package index

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBuild_ConfirmMovesAliasToNewName(t *testing.T) {
	records := Build([]Entry{
		{Hash: "H1", Height: 10, Memo: "alias:a"},
		{Hash: "H2", Height: 20, Memo: "confirm:a->b"},
	})

	require.Equal(t, []Record{{Alias: "b", Height: 20, Hash: "H2"}}, records)
}

func TestBuild_LastRegistrationWins(t *testing.T) {
	records := Build([]Entry{
		{Hash: "H2", Height: 20, Memo: "alias:a"},
		{Hash: "H1", Height: 10, Memo: "alias:a"},
	})

	require.Equal(t, []Record{{Alias: "a", Height: 20, Hash: "H2"}}, records)
}

func TestBuild_SameHeightOrderedByTxIndex(t *testing.T) {
	records := Build([]Entry{
		{Hash: "H2", Height: 10, TxIndex: 1, Memo: "confirm:a->b"},
		{Hash: "H1", Height: 10, TxIndex: 0, Memo: "alias:a"},
	})

	require.Equal(t, []Record{{Alias: "b", Height: 10, Hash: "H2", TxIndex: 1}}, records)
}

func TestBuild_SkipsUnrecognizedMemos(t *testing.T) {
	records := Build([]Entry{
		{Hash: "H1", Height: 1, Memo: ""},
		{Hash: "H2", Height: 2, Memo: "gm"},
		{Hash: "H3", Height: 3, Memo: "alias:"},
		{Hash: "H4", Height: 4, Memo: "alias:x"},
	})

	require.Equal(t, []Record{{Alias: "x", Height: 4, Hash: "H4"}}, records)
}

func TestBuild_IgnoresBlankRegistration(t *testing.T) {
	records := Build([]Entry{
		{Hash: "H1", Height: 2, Memo: "alias:a"},
		{Hash: "H2", Height: 3, Memo: "alias:   "},
	})

	require.Equal(t, []Record{{Alias: "a", Height: 2, Hash: "H1"}}, records)
}

func TestBuild_ConfirmFromUnknownAliasStillBindsTarget(t *testing.T) {
	records := Build([]Entry{{Hash: "H1", Height: 5, Memo: "confirm:ghost->real"}})
	require.Equal(t, []Record{{Alias: "real", Height: 5, Hash: "H1"}}, records)
}

func TestBuild_OrderedByHeight(t *testing.T) {
	records := Build([]Entry{
		{Hash: "H3", Height: 30, Memo: "alias:c"},
		{Hash: "H1", Height: 10, Memo: "alias:a"},
		{Hash: "H2", Height: 20, Memo: "alias:b"},
	})

	var names []string
	for _, r := range records {
		names = append(names, r.Alias)
	}
	require.Equal(t, []string{"a", "b", "c"}, names)
}

func TestFold_ApplyReportsRecognition(t *testing.T) {
	f := NewFold()
	require.True(t, f.Apply(Entry{Height: 1, Memo: "alias:a"}))
	require.False(t, f.Apply(Entry{Height: 2, Memo: "hello"}))

	r, ok := f.Lookup("a")
	require.True(t, ok)
	require.Equal(t, int64(1), r.Height)

	_, ok = f.Lookup("b")
	require.False(t, ok)
}

// Replaying a log in any input order gives the same table as replaying it
// in height order.
func TestBuild_InputOrderDoesNotMatter(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(r, "n")
		entries := make([]Entry, n)
		for i := range entries {
			a := rapid.SampledFrom([]string{"a", "b", "c", "d"}).Draw(r, "a")
			b := rapid.SampledFrom([]string{"a", "b", "c", "d"}).Draw(r, "b")
			m := rapid.SampledFrom([]string{"alias:" + a, "confirm:" + a + "->" + b, "noise"}).Draw(r, "memo")
			entries[i] = Entry{Hash: fmt.Sprintf("H%d", i), Height: int64(i + 1), Memo: m}
		}

		f := NewFold()
		for _, e := range entries {
			f.Apply(e)
		}
		want := f.Records()

		shuffled := rapid.Permutation(entries).Draw(r, "shuffled")
		require.Equal(r, want, Build(shuffled))
	})
}

// Every alias in the table points at the latest recognized memo naming it
// as a register target or confirm destination.
func TestBuild_RecordsPointAtLatestBinding(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(r, "n")
		entries := make([]Entry, n)
		for i := range entries {
			a := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(r, "a")
			b := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(r, "b")
			m := rapid.SampledFrom([]string{"alias:" + a, "confirm:" + a + "->" + b}).Draw(r, "memo")
			entries[i] = Entry{Hash: fmt.Sprintf("H%d", i), Height: int64(i + 1), Memo: m}
		}

		for _, rec := range Build(entries) {
			latest := int64(0)
			for _, e := range entries {
				if e.Memo == "alias:"+rec.Alias || hasSuffixTarget(e.Memo, rec.Alias) {
					latest = e.Height
				}
			}
			require.Equal(r, latest, rec.Height, "alias %s", rec.Alias)
		}
	})
}

func hasSuffixTarget(m, alias string) bool {
	return strings.HasPrefix(m, "confirm:") && strings.HasSuffix(m, "->"+alias)
}
