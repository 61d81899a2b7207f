package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Onnokh/bookr/internal/worklog"
)

var base = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func entry(id string, created time.Time) Entry {
	return Entry{
		ID:               id,
		IssueKey:         "ABC-1",
		IssueID:          "10001",
		TimeSpent:        "1h",
		TimeSpentSeconds: 3600,
		Started:          created,
		CreatedAt:        created,
		Source:           worklog.FromJira,
	}
}

func TestRecordSetsLastAndFinds(t *testing.T) {
	l := New(&MemoryStorage{}, Options{Now: (&clock{base}).Now})

	require.True(t, l.Record(entry("1", base)))
	require.True(t, l.Record(entry("2", base)))

	last, ok := l.FindLast()
	require.True(t, ok)
	assert.Equal(t, "2", last.ID)

	e, ok := l.FindByID("1")
	require.True(t, ok)
	assert.Equal(t, "ABC-1", e.IssueKey)

	ids := []string{}
	for _, e := range l.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"2", "1"}, ids, "newest first")
}

func TestRecordFillsCreatedAt(t *testing.T) {
	l := New(&MemoryStorage{}, Options{Now: (&clock{base}).Now})
	e := entry("1", base)
	e.CreatedAt = time.Time{}

	l.Record(e)

	got, _ := l.FindByID("1")
	assert.True(t, got.CreatedAt.Equal(base))
}

func TestRecordEnforcesCap(t *testing.T) {
	l := New(&MemoryStorage{}, Options{Cap: 3, Now: (&clock{base}).Now})
	for i := 1; i <= 5; i++ {
		l.Record(entry(fmt.Sprint(i), base))
	}

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "5", entries[0].ID)
	assert.Equal(t, "3", entries[2].ID)
}

func TestFindByIDMatchesSecondary(t *testing.T) {
	l := New(&MemoryStorage{}, Options{})
	e := entry("900", base)
	e.SecondaryID = "55"
	e.Source = worklog.FromTempo
	l.Record(e)

	got, ok := l.FindByID("55")
	require.True(t, ok)
	assert.Equal(t, "900", got.ID)
}

func TestRemoveClearsPointer(t *testing.T) {
	l := New(&MemoryStorage{}, Options{})
	l.Record(entry("1", base))
	l.Record(entry("2", base))

	assert.True(t, l.Remove("2"))
	assert.False(t, l.Remove("2"))

	_, ok := l.FindLast()
	assert.False(t, ok)
	_, ok = l.FindByID("1")
	assert.True(t, ok)
}

func TestFindLastClearsDanglingPointer(t *testing.T) {
	store := &MemoryStorage{}
	require.NoError(t, store.Write([]byte(`{"worklogs":[{"id":"1"}],"lastWorklogId":"gone"}`)))
	l := New(store, Options{})

	_, ok := l.FindLast()
	assert.False(t, ok)

	data, _ := store.Read()
	assert.Contains(t, string(data), `"lastWorklogId": null`)
}

func TestPruneOlderThan(t *testing.T) {
	c := &clock{base}
	l := New(&MemoryStorage{}, Options{Now: c.Now})
	l.Record(entry("old", base.AddDate(0, 0, -31)))
	l.Record(entry("new", base.AddDate(0, 0, -2)))

	assert.Equal(t, 1, l.PruneOlderThan(30))

	_, ok := l.FindByID("old")
	assert.False(t, ok)
	last, ok := l.FindLast()
	require.True(t, ok)
	assert.Equal(t, "new", last.ID)
}

func TestMaybeCleanupRunsOncePerDay(t *testing.T) {
	c := &clock{base}
	l := New(&MemoryStorage{}, Options{Now: c.Now})
	l.Record(entry("a", base.AddDate(0, 0, -40)))

	assert.Equal(t, 1, l.MaybeCleanup())

	l.Record(entry("b", base.AddDate(0, 0, -40)))
	c.t = base.Add(2 * time.Hour)
	assert.Equal(t, 0, l.MaybeCleanup(), "swept less than a day ago")

	c.t = base.Add(25 * time.Hour)
	assert.Equal(t, 1, l.MaybeCleanup())
}

func TestRecent(t *testing.T) {
	l := New(&MemoryStorage{}, Options{Now: (&clock{base}).Now})
	l.Record(entry("a", base.AddDate(0, 0, -10)))
	l.Record(entry("b", base.AddDate(0, 0, -1)))

	recent := l.Recent(7)
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].ID)
}

func TestUnreadableStorageDegrades(t *testing.T) {
	store := &MemoryStorage{ReadErr: errors.New("permission denied")}
	l := New(store, Options{})

	assert.False(t, l.Record(entry("1", base)))
	_, ok := l.FindLast()
	assert.False(t, ok)
	assert.Empty(t, l.Entries())
	assert.False(t, l.Remove("1"))
	assert.Zero(t, l.PruneOlderThan(1))
	assert.Zero(t, l.MaybeCleanup())
}

func TestCorruptStorageIsNotOverwritten(t *testing.T) {
	store := &MemoryStorage{}
	require.NoError(t, store.Write([]byte(`{not json`)))
	l := New(store, Options{})

	assert.False(t, l.Record(entry("1", base)))

	data, _ := store.Read()
	assert.Equal(t, `{not json`, string(data))
}

func TestUnwritableStorageDegrades(t *testing.T) {
	store := &MemoryStorage{WriteErr: errors.New("disk full")}
	l := New(store, Options{})

	assert.False(t, l.Record(entry("1", base)))
	_, ok := l.FindByID("1")
	assert.False(t, ok)
}

func TestFileStorageRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	fs, err := NewFileStorage()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "bookr", "worklogs.json"), fs.Path)

	data, err := fs.Read()
	require.NoError(t, err)
	assert.Nil(t, data, "missing file reads as empty")

	l := New(fs, Options{})
	require.True(t, l.Record(entry("1", base)))

	raw, err := os.ReadFile(fs.Path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"lastWorklogId": "1"`)

	matches, _ := filepath.Glob(filepath.Join(tmp, "bookr", "*.tmp"))
	assert.Empty(t, matches, "no temp files are left behind")

	again := New(fs, Options{})
	last, ok := again.FindLast()
	require.True(t, ok)
	assert.Equal(t, "1", last.ID)
}

// Feature: bookr, Property 7: The ledger never exceeds its cap and the pointer is the last recorded entry
func TestLedgerCapProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 10).Draw(t, "cap")
		n := rapid.IntRange(1, 30).Draw(t, "n")
		l := New(&MemoryStorage{}, Options{Cap: limit})

		for i := 0; i < n; i++ {
			l.Record(entry(fmt.Sprint(i), base))
		}

		if got := len(l.Entries()); got > limit {
			t.Fatalf("%d entries with cap %d", got, limit)
		}
		last, ok := l.FindLast()
		if !ok || last.ID != fmt.Sprint(n-1) {
			t.Fatalf("last = %q, %v; want %d", last.ID, ok, n-1)
		}
	})
}
