package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fakeFetcher struct {
	mu       sync.Mutex
	calls    map[string]int
	fail     map[string]bool
	delay    time.Duration
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeFetcher) FetchIssue(_ context.Context, id string) (Info, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[id]++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail[id] {
		return Info{}, errors.New("issue does not exist")
	}
	return Info{Key: "PROJ-" + id, Summary: "summary " + id}, nil
}

func TestEnrichSkipsFailedLookups(t *testing.T) {
	f := &fakeFetcher{fail: map[string]bool{"2": true}}

	got := New(f).Enrich(context.Background(), []string{"1", "2", "3"})

	require.Len(t, got, 2)
	assert.Equal(t, Info{Key: "PROJ-1", Summary: "summary 1"}, got["1"])
	assert.Equal(t, Info{Key: "PROJ-3", Summary: "summary 3"}, got["3"])
	_, ok := got["2"]
	assert.False(t, ok, "failed lookup must be absent")
}

func TestEnrichDedupesAndDropsEmpty(t *testing.T) {
	f := &fakeFetcher{}

	got := New(f).Enrich(context.Background(), []string{"7", "", "7", "8", "7"})

	assert.Len(t, got, 2)
	assert.Equal(t, 1, f.calls["7"])
	assert.Equal(t, 1, f.calls["8"])
	_, ok := f.calls[""]
	assert.False(t, ok)
}

func TestEnrichBoundsConcurrency(t *testing.T) {
	f := &fakeFetcher{delay: 5 * time.Millisecond}
	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}

	e := New(f)
	e.Workers = 3
	got := e.Enrich(context.Background(), ids)

	assert.Len(t, got, 40)
	assert.LessOrEqual(t, int(f.peak.Load()), 3)
}

func TestEnrichStopsOnCancelledContext(t *testing.T) {
	f := &fakeFetcher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := New(f).Enrich(ctx, []string{"1", "2", "3"})
	assert.Empty(t, got)
}

func TestEnrichEmptyInput(t *testing.T) {
	assert.Empty(t, New(&fakeFetcher{}).Enrich(context.Background(), nil))
}

// Feature: bookr, Property 3: Every unique ID is fetched exactly once
func TestEnrichFetchesEachIDOnce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOf(rapid.StringMatching(`[0-9]{1,3}`)).Draw(rt, "ids")
		failing := rapid.SliceOf(rapid.StringMatching(`[0-9]{1,3}`)).Draw(rt, "failing")

		f := &fakeFetcher{fail: map[string]bool{}}
		for _, id := range failing {
			f.fail[id] = true
		}
		got := New(f).Enrich(context.Background(), ids)

		unique := map[string]bool{}
		for _, id := range ids {
			unique[id] = true
		}
		for id := range unique {
			if f.calls[id] != 1 {
				rt.Fatalf("id %q fetched %d times", id, f.calls[id])
			}
			_, present := got[id]
			if present == f.fail[id] {
				rt.Fatalf("id %q: present=%v but fail=%v", id, present, f.fail[id])
			}
		}
	})
}
