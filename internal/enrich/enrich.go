// Package enrich resolves the bare issue IDs carried by time-tracking
// worklogs into display keys and summaries.
package enrich

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the number of in-flight issue lookups.
const DefaultWorkers = 5

// Info is the display data for one issue.
type Info struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
}

// Fetcher looks up a single issue by its numeric ID (or key).
type Fetcher interface {
	FetchIssue(ctx context.Context, id string) (Info, error)
}

// Enricher fetches each unique issue at most once per call with a fixed
// pool of workers pulling from a shared cursor.
type Enricher struct {
	Fetcher Fetcher
	Workers int
	Logger  zerolog.Logger
}

// New returns an Enricher with the default worker count and a no-op logger.
func New(f Fetcher) *Enricher {
	return &Enricher{Fetcher: f, Workers: DefaultWorkers, Logger: zerolog.Nop()}
}

// Enrich resolves ids and returns the ones that could be looked up. A failed
// lookup is logged and the ID is left out of the map, so callers render it
// as an unknown issue instead of failing the whole command.
func (e *Enricher) Enrich(ctx context.Context, ids []string) map[string]Info {
	unique := dedupe(ids)
	out := make(map[string]Info, len(unique))
	if len(unique) == 0 || e.Fetcher == nil {
		return out
	}

	workers := e.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(unique) {
		workers = len(unique)
	}

	var (
		mu     sync.Mutex
		cursor atomic.Int64
		g      errgroup.Group
	)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if ctx.Err() != nil {
					return nil
				}
				i := int(cursor.Add(1) - 1)
				if i >= len(unique) {
					return nil
				}
				id := unique[i]
				info, err := e.Fetcher.FetchIssue(ctx, id)
				if err != nil {
					e.Logger.Warn().Err(err).Str("issue_id", id).Msg("issue lookup failed")
					continue
				}
				mu.Lock()
				out[id] = info
				mu.Unlock()
			}
		})
	}
	_ = g.Wait()
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
