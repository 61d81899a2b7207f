package worklog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Onnokh/bookr/internal/enrich"
)

// Source fetches the raw worklog records of one user within a date range.
type Source interface {
	FetchForUser(ctx context.Context, userID string, from, to time.Time) ([]Record, error)
}

// Enricher resolves issue IDs to display data.
type Enricher interface {
	Enrich(ctx context.Context, ids []string) map[string]enrich.Info
}

// Loader runs fetch, enrich and reconcile for one user.
type Loader struct {
	Source   Source
	Enricher Enricher
	UserID   string
	Logger   zerolog.Logger
}

// Load returns the reconciled view for [from, to]. A fetch failure aborts the
// load; enrichment gaps only leave issues unresolved.
func (l *Loader) Load(ctx context.Context, from, to time.Time) (View, error) {
	l.Logger.Debug().Str("state", "fetching").Time("from", from).Time("to", to).Msg("loading worklogs")
	records, err := l.Source.FetchForUser(ctx, l.UserID, from, to)
	if err != nil {
		return View{}, fmt.Errorf("fetching worklogs: %w", err)
	}

	var info map[string]enrich.Info
	if l.Enricher != nil {
		ids := make([]string, 0, len(records))
		for _, r := range records {
			if r.Issue.Key == "" && r.Issue.ID != "" {
				ids = append(ids, r.Issue.ID)
			}
		}
		l.Logger.Debug().Str("state", "enriching").Int("issues", len(ids)).Msg("loading worklogs")
		info = l.Enricher.Enrich(ctx, ids)
	}

	l.Logger.Debug().Str("state", "reconciling").Int("records", len(records)).Msg("loading worklogs")
	return Reconcile(records, info), nil
}

// Today loads the view for the current local day.
func (l *Loader) Today(ctx context.Context, now time.Time) (View, error) {
	return l.Load(ctx, StartOfDay(now), EndOfDay(now))
}

// LastDays loads the view for the n calendar days ending today.
func (l *Loader) LastDays(ctx context.Context, now time.Time, n int) (View, error) {
	if n < 1 {
		n = 1
	}
	return l.Load(ctx, StartOfDay(now).AddDate(0, 0, -(n-1)), EndOfDay(now))
}
