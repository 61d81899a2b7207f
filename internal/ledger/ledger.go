// Package ledger is the local record of worklogs created through bookr. It
// remembers the most recent one so `bookr undo` works without arguments.
package ledger

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Onnokh/bookr/internal/worklog"
)

const (
	DefaultCap           = 100
	DefaultRetentionDays = 30
	cleanupInterval      = 24 * time.Hour
)

type Author struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// Entry is one worklog created through bookr.
type Entry struct {
	ID               string             `json:"id"`
	SecondaryID      string             `json:"secondaryId,omitempty"`
	IssueKey         string             `json:"issueKey"`
	IssueID          string             `json:"issueId"`
	IssueSummary     string             `json:"issueSummary"`
	TimeSpent        string             `json:"timeSpent"`
	TimeSpentSeconds int                `json:"timeSpentSeconds"`
	Comment          string             `json:"comment,omitempty"`
	Started          time.Time          `json:"started"`
	CreatedAt        time.Time          `json:"createdAt"`
	Author           Author             `json:"author"`
	Source           worklog.Provenance `json:"source"`
}

// Matches reports whether id is either identifier of e.
func (e Entry) Matches(id string) bool {
	return id != "" && (e.ID == id || e.SecondaryID == id)
}

// Record converts e into the canonical worklog record.
func (e Entry) Record() worklog.Record {
	return worklog.Record{
		ID:          e.ID,
		SecondaryID: e.SecondaryID,
		Seconds:     e.TimeSpentSeconds,
		Comment:     e.Comment,
		Started:     e.Started,
		Issue:       worklog.IssueRef{ID: e.IssueID, Key: e.IssueKey, Summary: e.IssueSummary},
		Provenance:  e.Source,
	}
}

type document struct {
	Worklogs    []Entry   `json:"worklogs"`
	LastID      *string   `json:"lastWorklogId"`
	LastCleanup time.Time `json:"lastCleanup"`
}

type Options struct {
	// Cap is the maximum number of entries kept. Zero means DefaultCap.
	Cap int
	// RetentionDays is the age sweep threshold. Zero means DefaultRetentionDays.
	RetentionDays int
	Now           func() time.Time
	Logger        zerolog.Logger
}

// Ledger reads and rewrites the whole document on every operation. Storage
// failures never surface to callers: they are logged and the operation
// becomes a no-op.
type Ledger struct {
	mu        sync.Mutex
	store     Storage
	cap       int
	retention int
	now       func() time.Time
	logger    zerolog.Logger
}

func New(store Storage, opts Options) *Ledger {
	l := &Ledger{
		store:     store,
		cap:       opts.Cap,
		retention: opts.RetentionDays,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if l.cap <= 0 {
		l.cap = DefaultCap
	}
	if l.retention <= 0 {
		l.retention = DefaultRetentionDays
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// load returns the current document. ok is false when the storage could not
// be read or parsed, in which case nothing must be written back.
func (l *Ledger) load() (document, bool) {
	data, err := l.store.Read()
	if err != nil {
		l.logger.Warn().Err(err).Msg("worklog ledger unreadable")
		return document{}, false
	}
	var doc document
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, true
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		l.logger.Warn().Err(err).Msg("worklog ledger is corrupt")
		return document{}, false
	}
	return doc, true
}

func (l *Ledger) save(doc document) bool {
	if doc.Worklogs == nil {
		doc.Worklogs = []Entry{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		l.logger.Warn().Err(err).Msg("encoding worklog ledger")
		return false
	}
	if err := l.store.Write(data); err != nil {
		l.logger.Warn().Err(err).Msg("worklog ledger unwritable")
		return false
	}
	return true
}

// Record prepends e, makes it the most recent entry and enforces the cap.
// It reports whether the entry was persisted.
func (l *Ledger) Record(e Entry) bool {
	if e.ID == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, ok := l.load()
	if !ok {
		return false
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now()
	}
	doc.Worklogs = append([]Entry{e}, doc.Worklogs...)
	if len(doc.Worklogs) > l.cap {
		doc.Worklogs = doc.Worklogs[:l.cap]
	}
	id := e.ID
	doc.LastID = &id
	return l.save(doc)
}

// Entries returns every entry, most recently recorded first.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, _ := l.load()
	return doc.Worklogs
}

// FindByID returns the entry whose canonical or secondary ID equals id.
func (l *Ledger) FindByID(id string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, _ := l.load()
	for _, e := range doc.Worklogs {
		if e.Matches(id) {
			return e, true
		}
	}
	return Entry{}, false
}

// FindLast returns the most recently recorded entry. A pointer to an entry
// that no longer exists is cleared.
func (l *Ledger) FindLast() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, ok := l.load()
	if !ok || doc.LastID == nil {
		return Entry{}, false
	}
	for _, e := range doc.Worklogs {
		if e.ID == *doc.LastID {
			return e, true
		}
	}
	doc.LastID = nil
	l.save(doc)
	return Entry{}, false
}

// Remove drops the entry matching id and reports whether one was removed.
func (l *Ledger) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, ok := l.load()
	if !ok {
		return false
	}
	kept := doc.Worklogs[:0]
	removed := false
	for _, e := range doc.Worklogs {
		if e.Matches(id) {
			removed = true
			if doc.LastID != nil && *doc.LastID == e.ID {
				doc.LastID = nil
			}
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return false
	}
	doc.Worklogs = kept
	return l.save(doc)
}

// PruneOlderThan removes entries created more than days ago and returns how
// many were removed.
func (l *Ledger) PruneOlderThan(days int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, ok := l.load()
	if !ok {
		return 0
	}
	n := l.prune(&doc, days)
	if !l.save(doc) {
		return 0
	}
	return n
}

func (l *Ledger) prune(doc *document, days int) int {
	now := l.now()
	cutoff := now.AddDate(0, 0, -days)
	kept := doc.Worklogs[:0]
	n := 0
	for _, e := range doc.Worklogs {
		if e.CreatedAt.Before(cutoff) {
			n++
			if doc.LastID != nil && *doc.LastID == e.ID {
				doc.LastID = nil
			}
			continue
		}
		kept = append(kept, e)
	}
	doc.Worklogs = kept
	doc.LastCleanup = now
	return n
}

// MaybeCleanup runs the retention sweep unless one already ran within the
// last day. It returns how many entries were removed.
func (l *Ledger) MaybeCleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, ok := l.load()
	if !ok {
		return 0
	}
	if !doc.LastCleanup.IsZero() && l.now().Sub(doc.LastCleanup) < cleanupInterval {
		return 0
	}
	n := l.prune(&doc, l.retention)
	if !l.save(doc) {
		return 0
	}
	if n > 0 {
		l.logger.Debug().Int("removed", n).Msg("pruned worklog ledger")
	}
	return n
}

// Recent returns entries that started within the last days days.
func (l *Ledger) Recent(days int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	doc, _ := l.load()
	cutoff := l.now().AddDate(0, 0, -days)
	var out []Entry
	for _, e := range doc.Worklogs {
		if !e.Started.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}
