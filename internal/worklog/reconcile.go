package worklog

import (
	"sort"
	"time"

	"github.com/Onnokh/bookr/internal/enrich"
)

// Day groups the records that started on one local calendar date.
type Day struct {
	Date    time.Time `json:"date" yaml:"date"`
	Key     string    `json:"key" yaml:"key"`
	Entries []Record  `json:"entries" yaml:"entries"`
	Total   int       `json:"totalSeconds" yaml:"totalSeconds"`
}

// View is the deduplicated, date-grouped projection of a batch of records.
type View struct {
	Days         []Day `json:"days" yaml:"days"`
	Total        int   `json:"totalSeconds" yaml:"totalSeconds"`
	Count        int   `json:"count" yaml:"count"`
	UniqueIssues int   `json:"uniqueIssues" yaml:"uniqueIssues"`
}

// Reconcile joins enrichment onto records, drops cross-namespace duplicates,
// groups by local start date and computes totals. Days are ascending; entries
// within a day are ordered by start time, ties keep input order.
func Reconcile(records []Record, enrichment map[string]enrich.Info) View {
	merged := dedupe(records)

	byDate := make(map[string]*Day)
	issues := make(map[string]struct{})
	var v View
	for _, r := range merged {
		r.Seconds = ClampSeconds(r.Seconds)
		if info, ok := enrichment[r.Issue.ID]; ok && r.Issue.ID != "" {
			if r.Issue.Key == "" {
				r.Issue.Key = info.Key
			}
			if r.Issue.Summary == "" {
				r.Issue.Summary = info.Summary
			}
		}

		local := r.Started.In(time.Local)
		key := local.Format(DateLayout)
		d, ok := byDate[key]
		if !ok {
			d = &Day{Date: StartOfDay(local), Key: key}
			byDate[key] = d
		}
		d.Entries = append(d.Entries, r)
		d.Total += r.Seconds

		v.Total += r.Seconds
		v.Count++
		issues[issueIdentity(r.Issue)] = struct{}{}
	}

	v.Days = make([]Day, 0, len(byDate))
	for _, d := range byDate {
		sort.SliceStable(d.Entries, func(i, j int) bool {
			return d.Entries[i].Started.Before(d.Entries[j].Started)
		})
		v.Days = append(v.Days, *d)
	}
	sort.Slice(v.Days, func(i, j int) bool { return v.Days[i].Key < v.Days[j].Key })
	v.UniqueIssues = len(issues)
	return v
}

// issueIdentity keys an issue by its display key, falling back to the
// numeric ID so distinct unknown issues are still counted separately.
func issueIdentity(ref IssueRef) string {
	switch {
	case ref.Key != "":
		return "key:" + ref.Key
	case ref.ID != "":
		return "id:" + ref.ID
	default:
		return "unknown"
	}
}

// namespacedIDs returns the lookup keys for r, qualified by the system each
// ID belongs to so a Tempo ID never collides with an unrelated Jira ID.
func namespacedIDs(r Record) []string {
	var ids []string
	if r.Provenance == FromTempo {
		if r.ID != "" {
			ids = append(ids, "tempo:"+r.ID)
		}
		if r.SecondaryID != "" {
			ids = append(ids, "jira:"+r.SecondaryID)
		}
		return ids
	}
	if r.ID != "" {
		ids = append(ids, "jira:"+r.ID)
	}
	if r.SecondaryID != "" {
		ids = append(ids, "tempo:"+r.SecondaryID)
	}
	return ids
}

// dedupe collapses records that describe the same logical worklog. The
// Tempo copy wins as canonical and the Jira ID is kept as SecondaryID. A
// record whose IDs hit two existing clusters joins them into one.
func dedupe(records []Record) []Record {
	out := make([]Record, 0, len(records))
	alive := make([]bool, 0, len(records))
	index := make(map[string]int, len(records)*2)

	for _, r := range records {
		ids := namespacedIDs(r)
		pos := -1
		for _, id := range ids {
			p, ok := index[id]
			if !ok || p == pos {
				continue
			}
			if pos < 0 {
				pos = p
				continue
			}
			lo, hi := min(pos, p), max(pos, p)
			out[lo] = merge(out[lo], out[hi])
			alive[hi] = false
			for k, v := range index {
				if v == hi {
					index[k] = lo
				}
			}
			pos = lo
		}
		if pos < 0 {
			pos = len(out)
			out = append(out, r)
			alive = append(alive, true)
		} else {
			out[pos] = merge(out[pos], r)
		}
		for _, id := range namespacedIDs(out[pos]) {
			index[id] = pos
		}
		for _, id := range ids {
			index[id] = pos
		}
	}

	kept := out[:0]
	for i, r := range out {
		if alive[i] {
			kept = append(kept, r)
		}
	}
	return kept
}

func merge(a, b Record) Record {
	canonical, other := a, b
	if b.Provenance == FromTempo && a.Provenance != FromTempo {
		canonical, other = b, a
	}
	if canonical.SecondaryID == "" {
		if jid := other.JiraID(); jid != "" && jid != canonical.ID {
			canonical.SecondaryID = jid
		}
	}
	if canonical.Comment == "" {
		canonical.Comment = other.Comment
	}
	if canonical.Started.IsZero() {
		canonical.Started = other.Started
	}
	if canonical.Issue.ID == "" {
		canonical.Issue.ID = other.Issue.ID
	}
	if canonical.Issue.Key == "" {
		canonical.Issue.Key = other.Issue.Key
	}
	if canonical.Issue.Summary == "" {
		canonical.Issue.Summary = other.Issue.Summary
	}
	return canonical
}

// Entries returns all records of the view in report order.
func (v View) Entries() []Record {
	out := make([]Record, 0, v.Count)
	for _, d := range v.Days {
		out = append(out, d.Entries...)
	}
	return out
}

// NewestFirst returns all records with the most recent start first, the
// order used for interactive selection.
func (v View) NewestFirst() []Record {
	out := v.Entries()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Started.After(out[j].Started) })
	return out
}

// Find returns the record whose canonical or secondary ID equals id.
func (v View) Find(id string) (Record, bool) {
	for _, d := range v.Days {
		for _, r := range d.Entries {
			if r.Matches(id) {
				return r, true
			}
		}
	}
	return Record{}, false
}
