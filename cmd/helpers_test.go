package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Onnokh/bookr/internal/prompt"
	"github.com/Onnokh/bookr/internal/worklog"
)

// fixedNow is a Tuesday afternoon.
var fixedNow = time.Date(2026, 3, 10, 15, 4, 5, 0, time.Local)

type fakeIssue struct {
	ID, Key, Summary string
}

// fakeAPI serves the Jira endpoints under /rest and Tempo under /tempo.
type fakeAPI struct {
	mu sync.Mutex

	issues       []fakeIssue
	tempoLogs    []map[string]any
	jiraCreated  []map[string]any
	jiraLogs     map[string][]map[string]any
	tempoCreated []map[string]any
	deleted      []string
	requests     []string

	boards      []map[string]any
	sprints     []map[string]any
	scheme      map[string]any
	deleteCode  int
	nextTempoID int
	nextJiraID  int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		issues: []fakeIssue{
			{ID: "10001", Key: "PROJ-1", Summary: "Add login"},
			{ID: "10002", Key: "PROJ-2", Summary: "Fix logout"},
		},
		boards:      []map[string]any{},
		jiraLogs:    map[string][]map[string]any{},
		nextTempoID: 900,
		nextJiraID:  500,
	}
}

func (f *fakeAPI) issue(keyOrID string) (fakeIssue, bool) {
	for _, is := range f.issues {
		if strings.EqualFold(is.Key, keyOrID) || is.ID == keyOrID {
			return is, true
		}
	}
	return fakeIssue{}, false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	body, _ := io.ReadAll(r.Body)
	var in map[string]any
	if len(body) > 0 {
		_ = json.Unmarshal(body, &in)
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	path := r.URL.Path

	switch {
	case path == "/rest/api/3/myself":
		writeJSON(w, map[string]any{"accountId": "acc-1", "displayName": "Dev One", "emailAddress": "dev@acme.io"})

	case r.Method == http.MethodPost && len(parts) == 6 && parts[5] == "worklog":
		is, ok := f.issue(parts[4])
		if !ok {
			http.NotFound(w, r)
			return
		}
		f.nextJiraID++
		in["issue"] = is.Key
		f.jiraCreated = append(f.jiraCreated, in)
		f.jiraLogs[is.Key] = append(f.jiraLogs[is.Key], map[string]any{
			"id": strconv.Itoa(f.nextJiraID), "timeSpentSeconds": in["timeSpentSeconds"],
			"started": in["started"], "author": map[string]any{"accountId": "acc-1"},
		})
		writeJSON(w, map[string]any{"id": strconv.Itoa(f.nextJiraID), "issueId": is.ID, "timeSpentSeconds": in["timeSpentSeconds"], "started": in["started"]})

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/rest/api/3/issue/"):
		f.delete(w, parts[len(parts)-1])

	case r.Method == http.MethodGet && len(parts) == 6 && parts[5] == "worklog":
		logs := f.jiraLogs[parts[4]]
		writeJSON(w, map[string]any{"startAt": 0, "total": len(logs), "worklogs": logs})

	case path == "/rest/api/3/search":
		var issues []map[string]any
		for _, is := range f.issues {
			if len(f.jiraLogs[is.Key]) > 0 {
				issues = append(issues, map[string]any{"id": is.ID, "key": is.Key, "fields": map[string]any{"summary": is.Summary}})
			}
		}
		writeJSON(w, map[string]any{"startAt": 0, "total": len(issues), "issues": issues})

	case r.Method == http.MethodGet && len(parts) == 5 && parts[3] == "issue":
		is, ok := f.issue(parts[4])
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"id": is.ID, "key": is.Key, "fields": map[string]any{"summary": is.Summary}})

	case path == "/rest/agile/1.0/board":
		writeJSON(w, map[string]any{"values": f.boards, "isLast": true})

	case strings.HasPrefix(path, "/rest/agile/1.0/board/") && strings.HasSuffix(path, "/sprint"):
		var out []map[string]any
		for _, s := range f.sprints {
			if st := r.URL.Query().Get("state"); st == "" || strings.Contains(st, s["state"].(string)) {
				out = append(out, s)
			}
		}
		writeJSON(w, map[string]any{"values": out, "isLast": true})

	case strings.HasPrefix(path, "/tempo/worklogs/user/"):
		writeJSON(w, map[string]any{
			"results":  f.tempoLogs,
			"metadata": map[string]any{"count": len(f.tempoLogs), "offset": 0, "limit": 1000},
		})

	case r.Method == http.MethodPost && path == "/tempo/worklogs":
		f.nextTempoID++
		f.tempoCreated = append(f.tempoCreated, in)
		created := map[string]any{
			"tempoWorklogId":   f.nextTempoID,
			"jiraWorklogId":    f.nextTempoID + 10000,
			"timeSpentSeconds": in["timeSpentSeconds"],
			"startDate":        in["startDate"],
			"startTime":        in["startTime"],
			"description":      in["description"],
			"issue":            map[string]any{"id": in["issueId"]},
		}
		f.tempoLogs = append(f.tempoLogs, created)
		writeJSON(w, created)

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/tempo/worklogs/"):
		f.delete(w, parts[len(parts)-1])

	case strings.HasPrefix(path, "/tempo/workload-schemes/users/"):
		if f.scheme == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, f.scheme)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) delete(w http.ResponseWriter, id string) {
	if f.deleteCode != 0 {
		w.WriteHeader(f.deleteCode)
		return
	}
	f.deleted = append(f.deleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) sawRequest(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	return false
}

// tempoLog is a Tempo worklog as returned by the list endpoint.
func tempoLog(id int, issueID string, seconds int, day, clock, desc string) map[string]any {
	return map[string]any{
		"tempoWorklogId":   id,
		"jiraWorklogId":    id + 10000,
		"timeSpentSeconds": seconds,
		"startDate":        day,
		"startTime":        clock,
		"description":      desc,
		"issue":            map[string]any{"id": issueID},
	}
}

// setupEnv isolates config, data and cache dirs, points bookr at api and
// stubs every interactive and time-dependent hook.
func setupEnv(t *testing.T, api *fakeAPI, withTempo bool) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("JIRA_BASE_URL", srv.URL)
	t.Setenv("JIRA_EMAIL", "dev@acme.io")
	t.Setenv("JIRA_API_TOKEN", "secret")
	t.Setenv("TEMPO_BASE_URL", srv.URL+"/tempo")
	t.Setenv("LOG_LEVEL", "debug")
	if withTempo {
		t.Setenv("TEMPO_API_TOKEN", "tempo-secret")
	} else {
		t.Setenv("TEMPO_API_TOKEN", "")
	}

	stub(t, &now, func() time.Time { return fixedNow })
	stub(t, &isInteractive, func() bool { return false })
	stub(t, &branch, func() (string, error) { return "main", nil })
	stub(t, &confirm, func(string, string) (bool, error) {
		t.Error("unexpected confirmation prompt")
		return false, nil
	})
	stub(t, &pick, func(string, []worklog.Record) (worklog.Record, bool, error) {
		t.Error("unexpected picker")
		return worklog.Record{}, false, nil
	})
	stub(t, &initForm, func(prompt.Credentials) (prompt.Credentials, error) {
		t.Error("unexpected init form")
		return prompt.Credentials{}, prompt.ErrAborted
	})
}

func stub[T any](t *testing.T, target *T, v T) {
	t.Helper()
	orig := *target
	*target = v
	t.Cleanup(func() { *target = orig })
}

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	resetFlags(root)
	app = nil
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	if app != nil && app.closer != nil {
		_ = app.closer.Close()
	}
	return buf.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
