package report

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Onnokh/bookr/internal/worklog"
)

type document struct {
	Title   string        `json:"title" yaml:"title"`
	From    string        `json:"from,omitempty" yaml:"from,omitempty"`
	To      string        `json:"to,omitempty" yaml:"to,omitempty"`
	Notes   []string      `json:"notes,omitempty" yaml:"notes,omitempty"`
	Summary Summary       `json:"summary" yaml:"summary"`
	Days    []worklog.Day `json:"days" yaml:"days"`
}

func toDocument(r *Report) document {
	d := document{
		Title:   r.Title,
		Notes:   r.Notes,
		Summary: r.Summarize(),
		Days:    r.View.Days,
	}
	if d.Days == nil {
		d.Days = []worklog.Day{}
	}
	if !r.From.IsZero() {
		d.From = r.From.Format(time.DateOnly)
	}
	if !r.To.IsZero() {
		d.To = r.To.Format(time.DateOnly)
	}
	return d
}

// JSONRenderer renders a Report as indented JSON.
type JSONRenderer struct{}

func (j *JSONRenderer) Render(r *Report) ([]byte, error) {
	b, err := json.MarshalIndent(toDocument(r), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// YAMLRenderer renders a Report as YAML.
type YAMLRenderer struct{}

func (y *YAMLRenderer) Render(r *Report) ([]byte, error) {
	return yaml.Marshal(toDocument(r))
}
