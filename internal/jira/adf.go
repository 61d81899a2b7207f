package jira

import (
	"encoding/json"
	"strings"
)

// Doc is the subset of the Atlassian document format bookr reads and writes.
type Doc struct {
	Type    string `json:"type"`
	Version int    `json:"version,omitempty"`
	Text    string `json:"text,omitempty"`
	Content []Doc  `json:"content,omitempty"`
}

// Paragraph wraps plain text in a one-paragraph document.
func Paragraph(text string) *Doc {
	return &Doc{
		Type:    "doc",
		Version: 1,
		Content: []Doc{{
			Type:    "paragraph",
			Content: []Doc{{Type: "text", Text: text}},
		}},
	}
}

// FlattenADF returns the text nodes of a document joined by single spaces.
// A JSON string is returned as is; anything else yields "".
func FlattenADF(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var d Doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return ""
	}
	var parts []string
	collectText(d, &parts)
	return strings.Join(parts, " ")
}

func collectText(d Doc, parts *[]string) {
	if d.Type == "text" && d.Text != "" {
		*parts = append(*parts, d.Text)
	}
	for _, c := range d.Content {
		collectText(c, parts)
	}
}
