// Package standings picks the team standings table out of a page's
// candidate tables and turns it into validated team records.
package standings

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result is the complete record of one extraction run.
type Result struct {
	Date      string       `json:"date"`
	SourceURL string       `json:"source_url"`
	League    string       `json:"league"`
	Teams     []TeamRecord `json:"teams"`
}

// NewResult returns a result with an empty (non-nil) team list.
func NewResult(date, sourceURL, league string) *Result {
	return &Result{
		Date:      date,
		SourceURL: sourceURL,
		League:    league,
		Teams:     []TeamRecord{},
	}
}

// TeamRecord is one team row of the selected table.
type TeamRecord struct {
	TeamRaw string  `json:"team_raw"`
	Team    string  `json:"team"`
	Metrics Metrics `json:"metrics"`
}

// Metric is a single labelled statistic.
type Metric struct {
	Label string
	Value string
}

// Metrics keeps the column order of the source table. It serializes as a
// JSON object whose keys appear in that order.
type Metrics []Metric

// Get returns the value for label.
func (m Metrics) Get(label string) (string, bool) {
	for _, kv := range m {
		if kv.Label == label {
			return kv.Value, true
		}
	}
	return "", false
}

// Labels returns the metric labels in order.
func (m Metrics) Labels() []string {
	out := make([]string, len(m))
	for i, kv := range m {
		out[i] = kv.Label
	}
	return out
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, kv.Label); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, kv.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeString encodes s without HTML escaping so labels like "W&D" stay
// readable in the pretty document.
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
	return nil
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("metrics: expected object, got %v", tok)
	}

	out := Metrics{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("metrics: expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("metrics: value for %q: %w", key, err)
		}
		out = append(out, Metric{Label: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}
