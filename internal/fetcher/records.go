package fetcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sessionchart/internal/live"
)

// FileEntry is one recorded session as listed by the backend.
type FileEntry struct {
	ID   string `json:"id"`
	Date string `json:"date,omitempty"`
	Name string `json:"name,omitempty"`
}

var strategyMarker = regexp.MustCompile(`^[BK]\s*`)

// Label is the display name: date when known, else name, minus the strategy marker.
func (f FileEntry) Label() string {
	label := f.Date
	if label == "" {
		label = f.Name
	}
	if label == "" {
		label = f.ID
	}
	return strategyMarker.ReplaceAllString(label, "")
}

// RawRecord is one stored observation: a timestamp plus named fields.
type RawRecord struct {
	Time   string
	Fields map[string]decimal.Decimal
	Labels map[string]string
}

// Field returns a numeric field by name.
func (r RawRecord) Field(name string) (decimal.Decimal, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// UnmarshalJSON splits a flat row into its time, numeric fields and text labels.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rec := RawRecord{
		Fields: make(map[string]decimal.Decimal, len(raw)),
		Labels: make(map[string]string),
	}
	for key, value := range raw {
		value = bytes.TrimSpace(value)
		if len(value) == 0 || bytes.Equal(value, []byte("null")) {
			continue
		}
		if key == "time" {
			var code live.TimeCode
			if err := code.UnmarshalJSON(value); err != nil {
				return fmt.Errorf("decode time: %w", err)
			}
			rec.Time = string(code)
			continue
		}

		var d decimal.Decimal
		if err := d.UnmarshalJSON(value); err == nil {
			rec.Fields[key] = d
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			rec.Labels[key] = s
		}
	}

	*r = rec
	return nil
}

var recordTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
}

// Timestamp resolves the record time. Clock-only values land on day's date.
func (r RawRecord) Timestamp(day time.Time) (time.Time, error) {
	s := strings.TrimSpace(r.Time)
	if s == "" {
		return time.Time{}, fmt.Errorf("record has no time")
	}

	for _, layout := range recordTimeLayouts {
		if ts, err := time.ParseInLocation(layout, s, day.Location()); err == nil {
			return ts, nil
		}
	}
	for _, layout := range clockLayouts {
		if clock, err := time.Parse(layout, s); err == nil {
			y, m, d := day.Date()
			return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, day.Location()), nil
		}
	}
	if ts, err := live.TimeCode(s).On(day); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised record time %q", s)
}
