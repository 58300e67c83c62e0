package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// flexID accepts identifiers sent either as JSON strings or as JSON numbers
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number, got %s", data)
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string {
	return string(f)
}

// accepted date layouts, most specific first
var dateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
}

// flexTime accepts epoch milliseconds or any of dateFormats. Missing values stay zero.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.Time = time.Time{}
		return nil
	}

	if len(data) > 0 && data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp must be epoch milliseconds or a date string, got %s", data)
		}
		f.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		f.Time = time.Time{}
		return nil
	}

	parsed, err := parseDate(s)
	if err != nil {
		return err
	}
	f.Time = parsed
	return nil
}

func (f flexTime) ptr() *time.Time {
	if f.IsZero() {
		return nil
	}
	t := f.Time
	return &t
}

// or returns fallback when no timestamp was sent
func (f flexTime) or(fallback time.Time) time.Time {
	if f.IsZero() {
		return fallback
	}
	return f.Time
}

func parseDate(s string) (time.Time, error) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// transformAll converts provider records to canonical ones; one bad record fails the whole list
func transformAll[P, T any](records []P, convert func(P) (T, error)) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, record := range records {
		item, err := convert(record)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
