package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// timeLayout is fixed-width UTC with full nanoseconds, so stored strings
// sort chronologically and read back equal to what was written.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// legacyLayouts parse rows written by older tools.
var legacyLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// nullableDurationToValue stores a duration as REAL seconds, or NULL.
func nullableDurationToValue(d *time.Duration) any {
	if d == nil {
		return nil
	}
	return d.Seconds()
}

// parseNullableDuration reads REAL seconds back into a duration, rounding
// to the nearest nanosecond.
func parseNullableDuration(f sql.NullFloat64) *time.Duration {
	if !f.Valid {
		return nil
	}
	d := time.Duration(math.Round(f.Float64 * float64(time.Second)))
	return &d
}

func nullableStringToValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func parseNullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// nullableJSON marshals v, storing NULL for a nil pointer.
func nullableJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// parseNullableJSON decodes a JSON text column; NULL yields nil.
func parseNullableJSON[T any](s sql.NullString) (*T, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}
