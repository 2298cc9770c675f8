package entity

import (
	"sort"
	"time"
)

// Standard columns present on every scoped entity
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Record is one row of a scoped entity, keyed by column (or UI field) name.
type Record map[string]any

// Clone returns a shallow copy of r
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ID returns the record identifier as a string, or "" when absent
func (r Record) ID() string {
	switch v := r[FieldID].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// CreatedAt returns the creation timestamp, accepting the forms it takes
// after a database scan (time.Time) or a JSON round trip (RFC 3339 string).
func (r Record) CreatedAt() time.Time {
	return timeValue(r[FieldCreatedAt])
}

// NormalizeTimes converts string timestamps back to time.Time in place.
func (r Record) NormalizeTimes() Record {
	for _, key := range []string{FieldCreatedAt, FieldUpdatedAt} {
		if s, ok := r[key].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				r[key] = t
			}
		}
	}
	return r
}

func timeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SortNewestFirst orders records by creation time, newest first. Records
// without a timestamp sink to the end; ties keep their relative order.
func SortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt().After(records[j].CreatedAt())
	})
}
