package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// normalizePage clamps 1-based page/size the way the list endpoints expect.
func normalizePage(page, size, defSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defSize
	}
	return page, size
}

func pageBounds(total, page, size int) (int, int) {
	return PageWindow(total, page, size)
}

// PageWindow returns the [start, end) slice bounds of 1-based page in a list
// of total items. Pages past the end yield (total, total). The page number is
// compared before multiplying so that huge pages cannot overflow.
func PageWindow(total, page, size int) (int, int) {
	if total <= 0 || page <= 0 || size <= 0 || page-1 > (total-1)/size {
		return total, total
	}
	start := (page - 1) * size
	end := start + size
	if end > total || end < start {
		end = total
	}
	return start, end
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullFloatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// ptrArg turns an optional string into a driver value (NULL when nil).
func ptrArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func floatArg(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func marshalAttributes(attrs map[string]any) ([]byte, error) {
	if len(attrs) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(attrs)
}

func unmarshalAttributes(raw []byte) map[string]any {
	attrs := map[string]any{}
	if len(raw) == 0 {
		return attrs
	}
	_ = json.Unmarshal(raw, &attrs)
	return attrs
}

func copyAttributes(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
