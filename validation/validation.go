package validation

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Violations maps a field name to a message code (translated by i18n).
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already has a violation,
// so the first failing rule wins.
func (v Violations) Add(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}

// Has reports whether field has a violation.
func (v Violations) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

// Date parses value with layout; empty values are reported as required.
func Date(field, value, layout string, v Violations) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		v.Add(field, "required")
		return time.Time{}
	}
	d, err := time.Parse(layout, value)
	if err != nil {
		v.Add(field, "invalid_date")
		return time.Time{}
	}
	return d
}

// MaxLength flags values longer than limit characters with "too_long".
func MaxLength(field, value string, limit int, v Violations) {
	if utf8.RuneCountInString(value) > limit {
		v.Add(field, "too_long")
	}
}

// MaxBytes flags sizes above limit with code.
func MaxBytes(field string, size, limit int64, code string, v Violations) {
	if size > limit {
		v.Add(field, code)
	}
}

// MimeType flags content types outside allowed with code.
func MimeType(field, contentType string, allowed []string, code string, v Violations) {
	if !slices.Contains(allowed, contentType) {
		v.Add(field, code)
	}
}
