package models

import (
	"fmt"
	"sort"
	"strings"
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every field failure found while building a value.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Details maps each field to its message for the error response body.
// When a field fails more than once the messages are joined.
func (v ValidationErrors) Details() map[string]interface{} {
	grouped := make(map[string][]string, len(v))
	for _, fe := range v {
		grouped[fe.Field] = append(grouped[fe.Field], fe.Message)
	}
	details := make(map[string]interface{}, len(grouped))
	for field, msgs := range grouped {
		details[field] = strings.Join(msgs, "; ")
	}
	return details
}

// Prefixed returns a copy with prefix prepended to every field name.
func (v ValidationErrors) Prefixed(prefix string) ValidationErrors {
	out := make(ValidationErrors, len(v))
	for i, fe := range v {
		out[i] = FieldError{Field: prefix + fe.Field, Message: fe.Message}
	}
	return out
}

// Fields returns the distinct failing field names, sorted.
func (v ValidationErrors) Fields() []string {
	seen := make(map[string]bool, len(v))
	fields := make([]string, 0, len(v))
	for _, fe := range v {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			fields = append(fields, fe.Field)
		}
	}
	sort.Strings(fields)
	return fields
}

func indexPrefix(collection string, i int) string {
	return fmt.Sprintf("%s[%d].", collection, i)
}
