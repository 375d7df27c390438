// Package providerconfig resolves per-request provider configuration from an
// explicit config object, top-level request fields, and envelope metadata.
package providerconfig

import (
	"fmt"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-messaging-providers/core"
)

// Schema is a closed set of optional string fields.
type Schema struct {
	fields []string
}

func NewSchema(fields ...string) Schema {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return Schema{fields: out}
}

func (s Schema) Known(field string) bool {
	for _, candidate := range s.fields {
		if candidate == field {
			return true
		}
	}
	return false
}

// Validate rejects unknown keys and non-string values. Null values are
// treated as absent and removed from the returned map.
func (s Schema) Validate(raw map[string]any) (map[string]any, error) {
	unknown := make([]string, 0)
	for key := range raw {
		if !s.Known(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, configError(
			fmt.Sprintf("unknown field %q, expected one of %s", unknown[0], strings.Join(s.fields, ", ")),
			goerrors.FieldError{Field: unknown[0], Message: "unknown field"},
		)
	}
	return s.validateTypes(raw)
}

func (s Schema) validateTypes(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for _, field := range s.fields {
		value, ok := raw[field]
		if !ok || value == nil {
			continue
		}
		text, isString := value.(string)
		if !isString {
			return nil, configError(
				fmt.Sprintf("invalid type for field %q: expected string, got %T", field, value),
				goerrors.FieldError{Field: field, Message: "expected string", Value: value},
			)
		}
		out[field] = text
	}
	return out, nil
}

func configError(detail string, fieldErrors ...goerrors.FieldError) *goerrors.Error {
	return goerrors.NewValidation("invalid config: "+detail, fieldErrors...).
		WithCode(400).
		WithTextCode(core.ErrorValidation)
}
