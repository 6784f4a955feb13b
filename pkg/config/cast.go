package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openagent/openagent/pkg/config/definition"
)

// CastError reports a string value that could not be coerced to a
// field's declared type. Callers downgrade it to a warning and keep
// the field's previous value.
type CastError struct {
	Field string
	Value string
	Type  string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast %q to %s for field %q", e.Value, e.Type, e.Field)
}

// CastValue coerces a raw string to the typed value declared for the
// field. Nullable types are unwrapped to their non-null member before
// casting; the caller never passes an empty string.
func CastValue(def definition.FieldDef, raw string) (any, error) {
	switch def.Type.Base() {
	case definition.TypeBool:
		lower := strings.ToLower(raw)
		return lower == "true" || lower == "1", nil
	case definition.TypeInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &CastError{Field: def.Name, Value: raw, Type: def.Type.String()}
		}
		return n, nil
	case definition.TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &CastError{Field: def.Name, Value: raw, Type: def.Type.String()}
		}
		return f, nil
	case definition.TypeString:
		return raw, nil
	case definition.TypeStringSlice:
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out, nil
	default:
		// Structured fields (string maps) cannot be expressed as a
		// single environment value.
		return nil, &CastError{Field: def.Name, Value: raw, Type: def.Type.String()}
	}
}
