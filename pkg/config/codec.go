package config

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/openagent/openagent/pkg/config/definition"
	"github.com/openagent/openagent/pkg/logger"
)

// sensitiveStringDecodeHook is a mapstructure decode hook that converts
// strings to SensitiveString.
func sensitiveStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(SensitiveString("")) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	default:
		return data, nil
	}
}

// decodeFields applies a field→value map onto a config struct. Absent
// keys leave the target's current values untouched, which is what gives
// override groups and later load passes their per-field merge behavior.
func decodeFields(input map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
			sensitiveStringDecodeHook,
		),
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode configuration values: %w", err)
	}
	return nil
}

// applyEnvFields casts and sets every field whose environment key is
// present and non-empty. Cast failures are downgraded to warnings and
// the field keeps its current value.
func applyEnvFields(ctx context.Context, fields *definition.Fields, env map[string]string, target any) {
	log := logger.FromContext(ctx)
	values := make(map[string]any)
	for _, name := range fields.Names() {
		def, _ := fields.Lookup(name)
		if def.EnvExcluded {
			continue
		}
		raw, ok := env[fields.EnvVar(name)]
		if !ok || raw == "" {
			continue
		}
		value, err := CastValue(def, raw)
		if err != nil {
			log.Warn("ignoring malformed environment value", "field", name, "error", err)
			continue
		}
		values[name] = value
	}
	if len(values) == 0 {
		return
	}
	if err := decodeFields(values, target); err != nil {
		log.Warn("failed to apply environment values", "error", err)
	}
}

// structToMap converts a config struct to a field→value map keyed by
// the mapstructure tag names.
func structToMap(v any) map[string]any {
	out := make(map[string]any)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "mapstructure",
	})
	if err != nil {
		return out
	}
	_ = decoder.Decode(v)
	return out
}

// safeView builds the redacted display map for a kind instance: every
// sensitive field is replaced with the mask token when set, or nil when
// absent. Pointer values are dereferenced so the view is plain data.
func safeView(v any, fields *definition.Fields) map[string]any {
	raw := structToMap(v)
	out := make(map[string]any, len(raw))
	for name, value := range raw {
		out[name] = derefValue(value)
	}
	for _, name := range fields.SensitiveNames() {
		value, ok := out[name]
		if !ok {
			continue
		}
		if isEmptyValue(value) {
			out[name] = nil
		} else {
			out[name] = MaskToken
		}
	}
	return out
}

func derefValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}
	if rv.IsNil() {
		return nil
	}
	return rv.Elem().Interface()
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case SensitiveString:
		return val == ""
	default:
		return false
	}
}

// clonePtr copies a nullable field so two instances never share the
// pointed-to value.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// splitSection separates a document section into scalar entries (the
// default group's overrides) and nested mappings (named override
// groups).
func splitSection(section map[string]any) (scalars map[string]any, groups map[string]map[string]any) {
	scalars = make(map[string]any)
	groups = make(map[string]map[string]any)
	for key, value := range section {
		if nested, ok := value.(map[string]any); ok {
			groups[key] = nested
			continue
		}
		scalars[key] = value
	}
	return scalars, groups
}

// sectionMap extracts a named top-level section from the parsed
// document, tolerating both a missing section and a non-mapping value.
func sectionMap(doc map[string]any, name string) map[string]any {
	if doc == nil {
		return nil
	}
	section, ok := doc[name].(map[string]any)
	if !ok {
		return nil
	}
	return section
}
