package definition

import "strings"

// TypeTag identifies the declared type of a configuration field.
type TypeTag int

const (
	TypeString TypeTag = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeNullableString
	TypeNullableInt
	TypeNullableFloat
	TypeNullableBool
	TypeStringSlice
	TypeStringMap
)

// Optional reports whether the tag is one of the nullable variants.
func (t TypeTag) Optional() bool {
	switch t {
	case TypeNullableString, TypeNullableInt, TypeNullableFloat, TypeNullableBool:
		return true
	default:
		return false
	}
}

// Base returns the non-nullable member of a nullable tag, or the tag itself.
func (t TypeTag) Base() TypeTag {
	switch t {
	case TypeNullableString:
		return TypeString
	case TypeNullableInt:
		return TypeInt
	case TypeNullableFloat:
		return TypeFloat
	case TypeNullableBool:
		return TypeBool
	default:
		return t
	}
}

func (t TypeTag) String() string {
	switch t.Base() {
	case TypeString:
		return "string"
	case TypeInt:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "boolean"
	case TypeStringSlice:
		return "list"
	case TypeStringMap:
		return "map"
	default:
		return "unknown"
	}
}

// FieldDef describes a single configuration field with its metadata.
type FieldDef struct {
	Name        string
	Type        TypeTag
	Default     any
	Sensitive   bool
	EnvExcluded bool
}

// FieldInfo is the introspection view of a field: type name, optional
// flag and default value. Consumed by the settings frontend.
type FieldInfo struct {
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
	Default  any    `json:"default"`
}

// Fields is an ordered field table for one configuration kind.
// It is the single source of truth for that kind's defaults and
// environment variable mapping.
type Fields struct {
	prefix string
	order  []string
	byName map[string]FieldDef
}

// New builds a field table. The prefix is the kind's environment
// variable prefix (empty for top-level aggregate fields).
func New(prefix string, defs ...FieldDef) *Fields {
	f := &Fields{
		prefix: prefix,
		order:  make([]string, 0, len(defs)),
		byName: make(map[string]FieldDef, len(defs)),
	}
	for _, def := range defs {
		f.order = append(f.order, def.Name)
		f.byName[def.Name] = def
	}
	return f
}

// Lookup returns a field definition by name.
func (f *Fields) Lookup(name string) (FieldDef, bool) {
	def, ok := f.byName[name]
	return def, ok
}

// Names returns the field names in declaration order.
func (f *Fields) Names() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// EnvVar returns the environment variable key for a field name:
// PREFIX_NAME uppercased, or the bare uppercased name when the table
// carries no prefix.
func (f *Fields) EnvVar(name string) string {
	if f.prefix == "" {
		return strings.ToUpper(name)
	}
	return f.prefix + "_" + strings.ToUpper(name)
}

// DefaultsMap returns the declared defaults keyed by field name.
// Nullable fields without a default are omitted.
func (f *Fields) DefaultsMap() map[string]any {
	out := make(map[string]any, len(f.order))
	for _, name := range f.order {
		def := f.byName[name]
		if def.Default == nil {
			continue
		}
		out[name] = def.Default
	}
	return out
}

// SensitiveNames returns the names of fields that must never appear
// unredacted in display or log output.
func (f *Fields) SensitiveNames() []string {
	var out []string
	for _, name := range f.order {
		if f.byName[name].Sensitive {
			out = append(out, name)
		}
	}
	return out
}

// Describe returns the introspection view of every field.
func (f *Fields) Describe() map[string]FieldInfo {
	out := make(map[string]FieldInfo, len(f.order))
	for _, name := range f.order {
		def := f.byName[name]
		out[name] = FieldInfo{
			Type:     def.Type.String(),
			Optional: def.Type.Optional(),
			Default:  def.Default,
		}
	}
	return out
}
