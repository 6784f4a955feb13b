package config

import "encoding/json"

// MaskToken replaces sensitive values in safe views.
const MaskToken = "******"

// SensitiveString holds a secret configuration value. Ordinary field
// access returns the true value; formatting and JSON marshaling redact
// it so a secret never leaks through logging or serialization.
type SensitiveString string

// String implements fmt.Stringer and always redacts non-empty values.
func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// Value returns the actual secret value.
func (s SensitiveString) Value() string {
	return string(s)
}

// IsSet reports whether a value is present.
func (s SensitiveString) IsSet() bool {
	return s != ""
}

// MarshalJSON marshals the redacted representation.
func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON stores the raw secret value.
func (s *SensitiveString) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SensitiveString(raw)
	return nil
}
