package config

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensitiveString(t *testing.T) {
	t.Run("Should redact non-empty values when formatted", func(t *testing.T) {
		secret := SensitiveString("super-secret")
		assert.Equal(t, "[REDACTED]", secret.String())
		assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", secret))
		assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", secret))
	})
	t.Run("Should format empty values as empty", func(t *testing.T) {
		var secret SensitiveString
		assert.Equal(t, "", secret.String())
		assert.False(t, secret.IsSet())
	})
	t.Run("Should return the true value through Value", func(t *testing.T) {
		secret := SensitiveString("super-secret")
		assert.Equal(t, "super-secret", secret.Value())
		assert.True(t, secret.IsSet())
	})
	t.Run("Should redact when marshaled to JSON", func(t *testing.T) {
		data, err := json.Marshal(SensitiveString("super-secret"))
		require.NoError(t, err)
		assert.Equal(t, `"[REDACTED]"`, string(data))
	})
	t.Run("Should keep the raw value when unmarshaled from JSON", func(t *testing.T) {
		var secret SensitiveString
		require.NoError(t, json.Unmarshal([]byte(`"api-key-123"`), &secret))
		assert.Equal(t, "api-key-123", secret.Value())
	})
	t.Run("Should never leak the secret inside a struct dump", func(t *testing.T) {
		cfg := struct {
			APIKey SensitiveString
		}{APIKey: "leaky"}
		dump := fmt.Sprintf("%+v", cfg)
		assert.NotContains(t, dump, "leaky")
	})
}
