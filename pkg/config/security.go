package config

import (
	"context"

	"github.com/openagent/openagent/pkg/config/definition"
	"github.com/openagent/openagent/pkg/logger"
)

// SecurityConfig contains the settings for security-related features.
// Like SandboxConfig it is a process-wide singleton updated in place.
type SecurityConfig struct {
	ConfirmationMode bool    `mapstructure:"confirmation_mode"`
	SecurityAnalyzer *string `mapstructure:"security_analyzer"`
}

// DefaultSecurity returns a security configuration populated with the
// declared defaults.
func DefaultSecurity() *SecurityConfig {
	cfg := &SecurityConfig{}
	_ = decodeFields(definition.SecurityFields().DefaultsMap(), cfg)
	return cfg
}

// ApplyEnv updates the singleton in place from the environment mapping
// using the SECURITY_ prefix.
func (c *SecurityConfig) ApplyEnv(ctx context.Context, env map[string]string) {
	applyEnvFields(ctx, definition.SecurityFields(), env, c)
}

// ApplyDocument updates the singleton in place from the security
// section of the parsed document, if present.
func (c *SecurityConfig) ApplyDocument(ctx context.Context, doc map[string]any) {
	section := sectionMap(doc, "security")
	if section == nil {
		return
	}
	if err := decodeFields(section, c); err != nil {
		logger.FromContext(ctx).Warn("failed to apply security section", "error", err)
	}
}

// SafeMap returns the display view of the configuration.
func (c *SecurityConfig) SafeMap() map[string]any {
	return safeView(c, definition.SecurityFields())
}
