package config

import (
	"context"
	"strings"

	"github.com/openagent/openagent/pkg/config/definition"
	"github.com/openagent/openagent/pkg/logger"
)

// SandboxConfig contains the settings for the execution sandbox. It is
// a process-wide singleton: the aggregate owns one instance and shares
// it by reference, so document and environment passes update it in
// place.
type SandboxConfig struct {
	APIHostname           string            `mapstructure:"api_hostname"`
	ContainerImage        string            `mapstructure:"container_image"`
	UserID                int               `mapstructure:"user_id"`
	Timeout               int               `mapstructure:"timeout"`
	EnableAutoLint        bool              `mapstructure:"enable_auto_lint"`
	UseHostNetwork        bool              `mapstructure:"use_host_network"`
	InitializePlugins     bool              `mapstructure:"initialize_plugins"`
	RuntimeExtraDeps      *string           `mapstructure:"runtime_extra_deps"`
	RuntimeStartupEnvVars map[string]string `mapstructure:"runtime_startup_env_vars"`
	BrowsergymEvalEnv     *string           `mapstructure:"browsergym_eval_env"`
}

// DefaultSandbox returns a sandbox configuration populated with the
// declared defaults.
func DefaultSandbox() *SandboxConfig {
	cfg := &SandboxConfig{}
	_ = decodeFields(definition.SandboxFields().DefaultsMap(), cfg)
	return cfg
}

// ApplyEnv updates the singleton in place from the environment mapping
// using the SANDBOX_ prefix.
func (c *SandboxConfig) ApplyEnv(ctx context.Context, env map[string]string) {
	applyEnvFields(ctx, definition.SandboxFields(), env, c)
}

// ApplyDocument updates the singleton in place from the parsed
// document. Legacy sandbox_* keys under the core section are migrated
// first, so an explicit sandbox section always wins for the same field.
// Migrated keys the sandbox does not declare are reported as unknown.
func (c *SandboxConfig) ApplyDocument(ctx context.Context, doc map[string]any) {
	log := logger.FromContext(ctx)
	fields := definition.SandboxFields()

	if core := sectionMap(doc, "core"); core != nil {
		migrated := make(map[string]any)
		for key, value := range core {
			if !strings.HasPrefix(key, "sandbox_") {
				continue
			}
			name := strings.TrimPrefix(key, "sandbox_")
			if _, ok := fields.Lookup(name); !ok {
				log.Warn("unknown sandbox config", "key", key)
				continue
			}
			migrated[name] = value
		}
		if len(migrated) > 0 {
			if err := decodeFields(migrated, c); err != nil {
				log.Warn("failed to migrate legacy sandbox keys", "error", err)
			}
		}
	}

	if section := sectionMap(doc, "sandbox"); section != nil {
		if err := decodeFields(section, c); err != nil {
			log.Warn("failed to apply sandbox section", "error", err)
		}
	}
}

// SafeMap returns the display view of the configuration.
func (c *SandboxConfig) SafeMap() map[string]any {
	return safeView(c, definition.SandboxFields())
}
