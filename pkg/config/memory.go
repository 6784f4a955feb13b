package config

import (
	"context"

	"github.com/openagent/openagent/pkg/config/definition"
	"github.com/openagent/openagent/pkg/logger"
)

// DefaultMemoryGroup is the group name of the default memory configuration.
const DefaultMemoryGroup = "memory"

// MemoryConfig contains the settings for long-term memory and embeddings.
type MemoryConfig struct {
	EmbeddingModel          string          `mapstructure:"embedding_model"`
	BaseURL                 *string         `mapstructure:"base_url"`
	EmbeddingDeploymentName *string         `mapstructure:"embedding_deployment_name"`
	APIKey                  SensitiveString `mapstructure:"api_key"`
	APIVersion              *string         `mapstructure:"api_version"`
}

// clone returns a deep copy so override groups never share nullable
// fields with the default group.
func (c *MemoryConfig) clone() *MemoryConfig {
	out := *c
	out.BaseURL = clonePtr(c.BaseURL)
	out.EmbeddingDeploymentName = clonePtr(c.EmbeddingDeploymentName)
	out.APIVersion = clonePtr(c.APIVersion)
	return &out
}

// DefaultMemory returns a memory configuration populated with the
// declared defaults.
func DefaultMemory() *MemoryConfig {
	cfg := &MemoryConfig{}
	_ = decodeFields(definition.MemoryFields().DefaultsMap(), cfg)
	return cfg
}

// MemoryFromEnv builds a memory configuration from the environment
// mapping using the MEMORY_ prefix.
func MemoryFromEnv(ctx context.Context, env map[string]string) *MemoryConfig {
	cfg := DefaultMemory()
	applyEnvFields(ctx, definition.MemoryFields(), env, cfg)
	return cfg
}

// MemoryFromDocument builds the group-name→configuration mapping from
// the parsed document, mirroring the llm loader's override-group
// semantics.
func MemoryFromDocument(ctx context.Context, doc map[string]any) map[string]*MemoryConfig {
	log := logger.FromContext(ctx)
	configs := make(map[string]*MemoryConfig)
	defaultCfg := DefaultMemory()
	section := sectionMap(doc, DefaultMemoryGroup)
	scalars, groups := splitSection(section)
	if err := decodeFields(scalars, defaultCfg); err != nil {
		log.Warn("failed to apply memory section", "error", err)
	}
	configs[DefaultMemoryGroup] = defaultCfg
	for name, values := range groups {
		log.Debug("loading custom memory config", "group", name)
		custom := defaultCfg.clone()
		if err := decodeFields(values, custom); err != nil {
			log.Warn("failed to apply memory override group", "group", name, "error", err)
		}
		configs[name] = custom
	}
	return configs
}

// SafeMap returns the redacted display view of the configuration.
func (c *MemoryConfig) SafeMap() map[string]any {
	return safeView(c, definition.MemoryFields())
}
