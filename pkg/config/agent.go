package config

import (
	"context"

	"github.com/openagent/openagent/pkg/config/definition"
	"github.com/openagent/openagent/pkg/logger"
)

// DefaultAgentGroup is the group name of the default agent configuration.
const DefaultAgentGroup = "agent"

// LLMRef points an agent at an LLM configuration: either a group name
// to look up on the aggregate, or an inline instance. The zero value
// means "use the default group".
type LLMRef struct {
	Name   string
	Inline *LLMConfig
}

// MemoryRef mirrors LLMRef for memory configurations.
type MemoryRef struct {
	Name   string
	Inline *MemoryConfig
}

// AgentConfig contains the settings for one agent profile.
// The LLM and Memory references are document-only: they are never read
// from the environment.
type AgentConfig struct {
	MemoryEnabled    bool `mapstructure:"memory_enabled"`
	MemoryMaxThreads int  `mapstructure:"memory_max_threads"`

	LLM    LLMRef    `mapstructure:"-"`
	Memory MemoryRef `mapstructure:"-"`
}

// clone returns a deep copy, duplicating any inline cross-reference
// instances so override groups never share them with the default group.
func (c *AgentConfig) clone() *AgentConfig {
	out := *c
	if c.LLM.Inline != nil {
		out.LLM.Inline = c.LLM.Inline.clone()
	}
	if c.Memory.Inline != nil {
		out.Memory.Inline = c.Memory.Inline.clone()
	}
	return &out
}

// DefaultAgent returns an agent configuration populated with the
// declared defaults.
func DefaultAgent() *AgentConfig {
	cfg := &AgentConfig{}
	_ = decodeFields(definition.AgentFields().DefaultsMap(), cfg)
	return cfg
}

// AgentFromEnv builds an agent configuration from the environment
// mapping using the AGENT_ prefix. Cross-reference fields stay unset.
func AgentFromEnv(ctx context.Context, env map[string]string) *AgentConfig {
	cfg := DefaultAgent()
	applyEnvFields(ctx, definition.AgentFields(), env, cfg)
	return cfg
}

// AgentFromDocument builds the group-name→configuration mapping from
// the parsed document, mirroring the llm loader's override-group
// semantics.
func AgentFromDocument(ctx context.Context, doc map[string]any) map[string]*AgentConfig {
	log := logger.FromContext(ctx)
	configs := make(map[string]*AgentConfig)
	defaultCfg := DefaultAgent()
	section := sectionMap(doc, DefaultAgentGroup)
	entries, groups := splitAgentSection(section)
	applyAgentEntries(ctx, entries, defaultCfg)
	configs[DefaultAgentGroup] = defaultCfg
	for name, values := range groups {
		log.Debug("loading custom agent config", "group", name)
		custom := defaultCfg.clone()
		applyAgentEntries(ctx, values, custom)
		configs[name] = custom
	}
	return configs
}

// splitAgentSection separates the agent section like splitSection, but
// keeps the cross-reference keys with the default group's entries even
// when they hold nested mappings: an inline llm or memory config is not
// an override group.
func splitAgentSection(section map[string]any) (entries map[string]any, groups map[string]map[string]any) {
	entries = make(map[string]any)
	groups = make(map[string]map[string]any)
	for key, value := range section {
		nested, ok := value.(map[string]any)
		if ok && key != "llm_config" && key != "memory_config" {
			groups[key] = nested
			continue
		}
		entries[key] = value
	}
	return entries, groups
}

// applyAgentEntries applies one group's entries onto the target,
// extracting the cross-reference fields before decoding the rest.
func applyAgentEntries(ctx context.Context, entries map[string]any, target *AgentConfig) {
	log := logger.FromContext(ctx)
	rest := make(map[string]any, len(entries))
	for key, value := range entries {
		switch key {
		case "llm_config":
			target.LLM = decodeLLMRef(ctx, value)
		case "memory_config":
			target.Memory = decodeMemoryRef(ctx, value)
		default:
			rest[key] = value
		}
	}
	if err := decodeFields(rest, target); err != nil {
		log.Warn("failed to apply agent section", "error", err)
	}
}

func decodeLLMRef(ctx context.Context, value any) LLMRef {
	switch v := value.(type) {
	case string:
		return LLMRef{Name: v}
	case map[string]any:
		inline := DefaultLLM()
		if err := decodeFields(v, inline); err != nil {
			logger.FromContext(ctx).Warn("failed to decode inline llm config", "error", err)
		}
		return LLMRef{Inline: inline}
	default:
		return LLMRef{}
	}
}

func decodeMemoryRef(ctx context.Context, value any) MemoryRef {
	switch v := value.(type) {
	case string:
		return MemoryRef{Name: v}
	case map[string]any:
		inline := DefaultMemory()
		if err := decodeFields(v, inline); err != nil {
			logger.FromContext(ctx).Warn("failed to decode inline memory config", "error", err)
		}
		return MemoryRef{Inline: inline}
	default:
		return MemoryRef{}
	}
}

// ResolveLLM returns the LLM configuration this agent should use: the
// inline instance if one was set, the named group if a name was set,
// otherwise the aggregate's default group.
func (c *AgentConfig) ResolveLLM(ctx context.Context, cfg *Config) *LLMConfig {
	if c.LLM.Inline != nil {
		return c.LLM.Inline
	}
	if c.LLM.Name != "" {
		return cfg.GetLLM(ctx, c.LLM.Name)
	}
	return cfg.GetLLM(ctx, DefaultLLMGroup)
}

// ResolveMemory mirrors ResolveLLM for the memory reference.
func (c *AgentConfig) ResolveMemory(ctx context.Context, cfg *Config) *MemoryConfig {
	if c.Memory.Inline != nil {
		return c.Memory.Inline
	}
	if c.Memory.Name != "" {
		return cfg.GetMemory(ctx, c.Memory.Name)
	}
	return cfg.GetMemory(ctx, DefaultMemoryGroup)
}

// SafeMap returns the display view of the configuration. Agents carry
// no sensitive fields, but the view keeps the same shape as the other
// kinds.
func (c *AgentConfig) SafeMap() map[string]any {
	return safeView(c, definition.AgentFields())
}
