package config

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/openagent/openagent/pkg/config/definition"
	"github.com/openagent/openagent/pkg/logger"
)

// UndefinedPath marks a path field that was never explicitly set.
const UndefinedPath = definition.UndefinedPath

// recognized top-level document sections; anything else warns.
var recognizedSections = map[string]struct{}{
	"core":     {},
	"llm":      {},
	"agent":    {},
	"memory":   {},
	"sandbox":  {},
	"security": {},
}

// Config is the aggregate configuration for the whole application. It
// owns the named maps of every configuration kind, the two singleton
// kinds, and the top-level scalar settings. One instance is shared
// process-wide; after the initial load it is read concurrently and
// mutated only through explicit setter calls on an administrative path.
type Config struct {
	LLMs     map[string]*LLMConfig    `mapstructure:"-"`
	Agents   map[string]*AgentConfig  `mapstructure:"-"`
	Memories map[string]*MemoryConfig `mapstructure:"-"`
	Sandbox  *SandboxConfig           `mapstructure:"-"`
	Security *SecurityConfig          `mapstructure:"-"`

	DefaultAgent                 string          `mapstructure:"default_agent"                    validate:"required"`
	Runtime                      string          `mapstructure:"runtime"`
	FileStore                    string          `mapstructure:"file_store"`
	FileStorePath                string          `mapstructure:"file_store_path"`
	WorkspaceBase                string          `mapstructure:"workspace_base"`
	WorkspaceMountPath           string          `mapstructure:"workspace_mount_path"`
	WorkspaceMountPathInSandbox  string          `mapstructure:"workspace_mount_path_in_sandbox"`
	WorkspaceMountRewrite        *string         `mapstructure:"workspace_mount_rewrite"`
	CacheDir                     string          `mapstructure:"cache_dir"`
	RunAsAgent                   bool            `mapstructure:"run_as_agent"`
	MaxIterations                int             `mapstructure:"max_iterations"                   validate:"min=1"`
	MaxBudgetPerTask             *float64        `mapstructure:"max_budget_per_task"`
	E2BAPIKey                    SensitiveString `mapstructure:"e2b_api_key"`
	JWTSecret                    SensitiveString `mapstructure:"jwt_secret"`
	DisableColor                 bool            `mapstructure:"disable_color"`
	Debug                        bool            `mapstructure:"debug"`
	EnableCLISession             bool            `mapstructure:"enable_cli_session"`
	FileUploadsMaxFileSizeMB     int             `mapstructure:"file_uploads_max_file_size_mb"    validate:"min=0"`
	FileUploadsRestrictFileTypes bool            `mapstructure:"file_uploads_restrict_file_types"`
	FileUploadsAllowedExtensions []string        `mapstructure:"file_uploads_allowed_extensions"`
}

var (
	defaultsSnapshot     map[string]definition.FieldInfo
	defaultsSnapshotOnce sync.Once
)

// Default returns an aggregate configuration populated with pure
// declared defaults. The defaults are snapshotted on first call for
// later introspection.
func Default() *Config {
	cfg := &Config{
		LLMs:     make(map[string]*LLMConfig),
		Agents:   make(map[string]*AgentConfig),
		Memories: make(map[string]*MemoryConfig),
		Sandbox:  DefaultSandbox(),
		Security: DefaultSecurity(),
	}
	_ = decodeFields(definition.CoreFields().DefaultsMap(), cfg)
	defaultsSnapshotOnce.Do(func() {
		defaultsSnapshot = definition.CoreFields().Describe()
	})
	return cfg
}

// DefaultsSnapshot returns the introspection view of the top-level
// defaults captured when the first aggregate was constructed.
func DefaultsSnapshot() map[string]definition.FieldInfo {
	if defaultsSnapshot == nil {
		Default()
	}
	return defaultsSnapshot
}

// GetLLM returns the named LLM configuration. Unknown names warn and
// fall back to the default group, which is synthesized from declared
// defaults if even that is missing. It never fails.
func (c *Config) GetLLM(ctx context.Context, name string) *LLMConfig {
	if cfg, ok := c.LLMs[name]; ok {
		return cfg
	}
	if name != "" && name != DefaultLLMGroup {
		logger.FromContext(ctx).Warn("llm config group not found, using default config", "group", name)
	}
	if _, ok := c.LLMs[DefaultLLMGroup]; !ok {
		c.LLMs[DefaultLLMGroup] = DefaultLLM()
	}
	return c.LLMs[DefaultLLMGroup]
}

// SetLLM upserts the named LLM configuration.
func (c *Config) SetLLM(name string, cfg *LLMConfig) {
	c.LLMs[name] = cfg
}

// GetAgent returns the named agent configuration with the same
// fallback behavior as GetLLM.
func (c *Config) GetAgent(ctx context.Context, name string) *AgentConfig {
	if cfg, ok := c.Agents[name]; ok {
		return cfg
	}
	if name != "" && name != DefaultAgentGroup {
		logger.FromContext(ctx).Warn("agent config group not found, using default config", "group", name)
	}
	if _, ok := c.Agents[DefaultAgentGroup]; !ok {
		c.Agents[DefaultAgentGroup] = DefaultAgent()
	}
	return c.Agents[DefaultAgentGroup]
}

// SetAgent upserts the named agent configuration.
func (c *Config) SetAgent(name string, cfg *AgentConfig) {
	c.Agents[name] = cfg
}

// GetMemory returns the named memory configuration with the same
// fallback behavior as GetLLM.
func (c *Config) GetMemory(ctx context.Context, name string) *MemoryConfig {
	if cfg, ok := c.Memories[name]; ok {
		return cfg
	}
	if name != "" && name != DefaultMemoryGroup {
		logger.FromContext(ctx).Warn("memory config group not found, using default config", "group", name)
	}
	if _, ok := c.Memories[DefaultMemoryGroup]; !ok {
		c.Memories[DefaultMemoryGroup] = DefaultMemory()
	}
	return c.Memories[DefaultMemoryGroup]
}

// SetMemory upserts the named memory configuration.
func (c *Config) SetMemory(name string, cfg *MemoryConfig) {
	c.Memories[name] = cfg
}

// LLMForAgent resolves the LLM configuration used by the named agent.
func (c *Config) LLMForAgent(ctx context.Context, name string) *LLMConfig {
	return c.GetAgent(ctx, name).ResolveLLM(ctx, c)
}

// MemoryForAgent resolves the memory configuration used by the named
// agent.
func (c *Config) MemoryForAgent(ctx context.Context, name string) *MemoryConfig {
	return c.GetAgent(ctx, name).ResolveMemory(ctx, c)
}

// AgentToLLMMap returns each agent name mapped to its resolved LLM
// configuration.
func (c *Config) AgentToLLMMap(ctx context.Context) map[string]*LLMConfig {
	out := make(map[string]*LLMConfig, len(c.Agents))
	for name, agent := range c.Agents {
		out[name] = agent.ResolveLLM(ctx, c)
	}
	return out
}

// LoadFromEnv applies the environment mapping onto the aggregate.
// Top-level scalar fields use their bare uppercased names; a cast
// failure is warned and the current value retained, so a malformed
// variable never aborts startup. Each kind's fields are then applied
// onto its default group (or singleton) in place.
func (c *Config) LoadFromEnv(ctx context.Context, env map[string]string) {
	applyEnvFields(ctx, definition.CoreFields(), env, c)

	applyEnvFields(ctx, definition.LLMFields(), env, c.GetLLM(ctx, DefaultLLMGroup))
	applyEnvFields(ctx, definition.AgentFields(), env, c.GetAgent(ctx, DefaultAgentGroup))
	applyEnvFields(ctx, definition.MemoryFields(), env, c.GetMemory(ctx, DefaultMemoryGroup))
	c.Sandbox.ApplyEnv(ctx, env)
	c.Security.ApplyEnv(ctx, env)
}

// LoadFromDocument applies the parsed document onto the aggregate.
//
// A document without a core section is the old flat layout: it is
// consumed entirely as environment-style keys and nothing else applies.
// The core section, when present, is applied directly: its values are
// already structurally typed, and keys the aggregate does not declare
// are reported. Kind sections then update the named maps: groups
// present in the document replace their map entries wholesale, groups
// absent from it keep whatever an earlier pass produced.
func (c *Config) LoadFromDocument(ctx context.Context, doc map[string]any) {
	if doc == nil {
		return
	}
	log := logger.FromContext(ctx)

	if _, ok := doc["core"]; !ok {
		c.LoadFromEnv(ctx, flatStringValues(doc))
		return
	}

	if core := sectionMap(doc, "core"); core != nil {
		fields := definition.CoreFields()
		values := make(map[string]any, len(core))
		for key, value := range core {
			// Legacy sandbox_* keys are migrated by the sandbox loader.
			if strings.HasPrefix(key, "sandbox_") {
				continue
			}
			if _, ok := fields.Lookup(key); !ok {
				log.Warn("unknown key in core config", "key", key)
				continue
			}
			values[key] = value
		}
		if err := decodeFields(values, c); err != nil {
			log.Warn("failed to apply core section", "error", err)
		}
	}

	for name, cfg := range LLMFromDocument(ctx, doc) {
		c.LLMs[name] = cfg
	}
	for name, cfg := range AgentFromDocument(ctx, doc) {
		c.Agents[name] = cfg
	}
	for name, cfg := range MemoryFromDocument(ctx, doc) {
		c.Memories[name] = cfg
	}
	c.Sandbox.ApplyDocument(ctx, doc)
	c.Security.ApplyDocument(ctx, doc)

	for key := range doc {
		if _, ok := recognizedSections[key]; !ok {
			log.Warn("unknown key in config document", "key", key)
		}
	}
}

// flatStringValues renders a document's scalar leaves as the flat
// string mapping the environment loaders consume. Mappings and arrays
// are skipped; neither has an environment-style string form.
func flatStringValues(doc map[string]any) map[string]string {
	out := make(map[string]string, len(doc))
	for key, value := range doc {
		if value == nil {
			continue
		}
		switch reflect.ValueOf(value).Kind() {
		case reflect.Map, reflect.Slice, reflect.Array:
			continue
		}
		out[key] = fmt.Sprintf("%v", value)
	}
	return out
}

// SafeMap returns the redacted display view of the aggregate's
// top-level fields.
func (c *Config) SafeMap() map[string]any {
	return safeView(c, definition.CoreFields())
}
