package config

import (
	"context"
	"strings"

	"github.com/openagent/openagent/pkg/config/definition"
	"github.com/openagent/openagent/pkg/logger"
)

// DefaultLLMGroup is the group name of the default LLM configuration.
const DefaultLLMGroup = "llm"

// LLMConfig contains the settings for one model backend profile.
type LLMConfig struct {
	Model                       string          `mapstructure:"model"`
	APIKey                      SensitiveString `mapstructure:"api_key"`
	BaseURL                     *string         `mapstructure:"base_url"`
	APIVersion                  *string         `mapstructure:"api_version"`
	AWSAccessKeyID              SensitiveString `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey          SensitiveString `mapstructure:"aws_secret_access_key"`
	AWSRegionName               *string         `mapstructure:"aws_region_name"`
	NumRetries                  int             `mapstructure:"num_retries"`
	RetryMultiplier             float64         `mapstructure:"retry_multiplier"`
	RetryMinWait                int             `mapstructure:"retry_min_wait"`
	RetryMaxWait                int             `mapstructure:"retry_max_wait"`
	Timeout                     *int            `mapstructure:"timeout"`
	MaxMessageChars             int             `mapstructure:"max_message_chars"`
	Temperature                 float64         `mapstructure:"temperature"`
	TopP                        float64         `mapstructure:"top_p"`
	CustomLLMProvider           *string         `mapstructure:"custom_llm_provider"`
	MaxInputTokens              *int            `mapstructure:"max_input_tokens"`
	MaxOutputTokens             *int            `mapstructure:"max_output_tokens"`
	InputCostPerToken           *float64        `mapstructure:"input_cost_per_token"`
	OutputCostPerToken          *float64        `mapstructure:"output_cost_per_token"`
	OllamaBaseURL               *string         `mapstructure:"ollama_base_url"`
	DropParams                  *bool           `mapstructure:"drop_params"`
	MemorySummarizationFraction float64         `mapstructure:"memory_summarization_fraction"`

	// Deprecated: embedding settings belong on MemoryConfig. The
	// finalize pass migrates them onto the default memory group.
	EmbeddingModel          *string `mapstructure:"embedding_model"`
	EmbeddingBaseURL        *string `mapstructure:"embedding_base_url"`
	EmbeddingDeploymentName *string `mapstructure:"embedding_deployment_name"`
}

// clone returns a deep copy. Override groups decode onto a clone, so a
// group that sets a nullable field never writes through the default
// group's pointers, and later passes onto the default group never leak
// into already-built groups.
func (c *LLMConfig) clone() *LLMConfig {
	out := *c
	out.BaseURL = clonePtr(c.BaseURL)
	out.APIVersion = clonePtr(c.APIVersion)
	out.AWSRegionName = clonePtr(c.AWSRegionName)
	out.Timeout = clonePtr(c.Timeout)
	out.CustomLLMProvider = clonePtr(c.CustomLLMProvider)
	out.MaxInputTokens = clonePtr(c.MaxInputTokens)
	out.MaxOutputTokens = clonePtr(c.MaxOutputTokens)
	out.InputCostPerToken = clonePtr(c.InputCostPerToken)
	out.OutputCostPerToken = clonePtr(c.OutputCostPerToken)
	out.OllamaBaseURL = clonePtr(c.OllamaBaseURL)
	out.DropParams = clonePtr(c.DropParams)
	out.EmbeddingModel = clonePtr(c.EmbeddingModel)
	out.EmbeddingBaseURL = clonePtr(c.EmbeddingBaseURL)
	out.EmbeddingDeploymentName = clonePtr(c.EmbeddingDeploymentName)
	return &out
}

// DefaultLLM returns an LLM configuration populated with the declared
// defaults.
func DefaultLLM() *LLMConfig {
	cfg := &LLMConfig{}
	_ = decodeFields(definition.LLMFields().DefaultsMap(), cfg)
	return cfg
}

// LLMFromEnv builds an LLM configuration from the environment mapping:
// defaults, overridden by every LLM_FIELDNAME key that is present and
// non-empty.
func LLMFromEnv(ctx context.Context, env map[string]string) *LLMConfig {
	cfg := DefaultLLM()
	applyEnvFields(ctx, definition.LLMFields(), env, cfg)
	return cfg
}

// LLMFromDocument builds the group-name→configuration mapping from the
// parsed document. Scalar entries of the llm section override the
// default group; each nested mapping becomes a named override group
// that inherits the resolved default group's values.
func LLMFromDocument(ctx context.Context, doc map[string]any) map[string]*LLMConfig {
	log := logger.FromContext(ctx)
	configs := make(map[string]*LLMConfig)
	defaultCfg := DefaultLLM()
	section := sectionMap(doc, DefaultLLMGroup)
	scalars, groups := splitSection(section)
	if err := decodeFields(scalars, defaultCfg); err != nil {
		log.Warn("failed to apply llm section", "error", err)
	}
	configs[DefaultLLMGroup] = defaultCfg
	for name, values := range groups {
		log.Debug("loading custom llm config", "group", name)
		custom := defaultCfg.clone()
		if err := decodeFields(values, custom); err != nil {
			log.Warn("failed to apply llm override group", "group", name, "error", err)
		}
		configs[name] = custom
	}
	return configs
}

// LLMGroupFromDocument resolves a single named llm group from the
// parsed document, built from declared defaults plus that group's own
// entries. Returns nil if the group does not exist. A leading "llm."
// prefix on the name is tolerated.
func LLMGroupFromDocument(ctx context.Context, name string, doc map[string]any) *LLMConfig {
	log := logger.FromContext(ctx)
	name = strings.Trim(name, "[]")
	name = strings.TrimPrefix(name, "llm.")
	section := sectionMap(doc, DefaultLLMGroup)
	values, ok := section[name].(map[string]any)
	if !ok {
		log.Debug("llm group not found in document", "group", name)
		return nil
	}
	cfg := DefaultLLM()
	if err := decodeFields(values, cfg); err != nil {
		log.Warn("failed to apply llm group", "group", name, "error", err)
	}
	return cfg
}

// SafeMap returns the redacted display view of the configuration.
func (c *LLMConfig) SafeMap() map[string]any {
	return safeView(c, definition.LLMFields())
}
