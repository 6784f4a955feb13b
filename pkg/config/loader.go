package config

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/openagent/openagent/pkg/logger"
)

// Service defines the configuration resolution service interface.
type Service interface {
	// Load resolves configuration from the given sources: declared
	// defaults, then document sources, then environment sources, then
	// the finalization pass. Environment strictly wins per field.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks the resolved configuration. Load reports
	// findings as warnings; callers may enforce them.
	Validate(cfg *Config) error
}

// loader implements the Service interface.
type loader struct {
	validator *validator.Validate
}

// NewService creates a new configuration service with validation
// support.
func NewService() Service {
	return &loader{validator: validator.New()}
}

// Load runs the full resolution sequence. No condition inside the
// merge is fatal: a source that cannot be read is skipped with a
// warning and the layers already applied stand. The only propagating
// error is a directory creation failure during finalization.
func (l *loader) Load(ctx context.Context, sources ...Source) (*Config, error) {
	log := logger.FromContext(ctx)
	cfg := Default()

	// Document pass first so the environment pass wins per field.
	for _, source := range sources {
		if source == nil || source.Type() == SourceEnv {
			continue
		}
		doc, err := source.Load()
		if err != nil {
			log.Warn("skipping configuration document", "source", source.Type(), "error", err)
			continue
		}
		if len(doc) == 0 {
			continue
		}
		cfg.LoadFromDocument(ctx, doc)
	}

	for _, source := range sources {
		if source == nil || source.Type() != SourceEnv {
			continue
		}
		data, err := source.Load()
		if err != nil {
			log.Warn("skipping environment source", "error", err)
			continue
		}
		cfg.LoadFromEnv(ctx, flatStringValues(data))
	}

	if err := Finalize(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to finalize configuration: %w", err)
	}

	if err := l.Validate(cfg); err != nil {
		log.Warn("configuration validation reported issues", "error", err)
	}

	if cfg.Debug {
		logger.SetupLogger("debug", false)
	}
	return cfg, nil
}

// Validate checks the configuration against struct tags plus a few
// cross-field constraints.
func (l *loader) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := l.validator.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return l.validateCustom(cfg)
}

// validateCustom performs validation beyond struct tags.
func (l *loader) validateCustom(cfg *Config) error {
	for name, llm := range cfg.LLMs {
		if f := llm.MemorySummarizationFraction; f <= 0 || f > 1 {
			return fmt.Errorf("llm group %q: memory_summarization_fraction must be in (0, 1], got %v", name, f)
		}
		if llm.NumRetries < 0 {
			return fmt.Errorf("llm group %q: num_retries cannot be negative", name)
		}
	}
	for name, agent := range cfg.Agents {
		if agent.MemoryMaxThreads < 1 {
			return fmt.Errorf("agent group %q: memory_max_threads must be at least 1", name)
		}
	}
	if cfg.Sandbox != nil && cfg.Sandbox.Timeout <= 0 {
		return fmt.Errorf("sandbox timeout must be positive")
	}
	return nil
}
