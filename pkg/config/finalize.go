package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/openagent/openagent/pkg/logger"
)

// Finalize performs the one-time post-merge pass over a fully loaded
// aggregate: it derives unset path fields, applies cross-section
// compatibility defaults, and ensures the cache directory exists.
// Re-running it produces the same observable state.
//
// The only error it returns is a cache directory creation failure;
// everything else is best-effort and warns.
func Finalize(ctx context.Context, cfg *Config) error {
	log := logger.FromContext(ctx)

	if cfg.WorkspaceMountPath == UndefinedPath {
		cfg.WorkspaceMountPath = absPath(cfg.WorkspaceBase)
	}
	cfg.WorkspaceBase = absPath(cfg.WorkspaceBase)

	if cfg.WorkspaceMountRewrite != nil && *cfg.WorkspaceMountRewrite != "" {
		base := cfg.WorkspaceBase
		if base == "" {
			base, _ = os.Getwd()
		}
		parts := strings.SplitN(*cfg.WorkspaceMountRewrite, ":", 2)
		if len(parts) == 2 {
			cfg.WorkspaceMountPath = strings.Replace(base, parts[0], parts[1], 1)
		} else {
			log.Warn("invalid workspace mount rewrite rule, expected from:to", "rule", *cfg.WorkspaceMountRewrite)
		}
	}

	migrateEmbeddingSettings(ctx, cfg)

	if cfg.Sandbox.UseHostNetwork && runtime.GOOS == "darwin" {
		log.Warn("host network mode on macOS requires Docker Desktop 4.29.0 or later")
	}

	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory %s: %w", cfg.CacheDir, err)
		}
	}
	return nil
}

// migrateEmbeddingSettings copies deprecated embedding fields from the
// default LLM group onto the default memory group. The deployment name
// is only backfilled when the memory group does not already set one.
func migrateEmbeddingSettings(ctx context.Context, cfg *Config) {
	log := logger.FromContext(ctx)
	defaultLLM := cfg.GetLLM(ctx, DefaultLLMGroup)
	defaultMemory := cfg.GetMemory(ctx, DefaultMemoryGroup)

	if defaultLLM.EmbeddingBaseURL != nil {
		defaultMemory.BaseURL = defaultLLM.EmbeddingBaseURL
		log.Warn("deprecated: embedding_base_url should be set in memory config as base_url, loaded from default llm config")
	}
	if defaultLLM.EmbeddingModel != nil {
		defaultMemory.EmbeddingModel = *defaultLLM.EmbeddingModel
		log.Warn("deprecated: embedding_model should be set in memory config, loaded from default llm config")
	}
	if defaultMemory.EmbeddingDeploymentName == nil && defaultLLM.EmbeddingDeploymentName != nil {
		defaultMemory.EmbeddingDeploymentName = defaultLLM.EmbeddingDeploymentName
		log.Warn("deprecated: embedding_deployment_name should be set in memory config, loaded from default llm config")
	}
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
