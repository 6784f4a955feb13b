package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTOML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestServiceLoad(t *testing.T) {
	t.Run("Should resolve defaults, document and environment in order", func(t *testing.T) {
		ctx := testContext(t)
		cacheDir := filepath.Join(t.TempDir(), "cache")
		path := writeTOML(t, fmt.Sprintf(`
[core]
max_iterations = 50
cache_dir = %q

[llm]
model = "claude-3-5-sonnet"
num_retries = 5

[llm."gpt-3.5-for-eval"]
model = "gpt-3.5-turbo"
`, cacheDir))

		service := NewService()
		cfg, err := service.Load(ctx,
			NewTOMLProvider(path),
			NewStaticEnvProvider(map[string]string{"LLM_NUM_RETRIES": "2"}),
		)
		require.NoError(t, err)

		assert.Equal(t, 50, cfg.MaxIterations)
		llm := cfg.GetLLM(ctx, DefaultLLMGroup)
		assert.Equal(t, "claude-3-5-sonnet", llm.Model)
		assert.Equal(t, 2, llm.NumRetries)

		eval := cfg.GetLLM(ctx, "gpt-3.5-for-eval")
		assert.Equal(t, "gpt-3.5-turbo", eval.Model)
		assert.Equal(t, 5, eval.NumRetries)
	})
	t.Run("Should apply environment sources after documents regardless of argument order", func(t *testing.T) {
		ctx := testContext(t)
		cacheDir := filepath.Join(t.TempDir(), "cache")
		path := writeTOML(t, fmt.Sprintf("[core]\nmax_iterations = 50\ncache_dir = %q\n", cacheDir))

		service := NewService()
		cfg, err := service.Load(ctx,
			NewStaticEnvProvider(map[string]string{"MAX_ITERATIONS": "7"}),
			NewTOMLProvider(path),
		)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.MaxIterations)
	})
	t.Run("Should warn and continue when a document is missing", func(t *testing.T) {
		ctx, buf := captureLog(t)
		service := NewService()
		cfg, err := service.Load(ctx, NewTOMLProvider(filepath.Join(t.TempDir(), "missing.toml")))
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.MaxIterations)
		assert.Contains(t, buf.String(), "skipping configuration document")
	})
	t.Run("Should warn and continue when a document does not parse", func(t *testing.T) {
		ctx, buf := captureLog(t)
		path := writeTOML(t, "core = not valid toml [")
		service := NewService()
		cfg, err := service.Load(ctx, NewTOMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.MaxIterations)
		assert.Contains(t, buf.String(), "skipping configuration document")
	})
	t.Run("Should run the finalization pass", func(t *testing.T) {
		ctx := testContext(t)
		cacheDir := filepath.Join(t.TempDir(), "cache")
		path := writeTOML(t, fmt.Sprintf("[core]\nworkspace_base = \"/ws\"\ncache_dir = %q\n", cacheDir))
		service := NewService()
		cfg, err := service.Load(ctx, NewTOMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, "/ws", cfg.WorkspaceMountPath)
		assert.DirExists(t, cacheDir)
	})
	t.Run("Should load with no sources at all", func(t *testing.T) {
		ctx := testContext(t)
		service := NewService()
		cfg, err := service.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "CodeActAgent", cfg.DefaultAgent)
	})
}

func TestServiceValidate(t *testing.T) {
	t.Run("Should accept a default configuration", func(t *testing.T) {
		ctx := testContext(t)
		cfg := Default()
		cfg.GetLLM(ctx, DefaultLLMGroup)
		cfg.GetAgent(ctx, DefaultAgentGroup)
		assert.NoError(t, NewService().Validate(cfg))
	})
	t.Run("Should reject a nil configuration", func(t *testing.T) {
		assert.Error(t, NewService().Validate(nil))
	})
	t.Run("Should reject an empty default agent", func(t *testing.T) {
		cfg := Default()
		cfg.DefaultAgent = ""
		assert.Error(t, NewService().Validate(cfg))
	})
	t.Run("Should reject a summarization fraction outside (0, 1]", func(t *testing.T) {
		ctx := testContext(t)
		cfg := Default()
		cfg.GetLLM(ctx, DefaultLLMGroup).MemorySummarizationFraction = 1.5
		err := NewService().Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "memory_summarization_fraction")
	})
	t.Run("Should reject a non-positive sandbox timeout", func(t *testing.T) {
		cfg := Default()
		cfg.Sandbox.Timeout = 0
		assert.Error(t, NewService().Validate(cfg))
	})
}
