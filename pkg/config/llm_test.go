package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLLM(t *testing.T) {
	t.Run("Should populate declared defaults", func(t *testing.T) {
		cfg := DefaultLLM()
		assert.Equal(t, "gpt-4o", cfg.Model)
		assert.Equal(t, 10, cfg.NumRetries)
		assert.Equal(t, 2.0, cfg.RetryMultiplier)
		assert.Equal(t, 3, cfg.RetryMinWait)
		assert.Equal(t, 300, cfg.RetryMaxWait)
		assert.Equal(t, 10_000, cfg.MaxMessageChars)
		assert.Equal(t, 0.0, cfg.Temperature)
		assert.Equal(t, 0.5, cfg.TopP)
		assert.Equal(t, 0.75, cfg.MemorySummarizationFraction)
	})
	t.Run("Should leave nullable fields unset", func(t *testing.T) {
		cfg := DefaultLLM()
		assert.Nil(t, cfg.BaseURL)
		assert.Nil(t, cfg.Timeout)
		assert.Nil(t, cfg.MaxInputTokens)
		assert.Nil(t, cfg.DropParams)
		assert.Empty(t, cfg.APIKey.Value())
	})
}

func TestLLMFromEnv(t *testing.T) {
	t.Run("Should override defaults from prefixed variables", func(t *testing.T) {
		ctx := testContext(t)
		cfg := LLMFromEnv(ctx, map[string]string{
			"LLM_MODEL":       "claude-3-5-sonnet",
			"LLM_API_KEY":     "sk-test",
			"LLM_NUM_RETRIES": "4",
			"LLM_TIMEOUT":     "30",
			"LLM_TOP_P":       "0.9",
			"LLM_DROP_PARAMS": "true",
		})
		assert.Equal(t, "claude-3-5-sonnet", cfg.Model)
		assert.Equal(t, "sk-test", cfg.APIKey.Value())
		assert.Equal(t, 4, cfg.NumRetries)
		require.NotNil(t, cfg.Timeout)
		assert.Equal(t, 30, *cfg.Timeout)
		assert.Equal(t, 0.9, cfg.TopP)
		require.NotNil(t, cfg.DropParams)
		assert.True(t, *cfg.DropParams)
	})
	t.Run("Should ignore empty and absent variables", func(t *testing.T) {
		ctx := testContext(t)
		cfg := LLMFromEnv(ctx, map[string]string{"LLM_MODEL": ""})
		assert.Equal(t, "gpt-4o", cfg.Model)
	})
	t.Run("Should warn and keep the default on a malformed value", func(t *testing.T) {
		ctx, buf := captureLog(t)
		cfg := LLMFromEnv(ctx, map[string]string{"LLM_NUM_RETRIES": "many"})
		assert.Equal(t, 10, cfg.NumRetries)
		assert.Contains(t, buf.String(), "ignoring malformed environment value")
	})
}

func TestLLMFromDocument(t *testing.T) {
	t.Run("Should apply scalar entries to the default group", func(t *testing.T) {
		ctx := testContext(t)
		configs := LLMFromDocument(ctx, map[string]any{
			"llm": map[string]any{
				"model":       "claude-3-5-sonnet",
				"num_retries": 5,
			},
		})
		cfg := configs[DefaultLLMGroup]
		require.NotNil(t, cfg)
		assert.Equal(t, "claude-3-5-sonnet", cfg.Model)
		assert.Equal(t, 5, cfg.NumRetries)
		assert.Equal(t, 0.5, cfg.TopP)
	})
	t.Run("Should inherit default group values in named override groups", func(t *testing.T) {
		ctx := testContext(t)
		configs := LLMFromDocument(ctx, map[string]any{
			"llm": map[string]any{
				"model":       "claude-3-5-sonnet",
				"num_retries": 5,
				"gpt-3.5-for-eval": map[string]any{
					"model": "gpt-3.5-turbo",
				},
			},
		})
		override, ok := configs["gpt-3.5-for-eval"]
		require.True(t, ok)
		assert.Equal(t, "gpt-3.5-turbo", override.Model)
		assert.Equal(t, 5, override.NumRetries)
	})
	t.Run("Should keep the default group's pointer fields when an override sets them", func(t *testing.T) {
		ctx := testContext(t)
		configs := LLMFromDocument(ctx, map[string]any{
			"llm": map[string]any{
				"base_url": "https://default.example",
				"eval": map[string]any{
					"base_url": "https://eval.example",
				},
			},
		})
		require.NotNil(t, configs[DefaultLLMGroup].BaseURL)
		assert.Equal(t, "https://default.example", *configs[DefaultLLMGroup].BaseURL)
		require.NotNil(t, configs["eval"].BaseURL)
		assert.Equal(t, "https://eval.example", *configs["eval"].BaseURL)
	})
	t.Run("Should not share pointer fields between default and override groups", func(t *testing.T) {
		ctx := testContext(t)
		configs := LLMFromDocument(ctx, map[string]any{
			"llm": map[string]any{
				"base_url": "https://default.example",
				"eval":     map[string]any{},
			},
		})
		*configs[DefaultLLMGroup].BaseURL = "https://mutated.example"
		require.NotNil(t, configs["eval"].BaseURL)
		assert.Equal(t, "https://default.example", *configs["eval"].BaseURL)
	})
	t.Run("Should snapshot the default group, not link to it", func(t *testing.T) {
		ctx := testContext(t)
		configs := LLMFromDocument(ctx, map[string]any{
			"llm": map[string]any{
				"eval": map[string]any{"model": "gpt-3.5-turbo"},
			},
		})
		configs[DefaultLLMGroup].NumRetries = 99
		assert.Equal(t, 10, configs["eval"].NumRetries)
	})
	t.Run("Should return just the default group for an absent section", func(t *testing.T) {
		ctx := testContext(t)
		configs := LLMFromDocument(ctx, map[string]any{})
		require.Len(t, configs, 1)
		assert.Equal(t, "gpt-4o", configs[DefaultLLMGroup].Model)
	})
}

func TestLLMGroupFromDocument(t *testing.T) {
	doc := map[string]any{
		"llm": map[string]any{
			"model": "ignored-for-named-lookup",
			"eval": map[string]any{
				"model": "gpt-3.5-turbo",
			},
		},
	}
	t.Run("Should build the named group from declared defaults", func(t *testing.T) {
		ctx := testContext(t)
		cfg := LLMGroupFromDocument(ctx, "eval", doc)
		require.NotNil(t, cfg)
		assert.Equal(t, "gpt-3.5-turbo", cfg.Model)
		assert.Equal(t, 10, cfg.NumRetries)
	})
	t.Run("Should tolerate bracketed and prefixed group names", func(t *testing.T) {
		ctx := testContext(t)
		assert.NotNil(t, LLMGroupFromDocument(ctx, "[llm.eval]", doc))
		assert.NotNil(t, LLMGroupFromDocument(ctx, "llm.eval", doc))
	})
	t.Run("Should return nil for a missing group", func(t *testing.T) {
		ctx := testContext(t)
		assert.Nil(t, LLMGroupFromDocument(ctx, "nonexistent", doc))
	})
}

func TestLLMSafeMap(t *testing.T) {
	t.Run("Should mask set sensitive fields and null unset ones", func(t *testing.T) {
		cfg := DefaultLLM()
		cfg.APIKey = "sk-test"
		view := cfg.SafeMap()
		assert.Equal(t, MaskToken, view["api_key"])
		assert.Nil(t, view["aws_access_key_id"])
		assert.Equal(t, "gpt-4o", view["model"])
	})
	t.Run("Should never contain the raw secret anywhere", func(t *testing.T) {
		cfg := DefaultLLM()
		cfg.APIKey = "sk-raw-secret"
		for key, value := range cfg.SafeMap() {
			if s, ok := value.(string); ok {
				assert.False(t, strings.Contains(s, "sk-raw-secret"), "field %s leaked the secret", key)
			}
		}
	})
}

func TestMemoryFromDocument(t *testing.T) {
	t.Run("Should apply scalar entries and inherit into override groups", func(t *testing.T) {
		ctx := testContext(t)
		configs := MemoryFromDocument(ctx, map[string]any{
			"memory": map[string]any{
				"embedding_model": "openai",
				"alt": map[string]any{
					"base_url": "http://localhost:8080",
				},
			},
		})
		assert.Equal(t, "openai", configs[DefaultMemoryGroup].EmbeddingModel)
		override := configs["alt"]
		require.NotNil(t, override)
		assert.Equal(t, "openai", override.EmbeddingModel)
		require.NotNil(t, override.BaseURL)
		assert.Equal(t, "http://localhost:8080", *override.BaseURL)
	})
	t.Run("Should keep the default group's pointer fields when an override sets them", func(t *testing.T) {
		ctx := testContext(t)
		configs := MemoryFromDocument(ctx, map[string]any{
			"memory": map[string]any{
				"base_url": "https://default.example",
				"alt": map[string]any{
					"base_url": "https://alt.example",
				},
			},
		})
		require.NotNil(t, configs[DefaultMemoryGroup].BaseURL)
		assert.Equal(t, "https://default.example", *configs[DefaultMemoryGroup].BaseURL)
		require.NotNil(t, configs["alt"].BaseURL)
		assert.Equal(t, "https://alt.example", *configs["alt"].BaseURL)
	})
}

func TestMemoryFromEnv(t *testing.T) {
	t.Run("Should override defaults from prefixed variables", func(t *testing.T) {
		ctx := testContext(t)
		cfg := MemoryFromEnv(ctx, map[string]string{
			"MEMORY_EMBEDDING_MODEL": "azureopenai",
			"MEMORY_API_KEY":         "mem-key",
		})
		assert.Equal(t, "azureopenai", cfg.EmbeddingModel)
		assert.Equal(t, "mem-key", cfg.APIKey.Value())
	})
}
