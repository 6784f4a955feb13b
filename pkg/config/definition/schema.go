package definition

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Group names and well-known defaults shared across the application.
const (
	DefaultAgentName = "CodeActAgent"
	MaxIterations    = 100

	// UndefinedPath marks a path field that was never explicitly set.
	// Distinct from the empty string, which means "do not mount".
	UndefinedPath = "UNDEFINED"
)

var (
	llmOnce      sync.Once
	llmFields    *Fields
	memoryOnce   sync.Once
	memoryFields *Fields
	agentOnce    sync.Once
	agentFields  *Fields
	sandboxOnce  sync.Once
	sandboxFlds  *Fields
	securityOnce sync.Once
	securityFlds *Fields
	coreOnce     sync.Once
	coreFields   *Fields
)

// LLMFields returns the field table for the LLM configuration kind.
func LLMFields() *Fields {
	llmOnce.Do(func() {
		llmFields = New("LLM",
			FieldDef{Name: "model", Type: TypeString, Default: "gpt-4o"},
			FieldDef{Name: "api_key", Type: TypeNullableString, Sensitive: true},
			FieldDef{Name: "base_url", Type: TypeNullableString},
			FieldDef{Name: "api_version", Type: TypeNullableString},
			FieldDef{Name: "aws_access_key_id", Type: TypeNullableString, Sensitive: true},
			FieldDef{Name: "aws_secret_access_key", Type: TypeNullableString, Sensitive: true},
			FieldDef{Name: "aws_region_name", Type: TypeNullableString},
			FieldDef{Name: "num_retries", Type: TypeInt, Default: 10},
			FieldDef{Name: "retry_multiplier", Type: TypeFloat, Default: 2.0},
			FieldDef{Name: "retry_min_wait", Type: TypeInt, Default: 3},
			FieldDef{Name: "retry_max_wait", Type: TypeInt, Default: 300},
			FieldDef{Name: "timeout", Type: TypeNullableInt},
			FieldDef{Name: "max_message_chars", Type: TypeInt, Default: 10_000},
			FieldDef{Name: "temperature", Type: TypeFloat, Default: 0.0},
			FieldDef{Name: "top_p", Type: TypeFloat, Default: 0.5},
			FieldDef{Name: "custom_llm_provider", Type: TypeNullableString},
			FieldDef{Name: "max_input_tokens", Type: TypeNullableInt},
			FieldDef{Name: "max_output_tokens", Type: TypeNullableInt},
			FieldDef{Name: "input_cost_per_token", Type: TypeNullableFloat},
			FieldDef{Name: "output_cost_per_token", Type: TypeNullableFloat},
			FieldDef{Name: "ollama_base_url", Type: TypeNullableString},
			FieldDef{Name: "drop_params", Type: TypeNullableBool},
			FieldDef{Name: "memory_summarization_fraction", Type: TypeFloat, Default: 0.75},
			// Deprecated: embedding settings belong on the memory config.
			// Kept so the finalize pass can migrate them.
			FieldDef{Name: "embedding_model", Type: TypeNullableString},
			FieldDef{Name: "embedding_base_url", Type: TypeNullableString},
			FieldDef{Name: "embedding_deployment_name", Type: TypeNullableString},
		)
	})
	return llmFields
}

// MemoryFields returns the field table for the memory configuration kind.
func MemoryFields() *Fields {
	memoryOnce.Do(func() {
		memoryFields = New("MEMORY",
			FieldDef{Name: "embedding_model", Type: TypeString, Default: "local"},
			FieldDef{Name: "base_url", Type: TypeNullableString},
			FieldDef{Name: "embedding_deployment_name", Type: TypeNullableString},
			FieldDef{Name: "api_key", Type: TypeNullableString, Sensitive: true},
			FieldDef{Name: "api_version", Type: TypeNullableString},
		)
	})
	return memoryFields
}

// AgentFields returns the field table for the agent configuration kind.
// The cross-reference fields are document-only and excluded from
// environment loading.
func AgentFields() *Fields {
	agentOnce.Do(func() {
		agentFields = New("AGENT",
			FieldDef{Name: "memory_enabled", Type: TypeBool, Default: false},
			FieldDef{Name: "memory_max_threads", Type: TypeInt, Default: 2},
			FieldDef{Name: "llm_config", Type: TypeNullableString, EnvExcluded: true},
			FieldDef{Name: "memory_config", Type: TypeNullableString, EnvExcluded: true},
		)
	})
	return agentFields
}

// SandboxFields returns the field table for the sandbox configuration kind.
func SandboxFields() *Fields {
	sandboxOnce.Do(func() {
		sandboxFlds = New("SANDBOX",
			FieldDef{Name: "api_hostname", Type: TypeString, Default: "localhost"},
			FieldDef{Name: "container_image", Type: TypeString, Default: "nikolaik/python-nodejs:python3.11-nodejs22"},
			FieldDef{Name: "user_id", Type: TypeInt, Default: currentUserID()},
			FieldDef{Name: "timeout", Type: TypeInt, Default: 120},
			FieldDef{Name: "enable_auto_lint", Type: TypeBool, Default: false},
			FieldDef{Name: "use_host_network", Type: TypeBool, Default: false},
			FieldDef{Name: "initialize_plugins", Type: TypeBool, Default: true},
			FieldDef{Name: "runtime_extra_deps", Type: TypeNullableString},
			FieldDef{Name: "runtime_startup_env_vars", Type: TypeStringMap, Default: map[string]string{}},
			FieldDef{Name: "browsergym_eval_env", Type: TypeNullableString},
		)
	})
	return sandboxFlds
}

// SecurityFields returns the field table for the security configuration kind.
func SecurityFields() *Fields {
	securityOnce.Do(func() {
		securityFlds = New("SECURITY",
			FieldDef{Name: "confirmation_mode", Type: TypeBool, Default: false},
			FieldDef{Name: "security_analyzer", Type: TypeNullableString},
		)
	})
	return securityFlds
}

// CoreFields returns the field table for the aggregate's top-level
// scalar fields. These use bare uppercased names in the environment.
func CoreFields() *Fields {
	coreOnce.Do(func() {
		coreFields = New("",
			FieldDef{Name: "default_agent", Type: TypeString, Default: DefaultAgentName},
			FieldDef{Name: "runtime", Type: TypeString, Default: "eventstream"},
			FieldDef{Name: "file_store", Type: TypeString, Default: "memory"},
			FieldDef{Name: "file_store_path", Type: TypeString, Default: "/tmp/file_store"},
			FieldDef{Name: "workspace_base", Type: TypeString, Default: defaultWorkspaceBase()},
			FieldDef{Name: "workspace_mount_path", Type: TypeString, Default: UndefinedPath},
			FieldDef{Name: "workspace_mount_path_in_sandbox", Type: TypeString, Default: "/workspace"},
			FieldDef{Name: "workspace_mount_rewrite", Type: TypeNullableString},
			FieldDef{Name: "cache_dir", Type: TypeString, Default: "/tmp/cache"},
			FieldDef{Name: "run_as_agent", Type: TypeBool, Default: true},
			FieldDef{Name: "max_iterations", Type: TypeInt, Default: MaxIterations},
			FieldDef{Name: "max_budget_per_task", Type: TypeNullableFloat},
			FieldDef{Name: "e2b_api_key", Type: TypeString, Default: "", Sensitive: true},
			FieldDef{Name: "jwt_secret", Type: TypeString, Default: newJWTSecret(), Sensitive: true},
			FieldDef{Name: "disable_color", Type: TypeBool, Default: false},
			FieldDef{Name: "debug", Type: TypeBool, Default: false},
			FieldDef{Name: "enable_cli_session", Type: TypeBool, Default: false},
			FieldDef{Name: "file_uploads_max_file_size_mb", Type: TypeInt, Default: 0},
			FieldDef{Name: "file_uploads_restrict_file_types", Type: TypeBool, Default: false},
			FieldDef{Name: "file_uploads_allowed_extensions", Type: TypeStringSlice, Default: []string{".*"}},
		)
	})
	return coreFields
}

func defaultWorkspaceBase() string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return filepath.Join(cwd, "workspace")
}

func currentUserID() int {
	if uid := os.Getuid(); uid >= 0 {
		return uid
	}
	return 1000
}

// newJWTSecret generates the process-lifetime fallback secret. It is
// evaluated once because the table is built once.
func newJWTSecret() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
