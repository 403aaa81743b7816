package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Narrative LLM configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, openrouter, ollama) use the same config.
	LLMProvider string // Provider identifier: openai, deepseek, openrouter, ollama
	LLMAPIKey   string // API key for the narrative backend
	LLMBaseURL  string // Base URL (optional, has default per provider)
	LLMModel    string // Model name: gpt-4o, deepseek-chat, etc.
	LLMTimeout  int    // Narrative request timeout in seconds (default: 120)

	// Memory extraction backend configuration (Ollama generate API).
	ExtractionBaseURL string // Base URL of the extraction backend (default: http://localhost:11434)
	ExtractionModel   string // Model used for memory extraction
	ExtractionTimeout int    // Extraction request timeout in seconds (default: 60)

	// Memory pipeline tuning.
	MemoryTurnWindow int // Recent turns handed to the extractor (default: 10)
	MemoryRecallCap  int // Max memories injected into one prompt (default: 5)

	// Server configuration.
	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string
	DSN     string
	Version string
}

// Provider default configurations for the narrative LLM.
// Used when LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsNarrativeConfigured returns true if the narrative LLM has an API key.
// Local providers (ollama) do not require one.
func (p *Profile) IsNarrativeConfigured() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Narrative LLM configuration
	p.LLMProvider = getEnvOrDefault("LOREKEEPER_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("LOREKEEPER_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("LOREKEEPER_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("LOREKEEPER_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("LOREKEEPER_AI_LLM_TIMEOUT_SECONDS", 120)

	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
			p.LLMProvider = "openai"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	// Extraction backend configuration
	p.ExtractionBaseURL = getEnvOrDefault("LOREKEEPER_AI_EXTRACTION_BASE_URL", "http://localhost:11434")
	p.ExtractionModel = getEnvOrDefault("LOREKEEPER_AI_EXTRACTION_MODEL", "qwen3:8b-q4_K_M")
	p.ExtractionTimeout = getEnvOrDefaultInt("LOREKEEPER_AI_EXTRACTION_TIMEOUT_SECONDS", 60)

	// Memory pipeline tuning
	p.MemoryTurnWindow = getEnvOrDefaultInt("LOREKEEPER_MEMORY_TURN_WINDOW", 10)
	p.MemoryRecallCap = getEnvOrDefaultInt("LOREKEEPER_MEMORY_RECALL_CAP", 5)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "lorekeeper")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/lorekeeper"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("lorekeeper_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver: %s", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	if p.MemoryTurnWindow <= 0 {
		p.MemoryTurnWindow = 10
	}
	if p.MemoryRecallCap <= 0 {
		p.MemoryRecallCap = 5
	}

	return nil
}
