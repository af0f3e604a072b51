package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scribeai/scribe/internal/llm"
)

// EnvPrefix is the namespace prefix for all Scribe environment variables.
const EnvPrefix = "SCRIBE_"

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	ListenAddr            string `yaml:"listen_addr"`
	DBPath                string `yaml:"db_path"`
	ReapTimeout           string `yaml:"reap_timeout"`
	TranscribeTimeout     string `yaml:"transcribe_timeout"`
	SummarizeTimeout      string `yaml:"summarize_timeout"`
	TranscriptionProvider string `yaml:"transcription_provider"`
	TranscriptionModel    string `yaml:"transcription_model"`
	SummaryModel          string `yaml:"summary_model"`
	GDriveFolderID        string `yaml:"gdrive_folder_id"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`

	// Secrets come from env vars only and are never serialized to YAML.
	GeminiAPIKey    string `yaml:"-"`
	DeepgramAPIKey  string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
}

func defaults() Config {
	return Config{
		ListenAddr:            ":4000",
		DBPath:                "data/scribe.db",
		ReapTimeout:           "10m",
		TranscribeTimeout:     "30s",
		SummarizeTimeout:      "60s",
		TranscriptionProvider: "gemini",
		TranscriptionModel:    "gemini-1.5-flash",
		SummaryModel:          "gemini/gemini-1.5-flash",
		GoogleCredentialsFile: "./service-account.json",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

// ParsedReapTimeout returns ReapTimeout as a time.Duration, falling back
// to 10m if the value is invalid.
func (c *Config) ParsedReapTimeout() time.Duration {
	return parseDuration(c.ReapTimeout, 10*time.Minute)
}

// ParsedTranscribeTimeout bounds a single transcription call.
func (c *Config) ParsedTranscribeTimeout() time.Duration {
	return parseDuration(c.TranscribeTimeout, 30*time.Second)
}

// ParsedSummarizeTimeout bounds the one summarization call per session.
func (c *Config) ParsedSummarizeTimeout() time.Duration {
	return parseDuration(c.SummarizeTimeout, 60*time.Second)
}

// TranscriptionAPIKey returns the secret for the configured transcription
// provider.
func (c *Config) TranscriptionAPIKey() string {
	switch c.TranscriptionProvider {
	case "deepgram":
		return c.DeepgramAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// SummaryAPIKey returns the secret matching the SummaryModel provider.
func (c *Config) SummaryAPIKey() string {
	provider, _, err := llm.ParseModel(c.SummaryModel)
	if err != nil {
		return ""
	}
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return ""
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(EnvPrefix + "DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvPrefix + "REAP_TIMEOUT"); v != "" {
		cfg.ReapTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "TRANSCRIBE_TIMEOUT"); v != "" {
		cfg.TranscribeTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "SUMMARIZE_TIMEOUT"); v != "" {
		cfg.SummarizeTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "TRANSCRIPTION_PROVIDER"); v != "" {
		cfg.TranscriptionProvider = v
	}
	if v := os.Getenv(EnvPrefix + "TRANSCRIPTION_MODEL"); v != "" {
		cfg.TranscriptionModel = v
	}
	if v := os.Getenv(EnvPrefix + "SUMMARY_MODEL"); v != "" {
		cfg.SummaryModel = v
	}
	if v := os.Getenv(EnvPrefix + "GDRIVE_FOLDER_ID"); v != "" {
		cfg.GDriveFolderID = v
	}
	if v := os.Getenv(EnvPrefix + "GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.GoogleCredentialsFile = v
	}
}

func loadSecrets(cfg *Config) {
	cfg.GeminiAPIKey = os.Getenv(EnvPrefix + "GEMINI_API_KEY")
	cfg.DeepgramAPIKey = os.Getenv(EnvPrefix + "DEEPGRAM_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv(EnvPrefix + "OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv(EnvPrefix + "ANTHROPIC_API_KEY")
}

func validate(cfg *Config) []string {
	var warnings []string

	switch cfg.TranscriptionProvider {
	case "gemini", "deepgram":
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown transcription_provider %q — falling back to gemini.", cfg.TranscriptionProvider))
		cfg.TranscriptionProvider = "gemini"
	}

	if cfg.TranscriptionAPIKey() == "" {
		warnings = append(warnings, "Transcription API key not configured — fragment transcription will fail. Set "+EnvPrefix+"GEMINI_API_KEY or "+EnvPrefix+"DEEPGRAM_API_KEY.")
	}
	if cfg.SummaryAPIKey() == "" {
		warnings = append(warnings, "Summary API key not configured — session summaries are disabled.")
	}
	if _, _, err := llm.ParseModel(cfg.SummaryModel); err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid summary_model %q — expected provider/model_name.", cfg.SummaryModel))
	}
	for name, raw := range map[string]string{
		"reap_timeout":       cfg.ReapTimeout,
		"transcribe_timeout": cfg.TranscribeTimeout,
		"summarize_timeout":  cfg.SummarizeTimeout,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid %s %q — using default.", name, raw))
		}
	}

	return warnings
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
