// Package config loads schnell's settings.
// Precedence, highest first:
//  1. CLI flags (applied by the caller)
//  2. environment variables (API_KEY, HF_TOKEN, SCHNELL_PROVIDER, ...)
//  3. the file given by --config, or ~/.config/schnell/config.yaml
//  4. defaults
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in the provider field.
const (
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
	ProviderOpenAI      = "openai"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// DefaultQuotaBytes matches the usual browser localStorage budget.
const DefaultQuotaBytes int64 = 5 << 20

// ProviderConfig holds the settings of one provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// StorageConfig selects where the gallery lives.
type StorageConfig struct {
	// Backend is "sqlite" (default), "file" or "memory".
	Backend string `yaml:"backend"`

	// Path of the database or JSON file. Empty means the default data dir.
	Path string `yaml:"path"`

	// QuotaBytes caps the stored size; 0 or less disables the cap.
	QuotaBytes int64 `yaml:"quota_bytes"`
}

// Config is the complete schnell configuration.
type Config struct {
	// Provider is the active provider name.
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	Providers map[string]*ProviderConfig `yaml:"providers"`

	Storage StorageConfig `yaml:"storage"`

	// ExportDir is where saved images are written.
	ExportDir string `yaml:"export_dir"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:  ProviderHuggingFace,
		Providers: make(map[string]*ProviderConfig),
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			QuotaBytes: DefaultQuotaBytes,
		},
		ExportDir: ".",
		LogLevel:  "info",
	}
}

// DefaultPath returns ~/.config/schnell/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "schnell", "config.yaml"), nil
}

// DataDir returns ~/.local/share/schnell, where the gallery and logs live.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "schnell"), nil
}

// Load reads configPath (or the default path), then applies environment
// overrides. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		if p, err := DefaultPath(); err == nil {
			configPath = p
		}
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}

	applyEnvOverrides(cfg)

	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetProviderConfig returns the named provider's settings, or an empty config.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok && pc != nil {
		return pc
	}
	return &ProviderConfig{}
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderHuggingFace, ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q (want %s, %s or %s)",
			c.Provider, ProviderHuggingFace, ProviderGemini, ProviderOpenAI)
	}
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s, %s or %s)",
			c.Storage.Backend, BackendSQLite, BackendFile, BackendMemory)
	}
	return nil
}

func (c *Config) fillDefaults() error {
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendSQLite
	}
	if c.Storage.Path == "" && c.Storage.Backend != BackendMemory {
		dir, err := DataDir()
		if err != nil {
			return fmt.Errorf("locate data dir: %w", err)
		}
		name := "gallery.db"
		if c.Storage.Backend == BackendFile {
			name = "gallery.json"
		}
		c.Storage.Path = filepath.Join(dir, name)
	}
	if c.ExportDir == "" {
		c.ExportDir = "."
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}

func (c *Config) provider(name string) *ProviderConfig {
	if c.Providers[name] == nil {
		c.Providers[name] = &ProviderConfig{}
	}
	return c.Providers[name]
}

// applyEnvOverrides copies environment variables into cfg.
func applyEnvOverrides(cfg *Config) {
	// HuggingFace token: API_KEY beats HF_API_KEY beats HF_TOKEN.
	for _, key := range []string{"HF_TOKEN", "HF_API_KEY", "API_KEY"} {
		if v := os.Getenv(key); v != "" {
			cfg.provider(ProviderHuggingFace).APIKey = v
		}
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.provider(ProviderGemini).APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.provider(ProviderOpenAI).APIKey = v
	}

	if v := os.Getenv("SCHNELL_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("SCHNELL_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("SCHNELL_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
}
