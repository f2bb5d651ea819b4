package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProvider = "gemini"
	DefaultModel    = "gemini-1.5-flash"
	DefaultSubject  = "audit.reports"
)

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

type LoggingConfig struct {
	Format string `yaml:"format"` // json or text
	Level  string `yaml:"level"`
}

type EventsConfig struct {
	NatsURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

type Config struct {
	SelectedProvider string                    `yaml:"selected_provider"`
	SelectedModel    string                    `yaml:"selected_model"`
	Providers        map[string]ProviderConfig `yaml:"providers"`

	PolicyFile   string        `yaml:"policy_file,omitempty"`
	TemplatesDir string        `yaml:"templates_dir,omitempty"`
	ExportDir    string        `yaml:"export_dir,omitempty"`
	Logging      LoggingConfig `yaml:"logging"`
	Events       EventsConfig  `yaml:"events"`
}

// providerEnv maps providers to the environment variable holding their key.
var providerEnv = map[string]string{
	"gemini":    "GOOGLE_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		SelectedProvider: DefaultProvider,
		SelectedModel:    DefaultModel,
		Providers:        make(map[string]ProviderConfig),
		ExportDir:        ".",
		Logging:          LoggingConfig{Format: "text", Level: "info"},
		Events:           EventsConfig{Subject: DefaultSubject},
	}
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".axiom")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom reads the config at path. A missing file yields Default().
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultSubject
	}
	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigTo(path, cfg)
}

func SaveConfigTo(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// 0600 permissions for security (api keys)
	return os.WriteFile(path, data, 0600)
}

// LoadDotEnv loads the first .env file found among paths. Variables already
// set in the environment win. It reports the file that was loaded, if any.
func LoadDotEnv(paths ...string) string {
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// ApplyEnv overrides file settings from the environment. It is applied to
// the runtime view only; commands that save the config must not call it.
func (c *Config) ApplyEnv() {
	for provider, env := range providerEnv {
		if key := os.Getenv(env); key != "" {
			c.SetAPIKey(provider, key)
		}
	}
	if v := os.Getenv("AXIOM_PROVIDER"); v != "" {
		c.SelectedProvider = strings.ToLower(v)
	}
	if v := os.Getenv("AXIOM_MODEL"); v != "" {
		c.SelectedModel = v
	}
	if v := os.Getenv("AXIOM_NATS_URL"); v != "" {
		c.Events.NatsURL = v
	}
	if v := os.Getenv("AXIOM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("AXIOM_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("AXIOM_EXPORT_DIR"); v != "" {
		c.ExportDir = v
	}
}

func (c *Config) SetAPIKey(provider, key string) {
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

func (c *Config) GetAPIKey(provider string) string {
	return c.Providers[provider].APIKey
}
