package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	app_errors "github.com/docchat/cli/internal/errors"
	"github.com/docchat/cli/internal/gateway"
)

// Environment variables that override the backend URL, in priority order.
const (
	EnvBackendURL       = "DOCCHAT_BACKEND_URL"
	EnvLegacyBackendURL = "REACT_APP_BACKEND_URL"
)

// Config holds application configuration
type Config struct {
	Backend struct {
		BaseURL string `yaml:"base_url" validate:"required,url"`
	} `yaml:"backend"`
	Upload struct {
		AllowedExtensions []string `yaml:"allowed_extensions" validate:"required,min=1,dive,startswith=.,excludesall=/"`
	} `yaml:"upload"`
	Logging struct {
		File  string `yaml:"file" validate:"required"`
		Level string `yaml:"level" validate:"oneof=debug info warn error"`
	} `yaml:"logging"`
}

// Dir is the directory holding the config file and the log.
func Dir() string {
	return filepath.Join(os.Getenv("HOME"), ".docchat")
}

// Path is the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load loads configuration from the default file and ./.env, or returns
// defaults
func Load() (*Config, error) {
	return LoadFrom(Path(), ".env")
}

// LoadFrom reads the YAML file at path over the defaults, then applies the
// environment. envFile, when it exists, is loaded into the environment first
// without overriding variables that are already set.
func LoadFrom(path, envFile string) (*Config, error) {
	cfg := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	for _, key := range []string{EnvBackendURL, EnvLegacyBackendURL} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			c.Backend.BaseURL = v
			return
		}
	}
}

var validate = validator.New()

// Validate checks every field against its `validate` tag.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: invalid config: %s", app_errors.ErrValidation, err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on the '%s' tag", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: invalid config: %s", app_errors.ErrValidation, strings.Join(msgs, "; "))
}

// Save saves configuration to the default file
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the configuration as YAML to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Backend.BaseURL = gateway.DefaultBaseURL
	cfg.Upload.AllowedExtensions = []string{".pdf", ".txt"}
	cfg.Logging.File = filepath.Join(Dir(), "docchat.log")
	cfg.Logging.Level = "info"

	return cfg
}
