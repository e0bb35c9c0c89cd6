package configs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/markweb/markweb-mcp/internal/domain"
	"github.com/markweb/markweb-mcp/internal/usecase"
)

// DefaultProfile is the front-end served when nothing selects one.
const DefaultProfile = "markweb"

// envPrefix makes every variable read as MARKWEB_MCP_<FIELD>.
const envPrefix = "markweb_mcp"

// FileConfig defines the structure loaded from the optional YAML
// configuration file. Environment variables override all of it.
type FileConfig struct {
	Profile string            `yaml:"profile"`
	BaseURL string            `yaml:"base_url"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Config holds the final application configuration, merged from the optional
// file and environment variables. The API key itself is not here: it is
// resolved separately by ResolveCredentials because its variable name
// depends on the selected profile.
type Config struct {
	// Config file path (loaded first from env)
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// File-overridable fields. No envconfig defaults here: defaults with a
	// tag would clobber file values on the override pass.
	Profile string `envconfig:"PROFILE"`
	BaseURL string `envconfig:"BASE_URL"`

	// File-only field
	Headers map[string]string

	// Environment-only fields
	HTTPClientTimeout        time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`
	MaxRedirects             int           `envconfig:"MAX_REDIRECTS" default:"5"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFile                  string        `envconfig:"LOG_FILE" default:"/tmp/markweb-mcp.log"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration first from environment variables (to get the file
// path), then from the YAML file if one is specified, and finally processes
// the environment again so env settings always win over file settings.
func Load() (*Config, error) {
	var initialCfg Config
	if err := envconfig.Process(envPrefix, &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(initialCfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		slog.Debug("Loaded configuration from file.", "path", initialCfg.ConfigFilePath)
	}

	finalCfg := initialCfg
	if fileCfg.Profile != "" {
		finalCfg.Profile = fileCfg.Profile
	}
	if fileCfg.BaseURL != "" {
		finalCfg.BaseURL = fileCfg.BaseURL
	}
	finalCfg.Headers = fileCfg.Headers

	// Process environment variables again so they override file settings.
	if err := envconfig.Process(envPrefix, &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}

	if finalCfg.Profile == "" {
		finalCfg.Profile = DefaultProfile
	}
	return &finalCfg, nil
}

// ResolveCredentials reads the profile's API key variable and fixes the base
// URL, producing the immutable credential value handed to the invoker. This
// is the only place the key is read; nothing reassigns it afterward.
func (c *Config) ResolveCredentials(p domain.ServiceProfile) usecase.Credentials {
	base := c.BaseURL
	if base == "" {
		base = p.DefaultBaseURL
	}
	return usecase.Credentials{
		HeaderName: p.HeaderName,
		KeyEnvVar:  p.KeyEnvVar,
		APIKey:     os.Getenv(p.KeyEnvVar),
		BaseURL:    strings.TrimRight(base, "/"),
	}
}
