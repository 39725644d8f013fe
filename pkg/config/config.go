package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duplicate GUID policies accepted by matching.duplicate_policy
const (
	DuplicatePolicyLastWriteWins = "last_write_wins"
	DuplicatePolicyCollectAll    = "collect_all"
	DuplicatePolicyReject        = "reject"
)

// Config represents the application configuration
type Config struct {
	Indexer  IndexerConfig  `yaml:"indexer"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Matching MatchingConfig `yaml:"matching"`
}

// IndexerConfig contains the GraphQL indexer endpoint settings
type IndexerConfig struct {
	Endpoint string        `yaml:"endpoint" default:"http://localhost:8080/v1/graphql" validate:"required,url"`
	Timeout  time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
}

// ServerConfig contains HTTP server settings used in serve mode
type ServerConfig struct {
	Host               string  `yaml:"host" default:"0.0.0.0"`
	Port               int     `yaml:"port" default:"8090" validate:"min=1,max=65535"`
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second" default:"1" validate:"gt=0"`
	RateBurst          int     `yaml:"rate_burst" default:"2" validate:"min=1"`

	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"60s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"90s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stderr"`
}

// MatchingConfig controls GUID matching behaviour
type MatchingConfig struct {
	DuplicatePolicy string `yaml:"duplicate_policy" default:"last_write_wins" validate:"oneof=last_write_wins collect_all reject"`
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	var cfg Config
	// defaults.Set only fails on non-pointer input or malformed tags
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &cfg
}

// Load loads configuration from a YAML file. Keys absent from the file keep their defaults.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// ListenAddress returns host:port for the serve mode HTTP server
func (c *ServerConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
