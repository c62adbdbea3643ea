package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v2"
)

// Config is the global configuration of the remedy application.
type Config struct {
	Logger     Logger          `yaml:"logger" toml:"logger"`
	HTTPClient HTTPClient      `yaml:"http_client" toml:"http_client"`
	Remedy     Remedy          `yaml:"remedy" toml:"remedy"`
	Scanner    Scanner         `yaml:"scanner" toml:"scanner"`
	Tiers      []Tier          `yaml:"tiers" toml:"tiers"`
	Strategist Strategist      `yaml:"strategist" toml:"strategist"`
	Pricing    map[string]Rate `yaml:"pricing" toml:"pricing"`
	Audit      Audit           `yaml:"audit" toml:"audit"`
}

// Logger holds the logging settings.
type Logger struct {
	Level           string `yaml:"level" toml:"level"`
	DisableTime     *bool  `yaml:"disable_time" toml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format" toml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location" toml:"include_location"`
}

// HTTPClient holds the settings shared by every outgoing HTTP client.
type HTTPClient struct {
	Debug            *bool           `yaml:"debug" toml:"debug"`
	RetryCount       int             `yaml:"retry_count" toml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time" toml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time" toml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout" toml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config" toml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy" toml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify" toml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

// Remedy holds the engine settings.
type Remedy struct {
	HomeFolder    string `yaml:"home_folder" toml:"home_folder"`
	ResultsFolder string `yaml:"results_folder" toml:"results_folder"`
	PluginsFolder string `yaml:"plugins_folder" toml:"plugins_folder"`
	Dataset       string `yaml:"dataset" toml:"dataset"`
	Version       string `yaml:"version" toml:"version"`
	WindowRadius  *int   `yaml:"window_radius" toml:"window_radius"`
	LineTracking  string `yaml:"line_tracking" toml:"line_tracking"`
}

// Scanner describes how the static analyzer is invoked.
type Scanner struct {
	Kind           string        `yaml:"kind" toml:"kind"`
	Binary         string        `yaml:"binary" toml:"binary"`
	Format         string        `yaml:"format" toml:"format"`
	Plugin         string        `yaml:"plugin" toml:"plugin"`
	Timeout        time.Duration `yaml:"timeout" toml:"timeout"`
	AdditionalArgs []string      `yaml:"additional_args" toml:"additional_args"`
}

// Tier binds one escalation level to a proposer backend.
type Tier struct {
	Name        string        `yaml:"name" toml:"name"`
	Level       int           `yaml:"level" toml:"level"`
	Model       string        `yaml:"model" toml:"model"`
	Endpoint    string        `yaml:"endpoint" toml:"endpoint"`
	APIKeyEnv   string        `yaml:"api_key_env" toml:"api_key_env"`
	Prompt      string        `yaml:"prompt" toml:"prompt"`
	Temperature *float64      `yaml:"temperature" toml:"temperature"`
	Timeout     time.Duration `yaml:"timeout" toml:"timeout"`
}

// Strategist selects how remediation strategies are produced.
type Strategist struct {
	Kind      string `yaml:"kind" toml:"kind"`
	Model     string `yaml:"model" toml:"model"`
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env" toml:"api_key_env"`
}

// Rate is a price in USD per one million tokens.
type Rate struct {
	Input  float64 `yaml:"input" toml:"input"`
	Output float64 `yaml:"output" toml:"output"`
}

// Audit configures where audit records go.
type Audit struct {
	JSONLPath  string `yaml:"jsonl_path" toml:"jsonl_path"`
	SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	S3         S3     `yaml:"s3" toml:"s3"`
	Gate       string `yaml:"gate" toml:"gate"`
}

type S3 struct {
	Bucket string `yaml:"bucket" toml:"bucket"`
	Region string `yaml:"region" toml:"region"`
	Prefix string `yaml:"prefix" toml:"prefix"`
}

// ValidateConfigPath checks that the path points to a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes a YAML file into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadTOML decodes a TOML file into data.
func LoadTOML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}
	if _, err := toml.DecodeFile(configPath, data); err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", configPath, err)
	}
	return nil
}

// LoadConfig reads the configuration file and fills unset values with defaults.
// A missing file is not an error when allowMissing is set.
func LoadConfig(configPath string, allowMissing bool) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) && allowMissing {
		ApplyDefaults(cfg)
		return cfg, nil
	}

	var err error
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		err = LoadTOML(configPath, cfg)
	default:
		err = LoadYAML(configPath, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}
