// Package config loads the gateway and mock backend settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TICKETGATE_"

// EnvConfigPath names the variable holding the config file path when no
// --config flag is given.
const EnvConfigPath = envPrefix + "CONFIG"

var fileExtensions = []string{".yaml", ".yml", ".toml", ".json", ".jsonc"}

// Extensions lists the config file extensions Load understands.
func Extensions() []string {
	return slices.Clone(fileExtensions)
}

type Config struct {
	// Gateway holds the settings of the public JSON-RPC endpoint.
	Gateway GatewayConfig `yaml:"gateway" toml:"gateway" json:"gateway"`

	// Backend holds the connection settings of the REST ticketing API.
	Backend BackendConfig `yaml:"backend" toml:"backend" json:"backend"`

	Log LogConfig `yaml:"log" toml:"log" json:"log"`
}

type GatewayConfig struct {
	// ListenAddress is the TCP address of the HTTP server. Defaults to ":8000".
	ListenAddress string `yaml:"listen_address" toml:"listen_address" json:"listen_address"`

	// APIKey is the shared secret callers send in the X-API-KEY header.
	APIKey string `yaml:"api_key" toml:"api_key" json:"api_key"`

	// CORSOrigin is the allowed origin. Defaults to "*".
	CORSOrigin string `yaml:"cors_origin" toml:"cors_origin" json:"cors_origin"`

	// MaxBodyBytes bounds the size of an RPC request body. Defaults to 1 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes" toml:"max_body_bytes" json:"max_body_bytes"`

	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds" json:"shutdown_timeout_seconds"`
}

type BackendConfig struct {
	URL       string `yaml:"url" toml:"url" json:"url"`
	APIKey    string `yaml:"api_key" toml:"api_key" json:"api_key"`
	AccountID string `yaml:"account_id" toml:"account_id" json:"account_id"`

	// TimeoutSeconds is the per call timeout. Defaults to 30.
	TimeoutSeconds int `yaml:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds"`

	// RetryJitter spreads retry delays by up to half of each delay.
	RetryJitter bool `yaml:"retry_jitter" toml:"retry_jitter" json:"retry_jitter"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`

	// File is an optional path; logs go to stdout when empty.
	File string `yaml:"file" toml:"file" json:"file"`
}

func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c GatewayConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func Default() Config {
	return Config{
		Gateway: GatewayConfig{
			ListenAddress:          ":8000",
			CORSOrigin:             "*",
			MaxBodyBytes:           1 << 20,
			ShutdownTimeoutSeconds: 10,
		},
		Backend: BackendConfig{
			TimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads defaults, then the optional file at path, then TICKETGATE_*
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	case ".toml":
		if _, err = toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	case ".json", ".jsonc":
		// comments and trailing commas are allowed
		if err = json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q, want one of %s",
			ext, strings.Join(fileExtensions, ", "))
	}

	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LISTEN_ADDRESS":     &cfg.Gateway.ListenAddress,
		"API_KEY":            &cfg.Gateway.APIKey,
		"CORS_ORIGIN":        &cfg.Gateway.CORSOrigin,
		"BACKEND_URL":        &cfg.Backend.URL,
		"BACKEND_API_KEY":    &cfg.Backend.APIKey,
		"BACKEND_ACCOUNT_ID": &cfg.Backend.AccountID,
		"LOG_LEVEL":          &cfg.Log.Level,
		"LOG_FILE":           &cfg.Log.File,
	}
	for name, dst := range strs {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"BACKEND_TIMEOUT_SECONDS":  &cfg.Backend.TimeoutSeconds,
		"SHUTDOWN_TIMEOUT_SECONDS": &cfg.Gateway.ShutdownTimeoutSeconds,
	}
	for name, dst := range ints {
		v, ok := lookup(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}

	if v, ok := lookup(envPrefix + "BACKEND_RETRY_JITTER"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sBACKEND_RETRY_JITTER: %w", envPrefix, err)
		}
		cfg.Backend.RetryJitter = b
	}

	return nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Gateway.APIKey == "" {
		errs = append(errs, errors.New("gateway.api_key required"))
	}
	if c.Gateway.ListenAddress == "" {
		errs = append(errs, errors.New("gateway.listen_address required"))
	}
	if c.Gateway.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("gateway.max_body_bytes must be positive"))
	}

	if c.Backend.URL == "" {
		errs = append(errs, errors.New("backend.url required"))
	} else if u, err := url.Parse(c.Backend.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.url must be an absolute http(s) url, got %q", c.Backend.URL))
	}
	if c.Backend.APIKey == "" {
		errs = append(errs, errors.New("backend.api_key required"))
	}
	if c.Backend.AccountID == "" {
		errs = append(errs, errors.New("backend.account_id required"))
	}
	if c.Backend.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("backend.timeout_seconds must be positive"))
	}

	return errors.Join(errs...)
}
