package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHTTPURL    = "https://openapi.portbridgeapp.com"
	DefaultTradeWSURL = "wss://openapi-trade.portbridgeapp.com/v2"
	DefaultLanguage   = "en"
)

var supportedLanguages = map[string]struct{}{
	"en":    {},
	"zh-CN": {},
	"zh-HK": {},
}

// ErrMissingCredentials is returned when app key, app secret or access token
// are not configured.
var ErrMissingCredentials = errors.New("config: app_key, app_secret and access_token are required")

type Config struct {
	Credentials     CredentialsConfig `json:"credentials" yaml:"credentials" toml:"credentials"`
	Endpoints       EndpointsConfig   `json:"endpoints" yaml:"endpoints" toml:"endpoints"`
	Language        string            `json:"language" yaml:"language" toml:"language" env:"PORTBRIDGE_LANGUAGE" envDefault:"en"`
	EnableOvernight bool              `json:"enable_overnight" yaml:"enable_overnight" toml:"enable_overnight" env:"PORTBRIDGE_ENABLE_OVERNIGHT" envDefault:"false"`
	Runtime         RuntimeConfig     `json:"runtime" yaml:"runtime" toml:"runtime"`
	Push            PushConfig        `json:"push" yaml:"push" toml:"push"`
	Logging         LoggingConfig     `json:"logging" yaml:"logging" toml:"logging"`
	Metrics         MetricsConfig     `json:"metrics" yaml:"metrics" toml:"metrics"`
}

type CredentialsConfig struct {
	AppKey      string `json:"app_key" yaml:"app_key" toml:"app_key" env:"PORTBRIDGE_APP_KEY"`
	AppSecret   string `json:"app_secret" yaml:"app_secret" toml:"app_secret" env:"PORTBRIDGE_APP_SECRET"`
	AccessToken string `json:"access_token" yaml:"access_token" toml:"access_token" env:"PORTBRIDGE_ACCESS_TOKEN"`
}

type EndpointsConfig struct {
	HTTPURL    string `json:"http_url" yaml:"http_url" toml:"http_url" env:"PORTBRIDGE_HTTP_URL" envDefault:"https://openapi.portbridgeapp.com"`
	TradeWSURL string `json:"trade_ws_url" yaml:"trade_ws_url" toml:"trade_ws_url" env:"PORTBRIDGE_TRADE_WS_URL" envDefault:"wss://openapi-trade.portbridgeapp.com/v2"`
}

// RuntimeConfig bounds the async bridge and the HTTP transport.
type RuntimeConfig struct {
	Workers           int           `json:"workers" yaml:"workers" toml:"workers" env:"PORTBRIDGE_RUNTIME_WORKERS" envDefault:"16"`
	HTTPTimeout       time.Duration `json:"http_timeout" yaml:"http_timeout" toml:"http_timeout" env:"PORTBRIDGE_HTTP_TIMEOUT" envDefault:"15s"`
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second" toml:"requests_per_second" env:"PORTBRIDGE_HTTP_RATE_LIMIT" envDefault:"0"`
	Burst             int           `json:"burst" yaml:"burst" toml:"burst" env:"PORTBRIDGE_HTTP_BURST" envDefault:"1"`
}

type PushConfig struct {
	BufferSize int `json:"buffer_size" yaml:"buffer_size" toml:"buffer_size" env:"PORTBRIDGE_PUSH_BUFFER" envDefault:"1024"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level" env:"PORTBRIDGE_LOG_LEVEL" envDefault:"info"`
	Format string `json:"format" yaml:"format" toml:"format" env:"PORTBRIDGE_LOG_FORMAT" envDefault:"json"`
	Output string `json:"output" yaml:"output" toml:"output" env:"PORTBRIDGE_LOG_PATH"`
	MaxAge int    `json:"max_age" yaml:"max_age" toml:"max_age" env:"PORTBRIDGE_LOG_MAX_AGE" envDefault:"0"`
}

type MetricsConfig struct {
	ReportInterval time.Duration    `json:"report_interval" yaml:"report_interval" toml:"report_interval" env:"PORTBRIDGE_REPORT_INTERVAL" envDefault:"0s"`
	StatusAddress  string           `json:"status_address" yaml:"status_address" toml:"status_address" env:"PORTBRIDGE_STATUS_ADDR"`
	CloudWatch     CloudWatchConfig `json:"cloudwatch" yaml:"cloudwatch" toml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" toml:"enabled" env:"PORTBRIDGE_CLOUDWATCH_ENABLED" envDefault:"false"`
	Region    string `json:"region" yaml:"region" toml:"region" env:"AWS_REGION"`
	Namespace string `json:"namespace" yaml:"namespace" toml:"namespace" env:"PORTBRIDGE_CLOUDWATCH_NAMESPACE" envDefault:"PortBridge"`
}

// Default returns a config with every optional field populated. Credentials
// are left empty.
func Default() Config {
	return Config{
		Endpoints: EndpointsConfig{
			HTTPURL:    DefaultHTTPURL,
			TradeWSURL: DefaultTradeWSURL,
		},
		Language: DefaultLanguage,
		Runtime: RuntimeConfig{
			Workers:     16,
			HTTPTimeout: 15 * time.Second,
			Burst:       1,
		},
		Push:    PushConfig{BufferSize: 1024},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{CloudWatch: CloudWatchConfig{Namespace: "PortBridge"}},
	}
}

// LoadConfig reads a YAML (.yml, .yaml) or TOML (.toml) file over the
// defaults. An environment specific sibling file wins when APP_ENV
// selects one that exists.
func LoadConfig(path string) (*Config, error) {
	path = ResolvePath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case ".yml", ".yaml", "":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// FromEnv builds a config from PORTBRIDGE_* environment variables after
// loading a .env file from the working directory when one exists.
func FromEnv() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadDotEnv loads .env into the process environment. A missing file is not
// an error and variables already set are not overwritten.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	c.Credentials.AppKey = strings.TrimSpace(c.Credentials.AppKey)
	c.Credentials.AppSecret = strings.TrimSpace(c.Credentials.AppSecret)
	c.Credentials.AccessToken = strings.TrimSpace(c.Credentials.AccessToken)
	if c.Credentials.AppKey == "" || c.Credentials.AppSecret == "" || c.Credentials.AccessToken == "" {
		return ErrMissingCredentials
	}
	if c.Endpoints.HTTPURL == "" {
		return fmt.Errorf("endpoints.http_url is required")
	}
	if _, ok := supportedLanguages[c.Language]; !ok {
		return fmt.Errorf("language %q is not one of en, zh-CN, zh-HK", c.Language)
	}
	if c.Runtime.Workers <= 0 {
		return fmt.Errorf("runtime.workers must be greater than 0")
	}
	if c.Runtime.RequestsPerSecond < 0 {
		return fmt.Errorf("runtime.requests_per_second must not be negative")
	}
	if c.Push.BufferSize <= 0 {
		return fmt.Errorf("push.buffer_size must be greater than 0")
	}
	return nil
}
