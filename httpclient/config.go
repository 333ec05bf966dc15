package httpclient

import (
	"time"

	"portbridge/config"
)

// Config holds what the HTTP client needs to sign and send requests.
type Config struct {
	HTTPURL     string
	AppKey      string
	AppSecret   string
	AccessToken string

	// Timeout bounds a single request; zero disables the client timeout.
	Timeout time.Duration
	// RequestsPerSecond enables client-side rate limiting when positive.
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// NewConfig returns a config for the default endpoint.
func NewConfig(appKey, appSecret, accessToken string) Config {
	return Config{
		HTTPURL:     config.DefaultHTTPURL,
		AppKey:      appKey,
		AppSecret:   appSecret,
		AccessToken: accessToken,
		Timeout:     15 * time.Second,
		Burst:       1,
	}
}

// WithHTTPURL overrides the endpoint. An empty url keeps the current one.
func (c Config) WithHTTPURL(url string) Config {
	if url != "" {
		c.HTTPURL = url
	}
	return c
}

// FromSDKConfig maps the SDK-wide configuration onto the HTTP client.
func FromSDKConfig(cfg *config.Config) Config {
	return Config{
		HTTPURL:           cfg.Endpoints.HTTPURL,
		AppKey:            cfg.Credentials.AppKey,
		AppSecret:         cfg.Credentials.AppSecret,
		AccessToken:       cfg.Credentials.AccessToken,
		Timeout:           cfg.Runtime.HTTPTimeout,
		RequestsPerSecond: cfg.Runtime.RequestsPerSecond,
		Burst:             cfg.Runtime.Burst,
	}
}

// ConfigFromEnv reads PORTBRIDGE_* variables (and .env) into a Config.
func ConfigFromEnv() (Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return Config{}, &Error{Kind: KindInvalidConfig, Cause: err}
	}
	return FromSDKConfig(cfg), nil
}

func (c Config) validate() error {
	if c.AppKey == "" || c.AppSecret == "" || c.AccessToken == "" {
		return &Error{Kind: KindInvalidConfig, Cause: ErrMissingCredentials}
	}
	return nil
}
