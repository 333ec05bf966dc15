package sdk

import (
	"encoding/json"

	"portbridge/config"
	"portbridge/sdkerr"
)

// NewConfig parses a JSON document with the same keys as the YAML config
// file over the defaults.
func (s *SDK) NewConfig(doc []byte) (Handle, *sdkerr.SimpleError) {
	h, err := s.configs.Create(func() (*config.Config, error) {
		cfg := config.Default()
		if err := json.Unmarshal(doc, &cfg); err != nil {
			return nil, sdkerr.DecodeJSON(err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	})
	return h, simple(err)
}

// NewConfigFromEnv reads .env and the PORTBRIDGE_* variables.
func (s *SDK) NewConfigFromEnv() (Handle, *sdkerr.SimpleError) {
	h, err := s.configs.Create(config.FromEnv)
	return h, simple(err)
}

// NewConfigFromFile loads a YAML or TOML config file.
func (s *SDK) NewConfigFromFile(path string) (Handle, *sdkerr.SimpleError) {
	h, err := s.configs.Create(func() (*config.Config, error) {
		return config.LoadConfig(path)
	})
	return h, simple(err)
}

func (s *SDK) FreeConfig(h Handle) *sdkerr.SimpleError {
	return simple(s.configs.Release(h))
}
