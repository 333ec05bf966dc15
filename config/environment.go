package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appEnvVar              = "APP_ENV"
	environmentDevelopment = "development"
	environmentProduction  = "production"
	environmentStaging     = "staging"
)

const (
	EnvironmentDevelopment = environmentDevelopment
	EnvironmentProduction  = environmentProduction
	EnvironmentStaging     = environmentStaging
)

var environmentAliases = map[string]string{
	"dev":   environmentDevelopment,
	"prod":  environmentProduction,
	"stag":  environmentStaging,
	"stage": environmentStaging,
}

// AppEnvironment reads APP_ENV, folds aliases to their canonical name and
// defaults to development.
func AppEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv(appEnvVar)))
	if env == "" {
		return environmentDevelopment
	}
	if canonical, ok := environmentAliases[env]; ok {
		return canonical
	}
	return env
}

// ResolvePath returns the environment specific sibling of path
// (portbridge.yml -> portbridge.production.yml) when that file exists,
// otherwise path itself.
func ResolvePath(path string) string {
	ext := filepath.Ext(path)
	candidate := strings.TrimSuffix(path, ext) + "." + AppEnvironment() + ext
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return path
}

// IsProductionLike reports whether env should behave like a production
// deployment.
func IsProductionLike(env string) bool {
	switch env {
	case environmentProduction, environmentStaging:
		return true
	default:
		return false
	}
}
