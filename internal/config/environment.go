package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const defaultEnvironmentName = "default"

// ResolvedEnvironment represents a fully-resolved environment with
// concrete connection strings.
type ResolvedEnvironment struct {
	Name       string
	SourceURL  string
	TargetURL  string
	Schema     string
	DotenvPath string
	FromConfig bool
	FromDotenv bool
}

// ResolveEnvironment resolves a named environment. Values come from
// schemacorrect.toml first; a .env.<name> file next to the config file
// (or the working directory when no config file exists) overrides them
// via SOURCE_DATABASE_URL and TARGET_DATABASE_URL.
func ResolveEnvironment(config *Config, name string) (*ResolvedEnvironment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if config != nil && config.DefaultEnvironment != "" {
			envName = config.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	resolved := &ResolvedEnvironment{Name: envName}

	if config != nil && config.Environments != nil {
		if envConfig, ok := config.Environments[envName]; ok {
			resolved.SourceURL = envConfig.SourceURL
			resolved.TargetURL = envConfig.TargetURL
			resolved.Schema = envConfig.Schema
			resolved.FromConfig = true
		}
	}

	baseDir := ""
	if config != nil {
		baseDir = config.ConfigDir()
	}
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}

	dotenvFileName := ".env." + envName
	if baseDir != "" {
		resolved.DotenvPath = filepath.Join(baseDir, dotenvFileName)
	} else {
		resolved.DotenvPath = dotenvFileName
	}

	if info, err := os.Stat(resolved.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true

		if value := values["SOURCE_DATABASE_URL"]; value != "" {
			resolved.SourceURL = value
		}
		if value := values["TARGET_DATABASE_URL"]; value != "" {
			resolved.TargetURL = value
		}
		if value := values["DATABASE_SCHEMA"]; value != "" {
			resolved.Schema = value
		}
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to access %s: %w", resolved.DotenvPath, err)
	}

	return resolved, nil
}
