// Package config loads and validates the instant configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	v1 "github.com/instant-io/instant/apis/v1"
	"github.com/joho/godotenv"
)

const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 8080
	DefaultBlobTTL       = 30 * time.Second
	DefaultMaxUpload     = 2_000_000_000
	DefaultArchiveFormat = "zip"
	DefaultLogLines      = 500
)

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes a YAML (or JSON) configuration and validates it.
func Parse(data []byte) (v1.Config, error) {
	var cfg v1.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return v1.Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaultValidator.Struct(cfg); err != nil {
		return v1.Config{}, fmt.Errorf("failed to validate config: %w", err)
	}

	return cfg, nil
}

// Load reads the configuration at path, loads its dotenv files and expands
// ${VAR} references from the allowed environment variables. An empty path
// yields the defaults.
func Load(path string, allowedEnv []string) (v1.Config, error) {
	cfg := v1.Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return v1.Config{}, fmt.Errorf("failed to read config '%s': %w", path, err)
		}

		cfg, err = Parse(data)
		if err != nil {
			return v1.Config{}, err
		}
	}

	if cfg.Env != nil {
		if err := LoadDotEnv(cfg.Env.Files...); err != nil {
			return v1.Config{}, err
		}
		allowedEnv = append(allowedEnv, cfg.Env.Allowed...)
	}

	variables, err := BuildVariables(allowedEnv)
	if err != nil {
		return v1.Config{}, fmt.Errorf("failed to build variables: %w", err)
	}

	if err := ExpandTemplates(&cfg, variables); err != nil {
		return v1.Config{}, fmt.Errorf("failed to expand templates: %w", err)
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// LoadDotEnv loads dotenv files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file '%s': %w", file, err)
		}
	}
	return nil
}

// BuildVariables returns the variables ${VAR} references may use: a few
// built-ins plus every allowed environment variable, which must be set.
func BuildVariables(allowedEnv []string) (map[string]string, error) {
	variables := map[string]string{
		"INSTANT_DATE_RFC3339": time.Now().UTC().Format(time.RFC3339),
		"INSTANT_TMPDIR":       os.TempDir(),
	}

	var errs error
	for _, name := range allowedEnv {
		val, ok := os.LookupEnv(name)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("environment variable %q is not set", name))
			continue
		}
		variables[name] = val
	}

	if errs != nil {
		return nil, errs
	}
	return variables, nil
}

// ApplyDefaults fills in unset fields.
func ApplyDefaults(cfg *v1.Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.BlobTTL == nil {
		ttl := int(DefaultBlobTTL / time.Second)
		cfg.Server.BlobTTL = &ttl
	}
	if cfg.Server.MaxUploadSize == nil {
		size := int64(DefaultMaxUpload)
		cfg.Server.MaxUploadSize = &size
	}
	if cfg.Server.LogLines == 0 {
		cfg.Server.LogLines = DefaultLogLines
	}
	if cfg.Transfer.DataDir == "" {
		cfg.Transfer.DataDir = filepath.Join(os.TempDir(), "instant")
	}
	if cfg.Output.Archive == nil {
		cfg.Output.Archive = &v1.ArchiveSpec{}
	}
	if cfg.Output.Archive.Format == "" {
		cfg.Output.Archive.Format = DefaultArchiveFormat
	}
}

// BlobTTL returns the configured archive lifetime.
func BlobTTL(cfg v1.Config) time.Duration {
	if cfg.Server.BlobTTL == nil {
		return DefaultBlobTTL
	}
	return time.Duration(*cfg.Server.BlobTTL) * time.Second
}
