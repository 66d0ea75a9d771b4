// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

// Package config loads and validates resolvd configuration from defaults,
// an optional YAML file, and RESOLVD_ environment overrides.
package config

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// Config is the top-level resolvd configuration.
type Config struct {
	Server     ServerConfig              `mapstructure:"server"`
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
	Models     ModelsConfig              `mapstructure:"models"`
	Agent      AgentConfig               `mapstructure:"agent"`
	Embeddings EmbeddingsConfig          `mapstructure:"embeddings"`
	Vision     VisionConfig              `mapstructure:"vision"`
	Storage    StorageConfig             `mapstructure:"storage"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// ProviderConfig holds credentials and endpoint for a reasoning provider.
// APIKey may be a keyring://service/key URI resolved at startup.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// ModelsConfig controls reasoner selection.
type ModelsConfig struct {
	Default  string   `mapstructure:"default"`
	Failover []string `mapstructure:"failover"`
}

// AgentConfig sets the run budget and decision sampling.
type AgentConfig struct {
	MaxIterations int     `mapstructure:"max_iterations"`
	Temperature   float32 `mapstructure:"temperature"`
}

// EmbeddingsConfig selects the embedding model behind the retrieval tools.
type EmbeddingsConfig struct {
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// VisionConfig selects the multimodal model used for image captioning.
type VisionConfig struct {
	Model string `mapstructure:"model"`
}

// StorageConfig holds the SQLite database paths.
type StorageConfig struct {
	VectorDB  string `mapstructure:"vector_db"`
	CatalogDB string `mapstructure:"catalog_db"`
	AuditDB   string `mapstructure:"audit_db"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix RESOLVD_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:18990")
	v.SetDefault("models.default", "anthropic/claude-sonnet-4-5")
	v.SetDefault("agent.max_iterations", 8)
	v.SetDefault("agent.temperature", 0.0)
	v.SetDefault("embeddings.model", "text-embedding-3-small")
	v.SetDefault("embeddings.dimensions", 1536)
	v.SetDefault("vision.model", "gemini-2.5-flash")
	v.SetDefault("storage.vector_db", "resolvd-vectors.db")
	v.SetDefault("storage.catalog_db", "resolvd-catalog.db")
	v.SetDefault("storage.audit_db", "resolvd-audit.db")

	// Environment
	v.SetEnvPrefix("RESOLVD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns all
// validation errors found, collecting issues rather than stopping at the
// first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateModels()...)
	errs = append(errs, c.validateAgent()...)
	errs = append(errs, c.validateEmbeddings()...)
	errs = append(errs, c.validateStorage()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateModels() []error {
	var errs []error

	if c.Models.Default == "" {
		errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue, "config: models.default must not be empty"))
	} else if !strings.Contains(c.Models.Default, "/") {
		errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
			"config: models.default must be in \"provider/model\" format, got %q",
			c.Models.Default,
		))
	} else if c.Providers != nil {
		// Cross-reference providers only when a providers section exists.
		// A nil map means defaults only, which is valid for dry runs.
		providerName := providerFromModel(c.Models.Default)
		if _, ok := c.Providers[providerName]; !ok {
			errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
				"config: models.default %q references provider %q which is not configured",
				c.Models.Default, providerName,
			))
		}
	}

	for i, model := range c.Models.Failover {
		if !strings.Contains(model, "/") {
			errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
				"config: models.failover[%d] must be in \"provider/model\" format, got %q",
				i, model,
			))
			continue
		}
		if c.Providers != nil {
			providerName := providerFromModel(model)
			if _, ok := c.Providers[providerName]; !ok {
				errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
					"config: models.failover[%d] %q references provider %q which is not configured",
					i, model, providerName,
				))
			}
		}
	}

	return errs
}

func (c *Config) validateAgent() []error {
	var errs []error

	// The forced-finish threshold is max_iterations-1, so anything below 2
	// leaves no room for a single reasoned step.
	if c.Agent.MaxIterations < 2 {
		errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
			"config: agent.max_iterations must be at least 2, got %d",
			c.Agent.MaxIterations,
		))
	}

	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
			"config: agent.temperature must be between 0 and 2, got %g",
			c.Agent.Temperature,
		))
	}

	return errs
}

func (c *Config) validateEmbeddings() []error {
	var errs []error

	if c.Embeddings.Model == "" {
		errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue, "config: embeddings.model must not be empty"))
	}
	if c.Embeddings.Dimensions <= 0 {
		errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
			"config: embeddings.dimensions must be greater than 0, got %d",
			c.Embeddings.Dimensions,
		))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	paths := map[string]string{
		"storage.vector_db":  c.Storage.VectorDB,
		"storage.catalog_db": c.Storage.CatalogDB,
		"storage.audit_db":   c.Storage.AuditDB,
	}
	for key, path := range paths {
		if path == "" {
			errs = append(errs, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
				"config: %s must not be empty", key))
		}
	}

	return errs
}

// providerFromModel extracts the provider prefix from a "provider/model" string.
func providerFromModel(model string) string {
	if idx := strings.Index(model, "/"); idx > 0 {
		return model[:idx]
	}
	return model
}
