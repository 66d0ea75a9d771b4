// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Listen: "127.0.0.1:18990"},
		Providers: map[string]ProviderConfig{
			"anthropic": {APIKey: "sk-test"},
			"openai":    {APIKey: "sk-test"},
		},
		Models: ModelsConfig{
			Default:  "anthropic/claude-sonnet-4-5",
			Failover: []string{"openai/gpt-4.1"},
		},
		Agent:      AgentConfig{MaxIterations: 8, Temperature: 0},
		Embeddings: EmbeddingsConfig{Model: "text-embedding-3-small", Dimensions: 1536},
		Vision:     VisionConfig{Model: "gemini-2.5-flash"},
		Storage: StorageConfig{
			VectorDB:  "vectors.db",
			CatalogDB: "catalog.db",
			AuditDB:   "audit.db",
		},
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:18990", cfg.Server.Listen)
	assert.Equal(t, "anthropic/claude-sonnet-4-5", cfg.Models.Default)
	assert.Equal(t, 8, cfg.Agent.MaxIterations)
	assert.Equal(t, float32(0), cfg.Agent.Temperature)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, 1536, cfg.Embeddings.Dimensions)
	assert.Equal(t, "gemini-2.5-flash", cfg.Vision.Model)
	assert.Equal(t, "resolvd-vectors.db", cfg.Storage.VectorDB)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolvd.yaml")
	raw := `
server:
  listen: "0.0.0.0:9000"
agent:
  max_iterations: 5
models:
  default: "openai/gpt-4.1"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, "openai/gpt-4.1", cfg.Models.Default)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1536, cfg.Embeddings.Dimensions)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateOK(t *testing.T) {
	assert.Empty(t, validConfig().Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Listen = "no-port"
	cfg.Agent.MaxIterations = 1
	cfg.Agent.Temperature = 3
	cfg.Embeddings.Dimensions = 0
	cfg.Storage.AuditDB = ""

	errs := cfg.Validate()
	assert.Len(t, errs, 5)
}

func TestValidateServerListen(t *testing.T) {
	tests := []struct {
		name    string
		listen  string
		wantErr bool
	}{
		{"valid", "127.0.0.1:18990", false},
		{"empty", "", true},
		{"missing port", "localhost", true},
		{"port out of range", "localhost:70000", true},
		{"port not a number", "localhost:http", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Listen = tt.listen
			errs := cfg.Validate()
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidateModelRefFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Models.Default = "claude-sonnet-4-5"

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "provider/model")
}

func TestValidateModelCrossReferencesProviders(t *testing.T) {
	cfg := validConfig()
	cfg.Models.Failover = []string{"google/gemini-2.5-pro"}

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "not configured")
}

func TestValidateNilProvidersSkipsCrossReference(t *testing.T) {
	cfg := validConfig()
	cfg.Providers = nil

	assert.Empty(t, cfg.Validate())
}
