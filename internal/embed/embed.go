// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

// Package embed provides the text embedding client behind the retrieval
// tools. The embedding algorithm itself is opaque; callers only depend on
// the Embedder contract.
package embed

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = string(openaisdk.EmbeddingModelTextEmbedding3Small)

// DefaultDimensions matches text-embedding-3-small.
const DefaultDimensions = 1536

// Config holds OpenAI embedding client configuration.
type Config struct {
	APIKey     string
	BaseURL    string // optional, useful for testing against a mock server
	Model      string
	Dimensions int
}

// Client implements Embedder using the OpenAI Embeddings API.
type Client struct {
	client     openaisdk.Client
	model      string
	dimensions int
}

// NewClient creates an embedding client. Returns an error if the API key
// is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, resolvderr.New(resolvderr.CodeProviderRequestInvalid,
			"embed: missing api_key in config")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}

	return &Client{
		client:     openaisdk.NewClient(opts...),
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Dimensions returns the vector width this client produces.
func (c *Client) Dimensions() int { return c.dimensions }

// Embed returns the embedding for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, resolvderr.New(resolvderr.CodeToolInvalidInput, "embed: empty input text")
	}

	resp, err := c.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(c.model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	})
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeToolEmbeddingFailed, "embed: embeddings call")
	}
	if len(resp.Data) == 0 {
		return nil, resolvderr.New(resolvderr.CodeToolEmbeddingFailed, "embed: reply has no data")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}
