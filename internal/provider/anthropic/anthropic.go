// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package anthropic

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/resolvd-dev/resolvd/internal/provider"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// Config holds Anthropic reasoner configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Reasoner implements provider.Reasoner using the Anthropic Messages API.
type Reasoner struct {
	client anthropicsdk.Client
	config Config
	health *provider.HealthTracker
}

// New creates a new Anthropic reasoner. Returns an error if the API key is missing.
func New(cfg Config) (*Reasoner, error) {
	if cfg.APIKey == "" {
		return nil, resolvderr.New(resolvderr.CodeProviderRequestInvalid,
			"anthropic: missing api_key in config", resolvderr.FieldProvider("anthropic"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	health, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Reasoner{
		client: anthropicsdk.NewClient(opts...),
		config: cfg,
		health: health,
	}, nil
}

func (r *Reasoner) Name() string { return "anthropic" }

func (r *Reasoner) Available(_ context.Context) bool {
	return r.health.IsHealthy()
}

func (r *Reasoner) Close() error { return nil }

// Decide sends one decision request and parses the reply. The action
// catalog is rendered into the system prompt by the caller; the assembled
// context is the sole user message.
func (r *Reasoner) Decide(ctx context.Context, req provider.DecisionRequest) (*provider.Decision, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.Context)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropicsdk.Float(float64(req.Temperature))
	}

	msg, err := r.client.Messages.New(ctx, params)
	if err != nil {
		r.health.RecordFailure()
		return nil, resolvderr.Wrapf(err, resolvderr.CodeProviderUpstreamFailure,
			"anthropic: messages call")
	}
	r.health.RecordSuccess()

	var buf strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			buf.WriteString(block.Text)
		}
	}

	return provider.ParseDecision(buf.String())
}
