// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/resolvd-dev/resolvd/internal/provider"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// Config holds OpenAI reasoner configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Reasoner implements provider.Reasoner using the OpenAI Chat Completions API.
type Reasoner struct {
	client openaisdk.Client
	config Config
	health *provider.HealthTracker
}

// New creates a new OpenAI reasoner. Returns an error if the API key is missing.
func New(cfg Config) (*Reasoner, error) {
	if cfg.APIKey == "" {
		return nil, resolvderr.New(resolvderr.CodeProviderRequestInvalid,
			"openai: missing api_key in config", resolvderr.FieldProvider("openai"))
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
		client: openaisdk.NewClient(opts...),
		config: cfg,
		health: health,
	}, nil
}

func (r *Reasoner) Name() string { return "openai" }

func (r *Reasoner) Available(_ context.Context) bool {
	return r.health.IsHealthy()
}

func (r *Reasoner) Close() error { return nil }

// Decide sends one decision request in JSON mode and parses the reply.
func (r *Reasoner) Decide(ctx context.Context, req provider.DecisionRequest) (*provider.Decision, error) {
	msgs := []openaisdk.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		msgs = append(msgs, openaisdk.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openaisdk.UserMessage(req.Context))

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: msgs,
		ResponseFormat: openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(float64(req.Temperature))
	}

	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		r.health.RecordFailure()
		return nil, resolvderr.Wrapf(err, resolvderr.CodeProviderUpstreamFailure,
			"openai: chat completions call")
	}
	r.health.RecordSuccess()

	if len(resp.Choices) == 0 {
		return nil, resolvderr.New(resolvderr.CodeProviderDecisionInvalid,
			"openai: reply has no choices")
	}

	return provider.ParseDecision(resp.Choices[0].Message.Content)
}
