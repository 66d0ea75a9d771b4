// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/resolvd-dev/resolvd/internal/provider"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// Config holds Google reasoner configuration.
type Config struct {
	APIKey string
}

// Reasoner implements provider.Reasoner using the Google Gemini API. It is
// also the vision capability used by the image-analysis tool, since Gemini
// models accept inline image data.
type Reasoner struct {
	client *genai.Client
	config Config
	health *provider.HealthTracker
	httpc  *http.Client
}

// New creates a new Google reasoner. Returns an error if the API key is missing.
func New(cfg Config) (*Reasoner, error) {
	if cfg.APIKey == "" {
		return nil, resolvderr.New(resolvderr.CodeProviderRequestInvalid,
			"google: missing api_key in config", resolvderr.FieldProvider("google"))
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeProviderUpstreamFailure,
			"google: creating client")
	}

	health, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Reasoner{
		client: client,
		config: cfg,
		health: health,
		httpc:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (r *Reasoner) Name() string { return "google" }

func (r *Reasoner) Available(_ context.Context) bool {
	return r.health.IsHealthy()
}

func (r *Reasoner) Close() error { return nil }

// Decide sends one decision request and parses the reply. JSON output is
// requested via the response MIME type so the reply needs no fence stripping.
func (r *Reasoner) Decide(ctx context.Context, req provider.DecisionRequest) (*provider.Decision, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}

	resp, err := r.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Context), cfg)
	if err != nil {
		r.health.RecordFailure()
		return nil, resolvderr.Wrapf(err, resolvderr.CodeProviderUpstreamFailure,
			"google: generate content call")
	}
	r.health.RecordSuccess()

	return provider.ParseDecision(resp.Text())
}

// DescribeImage fetches the image at url and asks the model for a dense
// textual description suitable for embedding search. This backs the vision
// tool's captioning step.
func (r *Reasoner) DescribeImage(ctx context.Context, model, url, prompt string) (string, error) {
	data, mimeType, err := r.fetchImage(ctx, url)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: prompt},
		},
		Role: genai.RoleUser,
	}}

	resp, err := r.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		r.health.RecordFailure()
		return "", resolvderr.Wrapf(err, resolvderr.CodeProviderUpstreamFailure,
			"google: describe image call")
	}
	r.health.RecordSuccess()

	return resp.Text(), nil
}

const maxImageBytes = 10 << 20 // Gemini inline data limit is ~20MB; stay well under.

func (r *Reasoner) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", resolvderr.Wrapf(err, resolvderr.CodeToolInvalidInput,
			"google: building image request for %s", url)
	}

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, "", resolvderr.Wrapf(err, resolvderr.CodeToolBackendFailure,
			"google: fetching image %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", resolvderr.Errorf(resolvderr.CodeToolBackendFailure,
			"google: fetching image %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", resolvderr.Wrapf(err, resolvderr.CodeToolBackendFailure,
			"google: reading image %s", url)
	}
	if len(data) > maxImageBytes {
		return nil, "", resolvderr.Errorf(resolvderr.CodeToolInvalidInput,
			"google: image %s exceeds %d bytes", url, maxImageBytes)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if mimeType == "" {
		return nil, "", fmt.Errorf("google: could not determine image content type for %s", url)
	}

	return data, mimeType, nil
}
