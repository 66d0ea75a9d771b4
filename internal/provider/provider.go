// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

// Package provider abstracts the reasoning service consulted by the
// resolution loop. Each iteration the loop sends the assembled context and
// the action catalog; the provider returns one structured decision.
package provider

import (
	"context"
)

// Reasoner is the core interface for reasoning-service providers.
type Reasoner interface {
	Name() string
	Available(ctx context.Context) bool
	// Decide returns the next action for the given request. The reply is
	// validated against the decision schema at the provider boundary; a
	// reply that cannot be parsed yields CodeProviderDecisionInvalid.
	Decide(ctx context.Context, req DecisionRequest) (*Decision, error)
	Close() error
}

// Router selects a reasoner for a model reference in "provider/model" form.
type Router interface {
	Route(ctx context.Context, modelRef string) (Reasoner, string, error)
	RegisterReasoner(name string, r Reasoner) error
	Close() error
}

// ActionDefinition describes one action available to the reasoner,
// including its JSON input schema.
type ActionDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// DecisionRequest carries everything the reasoner needs for one decision.
type DecisionRequest struct {
	Model        string
	SystemPrompt string
	Context      string
	Actions      []ActionDefinition
	MaxTokens    int
	Temperature  float32
}

// Decision is the structured reply of the reasoning service.
type Decision struct {
	Rationale   string         `json:"rationale"`
	Action      string         `json:"action"`
	ActionInput map[string]any `json:"action_input"`
}

// ReasonerFunc adapts a plain function to the Reasoner interface.
type ReasonerFunc func(ctx context.Context, req DecisionRequest) (*Decision, error)

func (f ReasonerFunc) Name() string                        { return "func" }
func (f ReasonerFunc) Available(context.Context) bool      { return true }
func (f ReasonerFunc) Close() error                        { return nil }
func (f ReasonerFunc) Decide(ctx context.Context, req DecisionRequest) (*Decision, error) {
	return f(ctx, req)
}
