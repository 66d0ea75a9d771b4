// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// namedReasoner is a ReasonerFunc with a controllable name and availability.
type namedReasoner struct {
	name      string
	available bool
}

func (r *namedReasoner) Name() string                   { return r.name }
func (r *namedReasoner) Available(context.Context) bool { return r.available }
func (r *namedReasoner) Close() error                   { return nil }
func (r *namedReasoner) Decide(context.Context, DecisionRequest) (*Decision, error) {
	return &Decision{Action: "finish", ActionInput: map[string]any{}}, nil
}

func TestRegistryRouteDefault(t *testing.T) {
	reg := NewRegistry()
	reg.Register("anthropic", &namedReasoner{name: "anthropic", available: true})
	require.NoError(t, reg.SetDefault("anthropic/claude-sonnet-4-5"))

	r, model, err := reg.Route(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", r.Name())
	assert.Equal(t, "claude-sonnet-4-5", model)
}

func TestRegistryRouteExplicitRef(t *testing.T) {
	reg := NewRegistry()
	reg.Register("openai", &namedReasoner{name: "openai", available: true})

	r, model, err := reg.Route(context.Background(), "openai/gpt-4.1")
	require.NoError(t, err)
	assert.Equal(t, "openai", r.Name())
	assert.Equal(t, "gpt-4.1", model)
}

func TestRegistryRouteRejectsBareModelName(t *testing.T) {
	reg := NewRegistry()
	reg.Register("openai", &namedReasoner{name: "openai", available: true})

	_, _, err := reg.Route(context.Background(), "gpt-4.1")
	require.Error(t, err)
	assert.True(t, resolvderr.HasCode(err, resolvderr.CodeProviderInvalidModelRef))
}

func TestRegistryFailover(t *testing.T) {
	reg := NewRegistry()
	reg.Register("anthropic", &namedReasoner{name: "anthropic", available: false})
	reg.Register("openai", &namedReasoner{name: "openai", available: true})
	require.NoError(t, reg.SetDefault("anthropic/claude-sonnet-4-5"))
	require.NoError(t, reg.SetFailover([]string{"openai/gpt-4.1"}))

	r, model, err := reg.Route(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "openai", r.Name())
	assert.Equal(t, "gpt-4.1", model)

	assert.Equal(t, 2, reg.MaxAttempts())
}

func TestRegistryRouteExcluding(t *testing.T) {
	reg := NewRegistry()
	reg.Register("anthropic", &namedReasoner{name: "anthropic", available: true})
	reg.Register("openai", &namedReasoner{name: "openai", available: true})
	require.NoError(t, reg.SetDefault("anthropic/claude-sonnet-4-5"))
	require.NoError(t, reg.SetFailover([]string{"openai/gpt-4.1"}))

	r, _, err := reg.RouteExcluding(context.Background(), "", []string{"anthropic"})
	require.NoError(t, err)
	assert.Equal(t, "openai", r.Name())
}

func TestRegistryAllUnavailable(t *testing.T) {
	reg := NewRegistry()
	reg.Register("anthropic", &namedReasoner{name: "anthropic", available: false})
	require.NoError(t, reg.SetDefault("anthropic/claude-sonnet-4-5"))

	_, _, err := reg.Route(context.Background(), "")
	require.Error(t, err)
	assert.True(t, resolvderr.HasCode(err, resolvderr.CodeProviderAllUnavailable))
}

func TestRegistrySetDefaultRequiresRegisteredProvider(t *testing.T) {
	reg := NewRegistry()
	err := reg.SetDefault("anthropic/claude-sonnet-4-5")
	require.Error(t, err)
	assert.True(t, resolvderr.HasCode(err, resolvderr.CodeProviderNotFound))
}

func TestHealthTrackerCooldown(t *testing.T) {
	tracker, err := NewHealthTracker(30 * time.Second)
	require.NoError(t, err)

	now := time.Unix(1000, 0)
	tracker.SetNowFunc(func() time.Time { return now })

	assert.True(t, tracker.IsHealthy(), "healthy before any failure")

	tracker.RecordFailure()
	assert.False(t, tracker.IsHealthy(), "unhealthy inside the cooldown window")

	now = now.Add(31 * time.Second)
	assert.True(t, tracker.IsHealthy(), "healthy again after the cooldown")

	tracker.RecordFailure()
	tracker.RecordSuccess()
	assert.True(t, tracker.IsHealthy(), "success clears the failure state")
}
