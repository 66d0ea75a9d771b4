// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package provider

import (
	"context"
	"slices"
	"strings"
	"sync"

	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// Registry manages reasoner registration, lookup, and routing with
// failover. It implements the Router interface.
type Registry struct {
	mu        sync.RWMutex
	reasoners map[string]Reasoner

	defaultRef string   // "provider/model" format
	failover   []string // ordered list of "provider/model" refs
}

// Compile-time check that Registry implements Router.
var _ Router = (*Registry)(nil)

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		reasoners: make(map[string]Reasoner),
	}
}

// Register adds a reasoner to the registry.
func (r *Registry) Register(name string, p Reasoner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasoners[name] = p
}

// RegisterReasoner adds a reasoner to the registry (Router interface).
func (r *Registry) RegisterReasoner(name string, p Reasoner) error {
	r.Register(name, p)
	return nil
}

// Get retrieves a reasoner by name.
func (r *Registry) Get(name string) (Reasoner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.reasoners[name]
	if !ok {
		return nil, resolvderr.New(
			resolvderr.CodeProviderNotFound,
			"reasoner not found: "+name,
			resolvderr.FieldProvider(name),
		)
	}
	return p, nil
}

// SetDefault sets the default "provider/model" reference used when the
// caller does not name a model. Returns an error if the provider portion
// of the ref is not registered.
func (r *Registry) SetDefault(ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	provName, _ := parseRef(ref)
	if _, ok := r.reasoners[provName]; !ok {
		return resolvderr.New(
			resolvderr.CodeProviderNotFound,
			"SetDefault: reasoner not registered: "+provName,
			resolvderr.FieldProvider(provName),
		)
	}
	r.defaultRef = ref
	return nil
}

// SetFailover sets the ordered failover chain of "provider/model" refs.
// Returns an error if any provider portion of the refs is not registered.
func (r *Registry) SetFailover(chain []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range chain {
		provName, _ := parseRef(ref)
		if _, ok := r.reasoners[provName]; !ok {
			return resolvderr.New(
				resolvderr.CodeProviderNotFound,
				"SetFailover: reasoner not registered: "+provName,
				resolvderr.FieldProvider(provName),
			)
		}
	}
	r.failover = append([]string(nil), chain...)
	return nil
}

// Route selects a reasoner for the given model reference. When modelRef is
// empty or "default" the configured default is used, then the failover
// chain is walked until a healthy reasoner is found.
func (r *Registry) Route(ctx context.Context, modelRef string) (Reasoner, string, error) {
	return r.RouteExcluding(ctx, modelRef, nil)
}

// RouteExcluding is like Route but skips providers named in exclude
// (already-tried providers in the current failover sequence).
func (r *Registry) RouteExcluding(ctx context.Context, modelRef string, exclude []string) (Reasoner, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, err := r.resolveRef(modelRef)
	if err != nil {
		return nil, "", err
	}
	if ref == "" {
		return nil, "", resolvderr.New(
			resolvderr.CodeProviderNoDefault,
			"no default reasoner configured",
		)
	}

	provName, _ := parseRef(ref)
	if !slices.Contains(exclude, provName) {
		p, model, err := r.tryRef(ctx, ref)
		if err == nil {
			return p, model, nil
		}
	}

	for _, fallback := range r.failover {
		fbProv, _ := parseRef(fallback)
		if slices.Contains(exclude, fbProv) {
			continue
		}
		p, model, err := r.tryRef(ctx, fallback)
		if err == nil {
			return p, model, nil
		}
	}

	return nil, "", resolvderr.New(
		resolvderr.CodeProviderAllUnavailable,
		"all reasoners unavailable: no healthy reasoner found",
	)
}

// MaxAttempts returns 1 (primary) + len(failover chain) so callers cap
// retries to exactly the number of configured candidates.
func (r *Registry) MaxAttempts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return 1 + len(r.failover)
}

// Close shuts down all registered reasoners.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, p := range r.reasoners {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return resolvderr.Join(errs...)
	}
	return nil
}

// resolveRef determines which "provider/model" ref to use.
// Caller must hold r.mu (at least RLock).
// Returns an error for non-qualified model names (missing "provider/" prefix).
func (r *Registry) resolveRef(modelRef string) (string, error) {
	if modelRef != "" && modelRef != "default" {
		if !strings.Contains(modelRef, "/") {
			return "", resolvderr.Errorf(
				resolvderr.CodeProviderInvalidModelRef,
				"model name %q must use provider/model format", modelRef,
			)
		}
		return modelRef, nil
	}
	return r.defaultRef, nil
}

// tryRef parses a "provider/model" ref, looks up the reasoner, and checks
// availability. Caller must hold r.mu (at least RLock).
func (r *Registry) tryRef(ctx context.Context, ref string) (Reasoner, string, error) {
	providerName, model := parseRef(ref)

	p, ok := r.reasoners[providerName]
	if !ok {
		return nil, "", resolvderr.New(
			resolvderr.CodeProviderNotFound,
			"reasoner not found: "+providerName,
			resolvderr.FieldProvider(providerName),
		)
	}

	if !p.Available(ctx) {
		return nil, "", resolvderr.New(
			resolvderr.CodeProviderUpstreamFailure,
			"reasoner unavailable: "+providerName,
			resolvderr.FieldProvider(providerName),
		)
	}

	return p, model, nil
}

// parseRef splits a "provider/model" reference on the first "/".
func parseRef(ref string) (providerName, model string) {
	idx := strings.Index(ref, "/")
	if idx < 0 {
		return ref, ""
	}
	return ref[:idx], ref[idx+1:]
}
