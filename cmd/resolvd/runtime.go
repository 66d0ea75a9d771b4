// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package main

import (
	"log/slog"

	"github.com/resolvd-dev/resolvd/internal/agent"
	"github.com/resolvd-dev/resolvd/internal/config"
	"github.com/resolvd-dev/resolvd/internal/embed"
	"github.com/resolvd-dev/resolvd/internal/provider"
	"github.com/resolvd-dev/resolvd/internal/provider/anthropic"
	"github.com/resolvd-dev/resolvd/internal/provider/google"
	"github.com/resolvd-dev/resolvd/internal/provider/openai"
	"github.com/resolvd-dev/resolvd/internal/secrets"
	storesqlite "github.com/resolvd-dev/resolvd/internal/store/sqlite"
	"github.com/resolvd-dev/resolvd/internal/tools"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// runtime holds the wired application stack for one process.
type runtime struct {
	loop    *agent.Loop
	router  *provider.Registry
	vectors *storesqlite.VectorStore
	catalog *storesqlite.CatalogStore
	audit   *storesqlite.AuditStore
}

// newRuntime builds providers, stores, tools, and the loop from config.
func newRuntime(cfg *config.Config) (*runtime, error) {
	keys := secrets.NewKeyringStore()

	router := provider.NewRegistry()
	var captioner tools.Captioner

	for name, pc := range cfg.Providers {
		apiKey, err := secrets.Resolve(keys, pc.APIKey)
		if err != nil {
			return nil, err
		}

		var reasoner provider.Reasoner
		switch name {
		case "anthropic":
			reasoner, err = anthropic.New(anthropic.Config{APIKey: apiKey, BaseURL: pc.Endpoint})
		case "openai":
			reasoner, err = openai.New(openai.Config{APIKey: apiKey, BaseURL: pc.Endpoint})
		case "google":
			var g *google.Reasoner
			g, err = google.New(google.Config{APIKey: apiKey})
			if err == nil {
				captioner = g
				reasoner = g
			}
		default:
			return nil, resolvderr.Errorf(resolvderr.CodeConfigValidateInvalidValue,
				"unknown provider %q: supported providers are anthropic, openai, google", name)
		}
		if err != nil {
			return nil, err
		}
		router.Register(name, reasoner)
	}

	if err := router.SetDefault(cfg.Models.Default); err != nil {
		return nil, err
	}
	if len(cfg.Models.Failover) > 0 {
		if err := router.SetFailover(cfg.Models.Failover); err != nil {
			return nil, err
		}
	}

	rt := &runtime{router: router}

	var err error
	rt.vectors, err = storesqlite.NewVectorStore(cfg.Storage.VectorDB, cfg.Embeddings.Dimensions)
	if err != nil {
		return nil, err
	}
	rt.catalog, err = storesqlite.NewCatalogStore(cfg.Storage.CatalogDB)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.audit, err = storesqlite.NewAuditStore(cfg.Storage.AuditDB)
	if err != nil {
		rt.Close()
		return nil, err
	}

	embedder, err := newEmbedder(cfg, keys)
	if err != nil {
		rt.Close()
		return nil, err
	}

	toolSet := []tools.Tool{
		tools.NewProductSearch(rt.catalog),
		tools.NewDocumentSearch(rt.vectors, embedder),
		tools.NewPastTicketsSearch(rt.vectors, embedder),
		tools.NewAttachmentAnalyzer(),
	}
	if captioner != nil {
		toolSet = append(toolSet, tools.NewVisionSearch(captioner, cfg.Vision.Model, rt.vectors, embedder))
	} else {
		slog.Warn("no google provider configured; vision_search is disabled")
	}

	rt.loop, err = agent.NewLoop(agent.LoopConfig{
		Router:        router,
		Registry:      tools.NewRegistry(toolSet...),
		ModelRef:      cfg.Models.Default,
		AuditStore:    rt.audit,
		MaxIterations: cfg.Agent.MaxIterations,
		Temperature:   cfg.Agent.Temperature,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	return rt, nil
}

// newEmbedder builds the embedding client; the OpenAI key also serves the
// embeddings API.
func newEmbedder(cfg *config.Config, keys secrets.Store) (embed.Embedder, error) {
	pc, ok := cfg.Providers["openai"]
	if !ok {
		return nil, resolvderr.New(resolvderr.CodeConfigValidateInvalidValue,
			"an openai provider is required for embeddings")
	}
	apiKey, err := secrets.Resolve(keys, pc.APIKey)
	if err != nil {
		return nil, err
	}
	return embed.NewClient(embed.Config{
		APIKey:     apiKey,
		BaseURL:    pc.Endpoint,
		Model:      cfg.Embeddings.Model,
		Dimensions: cfg.Embeddings.Dimensions,
	})
}

// Close shuts down everything the runtime opened. Safe on a partially
// built runtime.
func (rt *runtime) Close() {
	if rt.audit != nil {
		closeQuietly("audit store", rt.audit.Close)
	}
	if rt.catalog != nil {
		closeQuietly("catalog store", rt.catalog.Close)
	}
	if rt.vectors != nil {
		closeQuietly("vector store", rt.vectors.Close)
	}
	if rt.router != nil {
		closeQuietly("provider registry", rt.router.Close)
	}
}

func closeQuietly(what string, fn func() error) {
	if err := fn(); err != nil {
		slog.Warn("close failed", "component", what, "error", err)
	}
}
