// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

// Package store defines the persistence interfaces behind the retrieval
// tools and the audit trail. Evidence gathered during a run is never
// persisted here; only indexed corpora (documents, products, past tickets)
// and post-run iteration records are.
package store

import "context"

// Namespace partitions the vector index by corpus.
type Namespace string

const (
	NamespaceDocuments   Namespace = "documents"
	NamespaceProducts    Namespace = "products"
	NamespacePastTickets Namespace = "past_tickets"
)

// VectorStore indexes embeddings with metadata and content previews.
type VectorStore interface {
	Store(ctx context.Context, ns Namespace, id string, embedding []float32, metadata map[string]any, content string) error
	// Search performs a k-nearest-neighbor search within one namespace.
	// Scores are cosine similarities in [0,1]; higher is more similar.
	Search(ctx context.Context, ns Namespace, query []float32, k int) ([]VectorResult, error)
	Delete(ctx context.Context, ns Namespace, ids []string) error
	Close() error
}

// VectorResult is one KNN hit.
type VectorResult struct {
	ID       string
	Score    float64
	Metadata map[string]any
	Content  string
}

// Product is one catalog entry used for subject identification.
type Product struct {
	ID          string  `yaml:"id"`
	ModelNo     string  `yaml:"model_no"`
	Title       string  `yaml:"title"`
	Category    string  `yaml:"category"`
	Finish      string  `yaml:"finish"`
	ListPrice   float64 `yaml:"list_price"`
	Description string  `yaml:"description"`
}

// CatalogStore holds the product catalog behind the product search tool.
type CatalogStore interface {
	Upsert(ctx context.Context, p *Product) error
	GetByModel(ctx context.Context, modelNo string) (*Product, error)
	// Search matches query terms against model number, title, and
	// description, returning up to limit products ordered by match quality.
	Search(ctx context.Context, query string, limit int) ([]*Product, error)
	Close() error
}

// AuditEntry records one loop iteration for post-run inspection.
type AuditEntry struct {
	ID          string
	RunID       string
	TicketID    string
	Iteration   int
	Action      string
	Rationale   string
	Observation string
	Params      map[string]any
	DurationMS  int64
	CreatedAt   int64 // unix milliseconds
}

// AuditStore persists iteration records. Appends are best-effort: a failed
// append must never fail the run that produced it.
type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
	ListByRun(ctx context.Context, runID string) ([]*AuditEntry, error)
	Close() error
}
