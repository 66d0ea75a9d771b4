// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package tools

import (
	"context"
	"fmt"

	"github.com/resolvd-dev/resolvd/internal/embed"
	"github.com/resolvd-dev/resolvd/internal/store"
)

// PastTicketsSearch finds previously resolved tickets similar to this one.
type PastTicketsSearch struct {
	vectors  store.VectorStore
	embedder embed.Embedder
}

// NewPastTicketsSearch wires the tool to a vector store and embedder.
func NewPastTicketsSearch(vectors store.VectorStore, embedder embed.Embedder) *PastTicketsSearch {
	return &PastTicketsSearch{vectors: vectors, embedder: embedder}
}

func (t *PastTicketsSearch) Name() string       { return NamePastTicketsSearch }
func (t *PastTicketsSearch) Category() Category { return CategoryRelated }

func (t *PastTicketsSearch) Description() string {
	return "Find previously resolved support tickets similar to this one. " +
		"Provide 'query' summarizing the customer's issue."
}

// Call embeds the query and returns the nearest past tickets with their
// resolution summaries.
func (t *PastTicketsSearch) Call(ctx context.Context, params map[string]any) (*Result, error) {
	query := StringParam(params, "query")
	if query == "" {
		return Failure("past_tickets_search requires 'query'"), nil
	}
	k := IntParam(params, "limit", 3)

	vec, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := t.vectors.Search(ctx, store.NamespacePastTickets, vec, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &Result{Success: true, Message: "no similar past tickets found"}, nil
	}

	items := make([]Item, 0, len(hits))
	for _, h := range hits {
		items = append(items, Item{
			ID:       h.ID,
			Title:    metaString(h.Metadata, "subject"),
			Score:    h.Score,
			Metadata: h.Metadata,
			Content:  h.Content,
		})
	}
	return &Result{
		Success: true,
		Items:   items,
		Message: fmt.Sprintf("%d similar past tickets; top similarity %.2f", len(items), items[0].Score),
	}, nil
}
