// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package tools

import (
	"context"
	"fmt"

	"github.com/resolvd-dev/resolvd/internal/embed"
	"github.com/resolvd-dev/resolvd/internal/store"
)

// answerScoreThreshold gates direct answers: only a sufficiently close
// document match may answer the ticket outright.
const answerScoreThreshold = 0.75

// DocumentSearch retrieves knowledge-base documents by semantic similarity.
type DocumentSearch struct {
	vectors  store.VectorStore
	embedder embed.Embedder
}

// NewDocumentSearch wires the tool to a vector store and embedder.
func NewDocumentSearch(vectors store.VectorStore, embedder embed.Embedder) *DocumentSearch {
	return &DocumentSearch{vectors: vectors, embedder: embedder}
}

func (t *DocumentSearch) Name() string       { return NameDocumentSearch }
func (t *DocumentSearch) Category() Category { return CategoryDocument }

func (t *DocumentSearch) Description() string {
	return "Search knowledge-base documents (manuals, spec sheets, care guides) " +
		"by meaning. Provide 'query' describing what to look for; 'context' with " +
		"the identified product narrows the search."
}

// Call embeds the query (prefixed with any subject context) and returns the
// nearest documents. A close match that carries an answer field becomes the
// run's direct answer.
func (t *DocumentSearch) Call(ctx context.Context, params map[string]any) (*Result, error) {
	query := StringParam(params, "query")
	if query == "" {
		return Failure("document_search requires 'query'"), nil
	}
	if subject := StringParam(params, "context"); subject != "" {
		query = subject + ": " + query
	}
	k := IntParam(params, "limit", 5)

	vec, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := t.vectors.Search(ctx, store.NamespaceDocuments, vec, k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &Result{Success: true, Message: fmt.Sprintf("no documents matched %q", query)}, nil
	}

	items := make([]Item, 0, len(hits))
	for _, h := range hits {
		items = append(items, Item{
			ID:       h.ID,
			Title:    metaString(h.Metadata, "title"),
			Score:    h.Score,
			Metadata: h.Metadata,
			Content:  h.Content,
		})
	}

	res := &Result{
		Success: true,
		Items:   items,
		Message: fmt.Sprintf("%d documents matched; top score %.2f (%s)", len(items), items[0].Score, items[0].Title),
	}
	if items[0].Score >= answerScoreThreshold {
		if ans := metaString(hits[0].Metadata, "answer"); ans != "" {
			res.Answer = ans
		}
	}
	return res, nil
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	s, _ := meta[key].(string)
	return s
}
