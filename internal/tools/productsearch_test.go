// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resolvd-dev/resolvd/internal/store"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// fakeCatalog is an in-memory CatalogStore.
type fakeCatalog struct {
	products []*store.Product
}

func (f *fakeCatalog) Upsert(_ context.Context, p *store.Product) error {
	f.products = append(f.products, p)
	return nil
}

func (f *fakeCatalog) GetByModel(_ context.Context, modelNo string) (*store.Product, error) {
	for _, p := range f.products {
		if strings.EqualFold(p.ModelNo, modelNo) {
			return p, nil
		}
	}
	return nil, resolvderr.New(resolvderr.CodeStoreEntityNotFound, "no product with model "+modelNo)
}

func (f *fakeCatalog) Search(_ context.Context, query string, limit int) ([]*store.Product, error) {
	var out []*store.Product
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Title+" "+p.Description), strings.ToLower(query)) {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeCatalog) Close() error { return nil }

func testCatalog() *fakeCatalog {
	return &fakeCatalog{products: []*store.Product{
		{ID: "prod-1", ModelNo: "CP-401", Title: "Arden Cabinet Pull", Category: "hardware", Finish: "brass", ListPrice: 12.50, Description: "solid brass cabinet pull, 4 inch centers"},
		{ID: "prod-2", ModelNo: "CP-502", Title: "Fulton Cabinet Pull", Category: "hardware", Finish: "nickel", Description: "brushed nickel cabinet pull"},
		{ID: "prod-3", ModelNo: "KN-100", Title: "Arden Knob", Category: "hardware", Finish: "brass", Description: "round brass knob"},
	}}
}

func TestProductSearchExactModel(t *testing.T) {
	tool := NewProductSearch(testCatalog())

	res, err := tool.Call(context.Background(), map[string]any{"model_no": "cp-401"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "prod-1", res.Items[0].ID)
	assert.Equal(t, 95.0, res.Items[0].Score)
	assert.Equal(t, "CP-401", res.Items[0].Metadata["model_no"])
}

func TestProductSearchTermFallback(t *testing.T) {
	tool := NewProductSearch(testCatalog())

	res, err := tool.Call(context.Background(), map[string]any{"query": "cabinet pull"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 80.0, res.Items[0].Score)
	assert.Equal(t, 75.0, res.Items[1].Score)
	assert.Greater(t, res.Items[0].Score, res.Items[1].Score)
}

func TestProductSearchUnknownModelFallsBackToQuery(t *testing.T) {
	tool := NewProductSearch(testCatalog())

	res, err := tool.Call(context.Background(), map[string]any{
		"model_no": "ZZ-999",
		"query":    "knob",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "prod-3", res.Items[0].ID)
}

func TestProductSearchNoMatches(t *testing.T) {
	tool := NewProductSearch(testCatalog())

	res, err := tool.Call(context.Background(), map[string]any{"query": "garden hose"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Items)
	assert.Contains(t, res.Message, "no products matched")
}

func TestProductSearchRequiresInput(t *testing.T) {
	tool := NewProductSearch(testCatalog())

	res, err := tool.Call(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "requires")
}
