// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package tools

import (
	"context"
	"fmt"

	"github.com/resolvd-dev/resolvd/internal/store"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// Catalog match scores are on a 0-100 scale. An exact model number match
// outranks every fuzzy text match.
const (
	scoreModelMatch  = 95.0
	scoreSearchFirst = 80.0
	scoreSearchStep  = 5.0
	scoreSearchFloor = 40.0
)

// ProductSearch identifies the ticket's subject in the product catalog.
type ProductSearch struct {
	catalog store.CatalogStore
}

// NewProductSearch wires the tool to a catalog store.
func NewProductSearch(catalog store.CatalogStore) *ProductSearch {
	return &ProductSearch{catalog: catalog}
}

func (t *ProductSearch) Name() string       { return NameProductSearch }
func (t *ProductSearch) Category() Category { return CategorySubject }

func (t *ProductSearch) Description() string {
	return "Search the product catalog to identify the product the ticket is about. " +
		"Provide 'query' with model numbers, product names, or descriptive terms " +
		"from the ticket; or 'model_no' for an exact model number lookup."
}

// Call looks up by exact model number when given one, falling back to a
// term search over the catalog.
func (t *ProductSearch) Call(ctx context.Context, params map[string]any) (*Result, error) {
	modelNo := StringParam(params, "model_no")
	query := StringParam(params, "query")
	if modelNo == "" && query == "" {
		return Failure("product_search requires 'query' or 'model_no'"), nil
	}

	if modelNo != "" {
		p, err := t.catalog.GetByModel(ctx, modelNo)
		if err == nil {
			return &Result{
				Success: true,
				Items:   []Item{productItem(p, scoreModelMatch)},
				Message: fmt.Sprintf("exact model match: %s (%s)", p.Title, p.ModelNo),
			}, nil
		}
		if !resolvderr.IsNotFound(err) {
			return nil, err
		}
		if query == "" {
			query = modelNo
		}
	}

	limit := IntParam(params, "limit", 5)
	products, err := t.catalog.Search(ctx, query, limit)
	if err != nil {
		if resolvderr.IsInvalidInput(err) {
			return Failure("product_search: %v", err), nil
		}
		return nil, err
	}
	if len(products) == 0 {
		return &Result{Success: true, Message: fmt.Sprintf("no products matched %q", query)}, nil
	}

	items := make([]Item, 0, len(products))
	for i, p := range products {
		score := scoreSearchFirst - float64(i)*scoreSearchStep
		if score < scoreSearchFloor {
			score = scoreSearchFloor
		}
		items = append(items, productItem(p, score))
	}

	return &Result{
		Success: true,
		Items:   items,
		Message: fmt.Sprintf("%d products matched %q; best: %s", len(items), query, products[0].Title),
	}, nil
}

func productItem(p *store.Product, score float64) Item {
	return Item{
		ID:    p.ID,
		Title: p.Title,
		Score: score,
		Metadata: map[string]any{
			"model_no":   p.ModelNo,
			"category":   p.Category,
			"finish":     p.Finish,
			"list_price": p.ListPrice,
		},
		Content: p.Description,
	}
}
