// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resolvd-dev/resolvd/internal/store"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

func newTestAudit(t *testing.T) *AuditStore {
	t.Helper()
	a, err := NewAuditStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAuditAppendAndListByRun(t *testing.T) {
	a := newTestAudit(t)
	ctx := context.Background()

	entries := []*store.AuditEntry{
		{ID: "e-2", RunID: "run-1", TicketID: "T-1001", Iteration: 2, Action: "document_search", Rationale: "look up care guide", Params: map[string]any{"query": "tarnish"}, DurationMS: 120, CreatedAt: 1700000001000},
		{ID: "e-1", RunID: "run-1", TicketID: "T-1001", Iteration: 1, Action: "product_search", Observation: "1 product matched", DurationMS: 45, CreatedAt: 1700000000000},
		{ID: "e-3", RunID: "run-2", TicketID: "T-2002", Iteration: 1, Action: "finish", CreatedAt: 1700000002000},
	}
	for _, e := range entries {
		require.NoError(t, a.Append(ctx, e))
	}

	got, err := a.ListByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Iteration order, not insertion order.
	assert.Equal(t, "e-1", got[0].ID)
	assert.Equal(t, "e-2", got[1].ID)
	assert.Equal(t, "product_search", got[0].Action)
	assert.Equal(t, "1 product matched", got[0].Observation)
	assert.Equal(t, map[string]any{"query": "tarnish"}, got[1].Params)
	assert.Equal(t, int64(120), got[1].DurationMS)
}

func TestAuditListByRunEmpty(t *testing.T) {
	a := newTestAudit(t)

	got, err := a.ListByRun(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAuditAppendRequiresID(t *testing.T) {
	a := newTestAudit(t)

	err := a.Append(context.Background(), &store.AuditEntry{RunID: "run-1"})
	require.Error(t, err)
	assert.True(t, resolvderr.IsInvalidInput(err))
}

func TestAuditEmptyParamsRoundTrip(t *testing.T) {
	a := newTestAudit(t)
	ctx := context.Background()

	require.NoError(t, a.Append(ctx, &store.AuditEntry{
		ID: "e-1", RunID: "run-1", TicketID: "T-1", Iteration: 1, Action: "finish", CreatedAt: 1,
	}))

	got, err := a.ListByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Params)
}
