// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resolvd-dev/resolvd/internal/ticket"
	"github.com/resolvd-dev/resolvd/internal/tools"
)

func TestDispatchUnknownAction(t *testing.T) {
	d := NewDispatcher(tools.NewRegistry())
	res, obs := d.Dispatch(context.Background(), "summon_wizard", nil, testTicket(), NewEvidence())

	assert.False(t, res.Success)
	assert.Equal(t, "unknown action: summon_wizard", res.Message)
	assert.Contains(t, obs, "unknown action")
}

func TestDispatchEnrichment(t *testing.T) {
	tk := testTicket()
	tk.ImageURLs = []string{"https://img/1.jpg", "https://img/2.jpg"}
	tk.Attachments = []ticket.Attachment{{ID: "att-1", Name: "receipt.pdf", Text: "Order #1"}}

	t.Run("vision gets ticket images when omitted", func(t *testing.T) {
		var got []string
		vision := &scriptedTool{
			name:     tools.NameVisionSearch,
			category: tools.CategoryVision,
			fn: func(params map[string]any) (*tools.Result, error) {
				got = tools.StringSliceParam(params, "image_urls")
				return &tools.Result{Success: true, Message: "ok"}, nil
			},
		}
		d := NewDispatcher(tools.NewRegistry(vision))
		d.Dispatch(context.Background(), tools.NameVisionSearch, map[string]any{}, tk, NewEvidence())
		assert.Equal(t, tk.ImageURLs, got)
	})

	t.Run("explicit image urls are kept", func(t *testing.T) {
		var got []string
		vision := &scriptedTool{
			name:     tools.NameVisionSearch,
			category: tools.CategoryVision,
			fn: func(params map[string]any) (*tools.Result, error) {
				got = tools.StringSliceParam(params, "image_urls")
				return &tools.Result{Success: true, Message: "ok"}, nil
			},
		}
		d := NewDispatcher(tools.NewRegistry(vision))
		d.Dispatch(context.Background(), tools.NameVisionSearch,
			map[string]any{"image_urls": []any{"https://img/only.jpg"}}, tk, NewEvidence())
		assert.Equal(t, []string{"https://img/only.jpg"}, got)
	})

	t.Run("attachment analyzer always gets ticket attachments", func(t *testing.T) {
		var got any
		att := &scriptedTool{
			name:     tools.NameAttachmentAnalyzer,
			category: tools.CategoryAttachment,
			fn: func(params map[string]any) (*tools.Result, error) {
				got = params["attachments"]
				return &tools.Result{Success: true, Message: "ok"}, nil
			},
		}
		d := NewDispatcher(tools.NewRegistry(att))
		d.Dispatch(context.Background(), tools.NameAttachmentAnalyzer, nil, tk, NewEvidence())
		assert.Equal(t, tk.Attachments, got)
	})

	t.Run("document search gets subject context", func(t *testing.T) {
		var got string
		docs := &scriptedTool{
			name:     tools.NameDocumentSearch,
			category: tools.CategoryDocument,
			fn: func(params map[string]any) (*tools.Result, error) {
				got = tools.StringParam(params, "context")
				return &tools.Result{Success: true, Message: "ok"}, nil
			},
		}
		ev := NewEvidence()
		ev.Subject = &SubjectIdentification{ID: "p1", Name: "Arden Brass Pull", Confidence: 0.9}

		d := NewDispatcher(tools.NewRegistry(docs))
		d.Dispatch(context.Background(), tools.NameDocumentSearch, map[string]any{"query": "care"}, tk, ev)
		assert.Equal(t, "Arden Brass Pull", got)
	})

	t.Run("caller params are not mutated", func(t *testing.T) {
		vision := &scriptedTool{
			name:     tools.NameVisionSearch,
			category: tools.CategoryVision,
			fn: func(params map[string]any) (*tools.Result, error) {
				return &tools.Result{Success: true, Message: "ok"}, nil
			},
		}
		d := NewDispatcher(tools.NewRegistry(vision))
		params := map[string]any{}
		d.Dispatch(context.Background(), tools.NameVisionSearch, params, tk, NewEvidence())
		assert.Empty(t, params)
	})
}

func TestDispatchFinishMergesPayload(t *testing.T) {
	d := NewDispatcher(tools.NewRegistry())
	ev := NewEvidence()

	res, _ := d.Dispatch(context.Background(), ActionFinish,
		map[string]any{"answer": "Replace under warranty.", "subject": "Arden Brass Pull"},
		testTicket(), ev)

	require.True(t, res.Success)
	assert.Equal(t, "Replace under warranty.", ev.DirectAnswer)
	require.NotNil(t, ev.Subject)
	assert.Equal(t, "Arden Brass Pull", ev.Subject.Name)
}

func TestDispatchToolErrorBecomesFailedResult(t *testing.T) {
	broken := &scriptedTool{
		name:     tools.NameDocumentSearch,
		category: tools.CategoryDocument,
		fn: func(params map[string]any) (*tools.Result, error) {
			return nil, assert.AnError
		},
	}
	d := NewDispatcher(tools.NewRegistry(broken))
	ev := NewEvidence()

	res, obs := d.Dispatch(context.Background(), tools.NameDocumentSearch,
		map[string]any{"query": "x"}, testTicket(), ev)

	assert.False(t, res.Success)
	assert.Contains(t, obs, "failed")
	assert.Empty(t, ev.Documents)
}
