// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resolvd-dev/resolvd/internal/tools"
)

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"percentage scale", 87, 0.87},
		{"unit scale unchanged", 0.87, 0.87},
		{"exactly one", 1, 1},
		{"negative clamps to zero", -0.2, 0},
		{"over one hundred clamps to one", 140, 1},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NormalizeScore(tt.in), 1e-9)
		})
	}
}

func TestBuildHitsNormalizesScores(t *testing.T) {
	ev := NewEvidence()
	ev.Merge(tools.CategoryDocument, docResult(tools.Item{ID: "d1", Title: "Guide", Score: 87}))
	ev.Merge(tools.CategoryRelated, docResult(tools.Item{ID: "T-2", Title: "Similar", Score: 0.66}))
	ev.Subject = &SubjectIdentification{ID: "p1", Name: "Pull", Confidence: 0.9}

	hits := BuildHits(ev)

	require.Len(t, hits[HitsDocuments], 1)
	assert.InDelta(t, 0.87, hits[HitsDocuments][0].Score, 1e-9)
	assert.Equal(t, "Guide", hits[HitsDocuments][0].Metadata["title"])

	require.Len(t, hits[HitsRelated], 1)
	assert.InDelta(t, 0.66, hits[HitsRelated][0].Score, 1e-9)

	require.Len(t, hits[HitsSubject], 1)
	assert.Equal(t, "p1", hits[HitsSubject][0].ID)
}

func TestBuildHitsOmitsEmptyCategories(t *testing.T) {
	hits := BuildHits(NewEvidence())
	assert.Empty(t, hits)
}

func TestComposeContextOrdering(t *testing.T) {
	ev := NewEvidence()
	ev.DirectAnswer = "Polish with a soft cloth."
	ev.Merge(tools.CategoryDocument, docResult(tools.Item{ID: "d1", Title: "Care Guide", Score: 0.8, Content: "Brass care instructions."}))
	ev.Subject = &SubjectIdentification{ID: "p1", Name: "Arden Brass Pull", Category: "hardware", Confidence: 0.9}
	ev.Merge(tools.CategoryRelated, docResult(tools.Item{ID: "T-2", Title: "Tarnished pull", Score: 0.7, Content: "Resolved with polish."}))

	out := ComposeContext(ev)

	answerIdx := strings.Index(out, "ANSWER")
	docsIdx := strings.Index(out, "DOCUMENTS")
	subjectIdx := strings.Index(out, "IDENTIFIED PRODUCT")
	relatedIdx := strings.Index(out, "SIMILAR PAST TICKETS")

	require.NotEqual(t, -1, answerIdx)
	require.NotEqual(t, -1, docsIdx)
	require.NotEqual(t, -1, subjectIdx)
	require.NotEqual(t, -1, relatedIdx)

	assert.Less(t, answerIdx, docsIdx, "direct answer must precede documents")
	assert.Less(t, docsIdx, subjectIdx, "documents must precede subject identification")
	assert.Less(t, subjectIdx, relatedIdx, "subject must precede related records")
}

func TestComposeContextCapsSections(t *testing.T) {
	ev := NewEvidence()
	for i := 0; i < 10; i++ {
		ev.Merge(tools.CategoryDocument, docResult(tools.Item{
			ID:    string(rune('a' + i)),
			Title: "Doc " + string(rune('A'+i)),
			Score: 0.5,
		}))
	}

	out := ComposeContext(ev)
	assert.Equal(t, composedDocLimit, strings.Count(out, "- ["))
}
