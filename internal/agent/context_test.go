// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package agent

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resolvd-dev/resolvd/internal/ticket"
)

func TestBuildContextTruncatesTicketText(t *testing.T) {
	tk := testTicket()
	tk.Body = strings.Repeat("x", 5000)

	out := BuildContext(tk, 1, 8, nil, NewEvidence(), false)

	assert.Contains(t, out, "Iteration 1 of 8")
	assert.Contains(t, out, "TICKET T-1001")
	// Subject plus truncated body never exceed the ticket budget.
	assert.LessOrEqual(t, strings.Count(out, "x"), ticketCharBudget)
}

func TestBuildContextWarnDirective(t *testing.T) {
	tk := testTicket()
	ev := NewEvidence()

	calm := BuildContext(tk, 1, 8, nil, ev, false)
	assert.NotContains(t, calm, "finish action NOW")

	warned := BuildContext(tk, 6, 8, nil, ev, true)
	assert.Contains(t, warned, "finish action NOW")
}

func TestBuildContextHistoryWindow(t *testing.T) {
	tk := testTicket()
	var history []IterationRecord
	for i := 1; i <= 9; i++ {
		history = append(history, IterationRecord{
			Iteration:   i,
			Rationale:   strings.Repeat("r", 400),
			Action:      "document_search",
			Observation: strings.Repeat("o", 400),
		})
	}

	out := BuildContext(tk, 10, 12, history, NewEvidence(), false)

	// Only the last five iterations are visible to the reasoner.
	assert.NotContains(t, out, "[4]")
	for i := 5; i <= 9; i++ {
		assert.Contains(t, out, fmt.Sprintf("[%d]", i))
	}

	// Each history field is truncated independently.
	lines := strings.Split(out, "\n")
	for _, line := range lines {
		if !strings.HasPrefix(line, "[") {
			continue
		}
		require.LessOrEqual(t, strings.Count(line, "r"), rationaleBudget)
		require.LessOrEqual(t, strings.Count(line, "o"), observationBudget)
	}
}

func TestBuildContextListsAttachments(t *testing.T) {
	tk := testTicket()
	tk.ImageURLs = []string{"https://img.example/a.jpg"}
	tk.Attachments = []ticket.Attachment{
		{ID: "att-1", Name: "receipt.pdf", ContentType: "application/pdf"},
	}

	out := BuildContext(tk, 1, 8, nil, NewEvidence(), false)

	assert.Contains(t, out, "ATTACHED IMAGES (1)")
	assert.Contains(t, out, "https://img.example/a.jpg")
	assert.Contains(t, out, "ATTACHMENTS (1)")
	assert.Contains(t, out, "receipt.pdf (application/pdf)")
}

func TestBuildContextEvidenceSummary(t *testing.T) {
	tk := testTicket()
	ev := NewEvidence()
	ev.Subject = &SubjectIdentification{ID: "p1", Name: "Arden Brass Pull", Confidence: 0.9}
	ev.DirectAnswer = "answer"

	out := BuildContext(tk, 2, 8, nil, ev, false)

	assert.Contains(t, out, "identified product: Arden Brass Pull")
	assert.Contains(t, out, "a direct answer has been found")
}
