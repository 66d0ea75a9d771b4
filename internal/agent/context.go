// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package agent

import (
	"fmt"
	"strings"

	"github.com/resolvd-dev/resolvd/internal/ticket"
)

// Budgets bounding the reasoner's input size. History is windowed for
// prompt-size control only; accumulated evidence is independent of the
// window and never truncated by it.
const (
	ticketCharBudget  = 2000
	historyWindow     = 5
	rationaleBudget   = 150
	observationBudget = 200
)

// warnDirective is appended once the run nears its budget. The reasoner's
// behavior is steered by this text, so it must be unambiguous.
const warnDirective = "IMPORTANT: the iteration budget is nearly exhausted. " +
	"Do NOT start any further searches. Call the finish action NOW with the " +
	"best evidence gathered so far."

// BuildContext assembles the bounded textual context handed to the
// reasoner for one iteration. Pure function of its inputs.
func BuildContext(t *ticket.Ticket, iteration, maxIterations int, history []IterationRecord, ev *Evidence, warn bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Iteration %d of %d\n\n", iteration, maxIterations)

	fmt.Fprintf(&b, "TICKET %s", t.ID)
	if t.Priority != "" {
		fmt.Fprintf(&b, " (priority: %s)", t.Priority)
	}
	b.WriteString("\n")
	if t.RequesterName != "" {
		fmt.Fprintf(&b, "From: %s\n", t.RequesterName)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(t.Tags, ", "))
	}
	b.WriteString(truncateChars(t.Text(), ticketCharBudget))
	b.WriteString("\n\n")

	if t.HasImages() {
		fmt.Fprintf(&b, "ATTACHED IMAGES (%d)\n", len(t.ImageURLs))
		for _, url := range t.ImageURLs {
			fmt.Fprintf(&b, "- %s\n", url)
		}
		b.WriteString("\n")
	}
	if t.HasAttachments() {
		fmt.Fprintf(&b, "ATTACHMENTS (%d)\n", len(t.Attachments))
		for _, a := range t.Attachments {
			fmt.Fprintf(&b, "- %s (%s)\n", a.Name, a.ContentType)
		}
		b.WriteString("\n")
	}

	writeEvidenceSummary(&b, ev)
	writeHistory(&b, history)

	if warn {
		b.WriteString(warnDirective)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeEvidenceSummary(b *strings.Builder, ev *Evidence) {
	b.WriteString("EVIDENCE SO FAR\n")

	if ev.Subject != nil {
		fmt.Fprintf(b, "- identified product: %s (confidence %.2f)\n", ev.Subject.Name, ev.Subject.Confidence)
	} else {
		b.WriteString("- identified product: none yet\n")
	}

	if len(ev.Documents) > 0 {
		titles := make([]string, 0, len(ev.Documents))
		for _, d := range ev.Documents {
			titles = append(titles, d.Title)
		}
		fmt.Fprintf(b, "- documents (%d): %s\n", len(ev.Documents), truncateChars(strings.Join(titles, "; "), observationBudget))
	} else {
		b.WriteString("- documents: none\n")
	}

	if len(ev.Images) > 0 {
		fmt.Fprintf(b, "- analyzed images: %d\n", len(ev.Images))
	}
	if len(ev.Related) > 0 {
		fmt.Fprintf(b, "- similar past tickets: %d\n", len(ev.Related))
	}
	if ev.DirectAnswer != "" {
		b.WriteString("- a direct answer has been found\n")
	}
	b.WriteString("\n")
}

func writeHistory(b *strings.Builder, history []IterationRecord) {
	if len(history) == 0 {
		return
	}

	window := history
	if len(window) > historyWindow {
		window = window[len(window)-historyWindow:]
	}

	b.WriteString("PREVIOUS STEPS\n")
	for _, rec := range window {
		fmt.Fprintf(b, "[%d] %s: %s -> %s\n",
			rec.Iteration,
			rec.Action,
			truncateChars(rec.Rationale, rationaleBudget),
			truncateChars(rec.Observation, observationBudget),
		)
	}
	b.WriteString("\n")
}

// truncateChars bounds s to max runes, keeping multi-byte characters whole.
func truncateChars(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
