// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package agent

import (
	"fmt"
	"strings"
)

// Section caps for the composed context. Downstream drafting weights
// earlier sections more heavily, so the ordering here is a contract:
// direct answer, then documents, then subject, then related records.
const (
	composedDocLimit     = 5
	composedRelatedLimit = 3
	previewChars         = 240
)

// Hit category keys in RunResult.Hits.
const (
	HitsDocuments = "documents"
	HitsSubject   = "subject"
	HitsImages    = "images"
	HitsRelated   = "related_records"
)

// RetrievalHit is the uniform output record handed to downstream
// consumers. Score is always on [0,1].
type RetrievalHit struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Content  string         `json:"content,omitempty"`
}

// NormalizeScore maps a raw tool score onto [0,1]. Scores above 1 are
// treated as percentages and divided by 100.
func NormalizeScore(s float64) float64 {
	if s > 1 {
		s = s / 100
	}
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// BuildHits converts accumulated evidence into per-category hit lists.
func BuildHits(ev *Evidence) map[string][]RetrievalHit {
	hits := make(map[string][]RetrievalHit, 4)

	if len(ev.Documents) > 0 {
		docs := make([]RetrievalHit, 0, len(ev.Documents))
		for _, d := range ev.Documents {
			docs = append(docs, RetrievalHit{
				ID:       d.ID,
				Score:    NormalizeScore(d.Score),
				Metadata: withTitle(d.Metadata, d.Title),
				Content:  d.Content,
			})
		}
		hits[HitsDocuments] = docs
	}

	if ev.Subject != nil {
		hits[HitsSubject] = []RetrievalHit{{
			ID:    ev.Subject.ID,
			Score: ev.Subject.Confidence,
			Metadata: map[string]any{
				"name":     ev.Subject.Name,
				"category": ev.Subject.Category,
			},
		}}
	}

	if len(ev.Images) > 0 {
		imgs := make([]RetrievalHit, 0, len(ev.Images))
		for _, url := range ev.Images {
			imgs = append(imgs, RetrievalHit{
				ID:       url,
				Score:    1,
				Metadata: map[string]any{"url": url},
			})
		}
		hits[HitsImages] = imgs
	}

	if len(ev.Related) > 0 {
		rel := make([]RetrievalHit, 0, len(ev.Related))
		for _, r := range ev.Related {
			rel = append(rel, RetrievalHit{
				ID:       r.ID,
				Score:    NormalizeScore(r.Score),
				Metadata: withTitle(r.Metadata, r.Title),
				Content:  r.Content,
			})
		}
		hits[HitsRelated] = rel
	}

	return hits
}

// ComposeContext renders the evidence as one context string for downstream
// response drafting.
func ComposeContext(ev *Evidence) string {
	var b strings.Builder

	if ev.DirectAnswer != "" {
		b.WriteString("ANSWER\n")
		b.WriteString(ev.DirectAnswer)
		b.WriteString("\n\n")
	}

	if len(ev.Documents) > 0 {
		b.WriteString("DOCUMENTS\n")
		for i, d := range ev.Documents {
			if i >= composedDocLimit {
				break
			}
			fmt.Fprintf(&b, "- [%.2f] %s: %s\n", NormalizeScore(d.Score), d.Title, preview(d.Content))
		}
		b.WriteString("\n")
	}

	if ev.Subject != nil {
		b.WriteString("IDENTIFIED PRODUCT\n")
		fmt.Fprintf(&b, "%s (id=%s", ev.Subject.Name, ev.Subject.ID)
		if ev.Subject.Category != "" {
			fmt.Fprintf(&b, ", category=%s", ev.Subject.Category)
		}
		fmt.Fprintf(&b, ", confidence=%.2f)\n\n", ev.Subject.Confidence)
	}

	if len(ev.Related) > 0 {
		b.WriteString("SIMILAR PAST TICKETS\n")
		for i, r := range ev.Related {
			if i >= composedRelatedLimit {
				break
			}
			fmt.Fprintf(&b, "- [%.2f] %s: %s\n", NormalizeScore(r.Score), r.Title, preview(r.Content))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func withTitle(meta map[string]any, title string) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	if title != "" {
		out["title"] = title
	}
	return out
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= previewChars {
		return s
	}
	return s[:previewChars] + "…"
}
