// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/resolvd-dev/resolvd/internal/tools"
)

// defaultFinishConfidence is used when a finish payload identifies a
// subject without stating a confidence.
const defaultFinishConfidence = 0.5

// SubjectIdentification is the best current answer to "what product is
// this ticket about". Confidence is on [0,1].
type SubjectIdentification struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
}

// DocumentRecord is one accumulated knowledge-base document.
type DocumentRecord struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Content  string         `json:"content,omitempty"`
}

// RelatedRecord is one accumulated similar past case.
type RelatedRecord struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Content  string         `json:"content,omitempty"`
}

// Evidence is the accumulated knowledge of one run. It is owned by a single
// Loop invocation, merged into append-only as tool results arrive, and
// discarded when the run returns. Never shared across runs.
type Evidence struct {
	Subject      *SubjectIdentification
	Documents    []DocumentRecord
	Images       []string
	Related      []RelatedRecord
	DirectAnswer string

	docTitles  map[string]struct{}
	imageURLs  map[string]struct{}
	relatedIDs map[string]struct{}
	signatures map[string]struct{}
}

// NewEvidence creates an empty evidence state.
func NewEvidence() *Evidence {
	return &Evidence{
		docTitles:  make(map[string]struct{}),
		imageURLs:  make(map[string]struct{}),
		relatedIDs: make(map[string]struct{}),
		signatures: make(map[string]struct{}),
	}
}

// Signature computes the canonical key of an (action, params) pair.
// json.Marshal sorts map keys, so semantically equal parameter maps yield
// equal signatures.
func Signature(action string, params map[string]any) string {
	raw, err := json.Marshal(params)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", params))
	}
	return action + ":" + string(raw)
}

// SeenSignature reports whether the signature was already recorded, and
// records it otherwise.
func (e *Evidence) SeenSignature(sig string) bool {
	if _, ok := e.signatures[sig]; ok {
		return true
	}
	e.signatures[sig] = struct{}{}
	return false
}

// Merge folds a successful tool result into the evidence state by tool
// category. Failed results never change evidence.
func (e *Evidence) Merge(cat tools.Category, res *tools.Result) {
	if res == nil || !res.Success {
		return
	}

	switch cat {
	case tools.CategorySubject:
		e.mergeSubject(res.Items)

	case tools.CategoryDocument:
		for _, it := range res.Items {
			e.addDocument(DocumentRecord{
				ID: it.ID, Title: it.Title, Score: it.Score,
				Metadata: it.Metadata, Content: it.Content,
			})
		}
		if res.Answer != "" && e.DirectAnswer == "" {
			e.DirectAnswer = res.Answer
		}

	case tools.CategoryVision:
		// Identification rides along with the image analysis.
		for _, it := range res.Items {
			e.addImage(it.URL)
		}
		e.mergeSubject(res.Items)

	case tools.CategoryRelated:
		for _, it := range res.Items {
			e.addRelated(RelatedRecord{
				ID: it.ID, Title: it.Title, Score: it.Score,
				Metadata: it.Metadata, Content: it.Content,
			})
		}

	case tools.CategoryAttachment:
		// Extracted attachment text joins the document pool so downstream
		// composition can cite it alongside retrieved documents.
		for _, it := range res.Items {
			if it.Content == "" {
				continue
			}
			e.addDocument(DocumentRecord{
				ID: it.ID, Title: it.Title, Score: it.Score,
				Metadata: it.Metadata, Content: it.Content,
			})
		}
	}
}

// mergeSubject sets the subject from the top-scored item. First successful
// identification wins; later identifications never overwrite it.
func (e *Evidence) mergeSubject(items []tools.Item) {
	if e.Subject != nil || len(items) == 0 {
		return
	}
	best := items[0]
	for _, it := range items[1:] {
		if it.Score > best.Score {
			best = it
		}
	}
	category := ""
	if best.Metadata != nil {
		category, _ = best.Metadata["category"].(string)
	}
	e.Subject = &SubjectIdentification{
		ID:         best.ID,
		Name:       best.Title,
		Category:   category,
		Confidence: NormalizeScore(best.Score),
	}
}

func (e *Evidence) addDocument(d DocumentRecord) {
	key := strings.ToLower(strings.TrimSpace(d.Title))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(d.ID))
	}
	if key == "" {
		return
	}
	if _, ok := e.docTitles[key]; ok {
		return
	}
	e.docTitles[key] = struct{}{}
	e.Documents = append(e.Documents, d)
}

func (e *Evidence) addImage(url string) {
	if url == "" {
		return
	}
	if _, ok := e.imageURLs[url]; ok {
		return
	}
	e.imageURLs[url] = struct{}{}
	e.Images = append(e.Images, url)
}

func (e *Evidence) addRelated(r RelatedRecord) {
	if r.ID == "" {
		return
	}
	if _, ok := e.relatedIDs[r.ID]; ok {
		return
	}
	e.relatedIDs[r.ID] = struct{}{}
	e.Related = append(e.Related, r)
}

// MergeFinish applies a finishing payload. Non-empty payload fields
// supersede the corresponding accumulated fields; omitted or empty fields
// keep their accumulated values. The reasoner may supply any loose shape
// (string, object, or list) for the record-valued fields; everything is
// normalized to record lists before merging.
func (e *Evidence) MergeFinish(payload map[string]any) {
	if payload == nil {
		return
	}

	if ans := firstString(payload, "answer", "direct_answer"); ans != "" {
		e.DirectAnswer = ans
	}

	if recs := normalizeRecords(firstValue(payload, "subject", "product", "identified_product")); len(recs) > 0 {
		confidence := floatField(payload, "confidence", defaultFinishConfidence)
		r := recs[0]
		name := firstString(r, "name", "title")
		if name != "" || firstString(r, "id") != "" {
			e.Subject = &SubjectIdentification{
				ID:         firstString(r, "id", "model_no"),
				Name:       name,
				Category:   firstString(r, "category"),
				Confidence: NormalizeScore(confidence),
			}
		}
	}

	if recs := normalizeRecords(firstValue(payload, "documents", "sources")); len(recs) > 0 {
		e.Documents = e.Documents[:0]
		e.docTitles = make(map[string]struct{})
		for _, r := range recs {
			e.addDocument(DocumentRecord{
				ID:      firstString(r, "id"),
				Title:   firstString(r, "title", "name"),
				Score:   floatField(r, "score", 0),
				Content: firstString(r, "content", "summary"),
			})
		}
	}

	if recs := normalizeRecords(firstValue(payload, "related_records", "related", "similar_tickets")); len(recs) > 0 {
		e.Related = e.Related[:0]
		e.relatedIDs = make(map[string]struct{})
		for _, r := range recs {
			e.addRelated(RelatedRecord{
				ID:      firstString(r, "id"),
				Title:   firstString(r, "title", "subject"),
				Score:   floatField(r, "score", 0),
				Content: firstString(r, "content", "summary"),
			})
		}
	}
}

// normalizeRecords converts any accepted loose shape into a list of record
// maps: a string becomes one record's title, an object becomes a
// one-element list, a list is taken element-wise.
func normalizeRecords(v any) []map[string]any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []map[string]any{{"title": t, "name": t}}
	case map[string]any:
		return []map[string]any{t}
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, e := range t {
			out = append(out, normalizeRecords(e)...)
		}
		return out
	case []map[string]any:
		return t
	default:
		return nil
	}
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func floatField(m map[string]any, key string, def float64) float64 {
	switch t := m[key].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		var f float64
		if _, err := fmt.Sscanf(t, "%g", &f); err == nil {
			return f
		}
	}
	return def
}
