// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/resolvd-dev/resolvd/internal/ticket"
)

// maxExtractChars bounds the text surfaced per attachment so one large PDF
// cannot dominate the reasoner's context.
const maxExtractChars = 1200

// AttachmentAnalyzer surfaces the extracted text of ticket attachments.
// Extraction itself happens at ingestion; this tool selects and bounds what
// the loop sees.
type AttachmentAnalyzer struct{}

// NewAttachmentAnalyzer creates the attachment analysis tool.
func NewAttachmentAnalyzer() *AttachmentAnalyzer {
	return &AttachmentAnalyzer{}
}

func (t *AttachmentAnalyzer) Name() string       { return NameAttachmentAnalyzer }
func (t *AttachmentAnalyzer) Category() Category { return CategoryAttachment }

func (t *AttachmentAnalyzer) Description() string {
	return "Read the text content of the ticket's attachments (receipts, " +
		"order confirmations, forms). Provide 'names' to select specific " +
		"attachments; omit it to read all of them."
}

// Call returns the extracted text of the requested attachments. The
// dispatcher injects the ticket's attachment records under "attachments".
func (t *AttachmentAnalyzer) Call(_ context.Context, params map[string]any) (*Result, error) {
	atts := attachmentsParam(params)
	if len(atts) == 0 {
		return Failure("attachment_analyzer: the ticket has no attachments"), nil
	}

	names := StringSliceParam(params, "names")
	selected := atts
	if len(names) > 0 {
		selected = selected[:0:0]
		for _, a := range atts {
			for _, n := range names {
				if strings.EqualFold(a.Name, n) {
					selected = append(selected, a)
					break
				}
			}
		}
		if len(selected) == 0 {
			return Failure("attachment_analyzer: no attachment matches %v", names), nil
		}
	}

	items := make([]Item, 0, len(selected))
	var withText int
	for _, a := range selected {
		text := strings.TrimSpace(a.Text)
		if text != "" {
			withText++
		}
		if len(text) > maxExtractChars {
			text = text[:maxExtractChars]
		}
		items = append(items, Item{
			ID:    a.ID,
			Title: a.Name,
			URL:   a.URL,
			Metadata: map[string]any{
				"content_type": a.ContentType,
			},
			Content: text,
		})
	}

	msg := fmt.Sprintf("read %d attachments, %d with extractable text", len(items), withText)
	if withText == 0 {
		msg = fmt.Sprintf("read %d attachments; none had extractable text", len(items))
	}
	return &Result{Success: true, Items: items, Message: msg}, nil
}

// attachmentsParam accepts either typed records (injected by the dispatcher)
// or loose maps (as a reasoner would supply them).
func attachmentsParam(params map[string]any) []ticket.Attachment {
	v, ok := params["attachments"]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []ticket.Attachment:
		return t
	case []any:
		out := make([]ticket.Attachment, 0, len(t))
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, ticket.Attachment{
				ID:          StringParam(m, "id"),
				Name:        StringParam(m, "name"),
				ContentType: StringParam(m, "content_type"),
				URL:         StringParam(m, "url"),
				Text:        StringParam(m, "text"),
			})
		}
		return out
	default:
		return nil
	}
}
