// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/resolvd-dev/resolvd/internal/embed"
	"github.com/resolvd-dev/resolvd/internal/store"
)

// maxImagesPerCall bounds vision spend for tickets with many screenshots.
const maxImagesPerCall = 3

const captionPrompt = "Describe the product shown in this image for a product " +
	"catalog search: type of item, material, finish, color, and any visible " +
	"model numbers or branding. One short paragraph, no speculation."

// Captioner produces a text description of an image at a URL. Satisfied by
// the Gemini provider.
type Captioner interface {
	DescribeImage(ctx context.Context, model, url, prompt string) (string, error)
}

// VisionSearch captions ticket images and matches the captions against the
// product index. Identification is a side effect: the top product match
// doubles as a subject candidate.
type VisionSearch struct {
	captioner Captioner
	model     string
	vectors   store.VectorStore
	embedder  embed.Embedder
}

// NewVisionSearch wires the tool to a captioning provider, vector store,
// and embedder.
func NewVisionSearch(captioner Captioner, model string, vectors store.VectorStore, embedder embed.Embedder) *VisionSearch {
	return &VisionSearch{captioner: captioner, model: model, vectors: vectors, embedder: embedder}
}

func (t *VisionSearch) Name() string       { return NameVisionSearch }
func (t *VisionSearch) Category() Category { return CategoryVision }

func (t *VisionSearch) Description() string {
	return "Analyze the ticket's attached images and match them against the " +
		"product index. Provide 'image_urls' as a list; omit it to analyze all " +
		"images attached to the ticket."
}

// Call captions up to maxImagesPerCall images, embeds each caption, and
// searches the product namespace. A caption failure for one image does not
// fail the others.
func (t *VisionSearch) Call(ctx context.Context, params map[string]any) (*Result, error) {
	urls := StringSliceParam(params, "image_urls")
	if len(urls) == 0 {
		return Failure("vision_search requires 'image_urls'; the ticket has no images"), nil
	}
	if len(urls) > maxImagesPerCall {
		urls = urls[:maxImagesPerCall]
	}

	var items []Item
	var captioned int
	for _, url := range urls {
		caption, err := t.captioner.DescribeImage(ctx, t.model, url, captionPrompt)
		if err != nil {
			slog.WarnContext(ctx, "image caption failed", "url", url, "error", err)
			continue
		}
		captioned++

		vec, err := t.embedder.Embed(ctx, caption)
		if err != nil {
			return nil, err
		}
		hits, err := t.vectors.Search(ctx, store.NamespaceProducts, vec, 3)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			meta := h.Metadata
			if meta == nil {
				meta = map[string]any{}
			}
			meta["caption"] = truncateCaption(caption)
			items = append(items, Item{
				ID:       h.ID,
				Title:    metaString(h.Metadata, "title"),
				Score:    h.Score,
				URL:      url,
				Metadata: meta,
				Content:  h.Content,
			})
		}
	}

	if captioned == 0 {
		return Failure("vision_search could not analyze any of %d images", len(urls)), nil
	}
	if len(items) == 0 {
		return &Result{Success: true, Message: fmt.Sprintf("analyzed %d images; no product matches", captioned)}, nil
	}

	best := items[0]
	for _, it := range items[1:] {
		if it.Score > best.Score {
			best = it
		}
	}
	return &Result{
		Success: true,
		Items:   items,
		Message: fmt.Sprintf("analyzed %d images, %d product matches; best: %s (%.2f)", captioned, len(items), best.Title, best.Score),
	}, nil
}

func truncateCaption(s string) string {
	const max = 300
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
