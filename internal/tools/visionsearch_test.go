// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resolvd-dev/resolvd/internal/store"
)

// fakeCaptioner captions every URL the same way, failing for URLs in bad.
type fakeCaptioner struct {
	caption string
	bad     map[string]bool
	calls   int
}

func (f *fakeCaptioner) DescribeImage(_ context.Context, _, url, _ string) (string, error) {
	f.calls++
	if f.bad[url] {
		return "", errors.New("caption backend unavailable")
	}
	return f.caption, nil
}

func visionVectorStore() *fakeVectorStore {
	return &fakeVectorStore{results: map[store.Namespace][]store.VectorResult{
		store.NamespaceProducts: {
			{ID: "prod-1", Score: 0.88, Metadata: map[string]any{"title": "Arden Cabinet Pull"}},
			{ID: "prod-3", Score: 0.61, Metadata: map[string]any{"title": "Arden Knob"}},
		},
	}}
}

func TestVisionSearchMatchesProducts(t *testing.T) {
	capt := &fakeCaptioner{caption: "a brass cabinet pull with 4 inch centers"}
	tool := NewVisionSearch(capt, "gemini-2.5-flash", visionVectorStore(), &fakeEmbedder{})

	res, err := tool.Call(context.Background(), map[string]any{
		"image_urls": []any{"https://files.example.com/a.jpg"},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "prod-1", res.Items[0].ID)
	assert.Equal(t, "https://files.example.com/a.jpg", res.Items[0].URL)
	assert.Equal(t, capt.caption, res.Items[0].Metadata["caption"])
}

func TestVisionSearchCapsImageCount(t *testing.T) {
	capt := &fakeCaptioner{caption: "brass hardware"}
	tool := NewVisionSearch(capt, "gemini-2.5-flash", visionVectorStore(), &fakeEmbedder{})

	urls := []any{"u1", "u2", "u3", "u4", "u5"}
	_, err := tool.Call(context.Background(), map[string]any{"image_urls": urls})
	require.NoError(t, err)
	assert.Equal(t, maxImagesPerCall, capt.calls)
}

func TestVisionSearchSkipsFailedCaptions(t *testing.T) {
	capt := &fakeCaptioner{
		caption: "brass hardware",
		bad:     map[string]bool{"u1": true},
	}
	tool := NewVisionSearch(capt, "gemini-2.5-flash", visionVectorStore(), &fakeEmbedder{})

	res, err := tool.Call(context.Background(), map[string]any{"image_urls": []any{"u1", "u2"}})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Items, 2)
	for _, it := range res.Items {
		assert.Equal(t, "u2", it.URL)
	}
}

func TestVisionSearchAllCaptionsFail(t *testing.T) {
	capt := &fakeCaptioner{bad: map[string]bool{"u1": true}}
	tool := NewVisionSearch(capt, "gemini-2.5-flash", visionVectorStore(), &fakeEmbedder{})

	res, err := tool.Call(context.Background(), map[string]any{"image_urls": []any{"u1"}})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestVisionSearchRequiresImages(t *testing.T) {
	tool := NewVisionSearch(&fakeCaptioner{}, "gemini-2.5-flash", visionVectorStore(), &fakeEmbedder{})

	res, err := tool.Call(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no images")
}
