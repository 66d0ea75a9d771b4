// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *Decision
		wantErr bool
	}{
		{
			name: "plain decision",
			raw:  `{"rationale": "need the product", "action": "product_search", "action_input": {"query": "brass pull"}}`,
			want: &Decision{
				Rationale:   "need the product",
				Action:      "product_search",
				ActionInput: map[string]any{"query": "brass pull"},
			},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"rationale\": \"done\", \"action\": \"finish\", \"action_input\": {}}\n```",
			want: &Decision{Rationale: "done", Action: "finish", ActionInput: map[string]any{}},
		},
		{
			name: "fence without language tag",
			raw:  "```\n{\"action\": \"finish\"}\n```",
			want: &Decision{Action: "finish", ActionInput: map[string]any{}},
		},
		{
			name: "null action_input becomes empty map",
			raw:  `{"rationale": "r", "action": "finish", "action_input": null}`,
			want: &Decision{Rationale: "r", Action: "finish", ActionInput: map[string]any{}},
		},
		{
			name: "missing action_input becomes empty map",
			raw:  `{"rationale": "r", "action": "finish"}`,
			want: &Decision{Rationale: "r", Action: "finish", ActionInput: map[string]any{}},
		},
		{
			name:    "empty reply",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "prose instead of json",
			raw:     "I think we should search the catalog.",
			wantErr: true,
		},
		{
			name:    "missing action",
			raw:     `{"rationale": "thinking"}`,
			wantErr: true,
		},
		{
			name:    "action_input is not an object",
			raw:     `{"action": "finish", "action_input": "loose string"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecision(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, resolvderr.HasCode(err, resolvderr.CodeProviderDecisionInvalid),
					"want provider.decision.invalid, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
