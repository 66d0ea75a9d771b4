// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package provider

import (
	"encoding/json"
	"strings"

	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// rawDecision mirrors the wire shape of a reasoner reply. ActionInput is
// kept raw so a null or absent value can be distinguished from {}.
type rawDecision struct {
	Rationale   string          `json:"rationale"`
	Action      string          `json:"action"`
	ActionInput json.RawMessage `json:"action_input"`
}

// ParseDecision validates a raw reasoner reply against the decision schema.
// Markdown code fences around the JSON body are tolerated, since several
// providers wrap structured output that way. Anything else that does not
// parse into {rationale, action, action_input} is CodeProviderDecisionInvalid:
// the loop must not guess at a malformed reply.
func ParseDecision(raw string) (*Decision, error) {
	body := stripFences(strings.TrimSpace(raw))
	if body == "" {
		return nil, resolvderr.New(resolvderr.CodeProviderDecisionInvalid, "empty reasoner reply")
	}

	var rd rawDecision
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&rd); err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeProviderDecisionInvalid,
			"reasoner reply is not a decision object")
	}

	if rd.Action == "" {
		return nil, resolvderr.New(resolvderr.CodeProviderDecisionInvalid,
			"decision is missing the action field")
	}

	input := map[string]any{}
	if len(rd.ActionInput) > 0 && string(rd.ActionInput) != "null" {
		if err := json.Unmarshal(rd.ActionInput, &input); err != nil {
			return nil, resolvderr.Wrapf(err, resolvderr.CodeProviderDecisionInvalid,
				"action_input is not an object")
		}
	}

	return &Decision{
		Rationale:   rd.Rationale,
		Action:      rd.Action,
		ActionInput: input,
	}, nil
}

// stripFences removes a single surrounding markdown code fence, with or
// without a language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		first := strings.TrimSpace(s[:idx])
		if first == "" || strings.EqualFold(first, "json") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
