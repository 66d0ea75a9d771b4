// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package agent

import (
	"fmt"
	"strings"

	"github.com/resolvd-dev/resolvd/internal/provider"
	"github.com/resolvd-dev/resolvd/internal/tools"
)

const promptHeader = `You are a support-ticket resolution agent. Each turn you
are given a ticket, the evidence gathered so far, and your previous steps.
Choose exactly ONE action that moves the ticket toward resolution.

Reply with a single JSON object and nothing else:
{"rationale": "<why this action>", "action": "<action name>", "action_input": {<parameters>}}

Guidelines:
- Identify the product first when it is unclear what the ticket is about.
- Use the ticket's images when the text does not name a product.
- Do not repeat an action with the same parameters; it will be rejected.
- Call "finish" as soon as the evidence answers the ticket. Do not keep
  searching once you have what you need.`

const finishDescription = `Conclude the run. Provide "answer" when a document
answered the ticket directly, "subject" with the identified product, and
"confidence" between 0 and 1. Fields you omit keep their gathered values.`

// SystemPrompt renders the fixed policy prompt for the given tool set.
func SystemPrompt(reg *tools.Registry) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\nAvailable actions:\n")
	for _, t := range reg.All() {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	fmt.Fprintf(&b, "- %s: %s\n", ActionFinish, strings.ReplaceAll(finishDescription, "\n", " "))
	return b.String()
}

// ActionDefinitions builds the action catalog sent alongside each decision
// request, one definition per registered tool plus finish.
func ActionDefinitions(reg *tools.Registry) []provider.ActionDefinition {
	defs := make([]provider.ActionDefinition, 0, len(reg.Names())+1)
	for _, t := range reg.All() {
		defs = append(defs, provider.ActionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: actionSchema(t.Name()),
		})
	}
	defs = append(defs, provider.ActionDefinition{
		Name:        ActionFinish,
		Description: strings.ReplaceAll(finishDescription, "\n", " "),
		InputSchema: actionSchema(ActionFinish),
	})
	return defs
}

// actionSchema returns the JSON schema for one action's input. The schemas
// are deliberately permissive; strict validation happens tool-side where a
// helpful failure message can be produced.
func actionSchema(name string) map[string]any {
	switch name {
	case tools.NameProductSearch:
		return objectSchema(map[string]any{
			"query":    stringProp("model numbers, product names, or descriptive terms"),
			"model_no": stringProp("exact model number, when known"),
			"limit":    intProp("maximum results, default 5"),
		})
	case tools.NameDocumentSearch:
		return objectSchema(map[string]any{
			"query":   stringProp("what to look for in the knowledge base"),
			"context": stringProp("identified product, to narrow the search"),
			"limit":   intProp("maximum results, default 5"),
		})
	case tools.NameVisionSearch:
		return objectSchema(map[string]any{
			"image_urls": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "image URLs to analyze; omit for all ticket images",
			},
		})
	case tools.NamePastTicketsSearch:
		return objectSchema(map[string]any{
			"query": stringProp("summary of the customer's issue"),
			"limit": intProp("maximum results, default 3"),
		})
	case tools.NameAttachmentAnalyzer:
		return objectSchema(map[string]any{
			"names": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "attachment names to read; omit for all",
			},
		})
	case ActionFinish:
		return objectSchema(map[string]any{
			"answer":     stringProp("direct answer to the ticket, if one was found"),
			"subject":    stringProp("identified product name or record"),
			"confidence": map[string]any{"type": "number", "description": "identification confidence, 0 to 1"},
		})
	default:
		return objectSchema(nil)
	}
}

func objectSchema(props map[string]any) map[string]any {
	schema := map[string]any{"type": "object"}
	if len(props) > 0 {
		schema["properties"] = props
	}
	return schema
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}
