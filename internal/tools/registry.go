// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package tools

import "sort"

// Tool names form a closed set; the dispatcher rejects anything else.
const (
	NameProductSearch      = "product_search"
	NameDocumentSearch     = "document_search"
	NameVisionSearch       = "vision_search"
	NamePastTicketsSearch  = "past_tickets_search"
	NameAttachmentAnalyzer = "attachment_analyzer"
)

// Registry is a fixed mapping from action names to tools. The action set is
// known at design time, so registration is explicit and lookup of an unknown
// name is a checked failure path at the dispatcher.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry over the given tools, keyed by Tool.Name.
// Nil entries are skipped so callers can omit tools whose backends are not
// configured (e.g. vision without a multimodal provider).
func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		if t == nil {
			continue
		}
		r.tools[t.Name()] = t
	}
	return r
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered tools ordered by name.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, name := range r.Names() {
		out = append(out, r.tools[name])
	}
	return out
}
