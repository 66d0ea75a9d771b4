// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

// Package tools implements the fixed set of retrieval and analysis
// capabilities the resolution loop can dispatch to. Every tool returns the
// same uniform Result shape; tools report invalid input as a failed Result
// rather than an error so that a confused reasoner can never crash a run.
package tools

import (
	"context"
	"fmt"
	"strconv"
)

// Category describes how a tool's results merge into run evidence.
type Category string

const (
	// CategorySubject identifies the ticket's subject (product catalog lookup).
	CategorySubject Category = "subject"
	// CategoryDocument retrieves knowledge-base documents and may carry a
	// direct answer.
	CategoryDocument Category = "document"
	// CategoryVision analyzes images; identification is a side effect.
	CategoryVision Category = "vision"
	// CategoryRelated retrieves similar past cases.
	CategoryRelated Category = "related"
	// CategoryAttachment extracts text from ticket attachments.
	CategoryAttachment Category = "attachment"
)

// Item is one payload entry in a tool result. Score is on whatever scale
// the backing tool produces (0-1 for vector similarity, 0-100 for catalog
// matches); output normalization maps both onto [0,1].
type Item struct {
	ID       string         `json:"id"`
	Title    string         `json:"title,omitempty"`
	Score    float64        `json:"score"`
	URL      string         `json:"url,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Content  string         `json:"content,omitempty"`
}

// Result is the uniform shape every tool call produces.
type Result struct {
	Success bool   `json:"success"`
	Items   []Item `json:"items,omitempty"`
	Message string `json:"message"`
	// Answer carries a direct answer to the ticket when a document supplies
	// one. Empty for most calls.
	Answer string `json:"answer,omitempty"`
}

// Failure builds a failed Result with a formatted message.
func Failure(format string, args ...any) *Result {
	return &Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Tool is one callable capability. Implementations must tolerate missing
// optional parameters and return Success=false with an explanatory message
// for invalid input instead of an error; errors are reserved for backend
// failures (store, network) and are absorbed at the dispatch boundary.
type Tool interface {
	Name() string
	Category() Category
	Description() string
	Call(ctx context.Context, params map[string]any) (*Result, error)
}

// StringParam reads a string parameter, coercing scalars the reasoner may
// send as numbers.
func StringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// StringSliceParam reads a list-of-strings parameter, accepting a bare
// string as a one-element list.
func StringSliceParam(params map[string]any, key string) []string {
	v, ok := params[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// IntParam reads an integer parameter with a default for missing or
// non-positive values. JSON numbers arrive as float64.
func IntParam(params map[string]any, key string, def int) int {
	v, ok := params[key]
	if !ok || v == nil {
		return def
	}
	var n int
	switch t := v.(type) {
	case float64:
		n = int(t)
	case int:
		n = t
	case string:
		parsed, err := strconv.Atoi(t)
		if err != nil {
			return def
		}
		n = parsed
	default:
		return def
	}
	if n <= 0 {
		return def
	}
	return n
}
