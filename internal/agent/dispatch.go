// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resolvd-dev/resolvd/internal/ticket"
	"github.com/resolvd-dev/resolvd/internal/tools"
)

// ActionFinish terminates the run. It is not a retrieval tool; the
// dispatcher folds its payload into evidence and the loop stops.
const ActionFinish = "finish"

// observationCap bounds the observation text surfaced to the reasoner.
const observationCap = 300

// Dispatcher routes a chosen action to its tool, enriches parameters with
// context the loop already holds, and absorbs every tool-level failure into
// a failed result. No tool failure ever escapes the dispatcher.
type Dispatcher struct {
	registry *tools.Registry
}

// NewDispatcher creates a Dispatcher over the given tool registry.
func NewDispatcher(registry *tools.Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch executes one action against the evidence state and returns the
// tool result plus a bounded observation for the next iteration's context.
func (d *Dispatcher) Dispatch(ctx context.Context, action string, params map[string]any, t *ticket.Ticket, ev *Evidence) (*tools.Result, string) {
	if action == ActionFinish {
		ev.MergeFinish(params)
		res := &tools.Result{Success: true, Message: "run concluded"}
		return res, observe(res)
	}

	tool, ok := d.registry.Lookup(action)
	if !ok {
		res := tools.Failure("unknown action: %s", action)
		return res, observe(res)
	}

	enriched := d.enrich(action, params, t, ev)

	res, err := safeCall(ctx, tool, enriched)
	if err != nil {
		slog.WarnContext(ctx, "tool call failed", "action", action, "error", err)
		res = tools.Failure("%s failed: %v", action, err)
	}

	ev.Merge(tool.Category(), res)
	return res, observe(res)
}

// enrich injects context the reasoner may have omitted: the ticket's images
// and attachments, and the identified subject as document-search context.
// The reasoner cannot be trusted to repeat these correctly across
// iterations; injection guarantees they are never lost. The caller's map is
// not mutated.
func (d *Dispatcher) enrich(action string, params map[string]any, t *ticket.Ticket, ev *Evidence) map[string]any {
	out := make(map[string]any, len(params)+2)
	for k, v := range params {
		out[k] = v
	}

	switch action {
	case tools.NameVisionSearch:
		if len(tools.StringSliceParam(out, "image_urls")) == 0 && t.HasImages() {
			out["image_urls"] = t.ImageURLs
		}
	case tools.NameAttachmentAnalyzer:
		out["attachments"] = t.Attachments
	case tools.NameDocumentSearch:
		if ev.Subject != nil && tools.StringParam(out, "context") == "" {
			out["context"] = ev.Subject.Name
		}
	}
	return out
}

// safeCall invokes the tool under a recover boundary so a panicking tool
// degrades to a failed result instead of taking down the run.
func safeCall(ctx context.Context, tool tools.Tool, params map[string]any) (res *tools.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("tool panic: %v", r)
		}
	}()
	return tool.Call(ctx, params)
}

// observe renders a result as a short observation line.
func observe(res *tools.Result) string {
	var s string
	if res.Success {
		s = "ok: " + res.Message
	} else {
		s = "failed: " + res.Message
	}
	if len(res.Items) > 0 {
		s = fmt.Sprintf("%s (%d items)", s, len(res.Items))
	}
	return truncateChars(s, observationCap)
}
