// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

// Package agent implements the tool-calling resolution loop: the bounded
// iterate-decide-act-observe state machine that gathers evidence for one
// support ticket and returns a normalized evidence bundle.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/resolvd-dev/resolvd/internal/provider"
	"github.com/resolvd-dev/resolvd/internal/store"
	"github.com/resolvd-dev/resolvd/internal/ticket"
	"github.com/resolvd-dev/resolvd/internal/tools"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// defaultMaxIterations bounds a run when no budget is configured.
const defaultMaxIterations = 8

// decideMaxTokens caps the reasoner's reply; a decision is one small JSON
// object.
const decideMaxTokens = 1024

// TerminationReason states how a run ended.
type TerminationReason string

const (
	// TerminationAgent: the reasoner called finish on its own.
	TerminationAgent TerminationReason = "agent"
	// TerminationBudget: the iteration budget forced a finish.
	TerminationBudget TerminationReason = "budget"
	// TerminationError: the reasoner's reply could not be used; the output
	// is the best-effort normalization of the evidence gathered so far.
	TerminationError TerminationReason = "error"
)

// runState is the loop's state machine. All finished states are terminal.
type runState int

const (
	stateRunning runState = iota
	stateFinishedByAgent
	stateFinishedByBudget
	stateFinishedByError
)

// IterationRecord is one immutable entry in a run's history.
type IterationRecord struct {
	Iteration   int            `json:"iteration"`
	Rationale   string         `json:"rationale"`
	Action      string         `json:"action"`
	Params      map[string]any `json:"params,omitempty"`
	Observation string         `json:"observation"`
	Duration    time.Duration  `json:"duration"`
}

// RunResult is the evidence bundle handed to downstream consumers.
type RunResult struct {
	RunID        string                    `json:"run_id"`
	TicketID     string                    `json:"ticket_id"`
	Termination  TerminationReason         `json:"termination"`
	Iterations   int                       `json:"iterations"`
	History      []IterationRecord         `json:"history"`
	Subject      *SubjectIdentification    `json:"subject,omitempty"`
	DirectAnswer string                    `json:"direct_answer,omitempty"`
	Hits         map[string][]RetrievalHit `json:"hits"`
	Context      string                    `json:"context"`
}

// LoopConfig holds dependencies for the Loop.
type LoopConfig struct {
	Router   provider.Router
	Registry *tools.Registry
	// ModelRef selects the reasoner in "provider/model" form; empty uses
	// the router's default.
	ModelRef string
	// AuditStore receives best-effort iteration records. Optional.
	AuditStore    store.AuditStore
	MaxIterations int
	Temperature   float32
}

// Loop drives the resolution state machine. One Loop may serve concurrent
// runs; all per-run state lives in the Run call.
type Loop struct {
	router        provider.Router
	registry      *tools.Registry
	dispatcher    *Dispatcher
	auditStore    store.AuditStore
	modelRef      string
	maxIterations int
	temperature   float32
	systemPrompt  string
	actions       []provider.ActionDefinition
}

// NewLoop creates a Loop. Returns an error if the router or registry is
// missing.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if cfg.Router == nil {
		return nil, resolvderr.New(resolvderr.CodeAgentRunInvalidInput, "Router is required")
	}
	if cfg.Registry == nil {
		return nil, resolvderr.New(resolvderr.CodeAgentRunInvalidInput, "Registry is required")
	}

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	return &Loop{
		router:        cfg.Router,
		registry:      cfg.Registry,
		dispatcher:    NewDispatcher(cfg.Registry),
		auditStore:    cfg.AuditStore,
		modelRef:      cfg.ModelRef,
		maxIterations: maxIter,
		temperature:   cfg.Temperature,
		systemPrompt:  SystemPrompt(cfg.Registry),
		actions:       ActionDefinitions(cfg.Registry),
	}, nil
}

// Run resolves one ticket. It returns an error only for invalid input;
// reasoner and tool failures are absorbed into the result's termination
// reason, and the accumulated evidence is always normalized and returned.
func (l *Loop) Run(ctx context.Context, t *ticket.Ticket) (*RunResult, error) {
	if t == nil || t.ID == "" {
		return nil, resolvderr.New(resolvderr.CodeAgentRunInvalidInput, "ticket with an ID is required")
	}

	runID := uuid.New().String()
	ev := NewEvidence()
	var history []IterationRecord

	forceFinishAt := l.maxIterations - 1
	warnAt := l.maxIterations - 2

	state := stateRunning
	for i := 1; i <= l.maxIterations && state == stateRunning; i++ {
		start := time.Now()

		if i >= forceFinishAt {
			// Budget exhausted: synthesize a finish from current evidence
			// without consulting the reasoner.
			rationale, params := l.synthesizeFinish(ev)
			_, obs := l.dispatcher.Dispatch(ctx, ActionFinish, params, t, ev)
			history = append(history, IterationRecord{
				Iteration: i, Rationale: rationale, Action: ActionFinish,
				Params: params, Observation: obs, Duration: time.Since(start),
			})
			state = stateFinishedByBudget
			break
		}

		prompt := BuildContext(t, i, l.maxIterations, history, ev, i >= warnAt)
		decision, err := l.decide(ctx, prompt)
		if err != nil {
			slog.ErrorContext(ctx, "reasoner decision failed",
				"run_id", runID, "ticket_id", t.ID, "iteration", i, "error", err)
			history = append(history, IterationRecord{
				Iteration: i, Action: "error",
				Observation: truncateChars(err.Error(), observationCap),
				Duration:    time.Since(start),
			})
			state = stateFinishedByError
			break
		}

		sig := Signature(decision.Action, decision.ActionInput)
		if ev.SeenSignature(sig) {
			// Identical (action, params) already ran; skipping bounds the
			// damage a deterministic reasoner can do.
			history = append(history, IterationRecord{
				Iteration: i, Rationale: decision.Rationale, Action: decision.Action,
				Params:      decision.ActionInput,
				Observation: "repeated action skipped: identical parameters were already tried",
				Duration:    time.Since(start),
			})
			continue
		}

		res, obs := l.dispatcher.Dispatch(ctx, decision.Action, decision.ActionInput, t, ev)
		history = append(history, IterationRecord{
			Iteration: i, Rationale: decision.Rationale, Action: decision.Action,
			Params: decision.ActionInput, Observation: obs, Duration: time.Since(start),
		})

		if decision.Action == ActionFinish && res.Success {
			state = stateFinishedByAgent
		}
	}

	result := &RunResult{
		RunID:        runID,
		TicketID:     t.ID,
		Termination:  terminationOf(state),
		Iterations:   len(history),
		History:      history,
		Subject:      ev.Subject,
		DirectAnswer: ev.DirectAnswer,
		Hits:         BuildHits(ev),
		Context:      ComposeContext(ev),
	}

	l.audit(ctx, runID, t.ID, history)
	return result, nil
}

// decide consults the reasoner, walking the failover chain on upstream
// failures. A malformed reply is fatal to the run and is not retried on
// another provider; guessing past it would hide a misbehaving model.
func (l *Loop) decide(ctx context.Context, prompt string) (*provider.Decision, error) {
	req := provider.DecisionRequest{
		SystemPrompt: l.systemPrompt,
		Context:      prompt,
		Actions:      l.actions,
		MaxTokens:    decideMaxTokens,
		Temperature:  l.temperature,
	}

	var exclude []string
	var lastErr error
	attempts := maxRouteAttempts(l.router)
	for attempt := 0; attempt < attempts; attempt++ {
		reasoner, model, err := routeExcluding(ctx, l.router, l.modelRef, exclude)
		if err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}

		req.Model = model
		decision, err := reasoner.Decide(ctx, req)
		if err == nil {
			return decision, nil
		}
		if resolvderr.HasCode(err, resolvderr.CodeProviderDecisionInvalid) {
			return nil, err
		}

		lastErr = err
		exclude = append(exclude, reasoner.Name())
	}
	return nil, lastErr
}

// synthesizeFinish builds the forced finish payload from current evidence.
func (l *Loop) synthesizeFinish(ev *Evidence) (string, map[string]any) {
	params := map[string]any{
		"product_identified": ev.Subject != nil,
		"confidence":         defaultFinishConfidence,
	}
	if ev.Subject != nil {
		params["confidence"] = ev.Subject.Confidence
	}
	return "iteration budget exhausted; concluding with gathered evidence", params
}

// audit appends one record per iteration, best-effort. Audit failures are
// logged and never fail the run.
func (l *Loop) audit(ctx context.Context, runID, ticketID string, history []IterationRecord) {
	if l.auditStore == nil {
		return
	}
	now := time.Now().UTC().UnixMilli()
	for _, rec := range history {
		entry := &store.AuditEntry{
			ID:          uuid.New().String(),
			RunID:       runID,
			TicketID:    ticketID,
			Iteration:   rec.Iteration,
			Action:      rec.Action,
			Rationale:   rec.Rationale,
			Observation: rec.Observation,
			Params:      rec.Params,
			DurationMS:  rec.Duration.Milliseconds(),
			CreatedAt:   now,
		}
		if err := l.auditStore.Append(ctx, entry); err != nil {
			slog.WarnContext(ctx, "audit append failed",
				"run_id", runID, "iteration", rec.Iteration, "error", err)
		}
	}
}

func terminationOf(state runState) TerminationReason {
	switch state {
	case stateFinishedByAgent:
		return TerminationAgent
	case stateFinishedByBudget:
		return TerminationBudget
	default:
		return TerminationError
	}
}

// maxRouteAttempts asks the router for its candidate count when it can say,
// defaulting to a single attempt.
func maxRouteAttempts(r provider.Router) int {
	type attempter interface{ MaxAttempts() int }
	if a, ok := r.(attempter); ok {
		if n := a.MaxAttempts(); n > 0 {
			return n
		}
	}
	return 1
}

// routeExcluding uses the router's exclusion-aware routing when available.
func routeExcluding(ctx context.Context, r provider.Router, modelRef string, exclude []string) (provider.Reasoner, string, error) {
	type excluder interface {
		RouteExcluding(ctx context.Context, modelRef string, exclude []string) (provider.Reasoner, string, error)
	}
	if e, ok := r.(excluder); ok {
		return e.RouteExcluding(ctx, modelRef, exclude)
	}
	return r.Route(ctx, modelRef)
}
