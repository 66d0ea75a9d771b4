// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resolvd-dev/resolvd/internal/agent"
	"github.com/resolvd-dev/resolvd/internal/ticket"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// stubResolver returns a canned result or error.
type stubResolver struct {
	result *agent.RunResult
	err    error
	gotID  string
}

func (s *stubResolver) Run(_ context.Context, t *ticket.Ticket) (*agent.RunResult, error) {
	s.gotID = t.ID
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestServer(t *testing.T, resolver Resolver) *Server {
	t.Helper()
	srv, err := New(Config{ListenAddr: "127.0.0.1:0"}, resolver)
	require.NoError(t, err)
	return srv
}

func TestNewRequiresListenAddrAndResolver(t *testing.T) {
	_, err := New(Config{}, &stubResolver{})
	require.Error(t, err)

	_, err = New(Config{ListenAddr: "127.0.0.1:0"}, nil)
	require.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubResolver{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestResolveEndpoint(t *testing.T) {
	resolver := &stubResolver{
		result: &agent.RunResult{
			RunID:       "run-1",
			TicketID:    "T-1001",
			Termination: agent.TerminationAgent,
			Iterations:  2,
			Hits:        map[string][]agent.RetrievalHit{},
		},
	}
	srv := newTestServer(t, resolver)

	body := `{"ticket": {"id": "T-1001", "subject": "Broken handle", "body": "It snapped."}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "T-1001", resolver.gotID)

	var got agent.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, agent.TerminationAgent, got.Termination)
}

func TestResolveEndpointRejectsMissingID(t *testing.T) {
	srv := newTestServer(t, &stubResolver{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(`{"ticket": {"id": ""}}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestResolveEndpointMapsErrorStatus(t *testing.T) {
	resolver := &stubResolver{
		err: resolvderr.New(resolvderr.CodeAgentRunInvalidInput, "bad ticket"),
	}
	srv := newTestServer(t, resolver)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/resolve",
		strings.NewReader(`{"ticket": {"id": "T-1"}}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
