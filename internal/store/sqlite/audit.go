// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"

	"github.com/resolvd-dev/resolvd/internal/store"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// Compile-time interface check.
var _ store.AuditStore = (*AuditStore)(nil)

// AuditStore implements store.AuditStore backed by a SQLite table.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore opens (or creates) the audit database at dbPath.
func NewAuditStore(dbPath string) (*AuditStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "pinging sqlite db")
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL,
	ticket_id   TEXT NOT NULL,
	iteration   INTEGER NOT NULL,
	action      TEXT NOT NULL,
	rationale   TEXT NOT NULL DEFAULT '',
	observation TEXT NOT NULL DEFAULT '',
	params      TEXT NOT NULL DEFAULT '{}',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_run ON audit_entries(run_id, iteration);
`
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "creating audit_entries table")
	}

	return &AuditStore{db: db}, nil
}

// Append writes one iteration record.
func (a *AuditStore) Append(ctx context.Context, entry *store.AuditEntry) error {
	if entry == nil || entry.ID == "" {
		return resolvderr.New(resolvderr.CodeStoreInvalidInput, "audit entry id is required")
	}

	paramsJSON := []byte("{}")
	if len(entry.Params) > 0 {
		var err error
		paramsJSON, err = json.Marshal(entry.Params)
		if err != nil {
			return resolvderr.Wrapf(err, resolvderr.CodeStoreInvalidInput, "marshalling audit params")
		}
	}

	const q = `INSERT INTO audit_entries(id, run_id, ticket_id, iteration, action, rationale, observation, params, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := a.db.ExecContext(ctx, q,
		entry.ID, entry.RunID, entry.TicketID, entry.Iteration, entry.Action,
		entry.Rationale, entry.Observation, string(paramsJSON), entry.DurationMS, entry.CreatedAt)
	if err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "appending audit entry")
	}
	return nil
}

// ListByRun returns all iteration records for a run in iteration order.
func (a *AuditStore) ListByRun(ctx context.Context, runID string) ([]*store.AuditEntry, error) {
	const q = `SELECT id, run_id, ticket_id, iteration, action, rationale, observation, params, duration_ms, created_at
FROM audit_entries WHERE run_id = ? ORDER BY iteration ASC`

	rows, err := a.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "listing audit entries")
	}
	defer func() { _ = rows.Close() }()

	var out []*store.AuditEntry
	for rows.Next() {
		e := &store.AuditEntry{}
		var paramsStr string
		if err := rows.Scan(&e.ID, &e.RunID, &e.TicketID, &e.Iteration, &e.Action,
			&e.Rationale, &e.Observation, &paramsStr, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "scanning audit entry")
		}
		if paramsStr != "" && paramsStr != "{}" {
			if err := json.Unmarshal([]byte(paramsStr), &e.Params); err != nil {
				return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "unmarshalling audit params")
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "iterating audit entries")
	}

	return out, nil
}

// Close closes the underlying database connection.
func (a *AuditStore) Close() error {
	return a.db.Close()
}
