// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/resolvd-dev/resolvd/internal/store"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.VectorStore = (*VectorStore)(nil)

// VectorStore implements store.VectorStore backed by SQLite with sqlite-vec.
// Each namespace shares one vec0 table; the namespace is a partition key.
type VectorStore struct {
	db         *sql.DB
	dimensions int
}

// NewVectorStore opens (or creates) a SQLite database at dbPath and
// initialises the vec0 virtual table and companion metadata table.
func NewVectorStore(dbPath string, dimensions int) (*VectorStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "pinging sqlite db")
	}

	if err := migrateVector(db, dimensions); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &VectorStore{db: db, dimensions: dimensions}, nil
}

func migrateVector(db *sql.DB, dimensions int) error {
	vecDDL := `CREATE VIRTUAL TABLE IF NOT EXISTS vectors USING vec0(
	id TEXT PRIMARY KEY,
	namespace TEXT PARTITION KEY,
	embedding float[` + strconv.Itoa(dimensions) + `] distance_metric=cosine
)`
	if _, err := db.Exec(vecDDL); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "creating vectors virtual table")
	}

	const metaDDL = `
CREATE TABLE IF NOT EXISTS vector_metadata (
	id        TEXT NOT NULL,
	namespace TEXT NOT NULL,
	metadata  TEXT NOT NULL DEFAULT '{}',
	content   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (namespace, id)
)`
	if _, err := db.Exec(metaDDL); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "creating vector_metadata table")
	}

	return nil
}

// Store inserts or replaces a vector with its metadata and content preview.
func (v *VectorStore) Store(ctx context.Context, ns store.Namespace, id string, embedding []float32, metadata map[string]any, content string) error {
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreInvalidInput, "serializing embedding")
	}

	metaJSON := []byte("{}")
	if len(metadata) > 0 {
		metaJSON, err = json.Marshal(metadata)
		if err != nil {
			return resolvderr.Wrapf(err, resolvderr.CodeStoreInvalidInput, "marshalling metadata")
		}
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// vec0 does not support ON CONFLICT; delete first for upsert.
	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE id = ? AND namespace = ?`, id, string(ns)); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "deleting existing vector %s", id)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO vectors(id, namespace, embedding) VALUES (?, ?, ?)`, id, string(ns), blob); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "inserting vector %s", id)
	}

	const metaQ = `INSERT INTO vector_metadata(id, namespace, metadata, content) VALUES (?, ?, ?, ?)
ON CONFLICT(namespace, id) DO UPDATE SET metadata = excluded.metadata, content = excluded.content`
	if _, err := tx.ExecContext(ctx, metaQ, id, string(ns), string(metaJSON), content); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "upserting vector metadata %s", id)
	}

	if err := tx.Commit(); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "committing vector store")
	}
	return nil
}

// Search performs a KNN search within one namespace. The vec0 cosine
// distance is converted to a similarity score in [0,1].
func (v *VectorStore) Search(ctx context.Context, ns store.Namespace, query []float32, k int) ([]store.VectorResult, error) {
	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreInvalidInput, "serializing query vector")
	}

	const q = `SELECT v.id, v.distance, COALESCE(m.metadata, '{}'), COALESCE(m.content, '')
FROM vectors v
LEFT JOIN vector_metadata m ON m.id = v.id AND m.namespace = v.namespace
WHERE v.embedding MATCH ? AND v.namespace = ? AND k = ?
ORDER BY v.distance`

	rows, err := v.db.QueryContext(ctx, q, blob, string(ns), k)
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "searching vectors")
	}
	defer func() { _ = rows.Close() }()

	var results []store.VectorResult
	for rows.Next() {
		var r store.VectorResult
		var distance float64
		var metaStr string

		if err := rows.Scan(&r.ID, &distance, &metaStr, &r.Content); err != nil {
			return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "scanning vector result")
		}

		r.Score = similarityFromCosineDistance(distance)

		if metaStr != "" && metaStr != "{}" {
			if err := json.Unmarshal([]byte(metaStr), &r.Metadata); err != nil {
				return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "unmarshalling vector metadata")
			}
		}

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "iterating vector results")
	}

	return results, nil
}

// Delete removes vectors and their metadata by ID within one namespace.
func (v *VectorStore) Delete(ctx context.Context, ns store.Namespace, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	args = append(args, string(ns))
	for _, id := range ids {
		args = append(args, id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE namespace = ? AND id IN (`+placeholders+`)`, args...); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "deleting vectors")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vector_metadata WHERE namespace = ? AND id IN (`+placeholders+`)`, args...); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "deleting vector metadata")
	}

	if err := tx.Commit(); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "committing vector delete")
	}
	return nil
}

// Close closes the underlying database connection.
func (v *VectorStore) Close() error {
	return v.db.Close()
}

// similarityFromCosineDistance maps a vec0 cosine distance (0 = identical,
// 2 = opposite) onto a similarity in [0,1].
func similarityFromCosineDistance(distance float64) float64 {
	s := 1 - distance
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
