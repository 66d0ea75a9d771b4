// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/resolvd-dev/resolvd/internal/store"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// Compile-time interface check.
var _ store.CatalogStore = (*CatalogStore)(nil)

// CatalogStore implements store.CatalogStore backed by a SQLite table.
type CatalogStore struct {
	db *sql.DB
}

// NewCatalogStore opens (or creates) the catalog database at dbPath.
func NewCatalogStore(dbPath string) (*CatalogStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "pinging sqlite db")
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	model_no    TEXT NOT NULL,
	title       TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	finish      TEXT NOT NULL DEFAULT '',
	list_price  REAL NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_model_no ON products(model_no);
`
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "creating products table")
	}

	return &CatalogStore{db: db}, nil
}

// Upsert inserts or replaces a product row.
func (c *CatalogStore) Upsert(ctx context.Context, p *store.Product) error {
	if p == nil || p.ID == "" {
		return resolvderr.New(resolvderr.CodeStoreInvalidInput, "product id is required")
	}

	const q = `INSERT INTO products(id, model_no, title, category, finish, list_price, description)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	model_no = excluded.model_no,
	title = excluded.title,
	category = excluded.category,
	finish = excluded.finish,
	list_price = excluded.list_price,
	description = excluded.description`

	if _, err := c.db.ExecContext(ctx, q, p.ID, p.ModelNo, p.Title, p.Category, p.Finish, p.ListPrice, p.Description); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "upserting product %s", p.ID)
	}
	return nil
}

// GetByModel returns the product with the given model number.
func (c *CatalogStore) GetByModel(ctx context.Context, modelNo string) (*store.Product, error) {
	const q = `SELECT id, model_no, title, category, finish, list_price, description
FROM products WHERE model_no = ? LIMIT 1`

	p := &store.Product{}
	err := c.db.QueryRowContext(ctx, q, modelNo).Scan(
		&p.ID, &p.ModelNo, &p.Title, &p.Category, &p.Finish, &p.ListPrice, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, resolvderr.New(resolvderr.CodeStoreEntityNotFound,
			"product not found: "+modelNo)
	}
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "querying product %s", modelNo)
	}
	return p, nil
}

// Search matches each query term against model number, title, and
// description. Rows matching more terms rank higher.
func (c *CatalogStore) Search(ctx context.Context, query string, limit int) ([]*store.Product, error) {
	terms := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(terms) == 0 {
		return nil, resolvderr.New(resolvderr.CodeStoreInvalidInput, "empty catalog query")
	}
	if limit <= 0 {
		limit = 5
	}

	// One LIKE clause per term; the sum of matches orders the results.
	// Placeholders bind in text order: WHERE args first, then score args.
	var whereParts, scoreParts []string
	var whereArgs, scoreArgs []any
	for _, term := range terms {
		pattern := "%" + term + "%"
		whereParts = append(whereParts,
			`(lower(model_no) LIKE ? OR lower(title) LIKE ? OR lower(description) LIKE ?)`)
		scoreParts = append(scoreParts,
			`(CASE WHEN lower(model_no) LIKE ? THEN 3 WHEN lower(title) LIKE ? THEN 2 WHEN lower(description) LIKE ? THEN 1 ELSE 0 END)`)
		whereArgs = append(whereArgs, pattern, pattern, pattern)
		scoreArgs = append(scoreArgs, pattern, pattern, pattern)
	}

	q := `SELECT id, model_no, title, category, finish, list_price, description
FROM products
WHERE ` + strings.Join(whereParts, " OR ") + `
ORDER BY (` + strings.Join(scoreParts, " + ") + `) DESC, title ASC
LIMIT ?`

	args := make([]any, 0, len(whereArgs)+len(scoreArgs)+1)
	args = append(args, whereArgs...)
	args = append(args, scoreArgs...)
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "searching products")
	}
	defer func() { _ = rows.Close() }()

	var out []*store.Product
	for rows.Next() {
		p := &store.Product{}
		if err := rows.Scan(&p.ID, &p.ModelNo, &p.Title, &p.Category, &p.Finish, &p.ListPrice, &p.Description); err != nil {
			return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "scanning product row")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, resolvderr.Wrapf(err, resolvderr.CodeStoreDatabaseFailure, "iterating product rows")
	}

	return out, nil
}

// Close closes the underlying database connection.
func (c *CatalogStore) Close() error {
	return c.db.Close()
}
