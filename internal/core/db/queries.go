package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Queries provides access to named SQL queries loaded from embedded .sql files.
type Queries struct {
	dot *dotsql.DotSql
	db  *sqlx.DB
}

// LoadQueries loads all .sql files from the embedded filesystem.
// Named queries are accessible by name (e.g., "insert-event", "get-event").
func LoadQueries(db *sqlx.DB) (*Queries, error) {
	var combined strings.Builder

	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}

		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		combined.Write(content)
		combined.WriteByte('\n')
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}

	return &Queries{dot: dot, db: db}, nil
}

func (q *Queries) raw(name string) (string, error) {
	query, err := q.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	// ? placeholders become $1, $2 for PostgreSQL
	return q.db.Rebind(query), nil
}

// Exec executes a named query.
func (q *Queries) Exec(name string, args ...any) (sql.Result, error) {
	query, err := q.raw(name)
	if err != nil {
		return nil, err
	}
	return q.db.Exec(query, args...)
}

// Get retrieves a single row into dest using a named query.
func (q *Queries) Get(name string, dest any, args ...any) error {
	query, err := q.raw(name)
	if err != nil {
		return err
	}
	return q.db.Get(dest, query, args...)
}

// Select retrieves multiple rows into dest using a named query.
func (q *Queries) Select(name string, dest any, args ...any) error {
	query, err := q.raw(name)
	if err != nil {
		return err
	}
	return q.db.Select(dest, query, args...)
}
