package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the scripts table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS scripts (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    body       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_scripts_updated ON scripts(updated_at DESC);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] using the given connection or
// pool. The caller is responsible for calling [PostgresStore.Migrate] before
// issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL, creating the scripts table and index
// if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("script: migrate: %w", err)
	}
	return nil
}

// Create implements [Store.Create].
func (s *PostgresStore) Create(ctx context.Context, doc Document) (Document, error) {
	if doc.ID == "" {
		id, err := generateID()
		if err != nil {
			return Document{}, fmt.Errorf("script: generate id: %w", err)
		}
		doc.ID = id
	}

	const query = `
		INSERT INTO scripts (id, title, body)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query, doc.ID, doc.Title, doc.Text).
		Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Document{}, ErrDuplicateID
		}
		return Document{}, fmt.Errorf("script: create: %w", err)
	}
	return doc, nil
}

// Get implements [Store.Get].
func (s *PostgresStore) Get(ctx context.Context, id string) (Document, error) {
	const query = `
		SELECT id, title, body, created_at, updated_at
		FROM scripts
		WHERE id = $1`

	var doc Document
	err := s.db.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.Title, &doc.Text, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("script: get %q: %w", id, err)
	}
	return doc, nil
}

// List implements [Store.List].
func (s *PostgresStore) List(ctx context.Context) ([]Document, error) {
	const query = `
		SELECT id, title, body, created_at, updated_at
		FROM scripts
		ORDER BY updated_at DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("script: list: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Text, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("script: scan: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("script: list rows: %w", err)
	}
	return docs, nil
}

// Update implements [Store.Update].
func (s *PostgresStore) Update(ctx context.Context, doc Document) error {
	const query = `
		UPDATE scripts
		SET title = $2, body = $3, updated_at = now()
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, doc.ID, doc.Title, doc.Text)
	if err != nil {
		return fmt.Errorf("script: update %q: %w", doc.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements [Store.Delete].
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM scripts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("script: delete %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateKeyError reports whether err is a PostgreSQL unique-violation
// error (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
