// Package postgres implements the document-store contract over a
// single jsonb documents table. The partial unique index on
// (collection, natural_key) is what backs the at-most-one-vote
// invariant; 23505 from the insert is translated to ErrDuplicateKey.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campus-api/internal/store"
	"campus-api/pkg/database"
	"campus-api/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// Store is the Postgres-backed document store
type Store struct {
	db  *database.PostgresDB
	log *logger.Logger
}

// New creates a Postgres document store over an existing pool
func New(db *database.PostgresDB, log *logger.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) insert(ctx context.Context, collection, naturalKey string, fields interface{}) (*store.Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	var key *string
	if naturalKey != "" {
		key = &naturalKey
	}

	doc := &store.Document{ID: uuid.NewString(), Fields: raw}
	query := `
		INSERT INTO documents (collection, id, natural_key, fields)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err = s.db.Pool.QueryRow(ctx, query, collection, doc.ID, key, raw).
		Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			// The insert itself is the atomicity boundary; callers
			// translate this to the domain-level duplicate error.
			return nil, store.ErrDuplicateKey
		}
		s.log.WithError(err).WithField("collection", collection).Error("document insert failed")
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return doc, nil
}

// Create inserts a document with a generated id
func (s *Store) Create(ctx context.Context, collection string, fields interface{}) (*store.Document, error) {
	return s.insert(ctx, collection, "", fields)
}

// CreateUnique inserts a document guarded by a collection-scoped natural key
func (s *Store) CreateUnique(ctx context.Context, collection, naturalKey string, fields interface{}) (*store.Document, error) {
	return s.insert(ctx, collection, naturalKey, fields)
}

// Get fetches a document by id
func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	doc := &store.Document{ID: id}
	query := `
		SELECT fields, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`

	err := s.db.Pool.QueryRow(ctx, query, collection, id).
		Scan(&doc.Fields, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return doc, nil
}

// List returns all documents in the collection matching the equality
// filter, applied as jsonb containment
func (s *Store) List(ctx context.Context, collection string, filter store.Filter) ([]*store.Document, error) {
	query := `
		SELECT id, fields, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND fields @> $2
		ORDER BY created_at ASC
	`

	match, err := filterJSON(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, query, collection, match)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer rows.Close()

	var docs []*store.Document
	for rows.Next() {
		doc := &store.Document{}
		if err := rows.Scan(&doc.ID, &doc.Fields, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return docs, nil
}

// Update replaces the document fields
func (s *Store) Update(ctx context.Context, collection, id string, fields interface{}) (*store.Document, error) {
	return s.UpdateIf(ctx, collection, id, nil, fields)
}

// UpdateIf replaces the fields only while the current fields still
// contain the precondition. The WHERE clause makes the check and the
// write a single conditional statement, so concurrent transitions of
// the same document cannot both commit.
func (s *Store) UpdateIf(ctx context.Context, collection, id string, precondition store.Filter, fields interface{}) (*store.Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	match, err := filterJSON(precondition)
	if err != nil {
		return nil, err
	}

	doc := &store.Document{ID: id, Fields: raw}
	query := `
		UPDATE documents
		SET fields = $4, updated_at = now()
		WHERE collection = $1 AND id = $2 AND fields @> $3
		RETURNING created_at, updated_at
	`

	err = s.db.Pool.QueryRow(ctx, query, collection, id, match, raw).
		Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing document from a failed precondition.
		if _, getErr := s.Get(ctx, collection, id); errors.Is(getErr, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrPreconditionFailed
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return doc, nil
}

// Delete removes a document by id
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.db.Pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Health checks the underlying pool
func (s *Store) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

// Close closes the underlying pool
func (s *Store) Close() {
	s.db.Close()
}

func filterJSON(filter store.Filter) ([]byte, error) {
	if filter == nil {
		filter = store.Filter{}
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filter: %w", err)
	}
	return raw, nil
}
