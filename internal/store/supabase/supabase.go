// Package supabase implements the document-store contract against the
// Supabase PostgREST API over the same documents table the Postgres
// backend uses, so the two deployments are interchangeable. Uniqueness
// still lives in the database: a duplicate natural key surfaces as an
// HTTP 409 from the insert.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"campus-api/internal/config"
	"campus-api/internal/store"
	"campus-api/pkg/logger"
)

type row struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection,omitempty"`
	NaturalKey *string         `json:"natural_key,omitempty"`
	Fields     json.RawMessage `json:"fields"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at,omitempty"`
}

func (r *row) document() *store.Document {
	return &store.Document{
		ID:        r.ID,
		Fields:    r.Fields,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Store is the Supabase PostgREST document store
type Store struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	log        *logger.Logger
}

// New creates a Supabase document store from the service configuration
func New(cfg *config.Config, log *logger.Logger) *Store {
	return &Store{
		baseURL:    cfg.SupabaseURL,
		serviceKey: cfg.SupabaseServiceKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

func (s *Store) endpoint(query url.Values) string {
	return fmt.Sprintf("%s/rest/v1/documents?%s", s.baseURL, query.Encode())
}

func (s *Store) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.serviceKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	return req, nil
}

func (s *Store) do(req *http.Request) ([]row, int, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		s.log.WithFields(map[string]interface{}{
			"status_code":   resp.StatusCode,
			"response_body": string(body),
		}).Error("Supabase request failed")
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", store.ErrUnavailable, resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, nil
	}

	var rows []row
	if len(body) > 0 {
		if err := json.Unmarshal(body, &rows); err != nil {
			s.log.WithFields(map[string]interface{}{
				"response_body": string(body),
				"status_code":   resp.StatusCode,
			}).Error("Failed to parse Supabase response")
			return nil, resp.StatusCode, fmt.Errorf("failed to parse Supabase response: %w", err)
		}
	}

	return rows, resp.StatusCode, nil
}

func (s *Store) insert(ctx context.Context, collection, naturalKey string, fields interface{}) (*store.Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	payload := row{Collection: collection, Fields: raw}
	if naturalKey != "" {
		payload.NaturalKey = &naturalKey
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.endpoint(url.Values{}), bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	rows, status, err := s.do(req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusConflict {
		return nil, store.ErrDuplicateKey
	}
	if status >= http.StatusBadRequest || len(rows) == 0 {
		return nil, fmt.Errorf("%w: insert returned status %d", store.ErrUnavailable, status)
	}

	return rows[0].document(), nil
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
	query := url.Values{}
	query.Set("collection", "eq."+collection)
	query.Set("id", "eq."+id)

	req, err := s.newRequest(ctx, http.MethodGet, s.endpoint(query), nil)
	if err != nil {
		return nil, err
	}

	rows, status, err := s.do(req)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: get returned status %d", store.ErrUnavailable, status)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}

	return rows[0].document(), nil
}

// List returns all documents matching the equality filter, applied as
// a jsonb containment (cs) condition on the fields column
func (s *Store) List(ctx context.Context, collection string, filter store.Filter) ([]*store.Document, error) {
	query := url.Values{}
	query.Set("collection", "eq."+collection)
	query.Set("order", "created_at.asc")
	if len(filter) > 0 {
		match, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal filter: %w", err)
		}
		query.Set("fields", "cs."+string(match))
	}

	req, err := s.newRequest(ctx, http.MethodGet, s.endpoint(query), nil)
	if err != nil {
		return nil, err
	}

	rows, status, err := s.do(req)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: list returned status %d", store.ErrUnavailable, status)
	}

	docs := make([]*store.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, rows[i].document())
	}
	return docs, nil
}

// Update replaces the document fields
func (s *Store) Update(ctx context.Context, collection, id string, fields interface{}) (*store.Document, error) {
	return s.UpdateIf(ctx, collection, id, nil, fields)
}

// UpdateIf replaces the fields only while the current fields still
// contain the precondition. The precondition rides in the PATCH query
// string, so PostgREST evaluates check and write in one statement.
func (s *Store) UpdateIf(ctx context.Context, collection, id string, precondition store.Filter, fields interface{}) (*store.Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	query := url.Values{}
	query.Set("collection", "eq."+collection)
	query.Set("id", "eq."+id)
	if len(precondition) > 0 {
		match, err := json.Marshal(precondition)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal precondition: %w", err)
		}
		query.Set("fields", "cs."+string(match))
	}

	body, err := json.Marshal(row{Fields: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPatch, s.endpoint(query), bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	rows, status, err := s.do(req)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: update returned status %d", store.ErrUnavailable, status)
	}
	if len(rows) == 0 {
		// Nothing matched: either the document is gone or the
		// precondition no longer holds.
		if _, getErr := s.Get(ctx, collection, id); getErr != nil {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrPreconditionFailed
	}

	return rows[0].document(), nil
}

// Delete removes a document by id
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	query := url.Values{}
	query.Set("collection", "eq."+collection)
	query.Set("id", "eq."+id)

	req, err := s.newRequest(ctx, http.MethodDelete, s.endpoint(query), nil)
	if err != nil {
		return err
	}

	rows, status, err := s.do(req)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("%w: delete returned status %d", store.ErrUnavailable, status)
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Health probes the REST endpoint
func (s *Store) Health(ctx context.Context) error {
	query := url.Values{}
	query.Set("limit", "1")

	req, err := s.newRequest(ctx, http.MethodGet, s.endpoint(query), nil)
	if err != nil {
		return err
	}

	_, status, err := s.do(req)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("%w: health returned status %d", store.ErrUnavailable, status)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no pinned resources
func (s *Store) Close() {}
