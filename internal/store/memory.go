package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRecord struct {
	doc        *Document
	naturalKey string
}

// MemoryStore is the in-memory Store implementation. It honours the
// full contract, natural-key uniqueness and preconditions included, so
// workflow tests and local development exercise the same semantics as
// the production backends.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]*memoryRecord
	naturalKeys map[string]map[string]string // collection -> key -> doc id
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*memoryRecord),
		naturalKeys: make(map[string]map[string]string),
		now:         time.Now,
	}
}

func (s *MemoryStore) collection(name string) map[string]*memoryRecord {
	if s.collections[name] == nil {
		s.collections[name] = make(map[string]*memoryRecord)
	}
	return s.collections[name]
}

func (s *MemoryStore) keys(collection string) map[string]string {
	if s.naturalKeys[collection] == nil {
		s.naturalKeys[collection] = make(map[string]string)
	}
	return s.naturalKeys[collection]
}

func marshalFields(fields interface{}) (json.RawMessage, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	return raw, nil
}

func (s *MemoryStore) insert(ctx context.Context, collection, naturalKey string, fields interface{}) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := marshalFields(fields)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if naturalKey != "" {
		if _, taken := s.keys(collection)[naturalKey]; taken {
			return nil, ErrDuplicateKey
		}
	}

	now := s.now()
	doc := &Document{
		ID:        uuid.NewString(),
		Fields:    raw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.collection(collection)[doc.ID] = &memoryRecord{doc: doc, naturalKey: naturalKey}
	if naturalKey != "" {
		s.keys(collection)[naturalKey] = doc.ID
	}

	return cloneDocument(doc), nil
}

// Create inserts a document with a generated id
func (s *MemoryStore) Create(ctx context.Context, collection string, fields interface{}) (*Document, error) {
	return s.insert(ctx, collection, "", fields)
}

// CreateUnique inserts a document guarded by a collection-scoped natural key
func (s *MemoryStore) CreateUnique(ctx context.Context, collection, naturalKey string, fields interface{}) (*Document, error) {
	return s.insert(ctx, collection, naturalKey, fields)
}

// Get fetches a document by id
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collection(collection)[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(rec.doc), nil
}

// List returns all documents matching the equality filter
func (s *MemoryStore) List(ctx context.Context, collection string, filter Filter) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []*Document
	for _, rec := range s.collection(collection) {
		ok, err := fieldsMatch(rec.doc.Fields, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, cloneDocument(rec.doc))
		}
	}
	return docs, nil
}

// Update replaces the document fields
func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields interface{}) (*Document, error) {
	return s.UpdateIf(ctx, collection, id, nil, fields)
}

// UpdateIf replaces the fields only while the precondition still holds
func (s *MemoryStore) UpdateIf(ctx context.Context, collection, id string, precondition Filter, fields interface{}) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := marshalFields(fields)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collection(collection)[id]
	if !ok {
		return nil, ErrNotFound
	}

	if len(precondition) > 0 {
		match, err := fieldsMatch(rec.doc.Fields, precondition)
		if err != nil {
			return nil, err
		}
		if !match {
			return nil, ErrPreconditionFailed
		}
	}

	rec.doc.Fields = raw
	rec.doc.UpdatedAt = s.now()
	return cloneDocument(rec.doc), nil
}

// Delete removes a document by id
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collection(collection)[id]
	if !ok {
		return ErrNotFound
	}
	if rec.naturalKey != "" {
		delete(s.keys(collection), rec.naturalKey)
	}
	delete(s.collection(collection), id)
	return nil
}

// Health always succeeds for the in-memory store
func (s *MemoryStore) Health(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() {}

func cloneDocument(doc *Document) *Document {
	out := *doc
	out.Fields = append(json.RawMessage(nil), doc.Fields...)
	return &out
}

// fieldsMatch applies the equality filter against the JSON fields.
// Values are compared after a JSON round trip so callers may filter
// with typed values (statuses, ids) interchangeably with strings.
func fieldsMatch(raw json.RawMessage, filter Filter) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false, fmt.Errorf("failed to unmarshal fields: %w", err)
	}

	for key, want := range filter {
		got, ok := fields[key]
		if !ok {
			return false, nil
		}
		normalized, err := normalizeValue(want)
		if err != nil {
			return false, err
		}
		if !reflect.DeepEqual(got, normalized) {
			return false, nil
		}
	}
	return true, nil
}

func normalizeValue(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize filter value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
