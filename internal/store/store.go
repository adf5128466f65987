// Package store defines the document-store contract both workflows run
// against. Any backend satisfying it (Postgres, Supabase PostgREST, or
// the in-memory double) is interchangeable; the choice is made once at
// construction time.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Collection names used by the workflows
const (
	CollectionElections  = "elections"
	CollectionCandidates = "candidates"
	CollectionVotes      = "votes"
	CollectionBookings   = "bookings"
	CollectionFacilities = "facilities"
	CollectionProfiles   = "profiles"
)

// Sentinel errors every backend must translate its native failures into
var (
	ErrNotFound = errors.New("store: document not found")

	// ErrDuplicateKey is the store-level uniqueness violation. For
	// votes the creation call itself is the atomicity boundary: the
	// write either succeeds or fails with this error.
	ErrDuplicateKey = errors.New("store: duplicate natural key")

	// ErrPreconditionFailed means a conditional update found the
	// document in a different state than required.
	ErrPreconditionFailed = errors.New("store: precondition failed")

	ErrUnavailable = errors.New("store: unavailable")
)

// Filter is an equality filter over top-level document fields
type Filter map[string]interface{}

// Document is a stored record: an opaque id plus JSON fields
type Document struct {
	ID        string          `json:"id"`
	Fields    json.RawMessage `json:"fields"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Decode unmarshals the document fields into v
func (d *Document) Decode(v interface{}) error {
	return json.Unmarshal(d.Fields, v)
}

// Store is the document-store contract. Every call carries the caller's
// context; on cancellation no partial state is left behind because each
// operation touches exactly one document.
type Store interface {
	// Create inserts a document with a generated id
	Create(ctx context.Context, collection string, fields interface{}) (*Document, error)

	// CreateUnique inserts a document guarded by a natural key unique
	// within the collection. A second insert with the same key fails
	// with ErrDuplicateKey; the insert is the atomicity boundary.
	CreateUnique(ctx context.Context, collection, naturalKey string, fields interface{}) (*Document, error)

	// Get fetches a document by id, ErrNotFound if absent
	Get(ctx context.Context, collection, id string) (*Document, error)

	// List returns all documents matching the equality filter
	List(ctx context.Context, collection string, filter Filter) ([]*Document, error)

	// Update replaces the document fields, ErrNotFound if absent
	Update(ctx context.Context, collection, id string, fields interface{}) (*Document, error)

	// UpdateIf replaces the fields only while the current fields still
	// match the precondition, ErrPreconditionFailed otherwise. Backends
	// without conditional writes may emulate with read-then-write and
	// must document the residual race.
	UpdateIf(ctx context.Context, collection, id string, precondition Filter, fields interface{}) (*Document, error)

	// Delete removes a document by id, ErrNotFound if absent
	Delete(ctx context.Context, collection, id string) error

	// Health reports backend reachability
	Health(ctx context.Context) error

	// Close releases backend resources
	Close()
}
