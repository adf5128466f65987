package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campus-api/internal/config"
	"campus-api/internal/store"
	"campus-api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(handler http.HandlerFunc) (*Store, *httptest.Server) {
	server := httptest.NewServer(handler)
	st := New(&config.Config{
		SupabaseURL:        server.URL,
		SupabaseServiceKey: "service-key",
	}, &logger.Logger{Logger: zap.NewNop()})
	return st, server
}

func respondRows(t *testing.T, w http.ResponseWriter, status int, rows []row) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(rows))
}

func TestStore_Create(t *testing.T) {
	var captured *http.Request
	st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		respondRows(t, w, http.StatusCreated, []row{{
			ID:        "doc-1",
			Fields:    json.RawMessage(`{"title":"Council"}`),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}})
	})
	defer server.Close()

	doc, err := st.Create(context.Background(), store.CollectionElections,
		map[string]interface{}{"title": "Council"})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.JSONEq(t, `{"title":"Council"}`, string(doc.Fields))

	require.NotNil(t, captured)
	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/rest/v1/documents", captured.URL.Path)
	assert.Equal(t, "service-key", captured.Header.Get("apikey"))
	assert.Equal(t, "Bearer service-key", captured.Header.Get("Authorization"))
	assert.Equal(t, "return=representation", captured.Header.Get("Prefer"))
}

func TestStore_CreateUnique_Conflict(t *testing.T) {
	st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		var payload row
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.NotNil(t, payload.NaturalKey)
		assert.Equal(t, "e1:u1", *payload.NaturalKey)

		w.WriteHeader(http.StatusConflict)
	})
	defer server.Close()

	_, err := st.CreateUnique(context.Background(), store.CollectionVotes, "e1:u1",
		map[string]interface{}{"candidate_id": "c1"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestStore_Get(t *testing.T) {
	st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.elections", r.URL.Query().Get("collection"))
		assert.Equal(t, "eq.doc-1", r.URL.Query().Get("id"))
		respondRows(t, w, http.StatusOK, []row{{
			ID:     "doc-1",
			Fields: json.RawMessage(`{"title":"Council"}`),
		}})
	})
	defer server.Close()

	doc, err := st.Get(context.Background(), store.CollectionElections, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
}

func TestStore_Get_NotFound(t *testing.T) {
	st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		respondRows(t, w, http.StatusOK, []row{})
	})
	defer server.Close()

	_, err := st.Get(context.Background(), store.CollectionElections, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_List_FilterAsContainment(t *testing.T) {
	st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.bookings", r.URL.Query().Get("collection"))
		assert.Equal(t, `cs.{"status":"pending"}`, r.URL.Query().Get("fields"))
		assert.Equal(t, "created_at.asc", r.URL.Query().Get("order"))
		respondRows(t, w, http.StatusOK, []row{
			{ID: "b1", Fields: json.RawMessage(`{"status":"pending"}`)},
			{ID: "b2", Fields: json.RawMessage(`{"status":"pending"}`)},
		})
	})
	defer server.Close()

	docs, err := st.List(context.Background(), store.CollectionBookings,
		store.Filter{"status": "pending"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestStore_UpdateIf(t *testing.T) {
	t.Run("Precondition rides in the query string", func(t *testing.T) {
		st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, `cs.{"status":"pending"}`, r.URL.Query().Get("fields"))
			respondRows(t, w, http.StatusOK, []row{{
				ID:     "b1",
				Fields: json.RawMessage(`{"status":"approved"}`),
			}})
		})
		defer server.Close()

		doc, err := st.UpdateIf(context.Background(), store.CollectionBookings, "b1",
			store.Filter{"status": "pending"}, map[string]interface{}{"status": "approved"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"approved"}`, string(doc.Fields))
	})

	t.Run("Empty match on an existing document is a failed precondition", func(t *testing.T) {
		st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPatch {
				respondRows(t, w, http.StatusOK, []row{})
				return
			}
			// The follow-up Get finds the document
			respondRows(t, w, http.StatusOK, []row{{ID: "b1", Fields: json.RawMessage(`{}`)}})
		})
		defer server.Close()

		_, err := st.UpdateIf(context.Background(), store.CollectionBookings, "b1",
			store.Filter{"status": "pending"}, map[string]interface{}{"status": "approved"})
		assert.ErrorIs(t, err, store.ErrPreconditionFailed)
	})

	t.Run("Empty match on a missing document is not found", func(t *testing.T) {
		st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
			respondRows(t, w, http.StatusOK, []row{})
		})
		defer server.Close()

		_, err := st.UpdateIf(context.Background(), store.CollectionBookings, "missing",
			store.Filter{"status": "pending"}, map[string]interface{}{"status": "approved"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestStore_Delete(t *testing.T) {
	st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		respondRows(t, w, http.StatusOK, []row{{ID: "b1"}})
	})
	defer server.Close()

	assert.NoError(t, st.Delete(context.Background(), store.CollectionBookings, "b1"))
}

func TestStore_ServerErrorIsUnavailable(t *testing.T) {
	st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	_, err := st.Get(context.Background(), store.CollectionElections, "doc-1")
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = st.Create(context.Background(), store.CollectionElections, map[string]interface{}{})
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestStore_UnreachableIsUnavailable(t *testing.T) {
	st, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := st.Get(context.Background(), store.CollectionElections, "doc-1")
	assert.ErrorIs(t, err, store.ErrUnavailable)

	assert.ErrorIs(t, st.Health(context.Background()), store.ErrUnavailable)
}
