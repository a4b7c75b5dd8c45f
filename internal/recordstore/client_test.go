package recordstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSendsQueryAndReturnsData(t *testing.T) {
	var gotQuery Query
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tables/products/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []map[string]any{{"Id": 1}, {"Id": 2}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	q := Query{Limit: 8}.Where1("featured", OpEqual, true)

	records, err := client.Fetch(context.Background(), "products", q)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	require.Len(t, gotQuery.Where, 1)
	assert.Equal(t, ConjunctionAnd, gotQuery.Where[0].Conjunction)
	assert.Equal(t, "featured", gotQuery.Where[0].Predicates[0].Field)
	assert.Equal(t, 8, gotQuery.Limit)
}

func TestGetByIDEmptyDataIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.GetByID(context.Background(), "products", "42")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatus404IsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	err := client.Delete(context.Background(), "products", "42")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatus500IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Fetch(context.Background(), "products", Query{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSuccessFalseIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "table is locked"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Fetch(context.Background(), "products", Query{})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "table is locked")
}

func TestMalformedResponseIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Fetch(context.Background(), "products", Query{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClientTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 20*time.Millisecond)
	_, err := client.Fetch(context.Background(), "products", Query{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestConnectionRefusedIsUnavailable(t *testing.T) {
	// Grab a port that nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second)
	_, err := client.Fetch(context.Background(), "products", Query{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
