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

	"github.com/chronos-watches/storefront/internal/recordstore"
	"github.com/chronos-watches/storefront/internal/repository"
)

func TestNormalizeDecodesSerializedFields(t *testing.T) {
	raw := rawProduct{
		ID:             1,
		Brand:          "Meridian",
		Model:          "Deep Blue",
		Images:         `["a.jpg","b.jpg"]`,
		BandOptions:    `["Steel","Rubber"]`,
		Specifications: `{"Crystal":"Sapphire"}`,
	}

	p := raw.normalize()
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, p.Images)
	assert.Equal(t, []string{"Steel", "Rubber"}, p.BandOptions)
	assert.Equal(t, map[string]string{"Crystal": "Sapphire"}, p.Specifications)
}

func TestNormalizeMalformedFieldFallsBackToEmpty(t *testing.T) {
	raw := rawProduct{
		ID:             1,
		Images:         `not json`,
		BandOptions:    ``,
		Specifications: `["wrong","shape"]`,
	}

	p := raw.normalize()
	assert.Equal(t, []string{}, p.Images)
	assert.Equal(t, []string{}, p.BandOptions)
	assert.Equal(t, map[string]string{}, p.Specifications)
}

func TestSerializeRoundTrips(t *testing.T) {
	raw := rawProduct{
		ID:             3,
		Brand:          "Aurelle",
		Images:         `["petite.jpg"]`,
		BandOptions:    `["Leather"]`,
		Specifications: `{"Case":"Gold"}`,
	}

	again := serialize(raw.normalize())
	assert.Equal(t, raw.Images, again.Images)
	assert.Equal(t, raw.BandOptions, again.BandOptions)
	assert.Equal(t, raw.Specifications, again.Specifications)
}

// fakeBackend is a minimal record-store server over a fixed product table.
func fakeBackend(t *testing.T, records []rawProduct) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/tables/products/query":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": records})
		case r.Method == http.MethodGet && r.URL.Path == "/tables/products/records/1":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []rawProduct{records[0]}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testRecords() []rawProduct {
	return []rawProduct{
		{ID: 1, Brand: "Meridian", Model: "Deep Blue", Category: "Dive Watches", Description: "A dive companion", Price: 2800, Images: `["deep-blue.jpg"]`},
		{ID: 2, Brand: "Aurelle", Model: "Petite", Category: "Dress Watches", Price: 950},
	}
}

func TestFindAllDecodesRecords(t *testing.T) {
	srv := fakeBackend(t, testRecords())
	defer srv.Close()

	repo := NewProductRepository(recordstore.NewClient(srv.URL, time.Second))
	got, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"deep-blue.jpg"}, got[0].Images)
	assert.Equal(t, []string{}, got[1].Images)
}

func TestFindByIDMissingReturnsNilNil(t *testing.T) {
	srv := fakeBackend(t, testRecords())
	defer srv.Close()

	repo := NewProductRepository(recordstore.NewClient(srv.URL, time.Second))
	got, err := repo.FindByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindByCategoryRechecksCaseInsensitively(t *testing.T) {
	// The fake backend returns everything; the repository must narrow the
	// result to the requested category client-side.
	srv := fakeBackend(t, testRecords())
	defer srv.Close()

	repo := NewProductRepository(recordstore.NewClient(srv.URL, time.Second))
	got, err := repo.FindByCategory(context.Background(), "dive")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Deep Blue", got[0].Model)
}

func TestSearchRechecksQuery(t *testing.T) {
	srv := fakeBackend(t, testRecords())
	defer srv.Close()

	repo := NewProductRepository(recordstore.NewClient(srv.URL, time.Second))
	got, err := repo.Search(context.Background(), "COMPANION")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestBrandsAreDistinctAndSorted(t *testing.T) {
	records := append(testRecords(), rawProduct{ID: 3, Brand: "Meridian", Category: "Dive Watches"})
	srv := fakeBackend(t, records)
	defer srv.Close()

	repo := NewProductRepository(recordstore.NewClient(srv.URL, time.Second))
	got, err := repo.Brands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Aurelle", "Meridian"}, got)
}

func TestBackendOutageMapsToBackendUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := NewProductRepository(recordstore.NewClient(srv.URL, time.Second))
	got, err := repo.FindAll(context.Background())
	assert.ErrorIs(t, err, repository.ErrBackendUnavailable)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
