package kcc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
	"records": [
		{"QueryText": "when to sow wheat", "KccAns": "sow in november", "StateName": "PUNJAB"},
		{"QueryText": "urea dose for paddy", "KccAns": "apply 120 kg per hectare"}
	]
}`

func TestFetchParsesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	loader := NewLoaderWithURL("test-key", srv.URL)
	records, err := loader.Fetch(context.Background(), 50)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "when to sow wheat", records[0].QueryText)
	assert.Equal(t, "sow in november", records[0].AnswerText)
	assert.Equal(t, "urea dose for paddy", records[1].QueryText)
}

func TestFetchDefaultsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"records": []}`))
	}))
	defer srv.Close()

	loader := NewLoaderWithURL("k", srv.URL)
	records, err := loader.Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	loader := NewLoaderWithURL("k", srv.URL)
	_, err := loader.Fetch(context.Background(), 10)
	assert.Error(t, err)
}

func TestFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	loader := NewLoaderWithURL("k", srv.URL)
	_, err := loader.Fetch(context.Background(), 10)
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kcc.json")
	data := `[{"QueryText": "q1", "KccAns": "a1"}, {"QueryText": "q2", "KccAns": "a2"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	records, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a2", records[1].AnswerText)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
