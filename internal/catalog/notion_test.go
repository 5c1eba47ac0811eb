package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gramlabs/gramd/internal/models"
)

func TestNewNotionMirrorRequiresCredentials(t *testing.T) {
	_, err := NewNotionMirror(NotionConfig{DatabaseID: "db"})
	require.Error(t, err)

	_, err = NewNotionMirror(NotionConfig{Token: "tok"})
	require.Error(t, err)
}

func TestSyncGramPostsCheckpointPage(t *testing.T) {
	var captured map[string]any
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/pages", r.URL.Path)
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	mirror, err := NewNotionMirror(NotionConfig{Token: "tok", DatabaseID: "db-1", BaseURL: server.URL})
	require.NoError(t, err)

	gram := &models.Gram{Slug: "gram-alpha", Title: "Alpha", Perks: []models.Perk{{}, {}}}
	gram.ID = "gram-id-1"

	require.NoError(t, mirror.SyncGram(context.Background(), gram))

	require.Equal(t, "Bearer tok", gotHeaders.Get("Authorization"))
	require.Equal(t, notionAPIVersion, gotHeaders.Get("Notion-Version"))

	parent := captured["parent"].(map[string]any)
	require.Equal(t, "db-1", parent["database_id"])

	props := captured["properties"].(map[string]any)
	perks := props["Perks"].(map[string]any)
	require.Equal(t, float64(2), perks["number"])
}

func TestSyncGramSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"validation_error"}`))
	}))
	defer server.Close()

	mirror, err := NewNotionMirror(NotionConfig{Token: "tok", DatabaseID: "db-1", BaseURL: server.URL})
	require.NoError(t, err)

	err = mirror.SyncGram(context.Background(), &models.Gram{Title: "Alpha"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}
