package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onedigit/site-engine/internal/models"
	"github.com/onedigit/site-engine/internal/storage"
)

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		url     string
		want    string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer abc"}, "/", "abc"},
		{"raw authorization", map[string]string{"Authorization": "abc"}, "/", "abc"},
		{"x-api-key", map[string]string{"X-API-Key": "xyz"}, "/", "xyz"},
		{"query ignored without upgrade", nil, "/?api_key=q", ""},
		{"query on websocket upgrade", map[string]string{"Upgrade": "websocket"}, "/?api_key=q", "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractAPIKey(req))
		})
	}
}

func TestAuthenticateInactiveClient(t *testing.T) {
	repo := storage.NewMemoryRepository()
	repo.AddClient(&models.ApiClient{Name: "old", ApiKey: "inactive-key", IsActive: false, Permissions: []string{"*"}})

	auth := NewAuthMiddleware(repo, "")
	h := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "inactive-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateAdminKey(t *testing.T) {
	auth := NewAuthMiddleware(storage.NewMemoryRepository(), "bootstrap")

	var got *models.ApiClient
	h := auth.Authenticate(auth.RequirePermission(models.PermLeadsRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bootstrap")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.Name)
}
