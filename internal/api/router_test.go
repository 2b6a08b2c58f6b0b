package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusconnect/connect/internal/auth"
	"campusconnect/connect/internal/config"
	"campusconnect/connect/internal/models"
)

func testRouterConfig() *config.Config {
	return &config.Config{
		JwtSecret:                "router-secret",
		AllowedOrigins:           []string{"https://campus.example"},
		DefaultPageSize:          50,
		MaxPageSize:              200,
		UploadRateLimitPerMinute: 2,
		UploadMaxBase64Bytes:     6850000,
		UploadFolderRoot:         "assignx",
	}
}

// Without a database or storage the router still answers everything that is
// decided before a service touches MongoDB or S3.
func setupTestEngine(t *testing.T) (*gin.Engine, *config.Config) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := testRouterConfig()
	return SetupRouter(ctx, cfg, nil, nil, nil, nil, zap.NewNop()), cfg
}

func upload(t *testing.T, r *gin.Engine, token string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(models.UploadRequest{Base64Data: "aGVsbG8=", Folder: "assignx/avatars/user-1"})
	req, _ := http.NewRequest(http.MethodPost, "/api/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Ping(t *testing.T) {
	r, _ := setupTestEngine(t)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouter_UploadCheckOrder(t *testing.T) {
	r, cfg := setupTestEngine(t)
	token, err := auth.GenerateJWT("user-1", "", cfg.JwtSecret, time.Hour)
	require.NoError(t, err)

	// Missing token wins over a bad origin.
	w := upload(t, r, "", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = upload(t, r, token, map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Storage is not configured in this router.
	w = upload(t, r, token, map[string]string{"Origin": "https://campus.example"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = upload(t, r, token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = upload(t, r, token, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	r, _ := setupTestEngine(t)
	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/v1/listings"},
		{http.MethodPost, "/v1/listings/p1/favorite"},
		{http.MethodGet, "/v1/favorites"},
	} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(route.method, route.path, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestRouter_UploadRejectsOversizedBody(t *testing.T) {
	r, cfg := setupTestEngine(t)
	token, err := auth.GenerateJWT("user-1", "", cfg.JwtSecret, time.Hour)
	require.NoError(t, err)

	// base64Data itself is tiny; the extra field pushes the body past the cap.
	body := `{"base64Data":"aGVsbG8=","folder":"assignx/avatars/user-1","padding":"` +
		strings.Repeat("A", cfg.UploadMaxBase64Bytes+uploadBodyAllowance) + `"}`
	req, _ := http.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "File too large", resp["error"])
}
