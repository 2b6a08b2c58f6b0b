package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"campusconnect/connect/internal/api/middleware"
	"campusconnect/connect/internal/auth"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, userID, universityID string) string {
	t.Helper()
	token, err := auth.GenerateJWT(userID, universityID, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func optionalAuth() gin.HandlerFunc { return middleware.OptionalAuthMiddleware(testSecret) }
func requireAuth() gin.HandlerFunc  { return middleware.AuthMiddleware(testSecret) }

func doRequest(r *gin.Engine, method, path, authHeader string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
