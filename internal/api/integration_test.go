package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusconnect/connect/internal/auth"
	"campusconnect/connect/internal/db"
	"campusconnect/connect/internal/models"
	"campusconnect/connect/internal/utils"
)

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func (c apiClient) call(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func TestIntegration_ListingsAndFavorites(t *testing.T) {
	database := utils.SetupTestDB(t, "testdb_api_integration", db.ListingsCollection, db.FavoritesCollection, db.ProjectsCollection)
	require.NoError(t, db.EnsureIndexes(context.Background(), database))

	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testRouterConfig()
	engine := SetupRouter(ctx, cfg, database, nil, nil, nil, zap.NewNop())

	sellerToken, err := auth.GenerateJWT("seller", "uni-1", cfg.JwtSecret, time.Hour)
	require.NoError(t, err)
	buyerToken, err := auth.GenerateJWT("buyer", "uni-1", cfg.JwtSecret, time.Hour)
	require.NoError(t, err)
	seller := apiClient{t: t, engine: engine, token: sellerToken}
	buyer := apiClient{t: t, engine: engine, token: buyerToken}
	anon := apiClient{t: t, engine: engine}

	// Seller posts two listings.
	var laptop, room models.Listing
	require.Equal(t, http.StatusCreated, seller.call(http.MethodPost, "/v1/listings",
		map[string]interface{}{"type": "product", "title": "Laptop", "price": 300, "userName": "Sam"}, &laptop))
	require.Equal(t, http.StatusCreated, seller.call(http.MethodPost, "/v1/listings",
		map[string]interface{}{"type": "housing", "title": "Room", "monthlyRent": 650, "userName": "Sam"}, &room))
	assert.Equal(t, "uni-1", laptop.UniversityID)

	// A housing listing carrying a price is rejected.
	assert.Equal(t, http.StatusBadRequest, seller.call(http.MethodPost, "/v1/listings",
		map[string]interface{}{"type": "housing", "title": "Bad", "price": 1}, nil))

	// Buyer favorites the laptop and sees it reflected.
	var toggle models.FavoriteToggleResult
	require.Equal(t, http.StatusOK, buyer.call(http.MethodPost, "/v1/listings/"+laptop.ID+"/favorite", nil, &toggle))
	assert.True(t, toggle.Success)
	assert.True(t, toggle.IsFavorited)

	var page struct {
		Data []models.Listing `json:"data"`
	}
	require.Equal(t, http.StatusOK, buyer.call(http.MethodGet, "/v1/listings?category=all", nil, &page))
	require.Len(t, page.Data, 2)
	for _, l := range page.Data {
		assert.Equal(t, l.ID == laptop.ID, l.IsLiked, l.Title)
	}

	// Anonymous readers never see isLiked.
	require.Equal(t, http.StatusOK, anon.call(http.MethodGet, "/v1/listings", nil, &page))
	for _, l := range page.Data {
		assert.False(t, l.IsLiked)
	}

	// Price range on the server excludes the room.
	require.Equal(t, http.StatusOK, anon.call(http.MethodGet, "/v1/listings?min_price=100&max_price=400", nil, &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, laptop.ID, page.Data[0].ID)

	var favorites struct {
		Data []string `json:"data"`
	}
	require.Equal(t, http.StatusOK, buyer.call(http.MethodGet, "/v1/favorites", nil, &favorites))
	assert.Equal(t, []string{laptop.ID}, favorites.Data)

	// Toggling again removes it.
	require.Equal(t, http.StatusOK, buyer.call(http.MethodPost, "/v1/listings/"+laptop.ID+"/favorite", nil, &toggle))
	assert.False(t, toggle.IsFavorited)

	// Reading a listing counts a view.
	var got models.Listing
	require.Equal(t, http.StatusOK, anon.call(http.MethodGet, "/v1/listings/"+room.ID, nil, &got))
	assert.Equal(t, int64(1), got.Views)

	assert.Equal(t, http.StatusNotFound, buyer.call(http.MethodPost, "/v1/listings/missing/favorite", nil, nil))
}
