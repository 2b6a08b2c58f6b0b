package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusconnect/connect/internal/auth"
	"campusconnect/connect/internal/models"
)

func resetFlags(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	apiURL, apiToken = "", ""
	searchQuery, category = "", string(models.CategoryAll)
	minPrice, maxPrice = 0, 50000
	universityOnly = false
}

func TestRenderListings(t *testing.T) {
	price := 25.5
	var buf bytes.Buffer
	require.NoError(t, renderListings(&buf, []models.ListingDisplay{
		{ID: "p1", ListingType: "sell", Title: "Lamp", Price: &price, Seller: models.Seller{FullName: "Ada"}, Views: 3, IsFavorited: true},
		{ID: "c1", ListingType: "community", Title: "Chess club"},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "TITLE")
	assert.Contains(t, lines[1], "25.5")
	assert.True(t, strings.HasSuffix(lines[1], "*"))
	assert.Contains(t, lines[2], " - ")
}

func TestRenderListings_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderListings(&buf, nil))
	assert.Equal(t, "No listings match your filters.\n", buf.String())
}

func TestFilterFromFlags_RejectsInvertedRange(t *testing.T) {
	resetFlags(t)
	minPrice, maxPrice = 10, 5
	_, err := filterFromFlags()
	assert.Error(t, err)
}

func TestBrowseAndFavorite_AgainstServer(t *testing.T) {
	resetFlags(t)
	token, err := auth.GenerateJWT("user-1", "uni-1", "any", time.Hour)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/listings":
			_, _ = w.Write([]byte(`{"data":[
				{"id":"p1","type":"product","title":"Laptop stand","price":20,"userName":"Ada"},
				{"id":"h1","type":"housing","title":"Room","monthlyRent":650}
			],"error":null}`))
		case "/v1/listings/p1/favorite":
			_, _ = w.Write([]byte(`{"success":true,"isFavorited":true,"error":null}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	apiURL, apiToken, searchQuery = srv.URL, token, "laptop"
	var notices bytes.Buffer
	board, err := newBoard(&notices)
	require.NoError(t, err)
	require.NoError(t, board.Refresh(context.Background()))

	listings := board.Listings()
	require.Len(t, listings, 1)
	assert.Equal(t, "sell", listings[0].ListingType)

	fav, err := board.ToggleFavorite(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, fav)
	assert.Equal(t, "ok: Added to favorites\n", notices.String())
}
