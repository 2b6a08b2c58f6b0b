package handlers_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"campusconnect/connect/internal/api/handlers"
	"campusconnect/connect/internal/services"
)

func setupFavoriteEngine(svc services.IFavoriteService) *gin.Engine {
	handler := handlers.NewRestFavoriteHandler(svc)
	r := gin.New()
	authed := r.Group("/v1", requireAuth())
	authed.POST("/listings/:id/favorite", handler.ToggleFavorite)
	authed.GET("/favorites", handler.ListFavorites)
	return r
}

func TestRestFavoriteHandler_Toggle(t *testing.T) {
	mockFavSvc := new(MockFavoriteService)
	r := setupFavoriteEngine(mockFavSvc)

	mockFavSvc.On("Toggle", mock.Anything, "user-1", "p1").Return(true, nil).Once()
	w := doRequest(r, http.MethodPost, "/v1/listings/p1/favorite", bearer(t, "user-1", ""), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"isFavorited":true,"error":null}`, w.Body.String())

	mockFavSvc.On("Toggle", mock.Anything, "user-1", "p1").Return(false, nil).Once()
	w = doRequest(r, http.MethodPost, "/v1/listings/p1/favorite", bearer(t, "user-1", ""), nil)
	assert.JSONEq(t, `{"success":true,"isFavorited":false,"error":null}`, w.Body.String())
	mockFavSvc.AssertExpectations(t)
}

func TestRestFavoriteHandler_ToggleErrors(t *testing.T) {
	mockFavSvc := new(MockFavoriteService)
	r := setupFavoriteEngine(mockFavSvc)

	mockFavSvc.On("Toggle", mock.Anything, "user-1", "gone").
		Return(false, fmt.Errorf("%w: gone", services.ErrListingNotFound)).Once()
	w := doRequest(r, http.MethodPost, "/v1/listings/gone/favorite", bearer(t, "user-1", ""), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"isFavorited":false,"error":"Listing not found"}`, w.Body.String())

	mockFavSvc.On("Toggle", mock.Anything, "user-1", "p1").Return(false, errors.New("db down")).Once()
	w = doRequest(r, http.MethodPost, "/v1/listings/p1/favorite", bearer(t, "user-1", ""), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["success"])

	w = doRequest(r, http.MethodPost, "/v1/listings/p1/favorite", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRestFavoriteHandler_List(t *testing.T) {
	mockFavSvc := new(MockFavoriteService)
	r := setupFavoriteEngine(mockFavSvc)

	mockFavSvc.On("ListFavoriteIDs", mock.Anything, "user-1").Return([]string{"h1", "p1"}, nil).Once()
	w := doRequest(r, http.MethodGet, "/v1/favorites", bearer(t, "user-1", ""), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":["h1","p1"],"error":null}`, w.Body.String())
	mockFavSvc.AssertExpectations(t)
}
