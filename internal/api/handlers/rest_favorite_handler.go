package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusconnect/connect/internal/api/middleware"
	"campusconnect/connect/internal/models"
	"campusconnect/connect/internal/services"
)

// RestFavoriteHandler handles the caller's favorites.
type RestFavoriteHandler struct {
	favoriteService services.IFavoriteService
}

func NewRestFavoriteHandler(favoriteService services.IFavoriteService) *RestFavoriteHandler {
	return &RestFavoriteHandler{favoriteService: favoriteService}
}

// ToggleFavorite handles POST /v1/listings/:id/favorite
func (h *RestFavoriteHandler) ToggleFavorite(c *gin.Context) {
	favorited, err := h.favoriteService.Toggle(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		status, msg := http.StatusInternalServerError, "Failed to update favorite"
		if errors.Is(err, services.ErrListingNotFound) {
			status, msg = http.StatusNotFound, "Listing not found"
		} else {
			_ = c.Error(err)
		}
		c.JSON(status, models.FavoriteToggleResult{Success: false, Error: &msg})
		return
	}
	c.JSON(http.StatusOK, models.FavoriteToggleResult{Success: true, IsFavorited: favorited})
}

// ListFavorites handles GET /v1/favorites
func (h *RestFavoriteHandler) ListFavorites(c *gin.Context) {
	ids, err := h.favoriteService.ListFavoriteIDs(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"data": nil, "error": "Failed to fetch favorites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ids, "error": nil})
}
