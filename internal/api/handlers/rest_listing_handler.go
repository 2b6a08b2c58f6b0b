package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusconnect/connect/internal/api/middleware"
	"campusconnect/connect/internal/models"
	"campusconnect/connect/internal/services"
)

// Bounds applied when only one side of the price range is given.
const (
	defaultMinPrice = 0
	defaultMaxPrice = 50000
)

// RestListingHandler handles REST requests for listings.
type RestListingHandler struct {
	listingService services.IListingService
}

// NewRestListingHandler creates a new RestListingHandler.
func NewRestListingHandler(listingService services.IListingService) *RestListingHandler {
	return &RestListingHandler{listingService: listingService}
}

func viewerOf(c *gin.Context) services.Viewer {
	return services.Viewer{
		UserID:       middleware.UserID(c),
		UniversityID: middleware.UniversityID(c),
	}
}

func listingsError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"data": nil, "error": msg})
}

// GetListings handles GET /v1/listings
func (h *RestListingHandler) GetListings(c *gin.Context) {
	q, err := parseListingQuery(c)
	if err != nil {
		listingsError(c, http.StatusBadRequest, err.Error())
		return
	}

	listings, err := h.listingService.FetchListings(c.Request.Context(), q, viewerOf(c))
	if err != nil {
		_ = c.Error(err)
		listingsError(c, http.StatusInternalServerError, "Failed to fetch listings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listings, "error": nil})
}

func parseListingQuery(c *gin.Context) (models.ListingQuery, error) {
	q := models.ListingQuery{
		Category: models.CategoryFilter(c.DefaultQuery("category", string(models.CategoryAll))),
	}
	if !q.Category.Valid() {
		return q, fmt.Errorf("unknown category %q", q.Category)
	}

	minStr, maxStr := c.Query("min_price"), c.Query("max_price")
	if minStr != "" || maxStr != "" {
		r := models.PriceRange{Min: defaultMinPrice, Max: defaultMaxPrice}
		var err error
		if minStr != "" {
			if r.Min, err = strconv.ParseFloat(minStr, 64); err != nil {
				return q, fmt.Errorf("invalid min_price")
			}
		}
		if maxStr != "" {
			if r.Max, err = strconv.ParseFloat(maxStr, 64); err != nil {
				return q, fmt.Errorf("invalid max_price")
			}
		}
		if r.Min < 0 || r.Min > r.Max {
			return q, fmt.Errorf("invalid price range")
		}
		q.PriceRange = &r
	}

	if s := c.Query("university_only"); s != "" {
		on, err := strconv.ParseBool(s)
		if err != nil {
			return q, fmt.Errorf("invalid university_only")
		}
		q.UniversityOnly = on
	}

	for name, dst := range map[string]*int{"page": &q.Page, "page_size": &q.PageSize} {
		if s := c.Query(name); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v < 1 {
				return q, fmt.Errorf("invalid %s", name)
			}
			*dst = v
		}
	}
	return q, nil
}

// GetListingByID handles GET /v1/listings/:id
func (h *RestListingHandler) GetListingByID(c *gin.Context) {
	listing, err := h.listingService.FindListingByID(c.Request.Context(), c.Param("id"), viewerOf(c))
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listing"})
		}
		return
	}
	c.JSON(http.StatusOK, listing)
}

// CreateListing handles POST /v1/listings. The owner and university come
// from the token, not the body.
func (h *RestListingHandler) CreateListing(c *gin.Context) {
	var req models.Listing
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	owner := services.Owner{
		UserID:       middleware.UserID(c),
		UserName:     req.UserName,
		UserAvatar:   req.UserAvatar,
		UniversityID: middleware.UniversityID(c),
	}
	listing, err := h.listingService.CreateListing(c.Request.Context(), owner, req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidListing) || errors.Is(err, models.ErrUnknownListingType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}
	c.JSON(http.StatusCreated, listing)
}
