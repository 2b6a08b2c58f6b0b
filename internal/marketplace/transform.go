package marketplace

import (
	"fmt"

	"campusconnect/connect/internal/models"
)

// listingTypeNames is the fixed tag -> listing_type lookup used by the grid.
var listingTypeNames = map[models.ListingType]string{
	models.ListingTypeProduct:     "sell",
	models.ListingTypeHousing:     "housing",
	models.ListingTypeOpportunity: "job",
	models.ListingTypeCommunity:   "community",
}

// ListingTypeName returns the display name for t and whether t is known.
func ListingTypeName(t models.ListingType) (string, bool) {
	name, ok := listingTypeNames[t]
	return name, ok
}

// Transform projects a listing into its display shape. Unknown tags produce an
// empty ListingType; use TransformAll to reject them.
func Transform(l models.Listing) models.ListingDisplay {
	typeName, _ := ListingTypeName(l.Type)
	d := models.ListingDisplay{
		ID:           l.ID,
		Title:        l.Title,
		Description:  l.Description,
		Price:        copyAmount(l.Amount()),
		ListingType:  typeName,
		ImageURL:     l.ImageURL,
		Views:        l.Views,
		CreatedAt:    l.CreatedAt,
		UniversityID: l.UniversityID,
		Seller: models.Seller{
			ID:        l.UserID,
			FullName:  l.UserName,
			AvatarURL: l.UserAvatar,
		},
		IsFavorited: l.IsLiked,
	}
	if l.Type == models.ListingTypeProduct && (l.CategoryID != "" || l.CategoryName != "") {
		d.Category = &models.Category{ID: l.CategoryID, Name: l.CategoryName}
	}
	return d
}

// TransformAll projects every listing, failing on the first unknown tag.
func TransformAll(listings []models.Listing) ([]models.ListingDisplay, error) {
	out := make([]models.ListingDisplay, 0, len(listings))
	for _, l := range listings {
		if _, ok := ListingTypeName(l.Type); !ok {
			return nil, fmt.Errorf("listing %s: %w: %q", l.ID, models.ErrUnknownListingType, l.Type)
		}
		out = append(out, Transform(l))
	}
	return out, nil
}

func copyAmount(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
