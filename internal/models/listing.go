package models

import (
	"errors"
	"fmt"
	"time"
)

// ListingType tags the variant carried by a Listing.
type ListingType string

const (
	ListingTypeProduct     ListingType = "product"
	ListingTypeHousing     ListingType = "housing"
	ListingTypeOpportunity ListingType = "opportunity"
	ListingTypeCommunity   ListingType = "community"
)

// Valid reports whether t is one of the four known variants.
func (t ListingType) Valid() bool {
	switch t {
	case ListingTypeProduct, ListingTypeHousing, ListingTypeOpportunity, ListingTypeCommunity:
		return true
	}
	return false
}

var (
	ErrUnknownListingType = errors.New("unknown listing type")
	ErrInvalidListing     = errors.New("invalid listing")
)

// Listing is one marketplace entry. Type selects which of the variant fields
// are meaningful: Price for products, MonthlyRent for housing, Stipend for
// opportunities and none of the three for community posts.
type Listing struct {
	ID           string      `bson:"_id" json:"id"`
	Type         ListingType `bson:"type" json:"type"`
	Title        string      `bson:"title" json:"title"`
	Description  string      `bson:"description" json:"description"`
	UserID       string      `bson:"user_id" json:"userId"`
	UserName     string      `bson:"user_name" json:"userName"`
	UserAvatar   string      `bson:"user_avatar,omitempty" json:"userAvatar,omitempty"`
	Views        int64       `bson:"views" json:"views"`
	CreatedAt    time.Time   `bson:"created_at" json:"createdAt"`
	ImageURL     string      `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	UniversityID string      `bson:"university_id,omitempty" json:"universityId,omitempty"`
	IsLiked      bool        `bson:"-" json:"isLiked"`
	Deleted      bool        `bson:"deleted" json:"-"`

	// product
	Price        *float64 `bson:"price,omitempty" json:"price,omitempty"`
	CategoryID   string   `bson:"category_id,omitempty" json:"categoryId,omitempty"`
	CategoryName string   `bson:"category_name,omitempty" json:"categoryName,omitempty"`
	Condition    string   `bson:"condition,omitempty" json:"condition,omitempty"`

	// housing
	MonthlyRent *float64 `bson:"monthly_rent,omitempty" json:"monthlyRent,omitempty"`
	Location    string   `bson:"location,omitempty" json:"location,omitempty"`
	Bedrooms    int      `bson:"bedrooms,omitempty" json:"bedrooms,omitempty"`

	// opportunity
	Stipend  *float64   `bson:"stipend,omitempty" json:"stipend,omitempty"`
	Company  string     `bson:"company,omitempty" json:"company,omitempty"`
	Deadline *time.Time `bson:"deadline,omitempty" json:"deadline,omitempty"`

	// community
	Tags []string `bson:"tags,omitempty" json:"tags,omitempty"`
}

// Amount returns the variant's monetary field, or nil for community posts and
// unknown types.
func (l *Listing) Amount() *float64 {
	switch l.Type {
	case ListingTypeProduct:
		return l.Price
	case ListingTypeHousing:
		return l.MonthlyRent
	case ListingTypeOpportunity:
		return l.Stipend
	}
	return nil
}

// Validate checks the union invariant: exactly the variant's own amount field
// may be set, and the title must be present.
func (l *Listing) Validate() error {
	if !l.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownListingType, l.Type)
	}
	if l.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidListing)
	}
	set := map[string]bool{
		"price":       l.Price != nil,
		"monthlyRent": l.MonthlyRent != nil,
		"stipend":     l.Stipend != nil,
	}
	own := ""
	switch l.Type {
	case ListingTypeProduct:
		own = "price"
	case ListingTypeHousing:
		own = "monthlyRent"
	case ListingTypeOpportunity:
		own = "stipend"
	}
	for field, present := range set {
		if present && field != own {
			return fmt.Errorf("%w: %s is not allowed on %s listings", ErrInvalidListing, field, l.Type)
		}
	}
	if amount := l.Amount(); amount != nil && *amount < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidListing, own)
	}
	return nil
}

// Seller is the flattened owner record shown on a listing card.
type Seller struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Category is only populated for product listings.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListingDisplay is the normalized projection of a Listing used by the grid.
type ListingDisplay struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        *float64  `json:"price,omitempty"`
	ListingType  string    `json:"listing_type"`
	ImageURL     string    `json:"image_url,omitempty"`
	Views        int64     `json:"views"`
	CreatedAt    time.Time `json:"created_at"`
	UniversityID string    `json:"university_id,omitempty"`
	Seller       Seller    `json:"seller"`
	Category     *Category `json:"category,omitempty"`
	IsFavorited  bool      `json:"is_favorited"`
}
