package models

// CategoryFilter is the closed set of category values a listings read accepts.
type CategoryFilter string

const (
	CategoryAll           CategoryFilter = "all"
	CategoryProducts      CategoryFilter = "products"
	CategoryHousing       CategoryFilter = "housing"
	CategoryOpportunities CategoryFilter = "opportunities"
	CategoryCommunity     CategoryFilter = "community"
)

var categoryTypes = map[CategoryFilter]ListingType{
	CategoryProducts:      ListingTypeProduct,
	CategoryHousing:       ListingTypeHousing,
	CategoryOpportunities: ListingTypeOpportunity,
	CategoryCommunity:     ListingTypeCommunity,
}

// Valid reports whether c is part of the closed category set.
func (c CategoryFilter) Valid() bool {
	if c == CategoryAll {
		return true
	}
	_, ok := categoryTypes[c]
	return ok
}

// ListingType returns the union tag selected by c. The boolean is false for
// CategoryAll and for unknown values.
func (c CategoryFilter) ListingType() (ListingType, bool) {
	t, ok := categoryTypes[c]
	return t, ok
}

// PriceRange is an inclusive [Min, Max] bound.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the inclusive range.
func (r PriceRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ListingQuery is the argument of a listings read. PriceRange is optional;
// Page and PageSize are only honoured by the server.
type ListingQuery struct {
	Category       CategoryFilter `json:"category"`
	PriceRange     *PriceRange    `json:"priceRange,omitempty"`
	UniversityOnly bool           `json:"universityOnly"`
	Page           int            `json:"page,omitempty"`
	PageSize       int            `json:"pageSize,omitempty"`
}
