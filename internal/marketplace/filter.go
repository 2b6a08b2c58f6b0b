package marketplace

import (
	"fmt"
	"strings"

	"campusconnect/connect/internal/models"
)

const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 50000
)

// SearchPageSize is requested while a search is active. Search runs on this
// side, so it sees the newest SearchPageSize listings of the server's filter
// instead of one default page. The server clamps it to its own maximum.
const SearchPageSize = 200

// DefaultPriceRange is the slider's untouched position. A filter carrying it
// does not constrain price at all.
var DefaultPriceRange = models.PriceRange{Min: DefaultMinPrice, Max: DefaultMaxPrice}

// FilterState is the user-controlled filter set of the marketplace page.
type FilterState struct {
	SearchQuery      string                `json:"searchQuery"`
	SelectedCategory models.CategoryFilter `json:"selectedCategory"`
	PriceRange       models.PriceRange     `json:"priceRange"`
	UniversityOnly   bool                  `json:"universityOnly"`
}

// DefaultFilterState is what "clear filters" resets to.
func DefaultFilterState() FilterState {
	return FilterState{
		SearchQuery:      "",
		SelectedCategory: models.CategoryAll,
		PriceRange:       DefaultPriceRange,
		UniversityOnly:   false,
	}
}

// Validate checks the category is known and the range is ordered.
func (f FilterState) Validate() error {
	if !f.SelectedCategory.Valid() {
		return fmt.Errorf("unknown category %q", f.SelectedCategory)
	}
	if f.PriceRange.Min > f.PriceRange.Max {
		return fmt.Errorf("price range min %.2f exceeds max %.2f", f.PriceRange.Min, f.PriceRange.Max)
	}
	return nil
}

// PriceFilterActive is false when the range sits on the default bounds.
func (f FilterState) PriceFilterActive() bool {
	return f.PriceRange != DefaultPriceRange
}

// Query converts the filter into the listings read argument. Search is not
// sent; it is applied locally over a larger page.
func (f FilterState) Query() models.ListingQuery {
	q := models.ListingQuery{
		Category:       f.SelectedCategory,
		UniversityOnly: f.UniversityOnly,
	}
	if q.Category == "" {
		q.Category = models.CategoryAll
	}
	if f.PriceFilterActive() {
		r := f.PriceRange
		q.PriceRange = &r
	}
	if strings.TrimSpace(f.SearchQuery) != "" {
		q.PageSize = SearchPageSize
	}
	return q
}

// Predicate decides whether a display entry is kept.
type Predicate func(models.ListingDisplay) bool

// Predicates builds the active predicate chain for f. viewerUniversity may be
// empty; then the university gate only requires the listing to carry one.
func Predicates(f FilterState, viewerUniversity string) []Predicate {
	var preds []Predicate

	if q := strings.TrimSpace(f.SearchQuery); q != "" {
		needle := strings.ToLower(q)
		preds = append(preds, func(d models.ListingDisplay) bool {
			return strings.Contains(strings.ToLower(d.Title), needle) ||
				strings.Contains(strings.ToLower(d.Description), needle)
		})
	}

	if t, ok := f.SelectedCategory.ListingType(); ok {
		want, _ := ListingTypeName(t)
		preds = append(preds, func(d models.ListingDisplay) bool {
			return d.ListingType == want
		})
	}

	if f.PriceFilterActive() {
		r := f.PriceRange
		preds = append(preds, func(d models.ListingDisplay) bool {
			price := 0.0
			if d.Price != nil {
				price = *d.Price
			}
			return r.Contains(price)
		})
	}

	if f.UniversityOnly {
		preds = append(preds, func(d models.ListingDisplay) bool {
			if d.UniversityID == "" {
				return false
			}
			return viewerUniversity == "" || d.UniversityID == viewerUniversity
		})
	}

	return preds
}

// Apply returns the entries matching every active predicate, in input order.
func Apply(displays []models.ListingDisplay, f FilterState, viewerUniversity string) []models.ListingDisplay {
	preds := Predicates(f, viewerUniversity)
	out := make([]models.ListingDisplay, 0, len(displays))
next:
	for _, d := range displays {
		for _, p := range preds {
			if !p(d) {
				continue next
			}
		}
		out = append(out, d)
	}
	return out
}
