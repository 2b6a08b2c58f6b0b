package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"campusconnect/connect/internal/models"
)

var (
	// ErrNotAuthenticated is returned when a favorite is toggled without a user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrListingNotLoaded is returned when the listing is not on the board.
	ErrListingNotLoaded = errors.New("listing not loaded")
)

// ListingsAPI is the remote side of the marketplace page.
type ListingsAPI interface {
	FetchListings(ctx context.Context, q models.ListingQuery) ([]models.Listing, error)
	ToggleFavorite(ctx context.Context, listingID string) (bool, error)
}

// Notifier surfaces user-visible messages (toasts).
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// View is a consistent copy of the board state.
type View struct {
	Filter      FilterState
	AllListings []models.Listing
	Listings    []models.ListingDisplay
	Loading     bool
	Err         error
}

// Board holds the marketplace page state: the filter, the raw listings of the
// last accepted fetch and their filtered display projections.
type Board struct {
	api    ListingsAPI
	notify Notifier
	logger *zap.Logger

	userID       string
	universityID string

	mu       sync.Mutex
	filter   FilterState
	all      []models.Listing
	listings []models.ListingDisplay
	loading  bool
	err      error
	issued   uint64
}

// Option configures a Board.
type Option func(*Board)

// WithUser sets the signed-in user. universityID may be empty.
func WithUser(userID, universityID string) Option {
	return func(b *Board) {
		b.userID = userID
		b.universityID = universityID
	}
}

// WithLogger replaces the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithFilter sets the initial filter instead of the defaults.
func WithFilter(f FilterState) Option {
	return func(b *Board) { b.filter = f }
}

// NewBoard creates a board with the default filter. Nothing is fetched until
// Refresh or one of the filter setters runs.
func NewBoard(api ListingsAPI, notify Notifier, opts ...Option) *Board {
	b := &Board{
		api:    api,
		notify: notify,
		logger: zap.NewNop(),
		filter: DefaultFilterState(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// View returns a copy of the current state.
func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return View{
		Filter:      b.filter,
		AllListings: append([]models.Listing(nil), b.all...),
		Listings:    append([]models.ListingDisplay(nil), b.listings...),
		Loading:     b.loading,
		Err:         b.err,
	}
}

// Listings returns a copy of the filtered display array.
func (b *Board) Listings() []models.ListingDisplay {
	return b.View().Listings
}

// AllListings returns a copy of the raw listings of the last fetch.
func (b *Board) AllListings() []models.Listing {
	return b.View().AllListings
}

// Err is the inline error of the last fetch, nil after a successful one.
func (b *Board) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Filter returns the current filter.
func (b *Board) Filter() FilterState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

// Refresh fetches listings for the current filter, transforms and filters
// them. A response is dropped when a newer Refresh was started after it; only
// the newest one updates the board.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.issued++
	gen := b.issued
	filter := b.filter
	b.loading = true
	b.mu.Unlock()

	raw, err := b.api.FetchListings(ctx, filter.Query())
	var displays []models.ListingDisplay
	if err == nil {
		displays, err = TransformAll(raw)
	}

	b.mu.Lock()
	if gen != b.issued {
		b.mu.Unlock()
		b.logger.Debug("dropping superseded listings response", zap.Uint64("generation", gen))
		return nil
	}
	b.loading = false
	if err != nil {
		b.err = err
		b.mu.Unlock()
		b.logger.Warn("failed to fetch listings", zap.Error(err))
		b.notify.Error(fmt.Sprintf("Failed to load listings: %v", err))
		return err
	}
	b.err = nil
	b.all = raw
	b.listings = Apply(displays, filter, b.universityID)
	count := len(b.listings)
	b.mu.Unlock()

	b.logger.Debug("listings refreshed", zap.Int("fetched", len(raw)), zap.Int("shown", count))
	return nil
}

// Retry re-runs the last fetch. It is the manual recovery after an error.
func (b *Board) Retry(ctx context.Context) error {
	return b.Refresh(ctx)
}

// SetSearchQuery updates the search text and re-fetches.
func (b *Board) SetSearchQuery(ctx context.Context, q string) error {
	return b.update(ctx, func(f *FilterState) { f.SearchQuery = q })
}

// SetCategory selects a category and re-fetches.
func (b *Board) SetCategory(ctx context.Context, c models.CategoryFilter) error {
	return b.update(ctx, func(f *FilterState) { f.SelectedCategory = c })
}

// SetPriceRange moves the price slider and re-fetches.
func (b *Board) SetPriceRange(ctx context.Context, lo, hi float64) error {
	return b.update(ctx, func(f *FilterState) { f.PriceRange = models.PriceRange{Min: lo, Max: hi} })
}

// SetUniversityOnly toggles the university gate and re-fetches.
func (b *Board) SetUniversityOnly(ctx context.Context, on bool) error {
	return b.update(ctx, func(f *FilterState) { f.UniversityOnly = on })
}

// ClearFilters resets the filter to its defaults and re-fetches.
func (b *Board) ClearFilters(ctx context.Context) error {
	return b.update(ctx, func(f *FilterState) { *f = DefaultFilterState() })
}

func (b *Board) update(ctx context.Context, mutate func(*FilterState)) error {
	b.mu.Lock()
	next := b.filter
	mutate(&next)
	if err := next.Validate(); err != nil {
		b.mu.Unlock()
		return err
	}
	b.filter = next
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// ToggleFavorite flips the favorite flag of a listing optimistically, then
// confirms it remotely. On failure the flip is reverted; on success the
// server's value is written into both the display and the raw arrays.
func (b *Board) ToggleFavorite(ctx context.Context, listingID string) (bool, error) {
	if b.userID == "" {
		b.notify.Error("Please sign in to save listings")
		return false, ErrNotAuthenticated
	}

	b.mu.Lock()
	_, loaded := b.displayIndex(listingID)
	b.mu.Unlock()
	if !loaded {
		return false, fmt.Errorf("%w: %s", ErrListingNotLoaded, listingID)
	}

	favorited, err := Optimistic(ctx,
		func() bool {
			b.mu.Lock()
			defer b.mu.Unlock()
			i, _ := b.displayIndex(listingID)
			if i < 0 {
				return false
			}
			return b.listings[i].IsFavorited
		},
		func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if i, ok := b.displayIndex(listingID); ok {
				b.listings[i].IsFavorited = !b.listings[i].IsFavorited
			}
		},
		func(ctx context.Context) (bool, error) {
			return b.api.ToggleFavorite(ctx, listingID)
		},
		func(prev bool) {
			b.mu.Lock()
			defer b.mu.Unlock()
			if i, ok := b.displayIndex(listingID); ok {
				b.listings[i].IsFavorited = prev
			}
		},
	)
	if err != nil {
		b.logger.Warn("favorite toggle failed", zap.String("listing_id", listingID), zap.Error(err))
		b.notify.Error(err.Error())
		return false, err
	}

	b.mu.Lock()
	if i, ok := b.displayIndex(listingID); ok {
		b.listings[i].IsFavorited = favorited
	}
	for i := range b.all {
		if b.all[i].ID == listingID {
			b.all[i].IsLiked = favorited
		}
	}
	b.mu.Unlock()

	if favorited {
		b.notify.Success("Added to favorites")
	} else {
		b.notify.Success("Removed from favorites")
	}
	return favorited, nil
}

// displayIndex must be called with mu held.
func (b *Board) displayIndex(id string) (int, bool) {
	for i := range b.listings {
		if b.listings[i].ID == id {
			return i, true
		}
	}
	return -1, false
}
