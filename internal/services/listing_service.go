package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"campusconnect/connect/internal/config"
	"campusconnect/connect/internal/db"
	"campusconnect/connect/internal/models"
)

// Viewer identifies who is reading listings. Both fields may be empty for
// anonymous requests.
type Viewer struct {
	UserID       string
	UniversityID string
}

// IListingService defines the interface for listing-related operations.
type IListingService interface {
	FetchListings(ctx context.Context, q models.ListingQuery, viewer Viewer) ([]models.Listing, error)
	FindListingByID(ctx context.Context, listingID string, viewer Viewer) (*models.Listing, error)
	CreateListing(ctx context.Context, owner Owner, in models.Listing) (*models.Listing, error)
}

// Owner is the author stamped on a new listing.
type Owner struct {
	UserID       string
	UserName     string
	UserAvatar   string
	UniversityID string
}

// amountFields maps each variant to the document field its price lives in.
var amountFields = map[models.ListingType]string{
	models.ListingTypeProduct:     "price",
	models.ListingTypeHousing:     "monthly_rent",
	models.ListingTypeOpportunity: "stipend",
}

// listingService implements IListingService.
type listingService struct {
	db        *mongo.Database
	cfg       *config.Config
	favorites IFavoriteService
}

// NewListingService creates a new ListingService.
func NewListingService(db *mongo.Database, cfg *config.Config, favorites IFavoriteService) IListingService {
	return &listingService{db: db, cfg: cfg, favorites: favorites}
}

// FetchListings returns the newest listings matching q. When the viewer is
// signed in, IsLiked is resolved against their favorites; the favorites
// lookup runs concurrently with the listings query.
func (s *listingService) FetchListings(ctx context.Context, q models.ListingQuery, viewer Viewer) ([]models.Listing, error) {
	if !q.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q", q.Category)
	}
	filter := buildListingFilter(q, viewer.UniversityID)

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	var listings []models.Listing
	var liked map[string]bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cursor, err := s.db.Collection(db.ListingsCollection).Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("failed to query listings: %w", err)
		}
		defer cursor.Close(gctx)
		if err := cursor.All(gctx, &listings); err != nil {
			return fmt.Errorf("failed to decode listings: %w", err)
		}
		return nil
	})
	if viewer.UserID != "" {
		g.Go(func() error {
			var err error
			liked, err = s.favorites.FavoritedSet(gctx, viewer.UserID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if listings == nil {
		listings = []models.Listing{}
	}
	for i := range listings {
		listings[i].IsLiked = liked[listings[i].ID]
	}
	return listings, nil
}

// FindListingByID finds a non-deleted listing and counts the view.
func (s *listingService) FindListingByID(ctx context.Context, listingID string, viewer Viewer) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(db.ListingsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": listingID, "deleted": false},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrListingNotFound, listingID)
		}
		return nil, fmt.Errorf("error finding listing by ID %s: %w", listingID, err)
	}

	if viewer.UserID != "" {
		liked, err := s.favorites.IsFavorited(ctx, viewer.UserID, listingID)
		if err != nil {
			return nil, err
		}
		listing.IsLiked = liked
	}
	return &listing, nil
}

// CreateListing validates and stores a new listing owned by owner.
func (s *listingService) CreateListing(ctx context.Context, owner Owner, in models.Listing) (*models.Listing, error) {
	in.UserID = owner.UserID
	in.UserName = owner.UserName
	in.UserAvatar = owner.UserAvatar
	in.UniversityID = owner.UniversityID
	in.Views = 0
	in.IsLiked = false
	in.Deleted = false
	in.CreatedAt = time.Now().UTC()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	collection := s.db.Collection(db.ListingsCollection)
	in.ID = uuid.NewString()
	attempts := 0
	err := db.Try(ctx, func(ctx context.Context) error {
		attempts++
		_, err := collection.InsertOne(ctx, in)
		// The id is fixed across attempts, so a duplicate after a dropped
		// connection means the earlier attempt was written.
		if attempts > 1 && mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert listing %s for user %s: %w", in.ID, owner.UserID, err)
	}
	return &in, nil
}

// buildListingFilter turns a query into a MongoDB filter. A listing without
// an amount counts as priced at 0, so community posts only pass a price
// range that includes 0.
func buildListingFilter(q models.ListingQuery, viewerUniversity string) bson.M {
	filter := bson.M{"deleted": false}

	if t, ok := q.Category.ListingType(); ok {
		filter["type"] = t
	}

	if q.UniversityOnly {
		if viewerUniversity != "" {
			filter["university_id"] = viewerUniversity
		} else {
			filter["university_id"] = bson.M{"$nin": bson.A{nil, ""}}
		}
	}

	if q.PriceRange != nil {
		r := *q.PriceRange
		var branches bson.A
		for _, t := range []models.ListingType{
			models.ListingTypeProduct,
			models.ListingTypeHousing,
			models.ListingTypeOpportunity,
		} {
			field := amountFields[t]
			inRange := bson.M{field: bson.M{"$gte": r.Min, "$lte": r.Max}}
			if r.Contains(0) {
				branches = append(branches, bson.M{"type": t, "$or": bson.A{inRange, bson.M{field: nil}}})
			} else {
				branches = append(branches, bson.M{"type": t, field: inRange[field]})
			}
		}
		if r.Contains(0) {
			branches = append(branches, bson.M{"type": models.ListingTypeCommunity})
		}
		filter["$or"] = branches
	}
	return filter
}
