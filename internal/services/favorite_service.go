package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campusconnect/connect/internal/db"
	"campusconnect/connect/internal/models"
)

// IFavoriteService manages the per-user favorite set.
type IFavoriteService interface {
	Toggle(ctx context.Context, userID, listingID string) (bool, error)
	IsFavorited(ctx context.Context, userID, listingID string) (bool, error)
	FavoritedSet(ctx context.Context, userID string) (map[string]bool, error)
	ListFavoriteIDs(ctx context.Context, userID string) ([]string, error)
}

type favoriteService struct {
	db *mongo.Database
}

func NewFavoriteService(db *mongo.Database) IFavoriteService {
	return &favoriteService{db: db}
}

// Toggle removes the favorite if it exists and adds it otherwise. It returns
// the resulting state. A concurrent insert of the same pair is reported as
// favorited.
func (s *favoriteService) Toggle(ctx context.Context, userID, listingID string) (bool, error) {
	count, err := s.db.Collection(db.ListingsCollection).CountDocuments(ctx,
		bson.M{"_id": listingID, "deleted": false}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up listing %s: %w", listingID, err)
	}
	if count == 0 {
		return false, fmt.Errorf("%w: %s", ErrListingNotFound, listingID)
	}

	collection := s.db.Collection(db.FavoritesCollection)
	key := bson.M{"user_id": userID, "listing_id": listingID}

	res, err := collection.DeleteOne(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = collection.InsertOne(ctx, models.Favorite{
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return true, nil
}

func (s *favoriteService) IsFavorited(ctx context.Context, userID, listingID string) (bool, error) {
	err := s.db.Collection(db.FavoritesCollection).FindOne(ctx,
		bson.M{"user_id": userID, "listing_id": listingID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up favorite: %w", err)
	}
	return true, nil
}

func (s *favoriteService) FavoritedSet(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := s.ListFavoriteIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ListFavoriteIDs returns the user's favorited listing ids, newest first.
func (s *favoriteService) ListFavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"listing_id": 1})
	cursor, err := s.db.Collection(db.FavoritesCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer cursor.Close(ctx)

	var favorites []models.Favorite
	if err := cursor.All(ctx, &favorites); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}
	ids := make([]string, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.ListingID)
	}
	return ids, nil
}
