package models

import "time"

// Favorite links a user to a listing they saved.
type Favorite struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	ListingID string    `bson:"listing_id" json:"listing_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// FavoriteToggleResult mirrors the favorite toggle response body.
type FavoriteToggleResult struct {
	Success     bool    `json:"success"`
	IsFavorited bool    `json:"isFavorited"`
	Error       *string `json:"error"`
}
