package models

import "time"

// Project is the minimal view of a project document needed to authorise
// uploads into its media folder.
type Project struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Title     string    `bson:"title" json:"title"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
