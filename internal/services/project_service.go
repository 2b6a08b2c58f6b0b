package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campusconnect/connect/internal/db"
)

// IProjectService answers ownership questions about projects.
type IProjectService interface {
	IsOwner(ctx context.Context, projectID, userID string) (bool, error)
}

type projectService struct {
	db *mongo.Database
}

func NewProjectService(db *mongo.Database) IProjectService {
	return &projectService{db: db}
}

// IsOwner reports whether userID owns projectID. Unknown projects are not
// owned by anyone.
func (s *projectService) IsOwner(ctx context.Context, projectID, userID string) (bool, error) {
	count, err := s.db.Collection(db.ProjectsCollection).CountDocuments(ctx,
		bson.M{"_id": projectID, "user_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check owner of project %s: %w", projectID, err)
	}
	return count > 0, nil
}
