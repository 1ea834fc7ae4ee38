package services

import (
	"context"

	"studyhub/internal/models"
)

// ===============================
// USER SERVICE
// ===============================

// UserService manages member accounts and profiles
type UserService interface {
	Create(ctx context.Context, req *CreateUserRequest) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
	UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*models.User, error)
	GetProfile(ctx context.Context, id int64) (*models.UserProfile, error)
}

// ===============================
// DOCUMENT SERVICE
// ===============================

// DocumentService serves document listings, details and counters
type DocumentService interface {
	// Reads
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	GetWithUploader(ctx context.Context, id int64) (*models.DocumentWithUploader, error)
	GetWithDetails(ctx context.Context, id int64, viewerID *int64) (*models.DocumentDetails, error)
	ListAll(ctx context.Context) ([]*models.DocumentWithUploader, error)
	ListBySubject(ctx context.Context, subject string) ([]*models.DocumentWithUploader, error)
	ListByUser(ctx context.Context, userID int64, viewerID *int64) ([]*models.DocumentWithUploader, error)
	Search(ctx context.Context, query string) ([]*models.DocumentWithUploader, error)
	ListFeatured(ctx context.Context) ([]*models.DocumentWithUploader, error)
	ListRecent(ctx context.Context) ([]*models.DocumentWithUploader, error)
	Stats(ctx context.Context) (*models.PlatformStats, error)

	// Writes
	Create(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error)
	Update(ctx context.Context, req *UpdateDocumentRequest) (*models.Document, error)
	IncrementDownloads(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
}

// ===============================
// ENGAGEMENT SERVICES
// ===============================

// RatingService records ratings and keeps document aggregates in step
type RatingService interface {
	Submit(ctx context.Context, req *SubmitRatingRequest) (*models.Rating, error)
	GetForUserAndDocument(ctx context.Context, documentID, userID int64) (*models.Rating, error)
	ListForDocument(ctx context.Context, documentID int64) ([]*models.RatingWithUser, error)
	Delete(ctx context.Context, documentID, userID int64) error
}

// CommentService posts comments and assembles them into threads
type CommentService interface {
	Create(ctx context.Context, req *CreateCommentRequest) (*models.CommentWithAuthor, error)
	ListThreads(ctx context.Context, documentID int64) ([]*models.CommentThread, error)
	Update(ctx context.Context, id, userID int64, content string) (*models.Comment, error)
	Delete(ctx context.Context, id, userID int64) error
}

// RelationshipService manages bookmarks and follows
type RelationshipService interface {
	Bookmark(ctx context.Context, documentID, userID int64) (*models.Bookmark, error)
	RemoveBookmark(ctx context.Context, documentID, userID int64) error
	IsBookmarked(ctx context.Context, documentID, userID int64) (bool, error)
	ListBookmarkedDocuments(ctx context.Context, userID int64) ([]*models.DocumentWithUploader, error)

	Follow(ctx context.Context, followerID, followingID int64) (*models.Follow, error)
	Unfollow(ctx context.Context, followerID, followingID int64) error
	IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error)
	ListFollowers(ctx context.Context, userID int64) ([]*models.UserSummary, error)
	ListFollowing(ctx context.Context, userID int64) ([]*models.UserSummary, error)
}

// CollectionService manages user-curated document groupings
type CollectionService interface {
	Create(ctx context.Context, req *CreateCollectionRequest) (*models.Collection, error)
	Update(ctx context.Context, req *UpdateCollectionRequest) (*models.Collection, error)
	Delete(ctx context.Context, id, userID int64) error
	ListForUser(ctx context.Context, userID int64, documentID *int64) ([]*models.CollectionSummary, error)
	GetWithDocuments(ctx context.Context, id int64, viewerID *int64) (*models.CollectionWithDocuments, error)
	AddDocument(ctx context.Context, collectionID, documentID, userID int64) error
	RemoveDocument(ctx context.Context, collectionID, documentID, userID int64) error
}
