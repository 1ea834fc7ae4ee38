// file: internal/repositories/interfaces.go
package repositories

import (
	"context"
	"errors"

	"studyhub/internal/models"
)

// ===============================
// STORE ERRORS
// ===============================

var (
	// ErrNotFound is returned when a row, or a row it references, does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique key (username, email or a relationship pair) already exists
	ErrDuplicate = errors.New("duplicate record")
)

// ===============================
// LISTING CONSTANTS
// ===============================

const (
	// FeaturedMinRating selects documents rated at least this high
	FeaturedMinRating = 4.5

	// FeaturedMinDownloads selects documents downloaded more than this many times
	FeaturedMinDownloads = 100

	// FeaturedLimit caps the featured listing
	FeaturedLimit = 6

	// RecentLimit caps the recent listing
	RecentLimit = 10
)

// DocumentFilter narrows a document listing. Zero values mean "no constraint".
// Results are always ordered newest first.
type DocumentFilter struct {
	UserID     *int64
	Subject    string
	Query      string // case-insensitive substring over title, description and subject
	PublicOnly bool
	Featured   bool
	Limit      int
}

// ===============================
// STORE INTERFACES
// ===============================

// Store is the storage boundary shared by the in-memory and PostgreSQL implementations.
// It performs I/O only; aggregation, thread assembly and the omission policy live in services.
type Store interface {
	UserStore
	DocumentStore
	RatingStore
	CommentStore
	BookmarkStore
	FollowStore
	CollectionStore

	Ping(ctx context.Context) error
}

// UserStore defines user persistence
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
	UpdateUserProfile(ctx context.Context, user *models.User) error
}

// DocumentStore defines document persistence and counter mutation
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id int64) (*models.Document, error)
	GetDocumentsByIDs(ctx context.Context, ids []int64) (map[int64]*models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*models.Document, error)
	CountDocumentsByUser(ctx context.Context, userID int64) (int, error)

	IncrementDownloads(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
	UpdateDocumentRating(ctx context.Context, id int64, rating float64, count int) error
	// RecomputeDocumentRating reads the document's current ratings, reduces them
	// with aggregate and stores the result. Recomputes of one document are serialized.
	RecomputeDocumentRating(ctx context.Context, id int64, aggregate RatingAggregate) error

	GetPlatformStats(ctx context.Context) (*models.PlatformStats, error)
}

// RatingAggregate reduces a document's ratings to the stored mean and count
type RatingAggregate func(ratings []*models.Rating) (rating float64, count int)

// RatingStore defines rating persistence. At most one rating exists per (document, user).
type RatingStore interface {
	// UpsertRating inserts the rating or updates value/review of the existing pair.
	// On return rating carries the stored ID and CreatedAt.
	UpsertRating(ctx context.Context, rating *models.Rating) (created bool, err error)
	GetRating(ctx context.Context, documentID, userID int64) (*models.Rating, error)
	ListRatingsByDocument(ctx context.Context, documentID int64) ([]*models.Rating, error)
	DeleteRating(ctx context.Context, documentID, userID int64) error
}

// CommentStore defines comment persistence
type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id int64) (*models.Comment, error)
	UpdateCommentContent(ctx context.Context, id int64, content string) error

	// ListRootComments and ListReplies return comments oldest first
	ListRootComments(ctx context.Context, documentID int64) ([]*models.Comment, error)
	ListReplies(ctx context.Context, documentID int64) ([]*models.Comment, error)

	// DeleteCommentWithReplies removes the comment and every comment beneath it
	DeleteCommentWithReplies(ctx context.Context, id int64) (int, error)
}

// BookmarkStore defines the user-document bookmark relation
type BookmarkStore interface {
	AddBookmark(ctx context.Context, bookmark *models.Bookmark) error
	RemoveBookmark(ctx context.Context, documentID, userID int64) error
	BookmarkExists(ctx context.Context, documentID, userID int64) (bool, error)
	ListBookmarksByUser(ctx context.Context, userID int64) ([]*models.Bookmark, error)
}

// FollowStore defines the directed user-user follow relation
type FollowStore interface {
	AddFollow(ctx context.Context, follow *models.Follow) error
	RemoveFollow(ctx context.Context, followerID, followingID int64) error
	FollowExists(ctx context.Context, followerID, followingID int64) (bool, error)
	ListFollowers(ctx context.Context, userID int64) ([]*models.Follow, error)
	ListFollowing(ctx context.Context, userID int64) ([]*models.Follow, error)
	CountFollowers(ctx context.Context, userID int64) (int, error)
	CountFollowing(ctx context.Context, userID int64) (int, error)
}

// CollectionStore defines collections and their membership join
type CollectionStore interface {
	CreateCollection(ctx context.Context, collection *models.Collection) error
	GetCollectionByID(ctx context.Context, id int64) (*models.Collection, error)
	UpdateCollection(ctx context.Context, collection *models.Collection) error
	DeleteCollection(ctx context.Context, id int64) error
	ListCollectionsByUser(ctx context.Context, userID int64) ([]*models.Collection, error)

	AddCollectionItem(ctx context.Context, item *models.CollectionItem) error
	RemoveCollectionItem(ctx context.Context, collectionID, documentID int64) error
	ListCollectionItems(ctx context.Context, collectionID int64) ([]*models.CollectionItem, error)
	CountCollectionItems(ctx context.Context, collectionIDs []int64) (map[int64]int, error)
	CollectionsContaining(ctx context.Context, documentID int64, collectionIDs []int64) (map[int64]bool, error)
}
