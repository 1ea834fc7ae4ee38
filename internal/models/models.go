// file: internal/models/models.go
package models

import (
	"database/sql/driver"
	"fmt"
	"math"
	"time"

	"github.com/lib/pq"
)

// ===============================
// CORE ENTITIES
// ===============================

// User represents a registered member of the platform
type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`

	// Profile information
	AvatarURL  *string `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio        *string `json:"bio,omitempty" db:"bio"`
	University *string `json:"university,omitempty" db:"university"`
	Major      *string `json:"major,omitempty" db:"major"`
	Year       *int    `json:"year,omitempty" db:"year"`

	// Reputation and activity counters
	Reputation     int   `json:"reputation" db:"reputation"`
	TotalUploads   int64 `json:"total_uploads" db:"total_uploads"`
	TotalDownloads int64 `json:"total_downloads" db:"total_downloads"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserSummary is the public subset of a user embedded in listings
type UserSummary struct {
	ID         int64   `json:"id"`
	Username   string  `json:"username"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
	University *string `json:"university,omitempty"`
	Reputation int     `json:"reputation"`
}

// Summary returns the public subset of the user
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		AvatarURL:  u.AvatarURL,
		University: u.University,
		Reputation: u.Reputation,
	}
}

// FileType enumerates the kinds of uploaded content
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
	FileTypeText  FileType = "text"
)

// Valid reports whether the file type is one of the known kinds
func (f FileType) Valid() bool {
	switch f {
	case FileTypePDF, FileTypeImage, FileTypeText:
		return true
	}
	return false
}

// Document represents an uploaded study document
type Document struct {
	ID          int64       `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description *string     `json:"description,omitempty" db:"description"`
	Subject     string      `json:"subject" db:"subject"`
	Tags        StringArray `json:"tags" db:"tags"`
	Course      *string     `json:"course,omitempty" db:"course"`
	Professor   *string     `json:"professor,omitempty" db:"professor"`
	Semester    *string     `json:"semester,omitempty" db:"semester"`

	// File metadata (binary content lives with the upload collaborator)
	FileType FileType `json:"file_type" db:"file_type"`
	FileName string   `json:"file_name" db:"file_name"`
	FileSize int64    `json:"file_size" db:"file_size"`
	FilePath string   `json:"file_path" db:"file_path"`

	UserID int64 `json:"user_id" db:"user_id"`

	// Engagement tracking
	Downloads   int64   `json:"downloads" db:"downloads"`
	Views       int64   `json:"views" db:"views"`
	Rating      float64 `json:"rating" db:"rating"`
	RatingCount int     `json:"rating_count" db:"rating_count"`

	IsFeatured bool `json:"is_featured" db:"is_featured"`
	IsPublic   bool `json:"is_public" db:"is_public"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RatingString formats the aggregate rating with two decimals
func (d *Document) RatingString() string {
	return fmt.Sprintf("%.2f", d.Rating)
}

// IsOwnedBy reports whether the document belongs to the user
func (d *Document) IsOwnedBy(userID int64) bool {
	return d.UserID == userID
}

// Rating is one user's score for a document
type Rating struct {
	ID         int64     `json:"id" db:"id"`
	DocumentID int64     `json:"document_id" db:"document_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Value      int       `json:"value" db:"value"`
	Review     *string   `json:"review,omitempty" db:"review"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Comment is a root comment or a reply on a document
type Comment struct {
	ID         int64     `json:"id" db:"id"`
	DocumentID int64     `json:"document_id" db:"document_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Content    string    `json:"content" db:"content"`
	ParentID   *int64    `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// IsReply reports whether the comment has a parent
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// IsOwnedBy reports whether the comment was written by the user
func (c *Comment) IsOwnedBy(userID int64) bool {
	return c.UserID == userID
}

// Bookmark links a user to a saved document
type Bookmark struct {
	ID         int64     `json:"id" db:"id"`
	DocumentID int64     `json:"document_id" db:"document_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Follow is a directed edge from follower to followed user
type Follow struct {
	ID          int64     `json:"id" db:"id"`
	FollowerID  int64     `json:"follower_id" db:"follower_id"`
	FollowingID int64     `json:"following_id" db:"following_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Collection is a named grouping of documents owned by a user
type Collection struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// IsOwnedBy reports whether the collection belongs to the user
func (c *Collection) IsOwnedBy(userID int64) bool {
	return c.UserID == userID
}

// CollectionItem is a document's membership in a collection
type CollectionItem struct {
	CollectionID int64     `json:"collection_id" db:"collection_id"`
	DocumentID   int64     `json:"document_id" db:"document_id"`
	AddedAt      time.Time `json:"added_at" db:"added_at"`
}

// ===============================
// COMPOSITE VIEWS
// ===============================

// DocumentWithUploader is a document joined to its owner
type DocumentWithUploader struct {
	*Document
	Uploader *UserSummary `json:"uploader"`
}

// DocumentDetails is the full document page view
type DocumentDetails struct {
	*DocumentWithUploader
	Ratings      []*RatingWithUser `json:"ratings"`
	Comments     []*CommentThread  `json:"comments"`
	CommentCount int               `json:"comment_count"`

	// Viewer-specific fields, zero when no viewer is given
	UserRating          *Rating `json:"user_rating,omitempty"`
	IsBookmarked        bool    `json:"is_bookmarked"`
	IsFollowingUploader bool    `json:"is_following_uploader"`
	IsOwner             bool    `json:"is_owner"`
}

// RatingWithUser is a rating joined to its author
type RatingWithUser struct {
	*Rating
	User *UserSummary `json:"user"`
}

// CommentWithAuthor is a comment joined to its author
type CommentWithAuthor struct {
	*Comment
	Author *UserSummary `json:"author"`
}

// CommentThread is a root comment with its replies in creation order
type CommentThread struct {
	*CommentWithAuthor
	Replies []*CommentWithAuthor `json:"replies"`
}

// UserProfile is a user with relationship and upload counts
type UserProfile struct {
	*User
	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`
	DocumentCount  int `json:"document_count"`
}

// CollectionSummary is a collection with its size and an optional membership flag
type CollectionSummary struct {
	*Collection
	DocumentCount    int  `json:"document_count"`
	ContainsDocument bool `json:"contains_document"`
}

// CollectionWithDocuments is a collection with its member documents
type CollectionWithDocuments struct {
	*Collection
	Owner     *UserSummary            `json:"owner"`
	Documents []*DocumentWithUploader `json:"documents"`
}

// PlatformStats summarizes the corpus
type PlatformStats struct {
	TotalDocuments int64 `json:"total_documents" db:"total_documents"`
	TotalUsers     int64 `json:"total_users" db:"total_users"`
	TotalDownloads int64 `json:"total_downloads" db:"total_downloads"`
	TotalViews     int64 `json:"total_views" db:"total_views"`
}

// ===============================
// AGGREGATION HELPERS
// ===============================

// RoundRating rounds a mean rating to two decimal places
func RoundRating(mean float64) float64 {
	return math.Round(mean*100) / 100
}

// ===============================
// CUSTOM TYPES
// ===============================

// StringArray handles PostgreSQL text[] columns
type StringArray []string

// Scan implements sql.Scanner
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into StringArray: %w", value, err)
	}
	*s = StringArray(arr)
	return nil
}

// Value implements driver.Valuer
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	return pq.StringArray(s).Value()
}

// Clone returns an independent copy of the array
func (s StringArray) Clone() StringArray {
	if s == nil {
		return nil
	}
	out := make(StringArray, len(s))
	copy(out, s)
	return out
}
