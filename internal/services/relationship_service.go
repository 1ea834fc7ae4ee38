// file: internal/services/relationship_service.go
package services

import (
	"context"
	"errors"

	"studyhub/internal/cache"
	"studyhub/internal/models"
	"studyhub/internal/repositories"
)

// relationshipService implements RelationshipService
type relationshipService struct {
	store       repositories.Store
	invalidator *cache.Invalidator
}

// NewRelationshipService creates a bookmark and follow service
func NewRelationshipService(store repositories.Store, invalidator *cache.Invalidator) RelationshipService {
	return &relationshipService{
		store:       store,
		invalidator: invalidator,
	}
}

// ===============================
// BOOKMARKS
// ===============================

// Bookmark saves a document for the user
func (s *relationshipService) Bookmark(ctx context.Context, documentID, userID int64) (*models.Bookmark, error) {
	if _, err := s.store.GetDocumentByID(ctx, documentID); err != nil {
		return nil, lookupError("document", documentID, err)
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}

	bookmark := &models.Bookmark{DocumentID: documentID, UserID: userID}
	if err := s.store.AddBookmark(ctx, bookmark); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, NewConflictError("document already bookmarked", "ALREADY_BOOKMARKED")
		case isStoreNotFound(err):
			return nil, EntityNotFoundError("document", documentID)
		}
		return nil, storeError("add bookmark", err)
	}
	return bookmark, nil
}

// RemoveBookmark deletes an existing bookmark
func (s *relationshipService) RemoveBookmark(ctx context.Context, documentID, userID int64) error {
	if err := s.store.RemoveBookmark(ctx, documentID, userID); err != nil {
		if isStoreNotFound(err) {
			return NewInvalidStateError("document is not bookmarked", "NOT_BOOKMARKED")
		}
		return storeError("remove bookmark", err)
	}
	return nil
}

// IsBookmarked reports whether the user has bookmarked the document
func (s *relationshipService) IsBookmarked(ctx context.Context, documentID, userID int64) (bool, error) {
	exists, err := s.store.BookmarkExists(ctx, documentID, userID)
	if err != nil {
		return false, storeError("check bookmark", err)
	}
	return exists, nil
}

// ListBookmarkedDocuments returns the user's bookmarked documents, most recently bookmarked first.
// Documents made private by their owner drop out of other users' lists.
func (s *relationshipService) ListBookmarkedDocuments(ctx context.Context, userID int64) ([]*models.DocumentWithUploader, error) {
	bookmarks, err := s.store.ListBookmarksByUser(ctx, userID)
	if err != nil {
		return nil, storeError("list bookmarks", err)
	}

	ids := make([]int64, len(bookmarks))
	for i, b := range bookmarks {
		ids[i] = b.DocumentID
	}
	return documentsInOrder(ctx, s.store, ids, &userID)
}

// ===============================
// FOLLOWS
// ===============================

// Follow creates a follow edge between two distinct users
func (s *relationshipService) Follow(ctx context.Context, followerID, followingID int64) (*models.Follow, error) {
	if followerID == followingID {
		return nil, NewValidationError("users cannot follow themselves", nil)
	}
	if _, err := s.store.GetUserByID(ctx, followerID); err != nil {
		return nil, lookupError("user", followerID, err)
	}
	if _, err := s.store.GetUserByID(ctx, followingID); err != nil {
		return nil, lookupError("user", followingID, err)
	}

	follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := s.store.AddFollow(ctx, follow); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, NewConflictError("already following user", "ALREADY_FOLLOWING")
		case isStoreNotFound(err):
			return nil, EntityNotFoundError("user", followingID)
		}
		return nil, storeError("add follow", err)
	}

	s.invalidator.Profiles(ctx, followerID, followingID)
	return follow, nil
}

// Unfollow removes an existing follow edge
func (s *relationshipService) Unfollow(ctx context.Context, followerID, followingID int64) error {
	if err := s.store.RemoveFollow(ctx, followerID, followingID); err != nil {
		if isStoreNotFound(err) {
			return NewInvalidStateError("not following user", "NOT_FOLLOWING")
		}
		return storeError("remove follow", err)
	}

	s.invalidator.Profiles(ctx, followerID, followingID)
	return nil
}

// IsFollowing reports whether follower follows following
func (s *relationshipService) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	exists, err := s.store.FollowExists(ctx, followerID, followingID)
	if err != nil {
		return false, storeError("check follow", err)
	}
	return exists, nil
}

// ListFollowers returns the users following userID, most recent first
func (s *relationshipService) ListFollowers(ctx context.Context, userID int64) ([]*models.UserSummary, error) {
	edges, err := s.store.ListFollowers(ctx, userID)
	if err != nil {
		return nil, storeError("list followers", err)
	}

	ids := make([]int64, len(edges))
	for i, f := range edges {
		ids[i] = f.FollowerID
	}
	return userSummaries(ctx, s.store, ids)
}

// ListFollowing returns the users userID follows, most recent first
func (s *relationshipService) ListFollowing(ctx context.Context, userID int64) ([]*models.UserSummary, error) {
	edges, err := s.store.ListFollowing(ctx, userID)
	if err != nil {
		return nil, storeError("list following", err)
	}

	ids := make([]int64, len(edges))
	for i, f := range edges {
		ids[i] = f.FollowingID
	}
	return userSummaries(ctx, s.store, ids)
}
