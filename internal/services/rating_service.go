// file: internal/services/rating_service.go
package services

import (
	"context"
	"errors"

	"studyhub/internal/cache"
	"studyhub/internal/models"
	"studyhub/internal/repositories"
	"studyhub/internal/validation"
)

// ratingService implements RatingService
type ratingService struct {
	store       repositories.Store
	invalidator *cache.Invalidator
}

// NewRatingService creates a rating service
func NewRatingService(store repositories.Store, invalidator *cache.Invalidator) RatingService {
	return &ratingService{
		store:       store,
		invalidator: invalidator,
	}
}

// ===============================
// RATING OPERATIONS
// ===============================

// Submit stores the user's rating, replacing any earlier one, and
// refreshes the document's aggregate before returning
func (s *ratingService) Submit(ctx context.Context, req *SubmitRatingRequest) (*models.Rating, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid rating request", err)
	}

	if _, err := s.store.GetDocumentByID(ctx, req.DocumentID); err != nil {
		return nil, lookupError("document", req.DocumentID, err)
	}
	if _, err := s.store.GetUserByID(ctx, req.UserID); err != nil {
		return nil, lookupError("user", req.UserID, err)
	}

	rating := &models.Rating{
		DocumentID: req.DocumentID,
		UserID:     req.UserID,
		Value:      req.Value,
		Review:     req.Review,
	}
	if _, err := s.store.UpsertRating(ctx, rating); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, EntityNotFoundError("document", req.DocumentID)
		}
		return nil, storeError("save rating", err)
	}

	if err := refreshAggregate(ctx, s.store, req.DocumentID); err != nil {
		return nil, err
	}

	s.invalidator.Documents(ctx)
	return rating, nil
}

// GetForUserAndDocument returns the user's rating of the document
func (s *ratingService) GetForUserAndDocument(ctx context.Context, documentID, userID int64) (*models.Rating, error) {
	rating, err := s.store.GetRating(ctx, documentID, userID)
	if err != nil {
		if isStoreNotFound(err) {
			return nil, NewNotFoundError("rating not found").
				WithDetail("document_id", documentID).
				WithDetail("user_id", userID)
		}
		return nil, storeError("load rating", err)
	}
	return rating, nil
}

// ListForDocument returns the document's ratings with their authors, newest first
func (s *ratingService) ListForDocument(ctx context.Context, documentID int64) ([]*models.RatingWithUser, error) {
	ratings, err := s.store.ListRatingsByDocument(ctx, documentID)
	if err != nil {
		return nil, storeError("list ratings", err)
	}
	return withRaters(ctx, s.store, ratings)
}

// Delete removes the user's rating and refreshes the aggregate
func (s *ratingService) Delete(ctx context.Context, documentID, userID int64) error {
	if err := s.store.DeleteRating(ctx, documentID, userID); err != nil {
		if isStoreNotFound(err) {
			return NewInvalidStateError("rating does not exist", "MISSING_TARGET").
				WithDetail("document_id", documentID).
				WithDetail("user_id", userID)
		}
		return storeError("delete rating", err)
	}

	if err := refreshAggregate(ctx, s.store, documentID); err != nil {
		return err
	}

	s.invalidator.Documents(ctx)
	return nil
}

// ===============================
// AGGREGATION
// ===============================

// computeAggregate returns the two-decimal mean and count of the ratings.
// No ratings yields (0, 0).
func computeAggregate(ratings []*models.Rating) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}

	sum := 0
	for _, r := range ratings {
		sum += r.Value
	}
	return models.RoundRating(float64(sum) / float64(len(ratings))), len(ratings)
}

// refreshAggregate recomputes a document's rating from every stored rating.
// The store serializes recomputes per document, so the last write always
// reflects every rating committed before it. A missing document is left alone.
func refreshAggregate(ctx context.Context, store repositories.Store, documentID int64) error {
	err := store.RecomputeDocumentRating(ctx, documentID, computeAggregate)
	if err != nil && !isStoreNotFound(err) {
		return storeError("update document rating", err)
	}
	return nil
}
