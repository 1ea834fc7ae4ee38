// internal/repositories/rating_repository.go
package repositories

import (
	"context"
	"fmt"

	"studyhub/internal/models"
)

const ratingColumns = `id, document_id, user_id, value, review, created_at`

// ===============================
// RATING OPERATIONS
// ===============================

// UpsertRating relies on the (document_id, user_id) unique constraint to keep one row per pair
func (s *PostgresStore) UpsertRating(ctx context.Context, rating *models.Rating) (bool, error) {
	query := `
		INSERT INTO ratings (document_id, user_id, value, review)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT ratings_document_user_key
		DO UPDATE SET value = EXCLUDED.value, review = EXCLUDED.review
		RETURNING id, created_at, (xmax = 0) AS inserted`

	var created bool
	err := s.db.QueryRowxContext(ctx, query,
		rating.DocumentID, rating.UserID, rating.Value, rating.Review,
	).Scan(&rating.ID, &rating.CreatedAt, &created)
	if err != nil {
		return false, translateError(err,
			fmt.Sprintf("rating for document %d by user %d", rating.DocumentID, rating.UserID))
	}
	return created, nil
}

func (s *PostgresStore) GetRating(ctx context.Context, documentID, userID int64) (*models.Rating, error) {
	var rating models.Rating
	err := s.db.GetContext(ctx, &rating,
		`SELECT `+ratingColumns+` FROM ratings WHERE document_id = $1 AND user_id = $2`,
		documentID, userID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("rating for document %d by user %d", documentID, userID))
	}
	return &rating, nil
}

func (s *PostgresStore) ListRatingsByDocument(ctx context.Context, documentID int64) ([]*models.Rating, error) {
	ratings := make([]*models.Rating, 0)
	err := s.db.SelectContext(ctx, &ratings,
		`SELECT `+ratingColumns+` FROM ratings WHERE document_id = $1 ORDER BY created_at DESC, id DESC`,
		documentID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("ratings of document %d", documentID))
	}
	return ratings, nil
}

func (s *PostgresStore) DeleteRating(ctx context.Context, documentID, userID int64) error {
	subject := fmt.Sprintf("rating for document %d by user %d", documentID, userID)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM ratings WHERE document_id = $1 AND user_id = $2`, documentID, userID)
	if err != nil {
		return translateError(err, subject)
	}
	return requireAffected(result, subject)
}
