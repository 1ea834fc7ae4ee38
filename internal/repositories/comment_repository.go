// internal/repositories/comment_repository.go
package repositories

import (
	"context"
	"fmt"

	"studyhub/internal/models"

	"github.com/jmoiron/sqlx"
)

const commentColumns = `id, document_id, user_id, content, parent_id, created_at`

// ===============================
// COMMENT OPERATIONS
// ===============================

func (s *PostgresStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (document_id, user_id, content, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		comment.DocumentID, comment.UserID, comment.Content, comment.ParentID,
	).Scan(&comment.ID, &comment.CreatedAt)

	return translateError(err, fmt.Sprintf("comment on document %d", comment.DocumentID))
}

func (s *PostgresStore) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.GetContext(ctx, &comment, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("comment %d", id))
	}
	return &comment, nil
}

func (s *PostgresStore) UpdateCommentContent(ctx context.Context, id int64, content string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE comments SET content = $2 WHERE id = $1`, id, content)
	if err != nil {
		return translateError(err, fmt.Sprintf("comment %d", id))
	}
	return requireAffected(result, fmt.Sprintf("comment %d", id))
}

// ListRootComments returns the top-level comments of a document, oldest first
func (s *PostgresStore) ListRootComments(ctx context.Context, documentID int64) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	err := s.db.SelectContext(ctx, &comments,
		`SELECT `+commentColumns+` FROM comments
		 WHERE document_id = $1 AND parent_id IS NULL
		 ORDER BY created_at ASC, id ASC`, documentID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("comments of document %d", documentID))
	}
	return comments, nil
}

// ListReplies returns every reply on a document in one query, oldest first
func (s *PostgresStore) ListReplies(ctx context.Context, documentID int64) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	err := s.db.SelectContext(ctx, &comments,
		`SELECT `+commentColumns+` FROM comments
		 WHERE document_id = $1 AND parent_id IS NOT NULL
		 ORDER BY created_at ASC, id ASC`, documentID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("replies of document %d", documentID))
	}
	return comments, nil
}

// DeleteCommentWithReplies removes a comment and its descendants in one transaction
func (s *PostgresStore) DeleteCommentWithReplies(ctx context.Context, id int64) (int, error) {
	subject := fmt.Sprintf("comment %d", id)
	var deleted int64

	err := s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var locked int64
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM comments WHERE id = $1 FOR UPDATE`, id); err != nil {
			return translateError(err, subject)
		}

		result, err := tx.ExecContext(ctx, `
			WITH RECURSIVE thread AS (
				SELECT id FROM comments WHERE id = $1
				UNION ALL
				SELECT c.id FROM comments c INNER JOIN thread t ON c.parent_id = t.id
			)
			DELETE FROM comments WHERE id IN (SELECT id FROM thread)`, id)
		if err != nil {
			return translateError(err, subject)
		}

		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}
