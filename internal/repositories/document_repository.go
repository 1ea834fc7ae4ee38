// internal/repositories/document_repository.go
package repositories

import (
	"context"
	"fmt"

	"studyhub/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const documentColumns = `
	id, title, description, subject, tags, course, professor, semester,
	file_type, file_name, file_size, file_path, user_id,
	downloads, views, rating, rating_count, is_featured, is_public, created_at`

// ===============================
// DOCUMENT OPERATIONS
// ===============================

// CreateDocument inserts a document owned by doc.UserID with zeroed counters
// and bumps the owner's upload total in the same statement
func (s *PostgresStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.Tags == nil {
		doc.Tags = models.StringArray{}
	}

	query := `
		WITH inserted AS (
			INSERT INTO documents (
				title, description, subject, tags, course, professor, semester,
				file_type, file_name, file_size, file_path, user_id,
				is_featured, is_public
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id, downloads, views, rating, rating_count, created_at, user_id
		), uploader AS (
			UPDATE users SET total_uploads = total_uploads + 1
			WHERE id = (SELECT user_id FROM inserted)
		)
		SELECT id, downloads, views, rating, rating_count, created_at FROM inserted`

	err := s.db.QueryRowxContext(
		ctx, query,
		doc.Title, doc.Description, doc.Subject, doc.Tags, doc.Course, doc.Professor, doc.Semester,
		doc.FileType, doc.FileName, doc.FileSize, doc.FilePath, doc.UserID,
		doc.IsFeatured, doc.IsPublic,
	).Scan(&doc.ID, &doc.Downloads, &doc.Views, &doc.Rating, &doc.RatingCount, &doc.CreatedAt)

	return translateError(err, fmt.Sprintf("document %q", doc.Title))
}

func (s *PostgresStore) GetDocumentByID(ctx context.Context, id int64) (*models.Document, error) {
	var doc models.Document
	err := s.db.GetContext(ctx, &doc, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("document %d", id))
	}
	return &doc, nil
}

func (s *PostgresStore) GetDocumentsByIDs(ctx context.Context, ids []int64) (map[int64]*models.Document, error) {
	result := make(map[int64]*models.Document, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var docs []*models.Document
	err := s.db.SelectContext(ctx, &docs, `SELECT `+documentColumns+` FROM documents WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, translateError(err, "documents by ids")
	}

	for _, doc := range docs {
		result[doc.ID] = doc
	}
	return result, nil
}

// UpdateDocument rewrites the editable metadata; counters and file fields are left alone
func (s *PostgresStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	if doc.Tags == nil {
		doc.Tags = models.StringArray{}
	}

	query := `
		UPDATE documents SET
			title = $2, description = $3, subject = $4, tags = $5,
			course = $6, professor = $7, semester = $8,
			is_public = $9, is_featured = $10
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		doc.ID, doc.Title, doc.Description, doc.Subject, doc.Tags,
		doc.Course, doc.Professor, doc.Semester,
		doc.IsPublic, doc.IsFeatured,
	)
	if err != nil {
		return translateError(err, fmt.Sprintf("document %d", doc.ID))
	}
	return requireAffected(result, fmt.Sprintf("document %d", doc.ID))
}

// ListDocuments applies the filter and orders newest first
func (s *PostgresStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]*models.Document, error) {
	var where whereBuilder

	if filter.PublicOnly {
		where.add("is_public = TRUE")
	}
	if filter.UserID != nil {
		where.add("user_id = ?", *filter.UserID)
	}
	if filter.Subject != "" {
		where.add("subject = ?", filter.Subject)
	}
	if filter.Featured {
		where.add("(rating >= ? OR downloads > ?)", FeaturedMinRating, FeaturedMinDownloads)
	}
	if filter.Query != "" {
		pattern := "%" + escapeLike(filter.Query) + "%"
		where.add("(title ILIKE ? OR COALESCE(description, '') ILIKE ? OR subject ILIKE ?)",
			pattern, pattern, pattern)
	}

	query := `SELECT ` + documentColumns + ` FROM documents` + where.clause() +
		` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += " LIMIT " + where.next(filter.Limit)
	}

	docs := make([]*models.Document, 0)
	if err := s.db.SelectContext(ctx, &docs, query, where.args...); err != nil {
		return nil, translateError(err, "documents")
	}
	return docs, nil
}

func (s *PostgresStore) CountDocumentsByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM documents WHERE user_id = $1`, userID)
	if err != nil {
		return 0, translateError(err, fmt.Sprintf("documents of user %d", userID))
	}
	return count, nil
}

// ===============================
// COUNTERS
// ===============================

// IncrementDownloads adds one to the document and to its owner's download total
// in a single statement so concurrent callers never lose updates
func (s *PostgresStore) IncrementDownloads(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		WITH bumped AS (
			UPDATE documents SET downloads = downloads + 1 WHERE id = $1 RETURNING user_id
		)
		UPDATE users SET total_downloads = total_downloads + 1
		WHERE id IN (SELECT user_id FROM bumped)`, id)
	if err != nil {
		return translateError(err, fmt.Sprintf("document %d", id))
	}
	return requireAffected(result, fmt.Sprintf("document %d", id))
}

// IncrementViews adds one in a single statement so concurrent callers never lose updates
func (s *PostgresStore) IncrementViews(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE documents SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return translateError(err, fmt.Sprintf("document %d", id))
	}
	return requireAffected(result, fmt.Sprintf("document %d", id))
}

// UpdateDocumentRating stores a precomputed aggregate
func (s *PostgresStore) UpdateDocumentRating(ctx context.Context, id int64, rating float64, count int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET rating = $2, rating_count = $3 WHERE id = $1`, id, rating, count)
	if err != nil {
		return translateError(err, fmt.Sprintf("document %d", id))
	}
	return requireAffected(result, fmt.Sprintf("document %d", id))
}

// RecomputeDocumentRating locks the document row so concurrent recomputes
// cannot store an aggregate older than the one already written
func (s *PostgresStore) RecomputeDocumentRating(ctx context.Context, id int64, aggregate RatingAggregate) error {
	subject := fmt.Sprintf("document %d", id)

	return s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var locked int64
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM documents WHERE id = $1 FOR NO KEY UPDATE`, id); err != nil {
			return translateError(err, subject)
		}

		ratings := make([]*models.Rating, 0)
		if err := tx.SelectContext(ctx, &ratings,
			`SELECT `+ratingColumns+` FROM ratings WHERE document_id = $1`, id); err != nil {
			return translateError(err, fmt.Sprintf("ratings of %s", subject))
		}

		rating, count := aggregate(ratings)
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET rating = $2, rating_count = $3 WHERE id = $1`, id, rating, count); err != nil {
			return translateError(err, subject)
		}
		return nil
	})
}

func (s *PostgresStore) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM documents) AS total_documents,
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COALESCE(SUM(downloads), 0)::BIGINT FROM documents) AS total_downloads,
			(SELECT COALESCE(SUM(views), 0)::BIGINT FROM documents) AS total_views`

	var stats models.PlatformStats
	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		return nil, translateError(err, "platform stats")
	}
	return &stats, nil
}
