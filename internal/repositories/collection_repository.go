// internal/repositories/collection_repository.go
package repositories

import (
	"context"
	"fmt"

	"studyhub/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const collectionColumns = `id, user_id, name, description, is_public, created_at`

// ===============================
// COLLECTION OPERATIONS
// ===============================

func (s *PostgresStore) CreateCollection(ctx context.Context, collection *models.Collection) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO collections (user_id, name, description, is_public)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		collection.UserID, collection.Name, collection.Description, collection.IsPublic,
	).Scan(&collection.ID, &collection.CreatedAt)

	return translateError(err, fmt.Sprintf("collection %q", collection.Name))
}

func (s *PostgresStore) GetCollectionByID(ctx context.Context, id int64) (*models.Collection, error) {
	var collection models.Collection
	err := s.db.GetContext(ctx, &collection, `SELECT `+collectionColumns+` FROM collections WHERE id = $1`, id)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("collection %d", id))
	}
	return &collection, nil
}

func (s *PostgresStore) UpdateCollection(ctx context.Context, collection *models.Collection) error {
	subject := fmt.Sprintf("collection %d", collection.ID)
	result, err := s.db.ExecContext(ctx,
		`UPDATE collections SET name = $2, description = $3, is_public = $4 WHERE id = $1`,
		collection.ID, collection.Name, collection.Description, collection.IsPublic)
	if err != nil {
		return translateError(err, subject)
	}
	return requireAffected(result, subject)
}

// DeleteCollection removes the collection and its membership rows together
func (s *PostgresStore) DeleteCollection(ctx context.Context, id int64) error {
	subject := fmt.Sprintf("collection %d", id)

	return s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM collection_items WHERE collection_id = $1`, id); err != nil {
			return translateError(err, subject)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
		if err != nil {
			return translateError(err, subject)
		}
		return requireAffected(result, subject)
	})
}

func (s *PostgresStore) ListCollectionsByUser(ctx context.Context, userID int64) ([]*models.Collection, error) {
	collections := make([]*models.Collection, 0)
	err := s.db.SelectContext(ctx, &collections,
		`SELECT `+collectionColumns+` FROM collections WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("collections of user %d", userID))
	}
	return collections, nil
}

// ===============================
// MEMBERSHIP
// ===============================

func (s *PostgresStore) AddCollectionItem(ctx context.Context, item *models.CollectionItem) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO collection_items (collection_id, document_id) VALUES ($1, $2)
		RETURNING added_at`,
		item.CollectionID, item.DocumentID,
	).Scan(&item.AddedAt)

	return translateError(err,
		fmt.Sprintf("document %d in collection %d", item.DocumentID, item.CollectionID))
}

func (s *PostgresStore) RemoveCollectionItem(ctx context.Context, collectionID, documentID int64) error {
	subject := fmt.Sprintf("document %d in collection %d", documentID, collectionID)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM collection_items WHERE collection_id = $1 AND document_id = $2`,
		collectionID, documentID)
	if err != nil {
		return translateError(err, subject)
	}
	return requireAffected(result, subject)
}

func (s *PostgresStore) ListCollectionItems(ctx context.Context, collectionID int64) ([]*models.CollectionItem, error) {
	items := make([]*models.CollectionItem, 0)
	err := s.db.SelectContext(ctx, &items, `
		SELECT collection_id, document_id, added_at FROM collection_items
		WHERE collection_id = $1
		ORDER BY added_at DESC, document_id DESC`, collectionID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("items of collection %d", collectionID))
	}
	return items, nil
}

// CountCollectionItems counts members for a batch of collections with one grouped query
func (s *PostgresStore) CountCollectionItems(ctx context.Context, collectionIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(collectionIDs))
	if len(collectionIDs) == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(`
		SELECT collection_id, COUNT(*) AS item_count FROM collection_items
		WHERE collection_id IN (?)
		GROUP BY collection_id`, collectionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build collection count query: %w", err)
	}

	var rows []struct {
		CollectionID int64 `db:"collection_id"`
		ItemCount    int   `db:"item_count"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, translateError(err, "collection item counts")
	}

	for _, row := range rows {
		counts[row.CollectionID] = row.ItemCount
	}
	return counts, nil
}

// CollectionsContaining reports which of the given collections hold the document
func (s *PostgresStore) CollectionsContaining(ctx context.Context, documentID int64, collectionIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(collectionIDs))
	if len(collectionIDs) == 0 {
		return result, nil
	}

	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT collection_id FROM collection_items
		WHERE document_id = $1 AND collection_id = ANY($2)`,
		documentID, pq.Array(collectionIDs))
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("collections containing document %d", documentID))
	}

	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
