package services

import (
	"context"

	"studyhub/internal/models"
	"studyhub/internal/repositories"
)

// ===============================
// RELATIONSHIP RESOLVER
// ===============================

// Rows whose owning user (or referenced document) cannot be resolved are
// omitted from every composed view rather than returned half-populated.

// uniqueIDs collects distinct ids in first-seen order
func uniqueIDs[T any](rows []T, id func(T) int64) []int64 {
	seen := make(map[int64]struct{}, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		key := id(row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		ids = append(ids, key)
	}
	return ids
}

// resolveUsers loads the users referenced by rows
func resolveUsers[T any](ctx context.Context, store repositories.UserStore, rows []T, id func(T) int64) (map[int64]*models.User, error) {
	if len(rows) == 0 {
		return map[int64]*models.User{}, nil
	}
	users, err := store.GetUsersByIDs(ctx, uniqueIDs(rows, id))
	if err != nil {
		return nil, storeError("resolve users", err)
	}
	return users, nil
}

// withUploaders joins documents to their uploaders, preserving order
func withUploaders(ctx context.Context, store repositories.UserStore, docs []*models.Document) ([]*models.DocumentWithUploader, error) {
	users, err := resolveUsers(ctx, store, docs, func(d *models.Document) int64 { return d.UserID })
	if err != nil {
		return nil, err
	}

	out := make([]*models.DocumentWithUploader, 0, len(docs))
	for _, doc := range docs {
		uploader, ok := users[doc.UserID]
		if !ok {
			continue
		}
		out = append(out, &models.DocumentWithUploader{Document: doc, Uploader: uploader.Summary()})
	}
	return out, nil
}

// withRaters joins ratings to the users who gave them, preserving order
func withRaters(ctx context.Context, store repositories.UserStore, ratings []*models.Rating) ([]*models.RatingWithUser, error) {
	users, err := resolveUsers(ctx, store, ratings, func(r *models.Rating) int64 { return r.UserID })
	if err != nil {
		return nil, err
	}

	out := make([]*models.RatingWithUser, 0, len(ratings))
	for _, rating := range ratings {
		user, ok := users[rating.UserID]
		if !ok {
			continue
		}
		out = append(out, &models.RatingWithUser{Rating: rating, User: user.Summary()})
	}
	return out, nil
}

// withAuthors joins comments to their authors, preserving order
func withAuthors(ctx context.Context, store repositories.UserStore, comments []*models.Comment) ([]*models.CommentWithAuthor, error) {
	users, err := resolveUsers(ctx, store, comments, func(c *models.Comment) int64 { return c.UserID })
	if err != nil {
		return nil, err
	}

	out := make([]*models.CommentWithAuthor, 0, len(comments))
	for _, comment := range comments {
		author, ok := users[comment.UserID]
		if !ok {
			continue
		}
		out = append(out, &models.CommentWithAuthor{Comment: comment, Author: author.Summary()})
	}
	return out, nil
}

// userSummaries resolves ids to public summaries, preserving order
func userSummaries(ctx context.Context, store repositories.UserStore, ids []int64) ([]*models.UserSummary, error) {
	users, err := resolveUsers(ctx, store, ids, func(id int64) int64 { return id })
	if err != nil {
		return nil, err
	}

	out := make([]*models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if user, ok := users[id]; ok {
			out = append(out, user.Summary())
		}
	}
	return out, nil
}

// documentsInOrder resolves document ids, preserving order and dropping
// documents the viewer may not see
func documentsInOrder(ctx context.Context, store repositories.Store, ids []int64, viewerID *int64) ([]*models.DocumentWithUploader, error) {
	if len(ids) == 0 {
		return []*models.DocumentWithUploader{}, nil
	}

	byID, err := store.GetDocumentsByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("resolve documents", err)
	}

	docs := make([]*models.Document, 0, len(ids))
	for _, id := range ids {
		doc, ok := byID[id]
		if !ok || !canView(doc, viewerID) {
			continue
		}
		docs = append(docs, doc)
	}
	return withUploaders(ctx, store, docs)
}

// canView reports whether the viewer may see the document
func canView(doc *models.Document, viewerID *int64) bool {
	return doc.IsPublic || (viewerID != nil && doc.IsOwnedBy(*viewerID))
}
