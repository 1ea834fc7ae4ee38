// file: internal/services/collection_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"studyhub/internal/models"
	"studyhub/internal/repositories"
	"studyhub/internal/validation"
)

// collectionService implements CollectionService
type collectionService struct {
	store repositories.Store
}

// NewCollectionService creates a collection service
func NewCollectionService(store repositories.Store) CollectionService {
	return &collectionService{store: store}
}

// ===============================
// COLLECTION CRUD
// ===============================

// Create makes a new collection for an existing user
func (s *collectionService) Create(ctx context.Context, req *CreateCollectionRequest) (*models.Collection, error) {
	if req != nil {
		req.Name = strings.TrimSpace(req.Name)
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid create collection request", err)
	}

	if _, err := s.store.GetUserByID(ctx, req.UserID); err != nil {
		return nil, lookupError("user", req.UserID, err)
	}

	collection := &models.Collection{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	}
	if err := s.store.CreateCollection(ctx, collection); err != nil {
		return nil, lookupError("user", req.UserID, err)
	}
	return collection, nil
}

// Update edits a collection the caller owns
func (s *collectionService) Update(ctx context.Context, req *UpdateCollectionRequest) (*models.Collection, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid update collection request", err)
	}

	collection, err := s.owned(ctx, req.CollectionID, req.UserID, "update", targetError)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewValidationError("collection name is required", nil)
		}
		collection.Name = name
	}
	if req.Description != nil {
		collection.Description = req.Description
	}
	if req.IsPublic != nil {
		collection.IsPublic = *req.IsPublic
	}

	if err := s.store.UpdateCollection(ctx, collection); err != nil {
		return nil, targetError("collection", req.CollectionID, err)
	}
	return collection, nil
}

// Delete removes a collection the caller owns along with its memberships
func (s *collectionService) Delete(ctx context.Context, id, userID int64) error {
	if _, err := s.owned(ctx, id, userID, "delete", targetError); err != nil {
		return err
	}
	if err := s.store.DeleteCollection(ctx, id); err != nil {
		return targetError("collection", id, err)
	}
	return nil
}

// ===============================
// READS
// ===============================

// ListForUser returns the user's own collections, newest first, with
// document counts. When documentID is given each summary reports whether
// it already contains that document.
func (s *collectionService) ListForUser(ctx context.Context, userID int64, documentID *int64) ([]*models.CollectionSummary, error) {
	collections, err := s.store.ListCollectionsByUser(ctx, userID)
	if err != nil {
		return nil, storeError("list collections", err)
	}
	if len(collections) == 0 {
		return []*models.CollectionSummary{}, nil
	}

	ids := make([]int64, len(collections))
	for i, c := range collections {
		ids[i] = c.ID
	}

	counts, err := s.store.CountCollectionItems(ctx, ids)
	if err != nil {
		return nil, storeError("count collection items", err)
	}

	var contains map[int64]bool
	if documentID != nil {
		if contains, err = s.store.CollectionsContaining(ctx, *documentID, ids); err != nil {
			return nil, storeError("check collection membership", err)
		}
	}

	out := make([]*models.CollectionSummary, len(collections))
	for i, c := range collections {
		out[i] = &models.CollectionSummary{
			Collection:       c,
			DocumentCount:    counts[c.ID],
			ContainsDocument: contains[c.ID],
		}
	}
	return out, nil
}

// GetWithDocuments returns a collection with its owner and member documents,
// most recently added first. Private collections are only visible to their owner.
func (s *collectionService) GetWithDocuments(ctx context.Context, id int64, viewerID *int64) (*models.CollectionWithDocuments, error) {
	collection, err := s.store.GetCollectionByID(ctx, id)
	if err != nil {
		return nil, lookupError("collection", id, err)
	}
	isOwner := viewerID != nil && collection.IsOwnedBy(*viewerID)
	if !collection.IsPublic && !isOwner {
		return nil, EntityNotFoundError("collection", id)
	}

	owners, err := userSummaries(ctx, s.store, []int64{collection.UserID})
	if err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, EntityNotFoundError("collection", id)
	}

	items, err := s.store.ListCollectionItems(ctx, id)
	if err != nil {
		return nil, storeError("list collection items", err)
	}
	docIDs := make([]int64, len(items))
	for i, item := range items {
		docIDs[i] = item.DocumentID
	}

	docs, err := documentsInOrder(ctx, s.store, docIDs, viewerID)
	if err != nil {
		return nil, err
	}

	return &models.CollectionWithDocuments{
		Collection: collection,
		Owner:      owners[0],
		Documents:  docs,
	}, nil
}

// ===============================
// MEMBERSHIP
// ===============================

// AddDocument puts a document into a collection the caller owns
func (s *collectionService) AddDocument(ctx context.Context, collectionID, documentID, userID int64) error {
	if _, err := s.owned(ctx, collectionID, userID, "modify", lookupError); err != nil {
		return err
	}
	if _, err := s.store.GetDocumentByID(ctx, documentID); err != nil {
		return lookupError("document", documentID, err)
	}

	item := &models.CollectionItem{CollectionID: collectionID, DocumentID: documentID}
	if err := s.store.AddCollectionItem(ctx, item); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return NewConflictError("document already in collection", "ALREADY_IN_COLLECTION")
		case isStoreNotFound(err):
			return EntityNotFoundError("document", documentID)
		}
		return storeError("add collection item", err)
	}
	return nil
}

// RemoveDocument takes a document out of a collection the caller owns
func (s *collectionService) RemoveDocument(ctx context.Context, collectionID, documentID, userID int64) error {
	if _, err := s.owned(ctx, collectionID, userID, "modify", lookupError); err != nil {
		return err
	}

	if err := s.store.RemoveCollectionItem(ctx, collectionID, documentID); err != nil {
		if isStoreNotFound(err) {
			return NewInvalidStateError("document is not in collection", "NOT_IN_COLLECTION")
		}
		return storeError("remove collection item", err)
	}
	return nil
}

// owned loads a collection and checks the caller owns it.
// missing decides how an absent collection is reported.
func (s *collectionService) owned(
	ctx context.Context,
	id, userID int64,
	action string,
	missing func(string, int64, error) error,
) (*models.Collection, error) {
	collection, err := s.store.GetCollectionByID(ctx, id)
	if err != nil {
		return nil, missing("collection", id, err)
	}
	if !collection.IsOwnedBy(userID) {
		return nil, InsufficientPermissionsError(action, "collection")
	}
	return collection, nil
}
