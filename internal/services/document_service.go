// file: internal/services/document_service.go
package services

import (
	"context"
	"strings"
	"time"

	"studyhub/internal/cache"
	"studyhub/internal/models"
	"studyhub/internal/repositories"
	"studyhub/internal/validation"
)

// documentService implements DocumentService
type documentService struct {
	store       repositories.Store
	cache       *cache.ResultCache
	invalidator *cache.Invalidator
	config      *DocumentServiceConfig
}

// DocumentServiceConfig holds document service configuration
type DocumentServiceConfig struct {
	ListingCacheTime time.Duration `json:"listing_cache_time"`
	StatsCacheTime   time.Duration `json:"stats_cache_time"`
}

// DefaultDocumentConfig returns default document service configuration
func DefaultDocumentConfig() *DocumentServiceConfig {
	return &DocumentServiceConfig{
		ListingCacheTime: 5 * time.Minute,
		StatsCacheTime:   10 * time.Minute,
	}
}

// NewDocumentService creates a document service
func NewDocumentService(
	store repositories.Store,
	rc *cache.ResultCache,
	invalidator *cache.Invalidator,
	config *DocumentServiceConfig,
) DocumentService {
	if config == nil {
		config = DefaultDocumentConfig()
	}

	return &documentService{
		store:       store,
		cache:       rc,
		invalidator: invalidator,
		config:      config,
	}
}

// ===============================
// SINGLE DOCUMENT READS
// ===============================

// GetByID returns the raw document row
func (s *documentService) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	doc, err := s.store.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, lookupError("document", id, err)
	}
	return doc, nil
}

// GetWithUploader returns the document joined to its uploader.
// A document whose uploader cannot be resolved is reported as not found.
func (s *documentService) GetWithUploader(ctx context.Context, id int64) (*models.DocumentWithUploader, error) {
	return cache.CacheResult(ctx, s.cache, cache.DocumentKey(id), s.config.ListingCacheTime, func() (*models.DocumentWithUploader, error) {
		doc, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		joined, err := withUploaders(ctx, s.store, []*models.Document{doc})
		if err != nil {
			return nil, err
		}
		if len(joined) == 0 {
			return nil, EntityNotFoundError("document", id)
		}
		return joined[0], nil
	})
}

// GetWithDetails composes the document page: uploader, ratings, comment
// threads and, when a viewer is given, the viewer's relationship to it.
// Private documents are only visible to their owner.
func (s *documentService) GetWithDetails(ctx context.Context, id int64, viewerID *int64) (*models.DocumentDetails, error) {
	doc, err := s.GetWithUploader(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(doc.Document, viewerID) {
		return nil, EntityNotFoundError("document", id)
	}

	ratings, err := s.store.ListRatingsByDocument(ctx, id)
	if err != nil {
		return nil, storeError("list ratings", err)
	}
	ratedBy, err := withRaters(ctx, s.store, ratings)
	if err != nil {
		return nil, err
	}

	threads, err := cachedThreads(ctx, s.store, s.cache, id)
	if err != nil {
		return nil, err
	}

	details := &models.DocumentDetails{
		DocumentWithUploader: doc,
		Ratings:              ratedBy,
		Comments:             threads,
		CommentCount:         countComments(threads),
	}

	if viewerID == nil {
		return details, nil
	}

	viewer := *viewerID
	details.IsOwner = doc.IsOwnedBy(viewer)

	rating, err := s.store.GetRating(ctx, id, viewer)
	switch {
	case err == nil:
		details.UserRating = rating
	case !isStoreNotFound(err):
		return nil, storeError("load viewer rating", err)
	}

	if details.IsBookmarked, err = s.store.BookmarkExists(ctx, id, viewer); err != nil {
		return nil, storeError("check bookmark", err)
	}

	if !details.IsOwner {
		if details.IsFollowingUploader, err = s.store.FollowExists(ctx, viewer, doc.UserID); err != nil {
			return nil, storeError("check follow", err)
		}
	}

	return details, nil
}

// ===============================
// LISTINGS
// ===============================

// listDocuments runs a filtered listing through the result cache
func (s *documentService) listDocuments(ctx context.Context, key string, filter repositories.DocumentFilter) ([]*models.DocumentWithUploader, error) {
	return cache.CacheResult(ctx, s.cache, key, s.config.ListingCacheTime, func() ([]*models.DocumentWithUploader, error) {
		docs, err := s.store.ListDocuments(ctx, filter)
		if err != nil {
			return nil, storeError("list documents", err)
		}
		return withUploaders(ctx, s.store, docs)
	})
}

// ListAll returns every public document, newest first
func (s *documentService) ListAll(ctx context.Context) ([]*models.DocumentWithUploader, error) {
	return s.listDocuments(ctx, cache.DocumentListAllKey(), repositories.DocumentFilter{PublicOnly: true})
}

// ListBySubject returns public documents whose subject matches exactly
func (s *documentService) ListBySubject(ctx context.Context, subject string) ([]*models.DocumentWithUploader, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return []*models.DocumentWithUploader{}, nil
	}
	return s.listDocuments(ctx, cache.DocumentListSubjectKey(subject), repositories.DocumentFilter{
		Subject:    subject,
		PublicOnly: true,
	})
}

// ListByUser returns a user's documents; private ones are included only for the owner
func (s *documentService) ListByUser(ctx context.Context, userID int64, viewerID *int64) ([]*models.DocumentWithUploader, error) {
	includePrivate := viewerID != nil && *viewerID == userID
	return s.listDocuments(ctx, cache.DocumentListUserKey(userID, includePrivate), repositories.DocumentFilter{
		UserID:     &userID,
		PublicOnly: !includePrivate,
	})
}

// Search matches the query as a case-insensitive substring of title,
// description or subject. A blank query matches nothing.
func (s *documentService) Search(ctx context.Context, query string) ([]*models.DocumentWithUploader, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.DocumentWithUploader{}, nil
	}
	return s.listDocuments(ctx, cache.DocumentSearchKey(query), repositories.DocumentFilter{
		Query:      query,
		PublicOnly: true,
	})
}

// ListFeatured returns highly rated or frequently downloaded public documents
func (s *documentService) ListFeatured(ctx context.Context) ([]*models.DocumentWithUploader, error) {
	return s.listDocuments(ctx, cache.DocumentFeaturedKey(), repositories.DocumentFilter{
		PublicOnly: true,
		Featured:   true,
		Limit:      repositories.FeaturedLimit,
	})
}

// ListRecent returns the newest public documents
func (s *documentService) ListRecent(ctx context.Context) ([]*models.DocumentWithUploader, error) {
	return s.listDocuments(ctx, cache.DocumentRecentKey(), repositories.DocumentFilter{
		PublicOnly: true,
		Limit:      repositories.RecentLimit,
	})
}

// Stats returns platform-wide totals
func (s *documentService) Stats(ctx context.Context) (*models.PlatformStats, error) {
	return cache.CacheResult(ctx, s.cache, cache.DocumentStatsKey(), s.config.StatsCacheTime, func() (*models.PlatformStats, error) {
		stats, err := s.store.GetPlatformStats(ctx)
		if err != nil {
			return nil, storeError("load platform stats", err)
		}
		return stats, nil
	})
}

// ===============================
// WRITES
// ===============================

// Create records a new document for an existing user. Documents are public unless requested otherwise.
func (s *documentService) Create(ctx context.Context, req *CreateDocumentRequest) (*models.Document, error) {
	if req != nil {
		req.Title = strings.TrimSpace(req.Title)
		req.Subject = strings.TrimSpace(req.Subject)
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid create document request", err)
	}

	if _, err := s.store.GetUserByID(ctx, req.UserID); err != nil {
		return nil, lookupError("user", req.UserID, err)
	}

	doc := &models.Document{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Tags:        normalizeTags(req.Tags),
		Course:      req.Course,
		Professor:   req.Professor,
		Semester:    req.Semester,
		FileType:    models.FileType(req.FileType),
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		FilePath:    req.FilePath,
		UserID:      req.UserID,
		IsPublic:    true,
	}
	if req.IsPublic != nil {
		doc.IsPublic = *req.IsPublic
	}

	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, lookupError("user", req.UserID, err)
	}

	// the uploader's upload total changed too
	s.invalidator.User(ctx, req.UserID)
	return doc, nil
}

// Update edits metadata of a document the caller owns
func (s *documentService) Update(ctx context.Context, req *UpdateDocumentRequest) (*models.Document, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid update document request", err)
	}

	doc, err := s.store.GetDocumentByID(ctx, req.DocumentID)
	if err != nil {
		return nil, targetError("document", req.DocumentID, err)
	}
	if !doc.IsOwnedBy(req.UserID) {
		return nil, InsufficientPermissionsError("update", "document")
	}

	if req.Title != nil {
		doc.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		doc.Description = req.Description
	}
	if req.Subject != nil {
		doc.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Tags != nil {
		doc.Tags = normalizeTags(req.Tags)
	}
	if req.Course != nil {
		doc.Course = req.Course
	}
	if req.Professor != nil {
		doc.Professor = req.Professor
	}
	if req.Semester != nil {
		doc.Semester = req.Semester
	}
	if req.IsPublic != nil {
		doc.IsPublic = *req.IsPublic
	}

	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return nil, targetError("document", req.DocumentID, err)
	}

	s.invalidator.Documents(ctx)
	return doc, nil
}

// IncrementDownloads adds one download to the document and its uploader's total
func (s *documentService) IncrementDownloads(ctx context.Context, id int64) error {
	doc, err := s.store.GetDocumentByID(ctx, id)
	if err != nil {
		return lookupError("document", id, err)
	}
	if err := s.store.IncrementDownloads(ctx, id); err != nil {
		return lookupError("document", id, err)
	}
	s.invalidator.User(ctx, doc.UserID)
	return nil
}

// IncrementViews adds one view to the document's counter
func (s *documentService) IncrementViews(ctx context.Context, id int64) error {
	if err := s.store.IncrementViews(ctx, id); err != nil {
		return lookupError("document", id, err)
	}
	s.invalidator.Documents(ctx)
	return nil
}

// ===============================
// HELPERS
// ===============================

// normalizeTags trims tags and drops blanks and repeats, keeping first-seen order
func normalizeTags(tags []string) models.StringArray {
	out := make(models.StringArray, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
