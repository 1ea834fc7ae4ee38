// ===============================
// FILE: internal/services/comment_service.go
// ===============================

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

// commentService implements CommentService
type commentService struct {
	store       repositories.Store
	cache       *cache.ResultCache
	invalidator *cache.Invalidator
	config      *CommentServiceConfig
}

// CommentServiceConfig holds comment service configuration
type CommentServiceConfig struct {
	MaxContentLength int           `json:"max_content_length"`
	ThreadCacheTime  time.Duration `json:"thread_cache_time"`
}

// DefaultCommentConfig returns default comment service configuration
func DefaultCommentConfig() *CommentServiceConfig {
	return &CommentServiceConfig{
		MaxContentLength: 5000,
		ThreadCacheTime:  5 * time.Minute,
	}
}

// NewCommentService creates a comment service
func NewCommentService(
	store repositories.Store,
	rc *cache.ResultCache,
	invalidator *cache.Invalidator,
	config *CommentServiceConfig,
) CommentService {
	if config == nil {
		config = DefaultCommentConfig()
	}

	return &commentService{
		store:       store,
		cache:       rc,
		invalidator: invalidator,
		config:      config,
	}
}

// ===============================
// CORE CRUD OPERATIONS
// ===============================

// Create posts a comment. A reply to a reply is attached to the root of
// its thread so threads stay one level deep.
func (s *commentService) Create(ctx context.Context, req *CreateCommentRequest) (*models.CommentWithAuthor, error) {
	if req != nil {
		req.Content = strings.TrimSpace(req.Content)
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid create comment request", err)
	}
	if err := s.checkLength(req.Content); err != nil {
		return nil, err
	}

	if _, err := s.store.GetDocumentByID(ctx, req.DocumentID); err != nil {
		return nil, lookupError("document", req.DocumentID, err)
	}
	author, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, lookupError("user", req.UserID, err)
	}

	parentID, err := s.resolveParent(ctx, req.DocumentID, req.ParentID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		DocumentID: req.DocumentID,
		UserID:     req.UserID,
		Content:    req.Content,
		ParentID:   parentID,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, lookupError("document", req.DocumentID, err)
	}

	s.invalidator.Comments(ctx, req.DocumentID)
	return &models.CommentWithAuthor{Comment: comment, Author: author.Summary()}, nil
}

// ListThreads returns the document's root comments, oldest first, each with its replies
func (s *commentService) ListThreads(ctx context.Context, documentID int64) ([]*models.CommentThread, error) {
	return cachedThreads(ctx, s.store, s.cache, documentID)
}

// Update replaces the content of a comment the caller wrote
func (s *commentService) Update(ctx context.Context, id, userID int64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, NewValidationError("comment content is required", nil)
	}
	if err := s.checkLength(content); err != nil {
		return nil, err
	}

	comment, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return nil, targetError("comment", id, err)
	}
	if !comment.IsOwnedBy(userID) {
		return nil, InsufficientPermissionsError("update", "comment")
	}

	if err := s.store.UpdateCommentContent(ctx, id, content); err != nil {
		return nil, targetError("comment", id, err)
	}
	comment.Content = content

	s.invalidator.Comments(ctx, comment.DocumentID)
	return comment, nil
}

// Delete removes a comment the caller wrote together with its replies
func (s *commentService) Delete(ctx context.Context, id, userID int64) error {
	comment, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return targetError("comment", id, err)
	}
	if !comment.IsOwnedBy(userID) {
		return InsufficientPermissionsError("delete", "comment")
	}

	if _, err := s.store.DeleteCommentWithReplies(ctx, id); err != nil {
		return targetError("comment", id, err)
	}

	s.invalidator.Comments(ctx, comment.DocumentID)
	return nil
}

// ===============================
// HELPERS
// ===============================

func (s *commentService) checkLength(content string) error {
	if s.config.MaxContentLength > 0 && len([]rune(content)) > s.config.MaxContentLength {
		return NewValidationError("comment content is too long", nil).
			WithDetail("max_length", s.config.MaxContentLength)
	}
	return nil
}

// resolveParent validates the parent and flattens replies onto their root
func (s *commentService) resolveParent(ctx context.Context, documentID int64, parentID *int64) (*int64, error) {
	if parentID == nil {
		return nil, nil
	}

	parent, err := s.store.GetCommentByID(ctx, *parentID)
	if err != nil {
		return nil, lookupError("comment", *parentID, err)
	}
	if parent.DocumentID != documentID {
		return nil, NewValidationError("parent comment belongs to another document", nil).
			WithDetail("parent_id", *parentID)
	}

	if parent.ParentID != nil {
		root := *parent.ParentID
		return &root, nil
	}
	root := parent.ID
	return &root, nil
}

// ===============================
// THREAD ASSEMBLY
// ===============================

// cachedThreads assembles a document's threads through the result cache
func cachedThreads(ctx context.Context, store repositories.Store, rc *cache.ResultCache, documentID int64) ([]*models.CommentThread, error) {
	return cache.CacheResult(ctx, rc, cache.CommentThreadsKey(documentID), 0, func() ([]*models.CommentThread, error) {
		return assembleThreads(ctx, store, documentID)
	})
}

// assembleThreads groups a document's comments into root threads.
// Roots and replies are both ordered oldest first. A reply whose parent is
// itself a reply is attached to that parent's root. Replies whose root is
// missing, and comments whose author cannot be resolved, are omitted.
func assembleThreads(ctx context.Context, store repositories.Store, documentID int64) ([]*models.CommentThread, error) {
	roots, err := store.ListRootComments(ctx, documentID)
	if err != nil {
		return nil, storeError("list comments", err)
	}
	if len(roots) == 0 {
		return []*models.CommentThread{}, nil
	}

	replies, err := store.ListReplies(ctx, documentID)
	if err != nil {
		return nil, storeError("list replies", err)
	}

	all := make([]*models.Comment, 0, len(roots)+len(replies))
	all = append(all, roots...)
	all = append(all, replies...)
	authored, err := withAuthors(ctx, store, all)
	if err != nil {
		return nil, err
	}

	threads := make([]*models.CommentThread, 0, len(roots))
	byRoot := make(map[int64]*models.CommentThread, len(roots))
	parentOf := make(map[int64]int64, len(replies))
	for _, reply := range replies {
		parentOf[reply.ID] = *reply.ParentID
	}

	for _, c := range authored {
		if c.IsReply() {
			continue
		}
		thread := &models.CommentThread{CommentWithAuthor: c, Replies: []*models.CommentWithAuthor{}}
		threads = append(threads, thread)
		byRoot[c.ID] = thread
	}

	for _, c := range authored {
		if !c.IsReply() {
			continue
		}
		if thread, ok := byRoot[rootOf(c.ID, parentOf)]; ok {
			thread.Replies = append(thread.Replies, c)
		}
	}

	return threads, nil
}

// rootOf follows parent links up to the first comment that is not a reply.
// Cycles resolve to an id with no thread.
func rootOf(id int64, parentOf map[int64]int64) int64 {
	seen := make(map[int64]struct{})
	for {
		parent, ok := parentOf[id]
		if !ok {
			return id
		}
		if _, loop := seen[parent]; loop {
			return 0
		}
		seen[parent] = struct{}{}
		id = parent
	}
}

// countComments counts roots and replies across threads
func countComments(threads []*models.CommentThread) int {
	n := len(threads)
	for _, thread := range threads {
		n += len(thread.Replies)
	}
	return n
}
