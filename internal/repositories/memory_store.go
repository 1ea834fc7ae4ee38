// file: internal/repositories/memory_store.go
package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"studyhub/internal/models"
)

// pairKey indexes the unique (a, b) pairs of the relationship tables
type pairKey struct {
	a, b int64
}

// sequences mirrors the BIGSERIAL columns of the relational schema
type sequences struct {
	users, documents, ratings, comments, bookmarks, follows, collections int64
}

// MemoryStore is a process-local Store guarded by a single RWMutex.
// Every value crossing the boundary is copied so callers never alias stored rows.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time
	seq sequences

	users     map[int64]*models.User
	usernames map[string]int64
	emails    map[string]int64

	documents map[int64]*models.Document

	ratings     map[int64]*models.Rating
	ratingIndex map[pairKey]int64

	comments map[int64]*models.Comment

	bookmarks     map[int64]*models.Bookmark
	bookmarkIndex map[pairKey]int64

	follows     map[int64]*models.Follow
	followIndex map[pairKey]int64

	collections map[int64]*models.Collection
	items       map[pairKey]*models.CollectionItem
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock overrides the timestamp source used for created_at columns
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:           time.Now,
		users:         make(map[int64]*models.User),
		usernames:     make(map[string]int64),
		emails:        make(map[string]int64),
		documents:     make(map[int64]*models.Document),
		ratings:       make(map[int64]*models.Rating),
		ratingIndex:   make(map[pairKey]int64),
		comments:      make(map[int64]*models.Comment),
		bookmarks:     make(map[int64]*models.Bookmark),
		bookmarkIndex: make(map[pairKey]int64),
		follows:       make(map[int64]*models.Follow),
		followIndex:   make(map[pairKey]int64),
		collections:   make(map[int64]*models.Collection),
		items:         make(map[pairKey]*models.CollectionItem),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

// Ping always succeeds for the in-process store
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ===============================
// USERS
// ===============================

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usernames[user.Username]; exists {
		return fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
	}
	if _, exists := s.emails[user.Email]; exists {
		return fmt.Errorf("email %q: %w", user.Email, ErrDuplicate)
	}

	s.seq.users++
	user.ID = s.seq.users
	user.CreatedAt = s.now()

	stored := cloneUser(user)
	s.users[user.ID] = stored
	s.usernames[user.Username] = user.ID
	s.emails[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return cloneUser(user), nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return cloneUser(s.users[id]), nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", email, ErrNotFound)
	}
	return cloneUser(s.users[id]), nil
}

func (s *MemoryStore) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]*models.User, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			result[id] = cloneUser(user)
		}
	}
	return result, nil
}

func (s *MemoryStore) UpdateUserProfile(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return fmt.Errorf("user %d: %w", user.ID, ErrNotFound)
	}

	stored.AvatarURL = cloneString(user.AvatarURL)
	stored.Bio = cloneString(user.Bio)
	stored.University = cloneString(user.University)
	stored.Major = cloneString(user.Major)
	stored.Year = cloneInt(user.Year)
	return nil
}

// ===============================
// DOCUMENTS
// ===============================

func (s *MemoryStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.users[doc.UserID]
	if !ok {
		return fmt.Errorf("user %d: %w", doc.UserID, ErrNotFound)
	}

	s.seq.documents++
	doc.ID = s.seq.documents
	doc.CreatedAt = s.now()
	doc.Downloads = 0
	doc.Views = 0
	doc.Rating = 0
	doc.RatingCount = 0
	if doc.Tags == nil {
		doc.Tags = models.StringArray{}
	}

	s.documents[doc.ID] = cloneDocument(doc)
	owner.TotalUploads++
	return nil
}

func (s *MemoryStore) GetDocumentByID(ctx context.Context, id int64) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) GetDocumentsByIDs(ctx context.Context, ids []int64) (map[int64]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]*models.Document, len(ids))
	for _, id := range ids {
		if doc, ok := s.documents[id]; ok {
			result[id] = cloneDocument(doc)
		}
	}
	return result, nil
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.documents[doc.ID]
	if !ok {
		return fmt.Errorf("document %d: %w", doc.ID, ErrNotFound)
	}

	stored.Title = doc.Title
	stored.Description = cloneString(doc.Description)
	stored.Subject = doc.Subject
	stored.Tags = doc.Tags.Clone()
	if stored.Tags == nil {
		stored.Tags = models.StringArray{}
	}
	stored.Course = cloneString(doc.Course)
	stored.Professor = cloneString(doc.Professor)
	stored.Semester = cloneString(doc.Semester)
	stored.IsPublic = doc.IsPublic
	stored.IsFeatured = doc.IsFeatured
	return nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(filter.Query)

	matched := make([]*models.Document, 0)
	for _, doc := range s.documents {
		if filter.PublicOnly && !doc.IsPublic {
			continue
		}
		if filter.UserID != nil && doc.UserID != *filter.UserID {
			continue
		}
		if filter.Subject != "" && doc.Subject != filter.Subject {
			continue
		}
		if filter.Featured && !isFeatured(doc) {
			continue
		}
		if query != "" && !matchesQuery(doc, query) {
			continue
		}
		matched = append(matched, doc)
	}

	sortNewestFirst(matched, func(d *models.Document) (time.Time, int64) { return d.CreatedAt, d.ID })

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	result := make([]*models.Document, len(matched))
	for i, doc := range matched {
		result[i] = cloneDocument(doc)
	}
	return result, nil
}

func isFeatured(doc *models.Document) bool {
	return doc.Rating >= FeaturedMinRating || doc.Downloads > FeaturedMinDownloads
}

func matchesQuery(doc *models.Document, lowered string) bool {
	if strings.Contains(strings.ToLower(doc.Title), lowered) {
		return true
	}
	if doc.Description != nil && strings.Contains(strings.ToLower(*doc.Description), lowered) {
		return true
	}
	return strings.Contains(strings.ToLower(doc.Subject), lowered)
}

func (s *MemoryStore) CountDocumentsByUser(ctx context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, doc := range s.documents {
		if doc.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) IncrementDownloads(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	doc.Downloads++
	if owner, ok := s.users[doc.UserID]; ok {
		owner.TotalDownloads++
	}
	return nil
}

func (s *MemoryStore) IncrementViews(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	doc.Views++
	return nil
}

func (s *MemoryStore) UpdateDocumentRating(ctx context.Context, id int64, rating float64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	doc.Rating = rating
	doc.RatingCount = count
	return nil
}

func (s *MemoryStore) RecomputeDocumentRating(ctx context.Context, id int64, aggregate RatingAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}

	ratings := make([]*models.Rating, 0)
	for _, rating := range s.ratings {
		if rating.DocumentID == id {
			ratings = append(ratings, cloneRating(rating))
		}
	}
	doc.Rating, doc.RatingCount = aggregate(ratings)
	return nil
}

func (s *MemoryStore) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.PlatformStats{
		TotalDocuments: int64(len(s.documents)),
		TotalUsers:     int64(len(s.users)),
	}
	for _, doc := range s.documents {
		stats.TotalDownloads += doc.Downloads
		stats.TotalViews += doc.Views
	}
	return stats, nil
}

// ===============================
// RATINGS
// ===============================

func (s *MemoryStore) UpsertRating(ctx context.Context, rating *models.Rating) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[rating.DocumentID]; !ok {
		return false, fmt.Errorf("document %d: %w", rating.DocumentID, ErrNotFound)
	}
	if _, ok := s.users[rating.UserID]; !ok {
		return false, fmt.Errorf("user %d: %w", rating.UserID, ErrNotFound)
	}

	key := pairKey{rating.DocumentID, rating.UserID}
	if id, exists := s.ratingIndex[key]; exists {
		stored := s.ratings[id]
		stored.Value = rating.Value
		stored.Review = cloneString(rating.Review)
		rating.ID = stored.ID
		rating.CreatedAt = stored.CreatedAt
		return false, nil
	}

	s.seq.ratings++
	rating.ID = s.seq.ratings
	rating.CreatedAt = s.now()

	stored := *rating
	stored.Review = cloneString(rating.Review)
	s.ratings[rating.ID] = &stored
	s.ratingIndex[key] = rating.ID
	return true, nil
}

func (s *MemoryStore) GetRating(ctx context.Context, documentID, userID int64) (*models.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.ratingIndex[pairKey{documentID, userID}]
	if !ok {
		return nil, fmt.Errorf("rating for document %d by user %d: %w", documentID, userID, ErrNotFound)
	}
	return cloneRating(s.ratings[id]), nil
}

func (s *MemoryStore) ListRatingsByDocument(ctx context.Context, documentID int64) ([]*models.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Rating, 0)
	for _, rating := range s.ratings {
		if rating.DocumentID == documentID {
			matched = append(matched, cloneRating(rating))
		}
	}
	sortNewestFirst(matched, func(r *models.Rating) (time.Time, int64) { return r.CreatedAt, r.ID })
	return matched, nil
}

func (s *MemoryStore) DeleteRating(ctx context.Context, documentID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{documentID, userID}
	id, ok := s.ratingIndex[key]
	if !ok {
		return fmt.Errorf("rating for document %d by user %d: %w", documentID, userID, ErrNotFound)
	}
	delete(s.ratings, id)
	delete(s.ratingIndex, key)
	return nil
}

// ===============================
// COMMENTS
// ===============================

func (s *MemoryStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[comment.DocumentID]; !ok {
		return fmt.Errorf("document %d: %w", comment.DocumentID, ErrNotFound)
	}
	if _, ok := s.users[comment.UserID]; !ok {
		return fmt.Errorf("user %d: %w", comment.UserID, ErrNotFound)
	}
	if comment.ParentID != nil {
		if _, ok := s.comments[*comment.ParentID]; !ok {
			return fmt.Errorf("comment %d: %w", *comment.ParentID, ErrNotFound)
		}
	}

	s.seq.comments++
	comment.ID = s.seq.comments
	comment.CreatedAt = s.now()

	s.comments[comment.ID] = cloneComment(comment)
	return nil
}

func (s *MemoryStore) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	return cloneComment(comment), nil
}

func (s *MemoryStore) UpdateCommentContent(ctx context.Context, id int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	comment.Content = content
	return nil
}

func (s *MemoryStore) ListRootComments(ctx context.Context, documentID int64) ([]*models.Comment, error) {
	return s.listComments(documentID, func(c *models.Comment) bool { return c.ParentID == nil }), nil
}

func (s *MemoryStore) ListReplies(ctx context.Context, documentID int64) ([]*models.Comment, error) {
	return s.listComments(documentID, func(c *models.Comment) bool { return c.ParentID != nil }), nil
}

func (s *MemoryStore) listComments(documentID int64, keep func(*models.Comment) bool) []*models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Comment, 0)
	for _, comment := range s.comments {
		if comment.DocumentID == documentID && keep(comment) {
			matched = append(matched, cloneComment(comment))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}

func (s *MemoryStore) DeleteCommentWithReplies(ctx context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return 0, fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}

	doomed := map[int64]bool{id: true}
	for grew := true; grew; {
		grew = false
		for cid, comment := range s.comments {
			if doomed[cid] || comment.ParentID == nil {
				continue
			}
			if doomed[*comment.ParentID] {
				doomed[cid] = true
				grew = true
			}
		}
	}

	for cid := range doomed {
		delete(s.comments, cid)
	}
	return len(doomed), nil
}

// ===============================
// BOOKMARKS
// ===============================

func (s *MemoryStore) AddBookmark(ctx context.Context, bookmark *models.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[bookmark.DocumentID]; !ok {
		return fmt.Errorf("document %d: %w", bookmark.DocumentID, ErrNotFound)
	}
	if _, ok := s.users[bookmark.UserID]; !ok {
		return fmt.Errorf("user %d: %w", bookmark.UserID, ErrNotFound)
	}

	key := pairKey{bookmark.DocumentID, bookmark.UserID}
	if _, exists := s.bookmarkIndex[key]; exists {
		return fmt.Errorf("bookmark for document %d by user %d: %w", bookmark.DocumentID, bookmark.UserID, ErrDuplicate)
	}

	s.seq.bookmarks++
	bookmark.ID = s.seq.bookmarks
	bookmark.CreatedAt = s.now()

	stored := *bookmark
	s.bookmarks[bookmark.ID] = &stored
	s.bookmarkIndex[key] = bookmark.ID
	return nil
}

func (s *MemoryStore) RemoveBookmark(ctx context.Context, documentID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{documentID, userID}
	id, ok := s.bookmarkIndex[key]
	if !ok {
		return fmt.Errorf("bookmark for document %d by user %d: %w", documentID, userID, ErrNotFound)
	}
	delete(s.bookmarks, id)
	delete(s.bookmarkIndex, key)
	return nil
}

func (s *MemoryStore) BookmarkExists(ctx context.Context, documentID, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bookmarkIndex[pairKey{documentID, userID}]
	return ok, nil
}

func (s *MemoryStore) ListBookmarksByUser(ctx context.Context, userID int64) ([]*models.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Bookmark, 0)
	for _, bookmark := range s.bookmarks {
		if bookmark.UserID == userID {
			copied := *bookmark
			matched = append(matched, &copied)
		}
	}
	sortNewestFirst(matched, func(b *models.Bookmark) (time.Time, int64) { return b.CreatedAt, b.ID })
	return matched, nil
}

// ===============================
// FOLLOWS
// ===============================

func (s *MemoryStore) AddFollow(ctx context.Context, follow *models.Follow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[follow.FollowerID]; !ok {
		return fmt.Errorf("user %d: %w", follow.FollowerID, ErrNotFound)
	}
	if _, ok := s.users[follow.FollowingID]; !ok {
		return fmt.Errorf("user %d: %w", follow.FollowingID, ErrNotFound)
	}

	key := pairKey{follow.FollowerID, follow.FollowingID}
	if _, exists := s.followIndex[key]; exists {
		return fmt.Errorf("follow %d -> %d: %w", follow.FollowerID, follow.FollowingID, ErrDuplicate)
	}

	s.seq.follows++
	follow.ID = s.seq.follows
	follow.CreatedAt = s.now()

	stored := *follow
	s.follows[follow.ID] = &stored
	s.followIndex[key] = follow.ID
	return nil
}

func (s *MemoryStore) RemoveFollow(ctx context.Context, followerID, followingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{followerID, followingID}
	id, ok := s.followIndex[key]
	if !ok {
		return fmt.Errorf("follow %d -> %d: %w", followerID, followingID, ErrNotFound)
	}
	delete(s.follows, id)
	delete(s.followIndex, key)
	return nil
}

func (s *MemoryStore) FollowExists(ctx context.Context, followerID, followingID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.followIndex[pairKey{followerID, followingID}]
	return ok, nil
}

func (s *MemoryStore) ListFollowers(ctx context.Context, userID int64) ([]*models.Follow, error) {
	return s.listFollows(func(f *models.Follow) bool { return f.FollowingID == userID }), nil
}

func (s *MemoryStore) ListFollowing(ctx context.Context, userID int64) ([]*models.Follow, error) {
	return s.listFollows(func(f *models.Follow) bool { return f.FollowerID == userID }), nil
}

func (s *MemoryStore) listFollows(keep func(*models.Follow) bool) []*models.Follow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Follow, 0)
	for _, follow := range s.follows {
		if keep(follow) {
			copied := *follow
			matched = append(matched, &copied)
		}
	}
	sortNewestFirst(matched, func(f *models.Follow) (time.Time, int64) { return f.CreatedAt, f.ID })
	return matched
}

func (s *MemoryStore) CountFollowers(ctx context.Context, userID int64) (int, error) {
	followers, _ := s.ListFollowers(ctx, userID)
	return len(followers), nil
}

func (s *MemoryStore) CountFollowing(ctx context.Context, userID int64) (int, error) {
	following, _ := s.ListFollowing(ctx, userID)
	return len(following), nil
}

// ===============================
// COLLECTIONS
// ===============================

func (s *MemoryStore) CreateCollection(ctx context.Context, collection *models.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[collection.UserID]; !ok {
		return fmt.Errorf("user %d: %w", collection.UserID, ErrNotFound)
	}

	s.seq.collections++
	collection.ID = s.seq.collections
	collection.CreatedAt = s.now()

	s.collections[collection.ID] = cloneCollection(collection)
	return nil
}

func (s *MemoryStore) GetCollectionByID(ctx context.Context, id int64) (*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	collection, ok := s.collections[id]
	if !ok {
		return nil, fmt.Errorf("collection %d: %w", id, ErrNotFound)
	}
	return cloneCollection(collection), nil
}

func (s *MemoryStore) UpdateCollection(ctx context.Context, collection *models.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.collections[collection.ID]
	if !ok {
		return fmt.Errorf("collection %d: %w", collection.ID, ErrNotFound)
	}
	stored.Name = collection.Name
	stored.Description = cloneString(collection.Description)
	stored.IsPublic = collection.IsPublic
	return nil
}

func (s *MemoryStore) DeleteCollection(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[id]; !ok {
		return fmt.Errorf("collection %d: %w", id, ErrNotFound)
	}
	for key := range s.items {
		if key.a == id {
			delete(s.items, key)
		}
	}
	delete(s.collections, id)
	return nil
}

func (s *MemoryStore) ListCollectionsByUser(ctx context.Context, userID int64) ([]*models.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Collection, 0)
	for _, collection := range s.collections {
		if collection.UserID == userID {
			matched = append(matched, cloneCollection(collection))
		}
	}
	sortNewestFirst(matched, func(c *models.Collection) (time.Time, int64) { return c.CreatedAt, c.ID })
	return matched, nil
}

func (s *MemoryStore) AddCollectionItem(ctx context.Context, item *models.CollectionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[item.CollectionID]; !ok {
		return fmt.Errorf("collection %d: %w", item.CollectionID, ErrNotFound)
	}
	if _, ok := s.documents[item.DocumentID]; !ok {
		return fmt.Errorf("document %d: %w", item.DocumentID, ErrNotFound)
	}

	key := pairKey{item.CollectionID, item.DocumentID}
	if _, exists := s.items[key]; exists {
		return fmt.Errorf("document %d in collection %d: %w", item.DocumentID, item.CollectionID, ErrDuplicate)
	}

	item.AddedAt = s.now()
	stored := *item
	s.items[key] = &stored
	return nil
}

func (s *MemoryStore) RemoveCollectionItem(ctx context.Context, collectionID, documentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{collectionID, documentID}
	if _, ok := s.items[key]; !ok {
		return fmt.Errorf("document %d in collection %d: %w", documentID, collectionID, ErrNotFound)
	}
	delete(s.items, key)
	return nil
}

func (s *MemoryStore) ListCollectionItems(ctx context.Context, collectionID int64) ([]*models.CollectionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.CollectionItem, 0)
	for key, item := range s.items {
		if key.a == collectionID {
			copied := *item
			matched = append(matched, &copied)
		}
	}
	sortNewestFirst(matched, func(i *models.CollectionItem) (time.Time, int64) { return i.AddedAt, i.DocumentID })
	return matched, nil
}

func (s *MemoryStore) CountCollectionItems(ctx context.Context, collectionIDs []int64) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(collectionIDs))
	for _, id := range collectionIDs {
		wanted[id] = true
	}

	counts := make(map[int64]int, len(collectionIDs))
	for key := range s.items {
		if wanted[key.a] {
			counts[key.a]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) CollectionsContaining(ctx context.Context, documentID int64, collectionIDs []int64) (map[int64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]bool, len(collectionIDs))
	for _, id := range collectionIDs {
		if _, ok := s.items[pairKey{id, documentID}]; ok {
			result[id] = true
		}
	}
	return result, nil
}

// ===============================
// HELPERS
// ===============================

// sortNewestFirst orders by timestamp descending, breaking ties by id descending
func sortNewestFirst[T any](rows []T, key func(T) (time.Time, int64)) {
	sort.Slice(rows, func(i, j int) bool {
		ti, idi := key(rows[i])
		tj, idj := key(rows[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi > idj
	})
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.AvatarURL = cloneString(u.AvatarURL)
	c.Bio = cloneString(u.Bio)
	c.University = cloneString(u.University)
	c.Major = cloneString(u.Major)
	c.Year = cloneInt(u.Year)
	return &c
}

func cloneDocument(d *models.Document) *models.Document {
	c := *d
	c.Description = cloneString(d.Description)
	c.Tags = d.Tags.Clone()
	c.Course = cloneString(d.Course)
	c.Professor = cloneString(d.Professor)
	c.Semester = cloneString(d.Semester)
	return &c
}

func cloneRating(r *models.Rating) *models.Rating {
	c := *r
	c.Review = cloneString(r.Review)
	return &c
}

func cloneComment(cm *models.Comment) *models.Comment {
	c := *cm
	if cm.ParentID != nil {
		parent := *cm.ParentID
		c.ParentID = &parent
	}
	return &c
}

func cloneCollection(col *models.Collection) *models.Collection {
	c := *col
	c.Description = cloneString(col.Description)
	return &c
}
