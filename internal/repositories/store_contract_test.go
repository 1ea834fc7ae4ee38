package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"studyhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory returns an empty store for one subtest
type storeFactory func(t *testing.T) Store

// runStoreContract exercises behavior both Store implementations must share
func runStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("UserUniqueness", func(t *testing.T) { testUserUniqueness(t, newStore(t)) })
	t.Run("DocumentCRUD", func(t *testing.T) { testDocumentCRUD(t, newStore(t)) })
	t.Run("DocumentFilters", func(t *testing.T) { testDocumentFilters(t, newStore(t)) })
	t.Run("ConcurrentCounters", func(t *testing.T) { testConcurrentCounters(t, newStore(t)) })
	t.Run("RatingUpsert", func(t *testing.T) { testRatingUpsert(t, newStore(t)) })
	t.Run("RatingRecompute", func(t *testing.T) { testRatingRecompute(t, newStore(t)) })
	t.Run("UploaderTotals", func(t *testing.T) { testUploaderTotals(t, newStore(t)) })
	t.Run("CommentCascade", func(t *testing.T) { testCommentCascade(t, newStore(t)) })
	t.Run("Bookmarks", func(t *testing.T) { testBookmarks(t, newStore(t)) })
	t.Run("Follows", func(t *testing.T) { testFollows(t, newStore(t)) })
	t.Run("Collections", func(t *testing.T) { testCollections(t, newStore(t)) })
	t.Run("PlatformStats", func(t *testing.T) { testPlatformStats(t, newStore(t)) })
}

// ===============================
// FIXTURES
// ===============================

func seedUser(t *testing.T, store Store, name string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     name,
		Email:        name + "@example.edu",
		PasswordHash: "hash",
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func seedDocument(t *testing.T, store Store, owner *models.User, title, subject string, public bool) *models.Document {
	t.Helper()
	doc := &models.Document{
		Title:    title,
		Subject:  subject,
		Tags:     models.StringArray{"notes"},
		FileType: models.FileTypePDF,
		FileName: title + ".pdf",
		FileSize: 1024,
		FilePath: "/uploads/" + title + ".pdf",
		UserID:   owner.ID,
		IsPublic: public,
	}
	require.NoError(t, store.CreateDocument(context.Background(), doc))
	return doc
}

func ids[T any](rows []T, id func(T) int64) []int64 {
	out := make([]int64, len(rows))
	for i, row := range rows {
		out[i] = id(row)
	}
	return out
}

func docID(d *models.Document) int64 { return d.ID }

// ===============================
// CONTRACT CASES
// ===============================

func testUserUniqueness(t *testing.T, store Store) {
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	assert.NotZero(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	err := store.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.edu", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = store.CreateUser(ctx, &models.User{Username: "alice2", Email: "alice@example.edu", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	byName, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.edu")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = store.GetUserByID(ctx, alice.ID+1000)
	assert.ErrorIs(t, err, ErrNotFound)

	bio := "Physics major"
	byName.Bio = &bio
	require.NoError(t, store.UpdateUserProfile(ctx, byName))

	reloaded, err := store.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Bio)
	assert.Equal(t, "Physics major", *reloaded.Bio)

	found, err := store.GetUsersByIDs(ctx, []int64{alice.ID, alice.ID + 1000})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, alice.ID)
}

func testDocumentCRUD(t *testing.T, store Store) {
	ctx := context.Background()
	owner := seedUser(t, store, "owner")

	err := store.CreateDocument(ctx, &models.Document{
		Title: "orphan", Subject: "Math", FileType: models.FileTypeText,
		FileName: "o.txt", FilePath: "/o.txt", UserID: owner.ID + 1000,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	doc := seedDocument(t, store, owner, "Calculus", "Math", true)
	assert.NotZero(t, doc.ID)
	assert.Zero(t, doc.Downloads)
	assert.Zero(t, doc.RatingCount)

	loaded, err := store.GetDocumentByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Calculus", loaded.Title)
	assert.Equal(t, models.StringArray{"notes"}, loaded.Tags)
	assert.Equal(t, models.FileTypePDF, loaded.FileType)

	loaded.Title = "Calculus II"
	loaded.Tags = models.StringArray{"notes", "exam"}
	require.NoError(t, store.UpdateDocument(ctx, loaded))

	reloaded, err := store.GetDocumentByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Calculus II", reloaded.Title)
	assert.Equal(t, models.StringArray{"notes", "exam"}, reloaded.Tags)

	_, err = store.GetDocumentByID(ctx, doc.ID+1000)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.IncrementViews(ctx, doc.ID+1000), ErrNotFound)

	count, err := store.CountDocumentsByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testDocumentFilters(t *testing.T, store Store) {
	ctx := context.Background()
	owner := seedUser(t, store, "owner")
	other := seedUser(t, store, "other")

	math1 := seedDocument(t, store, owner, "Linear Algebra", "Math", true)
	bio := seedDocument(t, store, other, "Cell Biology", "Biology", true)
	private := seedDocument(t, store, owner, "Secret Algebra", "Math", false)
	math2 := seedDocument(t, store, other, "Abstract Algebra 100%", "Math", true)

	all, err := store.ListDocuments(ctx, DocumentFilter{PublicOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{math2.ID, bio.ID, math1.ID}, ids(all, docID))

	everything, err := store.ListDocuments(ctx, DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, everything, 4)

	bySubject, err := store.ListDocuments(ctx, DocumentFilter{PublicOnly: true, Subject: "Math"})
	require.NoError(t, err)
	assert.Equal(t, []int64{math2.ID, math1.ID}, ids(bySubject, docID))

	ownerID := owner.ID
	byUser, err := store.ListDocuments(ctx, DocumentFilter{UserID: &ownerID})
	require.NoError(t, err)
	assert.Equal(t, []int64{private.ID, math1.ID}, ids(byUser, docID))

	search, err := store.ListDocuments(ctx, DocumentFilter{PublicOnly: true, Query: "algebra"})
	require.NoError(t, err)
	assert.Equal(t, []int64{math2.ID, math1.ID}, ids(search, docID))

	literal, err := store.ListDocuments(ctx, DocumentFilter{Query: "100%"})
	require.NoError(t, err)
	assert.Equal(t, []int64{math2.ID}, ids(literal, docID))

	subjectSearch, err := store.ListDocuments(ctx, DocumentFilter{PublicOnly: true, Query: "BIOLOGY"})
	require.NoError(t, err)
	assert.Equal(t, []int64{bio.ID}, ids(subjectSearch, docID))

	limited, err := store.ListDocuments(ctx, DocumentFilter{PublicOnly: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{math2.ID, bio.ID}, ids(limited, docID))

	require.NoError(t, store.UpdateDocumentRating(ctx, math1.ID, 4.5, 2))
	for i := 0; i < FeaturedMinDownloads+1; i++ {
		require.NoError(t, store.IncrementDownloads(ctx, bio.ID))
	}
	require.NoError(t, store.UpdateDocumentRating(ctx, math2.ID, 4.49, 3))

	featured, err := store.ListDocuments(ctx, DocumentFilter{PublicOnly: true, Featured: true, Limit: FeaturedLimit})
	require.NoError(t, err)
	assert.Equal(t, []int64{bio.ID, math1.ID}, ids(featured, docID))
}

func testConcurrentCounters(t *testing.T, store Store) {
	ctx := context.Background()
	owner := seedUser(t, store, "owner")
	doc := seedDocument(t, store, owner, "Shared", "Math", true)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- store.IncrementViews(ctx, doc.ID)
		}()
		go func() {
			defer wg.Done()
			errs <- store.IncrementDownloads(ctx, doc.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	loaded, err := store.GetDocumentByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), loaded.Views)
	assert.Equal(t, int64(workers), loaded.Downloads)

	uploader, err := store.GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), uploader.TotalDownloads)
}

func testRatingUpsert(t *testing.T, store Store) {
	ctx := context.Background()
	owner := seedUser(t, store, "owner")
	rater := seedUser(t, store, "rater")
	doc := seedDocument(t, store, owner, "Rated", "Math", true)

	first := &models.Rating{DocumentID: doc.ID, UserID: rater.ID, Value: 4}
	created, err := store.UpsertRating(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	review := "better on second read"
	second := &models.Rating{DocumentID: doc.ID, UserID: rater.ID, Value: 5, Review: &review}
	created, err = store.UpsertRating(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	ratings, err := store.ListRatingsByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5, ratings[0].Value)
	require.NotNil(t, ratings[0].Review)
	assert.Equal(t, review, *ratings[0].Review)

	_, err = store.UpsertRating(ctx, &models.Rating{DocumentID: doc.ID + 1000, UserID: rater.ID, Value: 3})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.DeleteRating(ctx, doc.ID, rater.ID))
	assert.ErrorIs(t, store.DeleteRating(ctx, doc.ID, rater.ID), ErrNotFound)

	_, err = store.GetRating(ctx, doc.ID, rater.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// countAggregate stores the number of ratings as both mean and count
func countAggregate(ratings []*models.Rating) (float64, int) {
	return float64(len(ratings)), len(ratings)
}

func testRatingRecompute(t *testing.T, store Store) {
	ctx := context.Background()
	owner := seedUser(t, store, "owner")
	doc := seedDocument(t, store, owner, "Contested", "Math", true)

	const raters = 12
	users := make([]*models.User, raters)
	for i := range users {
		users[i] = seedUser(t, store, fmt.Sprintf("rater%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, raters)
	for _, u := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			if _, err := store.UpsertRating(ctx, &models.Rating{DocumentID: doc.ID, UserID: userID, Value: 3}); err != nil {
				errs <- err
				return
			}
			errs <- store.RecomputeDocumentRating(ctx, doc.ID, countAggregate)
		}(u.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	loaded, err := store.GetDocumentByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, raters, loaded.RatingCount, "the last recompute sees every rating")
	assert.InDelta(t, float64(raters), loaded.Rating, 1e-9)

	var seen []*models.Rating
	require.NoError(t, store.RecomputeDocumentRating(ctx, doc.ID, func(ratings []*models.Rating) (float64, int) {
		seen = ratings
		return 0, 0
	}))
	require.Len(t, seen, raters)
	for _, r := range seen {
		assert.Equal(t, doc.ID, r.DocumentID)
		assert.Equal(t, 3, r.Value)
	}

	err = store.RecomputeDocumentRating(ctx, doc.ID+1000, countAggregate)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testUploaderTotals(t *testing.T, store Store) {
	ctx := context.Background()
	owner := seedUser(t, store, "owner")
	other := seedUser(t, store, "other")

	first := seedDocument(t, store, owner, "First", "Math", true)
	seedDocument(t, store, owner, "Second", "Math", false)
	require.NoError(t, store.IncrementDownloads(ctx, first.ID))
	require.NoError(t, store.IncrementDownloads(ctx, first.ID))
	require.NoError(t, store.IncrementViews(ctx, first.ID))

	loaded, err := store.GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.TotalUploads)
	assert.Equal(t, int64(2), loaded.TotalDownloads)

	untouched, err := store.GetUserByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Zero(t, untouched.TotalUploads)
	assert.Zero(t, untouched.TotalDownloads)

	assert.ErrorIs(t, store.IncrementDownloads(ctx, first.ID+1000), ErrNotFound)
}

func testCommentCascade(t *testing.T, store Store) {
	ctx := context.Background()
	owner := seedUser(t, store, "owner")
	doc := seedDocument(t, store, owner, "Discussed", "Math", true)

	root := &models.Comment{DocumentID: doc.ID, UserID: owner.ID, Content: "first"}
	require.NoError(t, store.CreateComment(ctx, root))

	other := &models.Comment{DocumentID: doc.ID, UserID: owner.ID, Content: "second"}
	require.NoError(t, store.CreateComment(ctx, other))

	for i := 0; i < 3; i++ {
		reply := &models.Comment{DocumentID: doc.ID, UserID: owner.ID, Content: fmt.Sprintf("reply %d", i), ParentID: &root.ID}
		require.NoError(t, store.CreateComment(ctx, reply))
	}

	missing := int64(999999)
	err := store.CreateComment(ctx, &models.Comment{DocumentID: doc.ID, UserID: owner.ID, Content: "x", ParentID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	roots, err := store.ListRootComments(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{root.ID, other.ID}, ids(roots, func(c *models.Comment) int64 { return c.ID }))

	replies, err := store.ListReplies(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, replies, 3)

	require.NoError(t, store.UpdateCommentContent(ctx, other.ID, "edited"))
	edited, err := store.GetCommentByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Content)

	deleted, err := store.DeleteCommentWithReplies(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, deleted)

	replies, err = store.ListReplies(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, replies)

	_, err = store.DeleteCommentWithReplies(ctx, root.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testBookmarks(t *testing.T, store Store) {
	ctx := context.Background()
	owner := seedUser(t, store, "owner")
	reader := seedUser(t, store, "reader")
	first := seedDocument(t, store, owner, "First", "Math", true)
	second := seedDocument(t, store, owner, "Second", "Math", true)

	require.NoError(t, store.AddBookmark(ctx, &models.Bookmark{DocumentID: first.ID, UserID: reader.ID}))
	require.NoError(t, store.AddBookmark(ctx, &models.Bookmark{DocumentID: second.ID, UserID: reader.ID}))

	err := store.AddBookmark(ctx, &models.Bookmark{DocumentID: first.ID, UserID: reader.ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	exists, err := store.BookmarkExists(ctx, first.ID, reader.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	bookmarks, err := store.ListBookmarksByUser(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID},
		ids(bookmarks, func(b *models.Bookmark) int64 { return b.DocumentID }))

	require.NoError(t, store.RemoveBookmark(ctx, first.ID, reader.ID))
	assert.ErrorIs(t, store.RemoveBookmark(ctx, first.ID, reader.ID), ErrNotFound)

	exists, err = store.BookmarkExists(ctx, first.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func testFollows(t *testing.T, store Store) {
	ctx := context.Background()
	a := seedUser(t, store, "a")
	b := seedUser(t, store, "b")
	c := seedUser(t, store, "c")

	require.NoError(t, store.AddFollow(ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID}))
	require.NoError(t, store.AddFollow(ctx, &models.Follow{FollowerID: c.ID, FollowingID: b.ID}))
	assert.ErrorIs(t, store.AddFollow(ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID}), ErrDuplicate)

	followers, err := store.ListFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, a.ID}, ids(followers, func(f *models.Follow) int64 { return f.FollowerID }))

	count, err := store.CountFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountFollowing(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	reverse, err := store.FollowExists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, reverse)

	require.NoError(t, store.RemoveFollow(ctx, a.ID, b.ID))
	assert.ErrorIs(t, store.RemoveFollow(ctx, a.ID, b.ID), ErrNotFound)
}

func testCollections(t *testing.T, store Store) {
	ctx := context.Background()
	owner := seedUser(t, store, "owner")
	doc1 := seedDocument(t, store, owner, "One", "Math", true)
	doc2 := seedDocument(t, store, owner, "Two", "Math", true)

	reading := &models.Collection{UserID: owner.ID, Name: "Reading"}
	require.NoError(t, store.CreateCollection(ctx, reading))
	exam := &models.Collection{UserID: owner.ID, Name: "Exam", IsPublic: true}
	require.NoError(t, store.CreateCollection(ctx, exam))

	require.NoError(t, store.AddCollectionItem(ctx, &models.CollectionItem{CollectionID: reading.ID, DocumentID: doc1.ID}))
	require.NoError(t, store.AddCollectionItem(ctx, &models.CollectionItem{CollectionID: reading.ID, DocumentID: doc2.ID}))
	require.NoError(t, store.AddCollectionItem(ctx, &models.CollectionItem{CollectionID: exam.ID, DocumentID: doc2.ID}))
	assert.ErrorIs(t,
		store.AddCollectionItem(ctx, &models.CollectionItem{CollectionID: reading.ID, DocumentID: doc1.ID}),
		ErrDuplicate)

	collections, err := store.ListCollectionsByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{exam.ID, reading.ID}, ids(collections, func(c *models.Collection) int64 { return c.ID }))

	counts, err := store.CountCollectionItems(ctx, []int64{reading.ID, exam.ID})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{reading.ID: 2, exam.ID: 1}, counts)

	containing, err := store.CollectionsContaining(ctx, doc1.ID, []int64{reading.ID, exam.ID})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{reading.ID: true}, containing)

	require.NoError(t, store.RemoveCollectionItem(ctx, reading.ID, doc1.ID))
	assert.ErrorIs(t, store.RemoveCollectionItem(ctx, reading.ID, doc1.ID), ErrNotFound)

	reading.Name = "Later"
	require.NoError(t, store.UpdateCollection(ctx, reading))
	loaded, err := store.GetCollectionByID(ctx, reading.ID)
	require.NoError(t, err)
	assert.Equal(t, "Later", loaded.Name)

	require.NoError(t, store.DeleteCollection(ctx, reading.ID))
	_, err = store.GetCollectionByID(ctx, reading.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := store.ListCollectionItems(ctx, reading.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func testPlatformStats(t *testing.T, store Store) {
	ctx := context.Background()
	owner := seedUser(t, store, "owner")
	seedUser(t, store, "lurker")
	doc := seedDocument(t, store, owner, "Popular", "Math", true)
	seedDocument(t, store, owner, "Hidden", "Math", false)

	require.NoError(t, store.IncrementDownloads(ctx, doc.ID))
	require.NoError(t, store.IncrementViews(ctx, doc.ID))
	require.NoError(t, store.IncrementViews(ctx, doc.ID))

	stats, err := store.GetPlatformStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalDocuments)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalDownloads)
	assert.Equal(t, int64(2), stats.TotalViews)
}
