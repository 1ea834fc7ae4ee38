package services

import (
	"context"
	"fmt"
	"testing"

	"studyhub/internal/cache"
	"studyhub/internal/models"
	"studyhub/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentServiceCreate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")

	doc, err := env.documents.Create(ctx, &CreateDocumentRequest{
		UserID:   alice.ID,
		Title:    "  Organic Chemistry  ",
		Subject:  "Chemistry",
		Tags:     []string{"exam", " exam ", "", "notes"},
		FileType: "pdf",
		FileName: "chem.pdf",
		FileSize: 4096,
		FilePath: "/uploads/chem.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Organic Chemistry", doc.Title)
	assert.Equal(t, models.StringArray{"exam", "notes"}, doc.Tags)
	assert.True(t, doc.IsPublic, "documents default to public")
	assert.Zero(t, doc.Downloads)
	assert.Equal(t, "0.00", doc.RatingString())

	_, err = env.documents.Create(ctx, &CreateDocumentRequest{
		UserID: 999, Title: "Ghost", Subject: "Math",
		FileType: "pdf", FileName: "g.pdf", FilePath: "/g.pdf",
	})
	assert.True(t, IsNotFoundError(err), "missing uploader: %v", err)

	_, err = env.documents.Create(ctx, &CreateDocumentRequest{
		UserID: alice.ID, Title: "Slides", Subject: "Math",
		FileType: "pptx", FileName: "s.pptx", FilePath: "/s.pptx",
	})
	assert.True(t, IsValidationError(err), "unknown file type: %v", err)
}

func TestDocumentServiceListingVisibility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")

	public := env.seedDocument(t, alice, "Calculus I", "Math", true)
	private := env.seedDocument(t, alice, "Calculus Drafts", "Math", false)
	other := env.seedDocument(t, bob, "Mechanics", "Physics", true)

	all, err := env.documents.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{other.ID, public.ID}, documentIDs(all), "newest first, private excluded")
	assert.Equal(t, "bob", all[0].Uploader.Username)

	math, err := env.documents.ListBySubject(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, []int64{public.ID}, documentIDs(math))

	lower, err := env.documents.ListBySubject(ctx, "math")
	require.NoError(t, err)
	assert.Empty(t, lower, "subject match is exact")

	asOwner, err := env.documents.ListByUser(ctx, alice.ID, &alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{private.ID, public.ID}, documentIDs(asOwner))

	asVisitor, err := env.documents.ListByUser(ctx, alice.ID, &bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{public.ID}, documentIDs(asVisitor))

	anonymous, err := env.documents.ListByUser(ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{public.ID}, documentIDs(anonymous))
}

func TestDocumentServiceSearch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")

	calc := env.seedDocument(t, alice, "Calculus Review", "Math", true)
	physics := env.seedDocument(t, alice, "Kinematics", "Physics", true)
	_, err := env.documents.Update(ctx, &UpdateDocumentRequest{
		DocumentID:  physics.ID,
		UserID:      alice.ID,
		Description: ptr("Uses basic calculus throughout"),
	})
	require.NoError(t, err)
	env.seedDocument(t, alice, "Hidden Calculus", "Math", false)

	results, err := env.documents.Search(ctx, "CALCULUS")
	require.NoError(t, err)
	assert.Equal(t, []int64{physics.ID, calc.ID}, documentIDs(results))

	bySubject, err := env.documents.Search(ctx, "phys")
	require.NoError(t, err)
	assert.Equal(t, []int64{physics.ID}, documentIDs(bySubject))

	blank, err := env.documents.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, blank)

	none, err := env.documents.Search(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, none, "wildcards are matched literally")
}

func TestDocumentServiceFeaturedAndRecent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")

	plain := env.seedDocument(t, alice, "Plain Notes", "History", true)
	rated := env.seedDocument(t, alice, "Great Notes", "History", true)
	popular := env.seedDocument(t, alice, "Popular Notes", "History", true)
	almost := env.seedDocument(t, alice, "Almost Popular", "History", true)

	_, err := env.ratings.Submit(ctx, &SubmitRatingRequest{DocumentID: rated.ID, UserID: bob.ID, Value: 5})
	require.NoError(t, err)
	_, err = env.ratings.Submit(ctx, &SubmitRatingRequest{DocumentID: plain.ID, UserID: bob.ID, Value: 4})
	require.NoError(t, err)

	for i := 0; i < 101; i++ {
		require.NoError(t, env.documents.IncrementDownloads(ctx, popular.ID))
	}
	for i := 0; i < 100; i++ {
		require.NoError(t, env.documents.IncrementDownloads(ctx, almost.ID))
	}

	featured, err := env.documents.ListFeatured(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{rated.ID, popular.ID}, documentIDs(featured))

	for i := 0; i < 12; i++ {
		env.seedDocument(t, bob, fmt.Sprintf("Bulk %02d", i), "Misc", true)
	}

	recent, err := env.documents.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, repositories.RecentLimit)
	assert.Equal(t, "Bulk 11", recent[0].Title)
}

func TestDocumentServiceFeaturedLimit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")

	for i := 0; i < 8; i++ {
		doc := env.seedDocument(t, alice, fmt.Sprintf("Top %d", i), "Math", true)
		_, err := env.ratings.Submit(ctx, &SubmitRatingRequest{DocumentID: doc.ID, UserID: bob.ID, Value: 5})
		require.NoError(t, err)
	}

	featured, err := env.documents.ListFeatured(ctx)
	require.NoError(t, err)
	assert.Len(t, featured, repositories.FeaturedLimit)
}

func TestDocumentServiceUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	doc := env.seedDocument(t, alice, "Draft Title", "Math", true)

	_, err := env.documents.Update(ctx, &UpdateDocumentRequest{DocumentID: doc.ID, UserID: bob.ID, Title: ptr("Stolen")})
	assert.True(t, IsForbiddenError(err))

	_, err = env.documents.Update(ctx, &UpdateDocumentRequest{DocumentID: 999, UserID: alice.ID, Title: ptr("Nothing")})
	assert.True(t, IsInvalidStateError(err))

	// warm caches, then update and read again
	_, err = env.documents.ListAll(ctx)
	require.NoError(t, err)
	_, err = env.documents.GetWithUploader(ctx, doc.ID)
	require.NoError(t, err)

	updated, err := env.documents.Update(ctx, &UpdateDocumentRequest{
		DocumentID: doc.ID,
		UserID:     alice.ID,
		Title:      ptr("Final Title"),
		Tags:       []string{"final"},
		IsPublic:   ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Final Title", updated.Title)
	assert.Equal(t, "Math", updated.Subject, "nil fields are unchanged")

	all, err := env.documents.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "now private")

	loaded, err := env.documents.GetWithUploader(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final Title", loaded.Title)
	assert.Equal(t, models.StringArray{"final"}, loaded.Tags)
}

func TestDocumentServiceCounters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	doc := env.seedDocument(t, alice, "Counted", "Math", true)

	_, err := env.documents.GetWithUploader(ctx, doc.ID)
	require.NoError(t, err)

	require.NoError(t, env.documents.IncrementViews(ctx, doc.ID))
	require.NoError(t, env.documents.IncrementViews(ctx, doc.ID))
	require.NoError(t, env.documents.IncrementDownloads(ctx, doc.ID))

	loaded, err := env.documents.GetWithUploader(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Views)
	assert.Equal(t, int64(1), loaded.Downloads)

	assert.True(t, IsNotFoundError(env.documents.IncrementViews(ctx, 999)))
	assert.True(t, IsNotFoundError(env.documents.IncrementDownloads(ctx, 999)))
}

func TestDocumentServiceMaintainsUploaderTotals(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")

	before, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, before.TotalUploads)
	require.True(t, env.rc.Has(ctx, cache.UserKey(alice.ID)))

	doc := env.seedDocument(t, alice, "Uploaded", "Math", true)
	env.seedDocument(t, alice, "Drafts", "Math", false)

	_, err = env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NoError(t, env.documents.IncrementDownloads(ctx, doc.ID))
	require.NoError(t, env.documents.IncrementDownloads(ctx, doc.ID))
	require.NoError(t, env.documents.IncrementViews(ctx, doc.ID))

	after, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), after.TotalUploads)
	assert.Equal(t, int64(2), after.TotalDownloads, "views do not count as downloads")

	profile, err := env.users.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.TotalDownloads)
}

func TestDocumentServiceStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	doc := env.seedDocument(t, alice, "Stats One", "Math", true)
	require.NoError(t, env.documents.IncrementDownloads(ctx, doc.ID))

	stats, err := env.documents.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalDocuments)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalDownloads)
	assert.True(t, env.rc.Has(ctx, cache.DocumentStatsKey()))

	env.seedDocument(t, alice, "Stats Two", "Math", false)
	stats, err = env.documents.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalDocuments, "creating a document invalidates stats")
}

func TestDocumentServiceDetails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	doc := env.seedDocument(t, alice, "Detailed", "Math", true)
	hidden := env.seedDocument(t, alice, "Hidden", "Math", false)

	_, err := env.ratings.Submit(ctx, &SubmitRatingRequest{DocumentID: doc.ID, UserID: bob.ID, Value: 4, Review: ptr("Clear")})
	require.NoError(t, err)
	root, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: bob.ID, Content: "Question"})
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "Answer", ParentID: &root.ID})
	require.NoError(t, err)
	_, err = env.relationships.Bookmark(ctx, doc.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.relationships.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	anonymous, err := env.documents.GetWithDetails(ctx, doc.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", anonymous.Uploader.Username)
	assert.Equal(t, "4.00", anonymous.RatingString())
	require.Len(t, anonymous.Ratings, 1)
	assert.Equal(t, "bob", anonymous.Ratings[0].User.Username)
	require.Len(t, anonymous.Comments, 1)
	assert.Len(t, anonymous.Comments[0].Replies, 1)
	assert.Equal(t, 2, anonymous.CommentCount)
	assert.Nil(t, anonymous.UserRating)
	assert.False(t, anonymous.IsBookmarked)

	asBob, err := env.documents.GetWithDetails(ctx, doc.ID, &bob.ID)
	require.NoError(t, err)
	require.NotNil(t, asBob.UserRating)
	assert.Equal(t, 4, asBob.UserRating.Value)
	assert.True(t, asBob.IsBookmarked)
	assert.True(t, asBob.IsFollowingUploader)
	assert.False(t, asBob.IsOwner)

	asAlice, err := env.documents.GetWithDetails(ctx, doc.ID, &alice.ID)
	require.NoError(t, err)
	assert.True(t, asAlice.IsOwner)
	assert.Nil(t, asAlice.UserRating)
	assert.False(t, asAlice.IsFollowingUploader)

	_, err = env.documents.GetWithDetails(ctx, hidden.ID, &bob.ID)
	assert.True(t, IsNotFoundError(err), "private documents are hidden from other users")
	_, err = env.documents.GetWithDetails(ctx, hidden.ID, &alice.ID)
	assert.NoError(t, err)

	_, err = env.documents.GetWithDetails(ctx, 999, nil)
	assert.True(t, IsNotFoundError(err))
}

func TestDocumentServiceWithoutCache(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	rc := cache.NewResultCache(nil, 0, nil)
	inv := cache.NewInvalidator(rc)
	users := NewUserService(store, rc, inv)
	documents := NewDocumentService(store, rc, inv, nil)

	alice, err := users.Create(ctx, &CreateUserRequest{Username: "alice", Email: "alice@example.edu", Password: "correct-horse"})
	require.NoError(t, err)
	_, err = documents.Create(ctx, &CreateDocumentRequest{
		UserID: alice.ID, Title: "Uncached", Subject: "Math",
		FileType: "text", FileName: "u.txt", FilePath: "/u.txt",
	})
	require.NoError(t, err)

	all, err := documents.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
