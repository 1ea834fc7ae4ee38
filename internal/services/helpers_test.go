package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"studyhub/internal/cache"
	"studyhub/internal/config"
	"studyhub/internal/models"
	"studyhub/internal/repositories"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	passwordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

// testEnv is a full service stack over the in-memory store and cache
type testEnv struct {
	store       *repositories.MemoryStore
	rc          *cache.ResultCache
	invalidator *cache.Invalidator

	users         UserService
	documents     DocumentService
	ratings       RatingService
	comments      CommentService
	relationships RelationshipService
	collections   CollectionService
}

// steppingClock returns strictly increasing timestamps so newest-first ordering is deterministic
func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := cache.NewMemoryCache(&config.CacheConfig{
		Provider:        "memory",
		TTL:             time.Minute,
		MaxKeys:         1000,
		CleanupInterval: time.Minute,
	}, zaptest.NewLogger(t))
	t.Cleanup(func() { backend.Close() })

	store := repositories.NewMemoryStore(repositories.WithClock(steppingClock()))
	rc := cache.NewResultCache(backend, time.Minute, zaptest.NewLogger(t))
	inv := cache.NewInvalidator(rc)

	return &testEnv{
		store:         store,
		rc:            rc,
		invalidator:   inv,
		users:         NewUserService(store, rc, inv),
		documents:     NewDocumentService(store, rc, inv, nil),
		ratings:       NewRatingService(store, inv),
		comments:      NewCommentService(store, rc, inv, nil),
		relationships: NewRelationshipService(store, inv),
		collections:   NewCollectionService(store),
	}
}

func (e *testEnv) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), &CreateUserRequest{
		Username: username,
		Email:    username + "@example.edu",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) seedDocument(t *testing.T, owner *models.User, title, subject string, public bool) *models.Document {
	t.Helper()
	doc, err := e.documents.Create(context.Background(), &CreateDocumentRequest{
		UserID:   owner.ID,
		Title:    title,
		Subject:  subject,
		Tags:     []string{"notes"},
		FileType: "pdf",
		FileName: "notes.pdf",
		FileSize: 2048,
		FilePath: "/uploads/notes.pdf",
		IsPublic: &public,
	})
	require.NoError(t, err)
	return doc
}

func ptr[T any](v T) *T {
	return &v
}

func documentIDs(docs []*models.DocumentWithUploader) []int64 {
	out := make([]int64, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
