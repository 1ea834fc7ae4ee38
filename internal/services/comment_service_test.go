package services

import (
	"context"
	"strings"
	"testing"

	"studyhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threadIDs(threads []*models.CommentThread) map[int64][]int64 {
	out := make(map[int64][]int64, len(threads))
	for _, th := range threads {
		replies := make([]int64, len(th.Replies))
		for i, r := range th.Replies {
			replies[i] = r.ID
		}
		out[th.ID] = replies
	}
	return out
}

func TestCommentServiceThreads(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	doc := env.seedDocument(t, alice, "Discussed", "Math", true)

	c1, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: bob.ID, Content: "Great notes"})
	require.NoError(t, err)
	assert.Equal(t, "bob", c1.Author.Username)

	c2, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "Thanks!", ParentID: &c1.ID})
	require.NoError(t, err)
	c3, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "Second root"})
	require.NoError(t, err)

	threads, err := env.comments.ListThreads(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, c1.ID, threads[0].ID, "roots oldest first")
	assert.Equal(t, c3.ID, threads[1].ID)
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, c2.ID, threads[0].Replies[0].ID)
	assert.Equal(t, "alice", threads[0].Replies[0].Author.Username)
	assert.Empty(t, threads[1].Replies)

	empty, err := env.comments.ListThreads(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCommentServiceReplyToReplyJoinsRoot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	doc := env.seedDocument(t, alice, "Nested", "Math", true)

	root, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "root"})
	require.NoError(t, err)
	reply, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "reply", ParentID: &root.ID})
	require.NoError(t, err)
	nested, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "nested", ParentID: &reply.ID})
	require.NoError(t, err)
	require.NotNil(t, nested.ParentID)
	assert.Equal(t, root.ID, *nested.ParentID, "stored against the thread root")

	threads, err := env.comments.ListThreads(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int64][]int64{root.ID: {reply.ID, nested.ID}}, threadIDs(threads))
}

func TestAssembleThreadsAttachesDeepRepliesToRoot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	doc := env.seedDocument(t, alice, "Legacy", "Math", true)

	// rows written without flattening, as older data may be
	root := &models.Comment{DocumentID: doc.ID, UserID: alice.ID, Content: "root"}
	require.NoError(t, env.store.CreateComment(ctx, root))
	reply := &models.Comment{DocumentID: doc.ID, UserID: alice.ID, Content: "reply", ParentID: &root.ID}
	require.NoError(t, env.store.CreateComment(ctx, reply))
	deep := &models.Comment{DocumentID: doc.ID, UserID: alice.ID, Content: "deep", ParentID: &reply.ID}
	require.NoError(t, env.store.CreateComment(ctx, deep))
	deeper := &models.Comment{DocumentID: doc.ID, UserID: alice.ID, Content: "deeper", ParentID: &deep.ID}
	require.NoError(t, env.store.CreateComment(ctx, deeper))

	threads, err := assembleThreads(ctx, env.store, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int64][]int64{root.ID: {reply.ID, deep.ID, deeper.ID}}, threadIDs(threads))
	assert.Equal(t, 4, countComments(threads))
}

func TestRootOf(t *testing.T) {
	parents := map[int64]int64{2: 1, 3: 2, 4: 3, 8: 8, 9: 10, 10: 9}
	assert.Equal(t, int64(1), rootOf(4, parents))
	assert.Equal(t, int64(1), rootOf(1, parents))
	assert.Equal(t, int64(0), rootOf(8, parents), "self loop")
	assert.Equal(t, int64(0), rootOf(9, parents), "two-node cycle")
}

func TestCommentServiceCreateErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	doc := env.seedDocument(t, alice, "First Doc", "Math", true)
	other := env.seedDocument(t, alice, "Other Doc", "Math", true)

	_, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "   "})
	assert.True(t, IsValidationError(err), "blank content: %v", err)

	_, err = env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: strings.Repeat("x", 5001)})
	assert.True(t, IsValidationError(err), "too long: %v", err)

	_, err = env.comments.Create(ctx, &CreateCommentRequest{DocumentID: 999, UserID: alice.ID, Content: "hi"})
	assert.True(t, IsNotFoundError(err))

	_, err = env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: 999, Content: "hi"})
	assert.True(t, IsNotFoundError(err))

	_, err = env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "hi", ParentID: ptr(int64(999))})
	assert.True(t, IsNotFoundError(err), "missing parent: %v", err)

	elsewhere, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: other.ID, UserID: alice.ID, Content: "elsewhere"})
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "hi", ParentID: &elsewhere.ID})
	assert.True(t, IsValidationError(err), "parent on another document: %v", err)
}

func TestCommentServiceUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	doc := env.seedDocument(t, alice, "Editable", "Math", true)

	c, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: bob.ID, Content: "tpyo"})
	require.NoError(t, err)

	// warm the thread cache so the edit has to invalidate it
	_, err = env.comments.ListThreads(ctx, doc.ID)
	require.NoError(t, err)

	_, err = env.comments.Update(ctx, c.ID, alice.ID, "hijacked")
	assert.True(t, IsForbiddenError(err))

	_, err = env.comments.Update(ctx, c.ID, bob.ID, "  ")
	assert.True(t, IsValidationError(err))

	_, err = env.comments.Update(ctx, 999, bob.ID, "anything")
	assert.True(t, IsInvalidStateError(err))

	updated, err := env.comments.Update(ctx, c.ID, bob.ID, "typo")
	require.NoError(t, err)
	assert.Equal(t, "typo", updated.Content)

	threads, err := env.comments.ListThreads(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "typo", threads[0].Content)
}

func TestCommentServiceDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	doc := env.seedDocument(t, alice, "Deletions", "Math", true)

	root, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: bob.ID, Content: "root"})
	require.NoError(t, err)
	reply, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "reply", ParentID: &root.ID})
	require.NoError(t, err)
	keep, err := env.comments.Create(ctx, &CreateCommentRequest{DocumentID: doc.ID, UserID: alice.ID, Content: "keep"})
	require.NoError(t, err)

	_, err = env.comments.ListThreads(ctx, doc.ID)
	require.NoError(t, err)

	assert.True(t, IsForbiddenError(env.comments.Delete(ctx, root.ID, alice.ID)))
	require.NoError(t, env.comments.Delete(ctx, root.ID, bob.ID))

	threads, err := env.comments.ListThreads(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int64][]int64{keep.ID: {}}, threadIDs(threads))

	assert.True(t, IsInvalidStateError(env.comments.Delete(ctx, reply.ID, alice.ID)), "reply went with its root")
	assert.True(t, IsInvalidStateError(env.comments.Delete(ctx, root.ID, bob.ID)))
}
