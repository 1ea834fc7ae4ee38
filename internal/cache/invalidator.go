package cache

import "context"

// Invalidator drops cached reads affected by a write. Mutation paths call it
// before returning so a following read on the same path recomputes.
type Invalidator struct {
	rc *ResultCache
}

// NewInvalidator creates an invalidator over the result cache
func NewInvalidator(rc *ResultCache) *Invalidator {
	return &Invalidator{rc: rc}
}

// Documents drops every document listing, search, stats and item entry.
// Listings derive from the whole corpus, so any document write clears them all.
func (i *Invalidator) Documents(ctx context.Context) {
	i.rc.DeletePattern(ctx, documentsPrefix+"*")
}

// User drops the user's own entries plus the document and thread caches,
// which embed uploader and author summaries
func (i *Invalidator) User(ctx context.Context, userID int64) {
	i.rc.Delete(ctx, UserKey(userID), UserProfileKey(userID))
	i.Documents(ctx)
	i.rc.DeletePattern(ctx, commentsPrefix+"*")
}

// Comments drops the assembled threads of one document
func (i *Invalidator) Comments(ctx context.Context, documentID int64) {
	i.rc.Delete(ctx, CommentThreadsKey(documentID))
}

// Profiles drops profile counts for the given users
func (i *Invalidator) Profiles(ctx context.Context, userIDs ...int64) {
	keys := make([]string, len(userIDs))
	for idx, id := range userIDs {
		keys[idx] = UserProfileKey(id)
	}
	i.rc.Delete(ctx, keys...)
}
