package cache

import (
	"fmt"
	"strings"
)

// Key prefixes group cached reads by the entity whose writes invalidate them
const (
	documentsPrefix = "documents:"
	commentsPrefix  = "comments:"
	usersPrefix     = "users:"
)

// DocumentListAllKey caches the public listing
func DocumentListAllKey() string {
	return documentsPrefix + "list:all"
}

// DocumentListSubjectKey caches the public listing for one subject
func DocumentListSubjectKey(subject string) string {
	return documentsPrefix + "list:subject:" + subject
}

// DocumentListUserKey caches a user's uploads; scope separates the owner's view from the public one
func DocumentListUserKey(userID int64, includePrivate bool) string {
	scope := "public"
	if includePrivate {
		scope = "all"
	}
	return fmt.Sprintf("%slist:user:%d:%s", documentsPrefix, userID, scope)
}

// DocumentSearchKey caches a search; the query is lower-cased since matching ignores case
func DocumentSearchKey(query string) string {
	return documentsPrefix + "search:" + strings.ToLower(query)
}

func DocumentFeaturedKey() string {
	return documentsPrefix + "featured"
}

func DocumentRecentKey() string {
	return documentsPrefix + "recent"
}

func DocumentStatsKey() string {
	return documentsPrefix + "stats"
}

// DocumentKey caches a single document joined to its uploader
func DocumentKey(id int64) string {
	return fmt.Sprintf("%sitem:%d", documentsPrefix, id)
}

// CommentThreadsKey caches the assembled threads of a document
func CommentThreadsKey(documentID int64) string {
	return fmt.Sprintf("%sdocument:%d", commentsPrefix, documentID)
}

func UserKey(id int64) string {
	return fmt.Sprintf("%s%d", usersPrefix, id)
}

func UserProfileKey(id int64) string {
	return fmt.Sprintf("%s%d:profile", usersPrefix, id)
}
