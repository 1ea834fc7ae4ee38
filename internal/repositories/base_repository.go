package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"studyhub/internal/database"

	"github.com/lib/pq"
)

// PostgresStore implements Store on top of the database manager.
// Entity methods live in the *_repository.go files of this package.
type PostgresStore struct {
	db *database.Manager
}

// NewPostgresStore creates a relational store bound to an open manager
func NewPostgresStore(db *database.Manager) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

// Ping checks the connection pool
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.DB().PingContext(ctx)
}

// ===============================
// ERROR TRANSLATION
// ===============================

// translateError maps driver errors to the store sentinels
func translateError(err error, subject string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", subject, ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%s: %w", subject, ErrDuplicate)
		case "foreign_key_violation":
			return fmt.Errorf("%s references a missing row: %w", subject, ErrNotFound)
		}
	}

	return fmt.Errorf("%s: %w", subject, err)
}

// requireAffected turns a zero-row update or delete into ErrNotFound
func requireAffected(result sql.Result, subject string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", subject, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", subject, ErrNotFound)
	}
	return nil
}

// ===============================
// QUERY HELPERS
// ===============================

// whereBuilder accumulates conditions with positional placeholders
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

// add appends a condition; each "?" in cond is replaced with the next $n placeholder
func (w *whereBuilder) add(cond string, args ...interface{}) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conditions = append(w.conditions, cond)
}

// clause renders the WHERE clause, or an empty string when nothing was added
func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// next returns the placeholder for an argument appended after the conditions
func (w *whereBuilder) next(arg interface{}) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

// escapeLike escapes LIKE metacharacters so user input matches literally
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
