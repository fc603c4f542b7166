package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested entity does not exist or is not
// owned by the caller. The two cases are deliberately indistinguishable so
// that existence of another user's data never leaks.
var ErrNotFound = errors.New("not found")

// SnippetStoreIface exposes all snippet data operations.
// No handler may query the DB directly; all access goes through this interface.
type SnippetStoreIface interface {
	Create(ctx context.Context, ownerID string, fields SnippetFields) (*Snippet, error)
	GetByID(ctx context.Context, ownerID, id string) (*Snippet, error)
	Update(ctx context.Context, ownerID, id string, fields SnippetFields) (*Snippet, error)
	Delete(ctx context.Context, ownerID, id string) error
	SetFavorite(ctx context.Context, ownerID, id string, favorite bool) error
	SetDeleted(ctx context.Context, ownerID, id string, deleted bool) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Snippet, error)
	ListFavorites(ctx context.Context, ownerID string) ([]*Snippet, error)
	ListTrash(ctx context.Context, ownerID string) ([]*Snippet, error)
	ListByTag(ctx context.Context, ownerID, tagName string) ([]*Snippet, error)
	Search(ctx context.Context, ownerID string, filter SearchFilter) ([]*Snippet, error)
	SetTags(ctx context.Context, ownerID, snippetID string, tagNames []string) ([]*Tag, error)
	ListTags(ctx context.Context, snippetID string) ([]*Tag, error)
}

// TagStoreIface exposes tag operations. Every operation is scoped to an owner.
type TagStoreIface interface {
	Upsert(ctx context.Context, ownerID, name string) (*Tag, error)
	GetByName(ctx context.Context, ownerID, name string) (*Tag, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Tag, error)
	ListWithCounts(ctx context.Context, ownerID string) ([]*TagWithCount, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// isUniqueConstraintError checks whether err indicates a unique constraint violation.
// Works across SQLite, PostgreSQL, and MySQL.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}
