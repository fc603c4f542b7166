package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Snippet represents a row in the snippets table. A snippet is exclusively
// owned by one user; every query filters on owner_id.
type Snippet struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Code        string    `db:"code"`
	Language    string    `db:"language"`
	IsFavorite  bool      `db:"is_favorite"`
	IsDeleted   bool      `db:"is_deleted"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// SnippetFields holds the caller-settable columns for create and update.
type SnippetFields struct {
	Title       string
	Description string
	Code        string
	Language    string
}

// SearchFilter narrows Search results. Zero-value fields are ignored.
type SearchFilter struct {
	Query         string
	Language      string
	TagIDs        []string
	FavoritesOnly bool
}

// SnippetStore is the sqlx-backed implementation of SnippetStoreIface.
type SnippetStore struct {
	db   *sqlx.DB
	tags *TagStore
}

func NewSnippetStore(db *sqlx.DB, tags *TagStore) *SnippetStore {
	return &SnippetStore{db: db, tags: tags}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *SnippetStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a new snippet owned by ownerID.
func (s *SnippetStore) Create(ctx context.Context, ownerID string, fields SnippetFields) (*Snippet, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO snippets (id, owner_id, title, description, code, language, is_favorite, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), id, ownerID, fields.Title, fields.Description, fields.Code, fields.Language, false, false, now, now)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, ownerID, id)
}

// GetByID returns the snippet matching id for the given owner, or ErrNotFound.
// A snippet belonging to a different owner is reported as not found.
func (s *SnippetStore) GetByID(ctx context.Context, ownerID, id string) (*Snippet, error) {
	var sn Snippet
	err := s.db.GetContext(ctx, &sn, s.q(`SELECT * FROM snippets WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sn, nil
}

// Update modifies the snippet's title, description, code, and language.
func (s *SnippetStore) Update(ctx context.Context, ownerID, id string, fields SnippetFields) (*Snippet, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE snippets SET title = ?, description = ?, code = ?, language = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`), fields.Title, fields.Description, fields.Code, fields.Language, now, id, ownerID)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, ownerID, id)
}

// SetFavorite toggles the favorite flag.
func (s *SnippetStore) SetFavorite(ctx context.Context, ownerID, id string, favorite bool) error {
	return s.setFlag(ctx, ownerID, id, "is_favorite", favorite)
}

// SetDeleted moves the snippet into or out of the trash. Trashed snippets keep
// their tag associations so a restore brings them back intact.
func (s *SnippetStore) SetDeleted(ctx context.Context, ownerID, id string, deleted bool) error {
	return s.setFlag(ctx, ownerID, id, "is_deleted", deleted)
}

func (s *SnippetStore) setFlag(ctx context.Context, ownerID, id, column string, value bool) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE snippets SET `+column+` = ?, updated_at = ? WHERE id = ? AND owner_id = ?
	`), value, now, id, ownerID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete permanently removes the snippet and its tag associations.
func (s *SnippetStore) Delete(ctx context.Context, ownerID, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM snippet_tags WHERE snippet_id = ?`), id)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM snippets WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ListByOwner returns the owner's live (non-trashed) snippets, newest first.
func (s *SnippetStore) ListByOwner(ctx context.Context, ownerID string) ([]*Snippet, error) {
	var snippets []*Snippet
	err := s.db.SelectContext(ctx, &snippets, s.q(`
		SELECT * FROM snippets WHERE owner_id = ? AND is_deleted = ? ORDER BY created_at DESC
	`), ownerID, false)
	if err != nil {
		return nil, err
	}
	return snippets, nil
}

// ListFavorites returns the owner's favorited, non-trashed snippets.
func (s *SnippetStore) ListFavorites(ctx context.Context, ownerID string) ([]*Snippet, error) {
	var snippets []*Snippet
	err := s.db.SelectContext(ctx, &snippets, s.q(`
		SELECT * FROM snippets WHERE owner_id = ? AND is_favorite = ? AND is_deleted = ? ORDER BY created_at DESC
	`), ownerID, true, false)
	if err != nil {
		return nil, err
	}
	return snippets, nil
}

// ListTrash returns the owner's trashed snippets.
func (s *SnippetStore) ListTrash(ctx context.Context, ownerID string) ([]*Snippet, error) {
	var snippets []*Snippet
	err := s.db.SelectContext(ctx, &snippets, s.q(`
		SELECT * FROM snippets WHERE owner_id = ? AND is_deleted = ? ORDER BY updated_at DESC
	`), ownerID, true)
	if err != nil {
		return nil, err
	}
	return snippets, nil
}

// ListByTag returns the owner's non-trashed snippets carrying the named tag.
func (s *SnippetStore) ListByTag(ctx context.Context, ownerID, tagName string) ([]*Snippet, error) {
	var snippets []*Snippet
	err := s.db.SelectContext(ctx, &snippets, s.q(`
		SELECT sn.* FROM snippets sn
		INNER JOIN snippet_tags st ON st.snippet_id = sn.id
		INNER JOIN tags t ON t.id = st.tag_id
		WHERE t.owner_id = ? AND t.name = ? AND sn.owner_id = ? AND sn.is_deleted = ?
		ORDER BY sn.created_at DESC
	`), ownerID, tagName, ownerID, false)
	if err != nil {
		return nil, err
	}
	return snippets, nil
}

// Search returns the owner's non-trashed snippets matching the filter.
// Query matches title, description, or code with LIKE; case sensitivity
// follows the database's LIKE semantics (insensitive on SQLite and MySQL,
// sensitive on PostgreSQL).
func (s *SnippetStore) Search(ctx context.Context, ownerID string, filter SearchFilter) ([]*Snippet, error) {
	query := `SELECT * FROM snippets WHERE owner_id = ? AND is_deleted = ?`
	args := []interface{}{ownerID, false}

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query += ` AND (title LIKE ? OR description LIKE ? OR code LIKE ?)`
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Language != "" {
		query += ` AND language = ?`
		args = append(args, filter.Language)
	}
	if filter.FavoritesOnly {
		query += ` AND is_favorite = ?`
		args = append(args, true)
	}
	if len(filter.TagIDs) > 0 {
		in, inArgs, err := sqlx.In(`AND id IN (SELECT snippet_id FROM snippet_tags WHERE tag_id IN (?))`, filter.TagIDs)
		if err != nil {
			return nil, err
		}
		query += " " + in
		args = append(args, inArgs...)
	}
	query += ` ORDER BY created_at DESC`

	var snippets []*Snippet
	err := s.db.SelectContext(ctx, &snippets, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	return snippets, nil
}

// SetTags makes the association rows for snippetID match tagNames exactly:
// existing tags are reused, missing ones created, and every prior association
// is replaced. The whole rewrite happens in one transaction, so a concurrent
// reader sees either the old set or the new set, never a partial one. There is
// no conflict detection between concurrent calls for the same snippet; the
// last committed transaction wins.
//
// Returns the final tag set, ErrNotFound when the snippet does not belong to
// ownerID, or a tag name validation error before anything is written.
func (s *SnippetStore) SetTags(ctx context.Context, ownerID, snippetID string, tagNames []string) ([]*Tag, error) {
	normalized, err := NormalizeTagNames(tagNames)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Ownership check inside the transaction: the snippet must exist and
	// belong to the caller before any association row is touched.
	var one int
	err = tx.GetContext(ctx, &one, tx.Rebind(`SELECT 1 FROM snippets WHERE id = ? AND owner_id = ?`), snippetID, ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Clear existing associations for this snippet.
	_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM snippet_tags WHERE snippet_id = ?`), snippetID)
	if err != nil {
		return nil, err
	}

	// Upsert each tag for this owner and re-link it.
	tags := make([]*Tag, 0, len(normalized))
	for _, name := range normalized {
		tag, err := s.tags.upsertTx(ctx, tx, ownerID, name)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO snippet_tags (snippet_id, tag_id) VALUES (?, ?)
		`), snippetID, tag.ID)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return tags, nil
}

// CountActive returns the number of non-deleted snippets across all owners.
func (s *SnippetStore) CountActive(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.q(`SELECT COUNT(*) FROM snippets WHERE is_deleted = ?`), false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListTags returns all tags associated with a snippet, ordered by name.
func (s *SnippetStore) ListTags(ctx context.Context, snippetID string) ([]*Tag, error) {
	var tags []*Tag
	err := s.db.SelectContext(ctx, &tags, s.q(`
		SELECT t.* FROM tags t
		INNER JOIN snippet_tags st ON st.tag_id = t.id
		WHERE st.snippet_id = ?
		ORDER BY t.name ASC
	`), snippetID)
	if err != nil {
		return nil, err
	}
	return tags, nil
}
