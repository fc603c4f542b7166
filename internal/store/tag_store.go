package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Tag represents a row in the tags table. Tags are private to their owner;
// (owner_id, name) is unique and name matching is case-sensitive.
type Tag struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// TagWithCount is a Tag augmented with the number of live snippets using it.
type TagWithCount struct {
	Tag
	SnippetCount int `db:"snippet_count"`
}

// TagStore is the sqlx-backed implementation of TagStoreIface.
type TagStore struct {
	db *sqlx.DB
}

func NewTagStore(db *sqlx.DB) *TagStore {
	return &TagStore{db: db}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *TagStore) q(query string) string { return s.db.Rebind(query) }

// Upsert creates a tag if no tag with that name exists for the owner, or
// returns the existing one. A unique-constraint violation on insert means a
// concurrent caller created the tag first; the row is re-read instead of
// surfacing the conflict.
func (s *TagStore) Upsert(ctx context.Context, ownerID, name string) (*Tag, error) {
	var existing Tag
	err := s.db.GetContext(ctx, &existing, s.q(`SELECT * FROM tags WHERE owner_id = ? AND name = ?`), ownerID, name)
	if err == nil {
		return &existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO tags (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)
	`), id, ownerID, name, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			err = s.db.GetContext(ctx, &existing, s.q(`SELECT * FROM tags WHERE owner_id = ? AND name = ?`), ownerID, name)
			if err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}

	return &Tag{ID: id, OwnerID: ownerID, Name: name, CreatedAt: now}, nil
}

// upsertTx is the transactional variant used by SnippetStore.SetTags. The
// owner filter on the lookup is mandatory: another owner's tag with the same
// name must never be returned. The insert runs under a savepoint so a unique
// violation can be rolled back without aborting the enclosing transaction;
// PostgreSQL otherwise refuses every statement after the violation.
func (s *TagStore) upsertTx(ctx context.Context, tx *sqlx.Tx, ownerID, name string) (*Tag, error) {
	var existing Tag
	err := tx.GetContext(ctx, &existing, tx.Rebind(`SELECT * FROM tags WHERE owner_id = ? AND name = ?`), ownerID, name)
	if err == nil {
		return &existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `SAVEPOINT tag_upsert`); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO tags (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)
	`), id, ownerID, name, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			// A concurrent caller won the insert race. Discard the failed
			// insert and read their row.
			if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT tag_upsert`); rbErr != nil {
				return nil, rbErr
			}
			err = tx.GetContext(ctx, &existing, tx.Rebind(`SELECT * FROM tags WHERE owner_id = ? AND name = ?`), ownerID, name)
			if err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT tag_upsert`); err != nil {
		return nil, err
	}

	return &Tag{ID: id, OwnerID: ownerID, Name: name, CreatedAt: now}, nil
}

// GetByName returns the owner's tag matching name, or ErrNotFound.
func (s *TagStore) GetByName(ctx context.Context, ownerID, name string) (*Tag, error) {
	var t Tag
	err := s.db.GetContext(ctx, &t, s.q(`SELECT * FROM tags WHERE owner_id = ? AND name = ?`), ownerID, name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByOwner returns all of the owner's tags ordered by name.
func (s *TagStore) ListByOwner(ctx context.Context, ownerID string) ([]*Tag, error) {
	var tags []*Tag
	err := s.db.SelectContext(ctx, &tags, s.q(`SELECT * FROM tags WHERE owner_id = ? ORDER BY name ASC`), ownerID)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// ListWithCounts returns all of the owner's tags with the number of
// non-trashed snippets attached to each. Unused tags appear with a zero count.
func (s *TagStore) ListWithCounts(ctx context.Context, ownerID string) ([]*TagWithCount, error) {
	var tags []*TagWithCount
	err := s.db.SelectContext(ctx, &tags, s.q(`
		SELECT t.*, COUNT(sn.id) AS snippet_count
		FROM tags t
		LEFT JOIN snippet_tags st ON st.tag_id = t.id
		LEFT JOIN snippets sn ON sn.id = st.snippet_id AND sn.is_deleted = ?
		WHERE t.owner_id = ?
		GROUP BY t.id, t.owner_id, t.name, t.created_at
		ORDER BY t.name ASC
	`), false, ownerID)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Delete removes the owner's tag and all of its snippet associations in one
// transaction. Returns ErrNotFound if the tag does not exist for that owner.
func (s *TagStore) Delete(ctx context.Context, ownerID, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM tags WHERE id = ? AND owner_id = ?`), id, ownerID)
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

	// Associations cascade explicitly rather than relying on FK pragmas.
	_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM snippet_tags WHERE tag_id = ?`), id)
	if err != nil {
		return err
	}

	return tx.Commit()
}
