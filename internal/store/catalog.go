package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/glados/internal/contentkey"
)

// ContentKey is a catalog entry. Rows are created by ingestion and never
// modified by the audit pipeline.
type ContentKey struct {
	ID         int64
	ContentKey []byte
	CreatedAt  time.Time
}

// RecentContentKeys returns up to limit catalog entries, most recently
// created first. Ties on created_at are broken by id, newest first.
//
// Returns an empty slice (not nil) if the catalog is empty.
func (s *Store) RecentContentKeys(ctx context.Context, limit int) ([]ContentKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_key, created_at
		FROM content_keys
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent content keys: %w", err)
	}
	defer rows.Close()

	keys := []ContentKey{}
	for rows.Next() {
		var k ContentKey
		if err := rows.Scan(&k.ID, &k.ContentKey, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan content key: %w", err)
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content keys: %w", err)
	}

	return keys, nil
}

// ResolveContentKey finds the catalog entry a lookup key was derived from.
//
// A catalog key matches when its first contentkey.EncodedLen bytes equal the
// lookup key's encoding, so entries with a type-specific tail still resolve.
// If several entries match, the most recent wins.
//
// Returns found=false (and no error) when no entry matches.
func (s *Store) ResolveContentKey(ctx context.Context, key contentkey.LookupKey) (id int64, found bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT id
		FROM content_keys
		WHERE substr(content_key, 1, ?) = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, contentkey.EncodedLen, key.Encode()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolve content key %s: %w", key, err)
	}
	return id, true, nil
}

// InsertContentKey adds a catalog entry. Ingestion owns the catalog; this
// exists for tooling and tests that need to seed it.
func (s *Store) InsertContentKey(ctx context.Context, raw []byte, createdAt time.Time) (ContentKey, error) {
	createdAt = createdAt.UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO content_keys (content_key, created_at)
		VALUES (?, ?)
	`, raw, createdAt)
	if err != nil {
		return ContentKey{}, fmt.Errorf("insert content key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ContentKey{}, fmt.Errorf("insert content key: last insert id: %w", err)
	}

	return ContentKey{ID: id, ContentKey: raw, CreatedAt: createdAt}, nil
}
