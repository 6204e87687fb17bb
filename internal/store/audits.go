package store

import (
	"context"
	"fmt"
	"time"
)

// ContentAudit is one recorded audit outcome.
type ContentAudit struct {
	ID           int64
	ContentKeyID int64
	Passed       bool
	CreatedAt    time.Time
}

// AuditView is an audit joined with the catalog key it checked.
type AuditView struct {
	ContentAudit
	ContentKey []byte
}

// CreateAudit appends an audit outcome for a catalog entry, stamped with the
// store's clock.
//
// There is no uniqueness constraint: auditing the same entry
// twice yields two rows.
//
// The referenced entry must exist (foreign key constraint).
func (s *Store) CreateAudit(ctx context.Context, contentKeyID int64, passed bool) (ContentAudit, error) {
	createdAt := s.now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO content_audits (content_key_id, passed, created_at)
		VALUES (?, ?, ?)
	`, contentKeyID, passed, createdAt)
	if err != nil {
		return ContentAudit{}, fmt.Errorf("create audit for content key %d: %w", contentKeyID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ContentAudit{}, fmt.Errorf("create audit: last insert id: %w", err)
	}

	return ContentAudit{
		ID:           id,
		ContentKeyID: contentKeyID,
		Passed:       passed,
		CreatedAt:    createdAt,
	}, nil
}

// ListAudits returns up to limit audits, newest first, each joined with its
// catalog key.
//
// Returns an empty slice (not nil) if no audits exist.
func (s *Store) ListAudits(ctx context.Context, limit int) ([]AuditView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.content_key_id, a.passed, a.created_at, k.content_key
		FROM content_audits a
		JOIN content_keys k ON k.id = a.content_key_id
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	defer rows.Close()

	audits := []AuditView{}
	for rows.Next() {
		var v AuditView
		if err := rows.Scan(&v.ID, &v.ContentKeyID, &v.Passed, &v.CreatedAt, &v.ContentKey); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		audits = append(audits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audits: %w", err)
	}

	return audits, nil
}

// AuditsForContentKey returns every audit of one catalog entry in insertion
// order.
func (s *Store) AuditsForContentKey(ctx context.Context, contentKeyID int64) ([]ContentAudit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_key_id, passed, created_at
		FROM content_audits
		WHERE content_key_id = ?
		ORDER BY id ASC
	`, contentKeyID)
	if err != nil {
		return nil, fmt.Errorf("query audits for content key %d: %w", contentKeyID, err)
	}
	defer rows.Close()

	audits := []ContentAudit{}
	for rows.Next() {
		var a ContentAudit
		if err := rows.Scan(&a.ID, &a.ContentKeyID, &a.Passed, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		audits = append(audits, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audits: %w", err)
	}

	return audits, nil
}
