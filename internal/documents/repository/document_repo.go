package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/erdsync/erd-sync/internal/documents/domain"
	"github.com/google/uuid"
)

// DocumentRepository handles PostgreSQL operations for documents and their versions
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// PatchFunc turns the stored data into the new data.
type PatchFunc func(data json.RawMessage) (json.RawMessage, error)

func (r *DocumentRepository) Create(ctx context.Context, ownerID, title string) (*domain.Document, error) {
	doc := &domain.Document{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Title:   title,
		Data:    domain.EmptyData,
	}

	query := `
		INSERT INTO documents (id, owner_id, title, data)
		VALUES ($1, $2, $3, $4)
		RETURNING revision, created_at, updated_at, last_accessed_at
	`
	err := r.db.QueryRowContext(ctx, query, doc.ID, ownerID, title, []byte(doc.Data)).
		Scan(&doc.Revision, &doc.CreatedAt, &doc.UpdatedAt, &doc.LastAccessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

// ListByOwner returns the owner's documents, most recently opened first.
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Summary, error) {
	query := `
		SELECT d.id, d.title, d.last_accessed_at,
		       COALESCE((SELECT v.image FROM document_versions v
		                 WHERE v.document_id = d.id
		                 ORDER BY v.created_at DESC LIMIT 1), '')
		FROM documents d
		WHERE d.owner_id = $1
		ORDER BY d.last_accessed_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	out := []domain.Summary{}
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.LastAccessedAt, &s.URL); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return out, nil
}

// Get loads a document and marks it as accessed.
func (r *DocumentRepository) Get(ctx context.Context, ownerID, id string) (*domain.Document, error) {
	query := `
		UPDATE documents SET last_accessed_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING id, owner_id, title, data, revision, created_at, updated_at, last_accessed_at
	`
	var doc domain.Document
	var data []byte
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.Title,
		&data,
		&doc.Revision,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.LastAccessedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc.Data = json.RawMessage(data)
	return &doc, nil
}

// Touch marks a document as accessed without reading it.
func (r *DocumentRepository) Touch(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET last_accessed_at = NOW() WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to touch document: %w", err)
	}
	return expectOneRow(res, domain.ErrDocumentNotFound)
}

func (r *DocumentRepository) UpdateTitle(ctx context.Context, ownerID, id, title string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE documents SET title = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
	`, title, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}
	return expectOneRow(res, domain.ErrDocumentNotFound)
}

// ApplyPatch rewrites the document data under a row lock and bumps the
// revision. With a non-nil baseRevision the write only happens when it still
// matches the stored revision.
func (r *DocumentRepository) ApplyPatch(ctx context.Context, ownerID, id string, baseRevision *int64, fn PatchFunc) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin patch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var data []byte
	var revision int64
	err = tx.QueryRowContext(ctx, `
		SELECT data, revision FROM documents
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`, id, ownerID).Scan(&data, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrDocumentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock document: %w", err)
	}

	if baseRevision != nil && *baseRevision != revision {
		return 0, fmt.Errorf("%w: base %d, current %d", domain.ErrRevisionConflict, *baseRevision, revision)
	}

	next, err := fn(json.RawMessage(data))
	if err != nil {
		return 0, err
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE documents SET data = $1, revision = revision + 1, updated_at = NOW()
		WHERE id = $2
		RETURNING revision
	`, []byte(next), id).Scan(&revision)
	if err != nil {
		return 0, fmt.Errorf("failed to write document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit patch: %w", err)
	}
	return revision, nil
}

func (r *DocumentRepository) CreateVersion(ctx context.Context, ownerID, docID string, data json.RawMessage, image, label string) (*domain.Version, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var ok string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM documents
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`, docID, ownerID).Scan(&ok)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock document: %w", err)
	}

	v := &domain.Version{
		ID:         uuid.New().String(),
		DocumentID: docID,
		Data:       data,
		Image:      image,
		Label:      label,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO document_versions (id, document_id, data, image, label)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at
	`, v.ID, docID, []byte(data), image, label).Scan(&v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit version: %w", err)
	}
	return v, nil
}

// ListVersions returns the versions of a document, oldest first.
func (r *DocumentRepository) ListVersions(ctx context.Context, ownerID, docID string) ([]domain.Version, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1 AND owner_id = $2)`, docID, ownerID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check document: %w", err)
	}
	if !exists {
		return nil, domain.ErrDocumentNotFound
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, image, COALESCE(label, ''), created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY created_at ASC
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	out := []domain.Version{}
	for rows.Next() {
		v := domain.Version{DocumentID: docID}
		if err := rows.Scan(&v.ID, &v.Image, &v.Label, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return out, nil
}

// SwitchVersion copies a version's data into the document and bumps the revision.
func (r *DocumentRepository) SwitchVersion(ctx context.Context, ownerID, docID, versionID string) (json.RawMessage, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin switch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var ok string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM documents
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`, docID, ownerID).Scan(&ok)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock document: %w", err)
	}

	var data []byte
	err = tx.QueryRowContext(ctx, `
		SELECT data FROM document_versions
		WHERE id = $1 AND document_id = $2
	`, versionID, docID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, domain.ErrVersionNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get version: %w", err)
	}

	var revision int64
	err = tx.QueryRowContext(ctx, `
		UPDATE documents SET data = $1, revision = revision + 1, updated_at = NOW()
		WHERE id = $2
		RETURNING revision
	`, data, docID).Scan(&revision)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to restore version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit switch: %w", err)
	}
	return json.RawMessage(data), revision, nil
}

// PruneVersions keeps the newest keep versions of every document and deletes the rest.
func (r *DocumentRepository) PruneVersions(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM document_versions
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY document_id ORDER BY created_at DESC) AS rn
				FROM document_versions
			) ranked
			WHERE ranked.rn > $1
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune versions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune versions: %w", err)
	}
	return n, nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
