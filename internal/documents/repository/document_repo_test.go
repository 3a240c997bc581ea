package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erdsync/erd-sync/internal/documents/domain"
)

func setupDocumentRepo(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepository(db), mock
}

func TestDocumentRepository_Create(t *testing.T) {
	repo, mock := setupDocumentRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO documents`).
		WithArgs(sqlmock.AnyArg(), "owner-1", "Library", []byte(`{"items":[]}`)).
		WillReturnRows(sqlmock.NewRows([]string{"revision", "created_at", "updated_at", "last_accessed_at"}).
			AddRow(0, now, now, now))

	doc, err := repo.Create(context.Background(), "owner-1", "Library")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Library", doc.Title)
	assert.JSONEq(t, `{"items":[]}`, string(doc.Data))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_Get(t *testing.T) {
	repo, mock := setupDocumentRepo(t)
	cols := []string{"id", "owner_id", "title", "data", "revision", "created_at", "updated_at", "last_accessed_at"}

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`UPDATE documents SET last_accessed_at`).
			WithArgs("doc-1", "owner-1").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("doc-1", "owner-1", "Library", []byte(`{"items":[]}`), 5, now, now, now))

		doc, err := repo.Get(context.Background(), "owner-1", "doc-1")
		require.NoError(t, err)
		assert.Equal(t, int64(5), doc.Revision)
		assert.Equal(t, "owner-1", doc.OwnerID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE documents SET last_accessed_at`).
			WithArgs("doc-2", "owner-1").
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.Get(context.Background(), "owner-1", "doc-2")
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_ListByOwner(t *testing.T) {
	repo, mock := setupDocumentRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT d.id, d.title, d.last_accessed_at`).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "last_accessed_at", "url"}).
			AddRow("a", "First", now, "data:image/png;base64,AA").
			AddRow("b", "Second", now, ""))

	docs, err := repo.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "data:image/png;base64,AA", docs[0].URL)
	assert.Empty(t, docs[1].URL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_UpdateTitle(t *testing.T) {
	repo, mock := setupDocumentRepo(t)

	mock.ExpectExec(`UPDATE documents SET title`).
		WithArgs("New", "doc-1", "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateTitle(context.Background(), "owner-1", "doc-1", "New"))

	mock.ExpectExec(`UPDATE documents SET title`).
		WithArgs("New", "doc-x", "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateTitle(context.Background(), "owner-1", "doc-x", "New"), domain.ErrDocumentNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_ApplyPatch(t *testing.T) {
	lockCols := []string{"data", "revision"}

	t.Run("writes and bumps revision", func(t *testing.T) {
		repo, mock := setupDocumentRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT data, revision FROM documents`).
			WithArgs("doc-1", "owner-1").
			WillReturnRows(sqlmock.NewRows(lockCols).AddRow([]byte(`{"items":[]}`), 3))
		mock.ExpectQuery(`UPDATE documents SET data`).
			WithArgs([]byte(`{"items":[1]}`), "doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"revision"}).AddRow(4))
		mock.ExpectCommit()

		base := int64(3)
		rev, err := repo.ApplyPatch(context.Background(), "owner-1", "doc-1", &base, func(data json.RawMessage) (json.RawMessage, error) {
			assert.JSONEq(t, `{"items":[]}`, string(data))
			return json.RawMessage(`{"items":[1]}`), nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), rev)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale base revision", func(t *testing.T) {
		repo, mock := setupDocumentRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT data, revision FROM documents`).
			WithArgs("doc-1", "owner-1").
			WillReturnRows(sqlmock.NewRows(lockCols).AddRow([]byte(`{"items":[]}`), 7))
		mock.ExpectRollback()

		base := int64(6)
		called := false
		_, err := repo.ApplyPatch(context.Background(), "owner-1", "doc-1", &base, func(data json.RawMessage) (json.RawMessage, error) {
			called = true
			return data, nil
		})
		assert.ErrorIs(t, err, domain.ErrRevisionConflict)
		assert.False(t, called)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("patch failure rolls back", func(t *testing.T) {
		repo, mock := setupDocumentRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT data, revision FROM documents`).
			WithArgs("doc-1", "owner-1").
			WillReturnRows(sqlmock.NewRows(lockCols).AddRow([]byte(`{"items":[]}`), 1))
		mock.ExpectRollback()

		boom := errors.New("boom")
		_, err := repo.ApplyPatch(context.Background(), "owner-1", "doc-1", nil, func(json.RawMessage) (json.RawMessage, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document", func(t *testing.T) {
		repo, mock := setupDocumentRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT data, revision FROM documents`).
			WithArgs("doc-9", "owner-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.ApplyPatch(context.Background(), "owner-1", "doc-9", nil, nil)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentRepository_CreateVersion(t *testing.T) {
	repo, mock := setupDocumentRepo(t)
	now := time.Now()
	data := json.RawMessage(`{"items":[]}`)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM documents`).
		WithArgs("doc-1", "owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
	mock.ExpectQuery(`INSERT INTO document_versions`).
		WithArgs(sqlmock.AnyArg(), "doc-1", []byte(data), "img", "v1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectCommit()

	v, err := repo.CreateVersion(context.Background(), "owner-1", "doc-1", data, "img", "v1")
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "v1", v.Label)
	assert.Equal(t, now, v.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_ListVersions(t *testing.T) {
	repo, mock := setupDocumentRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("doc-1", "owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT id, image, COALESCE\(label, ''\), created_at`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image", "label", "created_at"}).
			AddRow("v1", "img1", "", now).
			AddRow("v2", "img2", "second", now))

	versions, err := repo.ListVersions(context.Background(), "owner-1", "doc-1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "second", versions[1].Label)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("doc-2", "owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	_, err = repo.ListVersions(context.Background(), "owner-1", "doc-2")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_SwitchVersion(t *testing.T) {
	t.Run("restores data", func(t *testing.T) {
		repo, mock := setupDocumentRepo(t)
		stored := []byte(`{"items":[{"type":"text","item":{"id":"t"}}]}`)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM documents`).
			WithArgs("doc-1", "owner-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
		mock.ExpectQuery(`SELECT data FROM document_versions`).
			WithArgs("v1", "doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(stored))
		mock.ExpectQuery(`UPDATE documents SET data`).
			WithArgs(stored, "doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"revision"}).AddRow(12))
		mock.ExpectCommit()

		data, rev, err := repo.SwitchVersion(context.Background(), "owner-1", "doc-1", "v1")
		require.NoError(t, err)
		assert.Equal(t, int64(12), rev)
		assert.JSONEq(t, string(stored), string(data))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown version", func(t *testing.T) {
		repo, mock := setupDocumentRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM documents`).
			WithArgs("doc-1", "owner-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
		mock.ExpectQuery(`SELECT data FROM document_versions`).
			WithArgs("nope", "doc-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, _, err := repo.SwitchVersion(context.Background(), "owner-1", "doc-1", "nope")
		assert.ErrorIs(t, err, domain.ErrVersionNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentRepository_PruneVersions(t *testing.T) {
	repo, mock := setupDocumentRepo(t)

	mock.ExpectExec(`DELETE FROM document_versions`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PruneVersions(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = repo.PruneVersions(context.Background(), 0)
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
