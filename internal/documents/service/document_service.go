package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	diagram "github.com/erdsync/erd-sync/internal/diagram/domain"
	"github.com/erdsync/erd-sync/internal/diagram/patch"
	"github.com/erdsync/erd-sync/internal/documents/domain"
	"github.com/erdsync/erd-sync/internal/documents/repository"
	"github.com/erdsync/erd-sync/internal/logging"
)

// DocumentService handles business logic for documents. cache may be nil.
type DocumentService struct {
	repo  *repository.DocumentRepository
	cache *repository.DocumentCache
	log   zerolog.Logger
}

func NewDocumentService(repo *repository.DocumentRepository, cache *repository.DocumentCache, log zerolog.Logger) *DocumentService {
	return &DocumentService{repo: repo, cache: cache, log: log}
}

func (s *DocumentService) Create(ctx context.Context, ownerID, title string) (*domain.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	return s.repo.Create(ctx, ownerID, title)
}

func (s *DocumentService) List(ctx context.Context, ownerID string) ([]domain.Summary, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get reads through the cache. A cached copy owned by someone else counts as not found.
func (s *DocumentService) Get(ctx context.Context, ownerID, id string) (*domain.Document, error) {
	l := logging.FromContext(ctx, s.log, "get_document")

	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		doc, err := s.cache.Get(ctx, id)
		switch {
		case err == nil:
			if doc.OwnerID != ownerID {
				return nil, domain.ErrDocumentNotFound
			}
			if err := s.repo.Touch(ctx, ownerID, id); err != nil {
				return nil, err
			}
			return doc, nil
		case !errors.Is(err, repository.ErrCacheMiss):
			l.Warn().Err(err).Str("document_id", id).Msg("cache read failed")
		}
		if gen, err = s.cache.Generation(ctx, id); err != nil {
			l.Warn().Err(err).Str("document_id", id).Msg("cache generation read failed")
		} else {
			cacheable = true
		}
	}

	doc, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if cacheable {
		stored, err := s.cache.Set(ctx, doc, gen)
		switch {
		case err != nil:
			l.Warn().Err(err).Str("document_id", id).Msg("cache write failed")
		case !stored:
			l.Debug().Str("document_id", id).Msg("document changed while loading, not cached")
		}
	}
	return doc, nil
}

func (s *DocumentService) UpdateTitle(ctx context.Context, ownerID, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.ErrInvalidTitle
	}
	if err := s.repo.UpdateTitle(ctx, ownerID, id, title); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// ApplyPatch replays ops on the stored items and returns the new revision.
// Ops may only address a single item or one of its fields, and every write
// goes through the item model, so the stored data stays a valid item sequence.
func (s *DocumentService) ApplyPatch(ctx context.Context, ownerID, id string, ops []patch.Operation, baseRevision *int64) (int64, error) {
	l := logging.FromContext(ctx, s.log, "apply_patch")

	rev, err := s.repo.ApplyPatch(ctx, ownerID, id, baseRevision, func(data json.RawMessage) (json.RawMessage, error) {
		current, err := decodeData(data)
		if err != nil {
			return nil, fmt.Errorf("%w: stored data: %v", domain.ErrInvalidData, err)
		}
		if err := patch.CheckElementPaths(ops); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPatch, err)
		}
		items, err := patch.ApplyItems(current.Items, ops)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPatch, err)
		}
		return json.Marshal(diagram.Data{Items: items})
	})
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, id)
	l.Debug().Str("document_id", id).Int("ops", len(ops)).Int64("revision", rev).Msg("patch applied")
	return rev, nil
}

// Commit stores items as a new version. The live document is left as is.
func (s *DocumentService) Commit(ctx context.Context, ownerID, id string, data json.RawMessage, image, label string) (*domain.Version, error) {
	if _, err := decodeData(data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidData, err)
	}
	return s.repo.CreateVersion(ctx, ownerID, id, data, image, label)
}

func (s *DocumentService) ListVersions(ctx context.Context, ownerID, id string) ([]domain.Version, error) {
	return s.repo.ListVersions(ctx, ownerID, id)
}

func (s *DocumentService) SwitchVersion(ctx context.Context, ownerID, id, versionID string) (json.RawMessage, int64, error) {
	data, rev, err := s.repo.SwitchVersion(ctx, ownerID, id, versionID)
	if err != nil {
		return nil, 0, err
	}
	s.invalidate(ctx, id)
	l := logging.FromContext(ctx, s.log, "switch_version")
	l.Info().
		Str("document_id", id).Str("version_id", versionID).Int64("revision", rev).Msg("version restored")
	return data, rev, nil
}

func (s *DocumentService) PruneVersions(ctx context.Context, keep int) (int64, error) {
	return s.repo.PruneVersions(ctx, keep)
}

func (s *DocumentService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		l := logging.FromContext(ctx, s.log, "invalidate")
		l.Warn().Err(err).Str("document_id", id).Msg("cache invalidation failed")
	}
}

func decodeData(raw json.RawMessage) (diagram.Data, error) {
	var d diagram.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, err
	}
	for _, it := range d.Items {
		if it.ItemID() == "" {
			return d, fmt.Errorf("%w: %s item", diagram.ErrMissingID, it.Kind())
		}
	}
	if err := d.Items.CheckUniqueIDs(); err != nil {
		return d, err
	}
	return d, nil
}
