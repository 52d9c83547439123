package exports

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/fdg312/meal-planner/internal/blob"
	"github.com/fdg312/meal-planner/internal/mealplans"
	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/google/uuid"
)

// WeekSource provides the week view an export is rendered from.
type WeekSource interface {
	GetWeek(ctx context.Context, ownerUserID string, ref mealplans.WeekRef) (*mealplans.WeekView, error)
}

type Service struct {
	storage    storage.ExportsStorage
	plans      WeekSource
	blobStore  blob.Store
	presignTTL int
	localMode  bool // bytes stay in the export record
}

// NewService creates the exports service. A nil blobStore keeps rendered
// bytes in storage; otherwise they are uploaded and served by presigned URL.
func NewService(st storage.ExportsStorage, plans WeekSource, blobStore blob.Store, presignTTL int) *Service {
	if presignTTL <= 0 {
		presignTTL = 900
	}
	return &Service{
		storage:    st,
		plans:      plans,
		blobStore:  blobStore,
		presignTTL: presignTTL,
		localMode:  blobStore == nil,
	}
}

func (s *Service) Create(ctx context.Context, ownerUserID string, req CreateExportRequest) (*storage.ExportMeta, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format != FormatCSV && req.Format != FormatPDF {
		return nil, ErrInvalidFormat
	}

	week, err := s.plans.GetWeek(ctx, ownerUserID, mealplans.WeekRef{ProfileID: req.ProfileID, Week: req.Week})
	if err != nil {
		return nil, err
	}

	data, err := Render(week, req.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	meta := &storage.ExportMeta{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		ProfileID:   req.ProfileID,
		Week:        req.Week,
		Format:      req.Format,
		SizeBytes:   int64(len(data)),
	}

	if s.localMode {
		meta.Data = data
	} else {
		key := blob.ExportKey(ownerUserID, meta.ID.String(), req.Format)
		if _, err := s.blobStore.PutObject(ctx, key, data, contentType(req.Format)); err != nil {
			return nil, fmt.Errorf("failed to upload export: %w", err)
		}
		meta.ObjectKey = &key
	}

	if err := s.storage.CreateExport(ctx, meta); err != nil {
		if meta.ObjectKey != nil {
			s.deleteObject(ctx, *meta.ObjectKey)
		}
		return nil, fmt.Errorf("failed to save export metadata: %w", err)
	}

	return meta, nil
}

func (s *Service) Get(ctx context.Context, ownerUserID string, id uuid.UUID) (*storage.ExportMeta, error) {
	return s.storage.GetExport(ctx, ownerUserID, id)
}

func (s *Service) List(ctx context.Context, ownerUserID, profileID string, limit, offset int) ([]storage.ExportMeta, error) {
	if strings.TrimSpace(profileID) == "" {
		return nil, fmt.Errorf("%w: profile_id is required", mealplans.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.storage.ListExports(ctx, ownerUserID, profileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return list, nil
}

// Delete removes the metadata; the blob object is removed best-effort.
func (s *Service) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	meta, err := s.storage.GetExport(ctx, ownerUserID, id)
	if err != nil {
		return err
	}

	if meta.ObjectKey != nil {
		s.deleteObject(ctx, *meta.ObjectKey)
	}

	return s.storage.DeleteExport(ctx, ownerUserID, id)
}

// DownloadURL returns the local download endpoint for inline exports and a
// presigned URL for uploaded ones.
func (s *Service) DownloadURL(ctx context.Context, meta *storage.ExportMeta, baseURL string) (string, error) {
	if meta.ObjectKey == nil {
		return fmt.Sprintf("%s/v1/meal/exports/%s/download", strings.TrimSuffix(baseURL, "/"), meta.ID), nil
	}
	if s.blobStore == nil {
		return "", errors.New("export is stored in blob storage but no blob store is configured")
	}

	url, err := s.blobStore.PresignGet(ctx, *meta.ObjectKey, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

// Content returns the rendered bytes of an export, fetching them from blob
// storage when they are not kept inline.
func (s *Service) Content(ctx context.Context, ownerUserID string, id uuid.UUID) (*Content, error) {
	meta, err := s.storage.GetExport(ctx, ownerUserID, id)
	if err != nil {
		return nil, err
	}

	data := meta.Data
	if meta.ObjectKey != nil {
		if s.blobStore == nil {
			return nil, errors.New("export is stored in blob storage but no blob store is configured")
		}
		data, err = s.blobStore.GetObject(ctx, *meta.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch export: %w", err)
		}
	}

	return &Content{
		Data:        data,
		ContentType: contentType(meta.Format),
		Filename:    Filename(meta),
	}, nil
}

// Filename is the suggested file name for a downloaded export.
func Filename(meta *storage.ExportMeta) string {
	week := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ' ':
			return '-'
		}
		return r
	}, meta.Week)
	return fmt.Sprintf("mealplan_%s.%s", week, meta.Format)
}

func (s *Service) deleteObject(ctx context.Context, key string) {
	if s.blobStore == nil {
		return
	}
	if err := s.blobStore.DeleteObject(ctx, key); err != nil {
		log.Printf("WARN exports: failed to delete blob %s: %v", key, err)
	}
}

func toDTO(meta *storage.ExportMeta, downloadURL string) ExportDTO {
	return ExportDTO{
		ID:          meta.ID.String(),
		ProfileID:   meta.ProfileID,
		Week:        meta.Week,
		Format:      meta.Format,
		SizeBytes:   meta.SizeBytes,
		DownloadURL: downloadURL,
		CreatedAt:   meta.CreatedAt,
	}
}
