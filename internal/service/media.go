package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jdufresne12/web-portal/internal/domain"
	"github.com/jdufresne12/web-portal/internal/draft"
	"github.com/jdufresne12/web-portal/internal/storage"
)

// DefaultMediaConcurrency bounds parallel uploads and deletes per step.
const DefaultMediaConcurrency = 4

// MediaSyncer moves media between drafts, object storage and the backend.
type MediaSyncer struct {
	storage     storage.Storage
	backend     MediaBackend
	drafts      DraftStore
	concurrency int
	nowFunc     func() time.Time
	logger      *slog.Logger
}

// NewMediaSyncer creates a media syncer. A concurrency below 1 uses
// DefaultMediaConcurrency.
func NewMediaSyncer(store storage.Storage, backend MediaBackend, drafts DraftStore, concurrency int, logger *slog.Logger) *MediaSyncer {
	if concurrency < 1 {
		concurrency = DefaultMediaConcurrency
	}
	return &MediaSyncer{
		storage:     store,
		backend:     backend,
		drafts:      drafts,
		concurrency: concurrency,
		nowFunc:     time.Now,
		logger:      logger,
	}
}

// UploadResult is what one upload step did.
type UploadResult struct {
	Media    []domain.MediaDTO
	Uploaded int
	Failures []domain.ReportItem
}

// Upload stores every draft medium of the record and registers it with the
// backend. All uploads run concurrently and the call returns once each has
// settled. A failed item keeps its draft fields so it can be retried.
func (m *MediaSyncer) Upload(ctx context.Context, v domain.SponsorData) UploadResult {
	kind := v.Type.Kind()
	media := append([]domain.MediaDTO(nil), v.Media...)
	errs := make([]error, len(media))
	done := make([]bool, len(media))

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(m.concurrency)
	for i := range media {
		if !media[i].IsDraft() {
			continue
		}
		g.Go(func() error {
			uploaded, err := m.uploadOne(gctx, kind, v.ID, media[i])
			if err != nil {
				errs[i] = err
				return nil
			}
			media[i] = uploaded
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	res := UploadResult{Media: media, Failures: []domain.ReportItem{}}
	for i, err := range errs {
		if done[i] {
			res.Uploaded++
			MediaTransfers.WithLabelValues("upload", outcomeSuccess).Inc()
		}
		if err == nil {
			continue
		}
		MediaTransfers.WithLabelValues("upload", outcomeFailure).Inc()
		m.logger.ErrorContext(ctx, "media upload failed",
			slog.String("record_id", v.ID),
			slog.String("record_type", string(v.Type)),
			slog.String("media_id", media[i].ID),
			slog.String("tag", string(media[i].Tag)),
			slog.String("error", err.Error()),
		)
		res.Failures = append(res.Failures, domain.ReportItem{
			Step:     domain.StepMedia,
			Action:   "upload",
			TargetID: media[i].ID,
			Tag:      media[i].Tag,
			Error:    err.Error(),
		})
	}
	return res
}

func (m *MediaSyncer) uploadOne(ctx context.Context, kind domain.RecordKind, ownerID string, medium domain.MediaDTO) (domain.MediaDTO, error) {
	d, err := m.drafts.Get(medium.DraftID)
	if err != nil {
		return medium, fmt.Errorf("load draft: %w", err)
	}
	if err := checkPlacement(kind, medium.Tag, d); err != nil {
		return medium, err
	}

	key := storage.ObjectKey(kind, ownerID, d.FileName, m.nowFunc())
	result, err := m.storage.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: d.ContentType,
		Size:        d.Size,
		Data:        bytes.NewReader(d.Data),
	})
	if err != nil {
		return medium, fmt.Errorf("upload to storage: %w", err)
	}

	out := medium
	out.URL = result.URL
	out.S3Key = result.Key
	out.ContentType = d.ContentType
	out.Width, out.Height = d.Width, d.Height
	out.SponsorID, out.ProductID = "", ""
	if kind == domain.KindProduct {
		out.ProductID = ownerID
	} else {
		out.SponsorID = ownerID
	}
	out.ClearTransient()

	if err := m.backend.SaveMedium(ctx, out); err != nil {
		// The object is orphaned; remove it so the draft can be retried cleanly.
		if delErr := m.storage.Delete(ctx, result.Key); delErr != nil {
			m.logger.WarnContext(ctx, "failed to clean up storage after medium save error",
				slog.String("key", result.Key),
				slog.String("error", delErr.Error()),
			)
		}
		return medium, fmt.Errorf("save medium: %w", err)
	}

	m.drafts.Release(medium.DraftID)
	m.logger.InfoContext(ctx, "media uploaded",
		slog.String("record_id", ownerID),
		slog.String("media_id", out.ID),
		slog.String("tag", string(out.Tag)),
		slog.String("key", result.Key),
	)
	return out, nil
}

// checkPlacement validates a draft against the profile of the record kind and
// tag it is attached under, which may differ from the ones it was uploaded for.
func checkPlacement(kind domain.RecordKind, tag domain.MediaTag, d *draft.Draft) error {
	if d.Owner != kind {
		return fmt.Errorf("draft was uploaded for %s media, not %s", d.Owner, kind)
	}
	profile, err := domain.ProfileFor(kind, tag)
	if err != nil {
		return err
	}
	if err := profile.Check(d.ContentType, d.Width, d.Height); err != nil {
		return fmt.Errorf("%s media: %w", profile.Name, err)
	}
	return nil
}

// DeleteResult is what one delete step did.
type DeleteResult struct {
	Deleted  int
	Failures []domain.ReportItem
}

// Delete removes media from object storage. Unless cascade is set each
// medium's backend record is deleted too; cascade is used when the parent
// record's removal already takes its media rows with it.
func (m *MediaSyncer) Delete(ctx context.Context, v domain.SponsorData, media []domain.MediaDTO, cascade bool) DeleteResult {
	kind := v.Type.Kind()
	errs := make([]error, len(media))

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(m.concurrency)
	for i := range media {
		g.Go(func() error {
			errs[i] = m.deleteOne(gctx, kind, v.ID, media[i], cascade)
			return nil
		})
	}
	_ = g.Wait()

	res := DeleteResult{Failures: []domain.ReportItem{}}
	for i, err := range errs {
		if err == nil {
			res.Deleted++
			MediaTransfers.WithLabelValues("delete", outcomeSuccess).Inc()
			continue
		}
		MediaTransfers.WithLabelValues("delete", outcomeFailure).Inc()
		m.logger.ErrorContext(ctx, "media delete failed",
			slog.String("record_id", v.ID),
			slog.String("record_type", string(v.Type)),
			slog.String("media_id", media[i].ID),
			slog.String("tag", string(media[i].Tag)),
			slog.String("error", err.Error()),
		)
		res.Failures = append(res.Failures, domain.ReportItem{
			Step:     domain.StepMedia,
			Action:   "delete",
			TargetID: media[i].ID,
			Tag:      media[i].Tag,
			Error:    err.Error(),
		})
	}
	return res
}

func (m *MediaSyncer) deleteOne(ctx context.Context, kind domain.RecordKind, ownerID string, medium domain.MediaDTO, cascade bool) error {
	if medium.IsDraft() {
		m.drafts.Release(medium.DraftID)
		return nil
	}

	key := medium.S3Key
	if key == "" {
		var err error
		if key, err = storage.KeyFromURL(kind, ownerID, medium.URL); err != nil {
			return fmt.Errorf("resolve object key: %w", err)
		}
	}
	if !storage.OwnedBy(kind, ownerID, key) {
		return fmt.Errorf("object key %q does not belong to %s %s", key, kind, ownerID)
	}
	if err := m.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete from storage: %w", err)
	}
	if cascade {
		return nil
	}
	if err := m.backend.DeleteMedium(ctx, medium.ID); err != nil {
		return fmt.Errorf("delete medium: %w", err)
	}
	return nil
}

// resolveStored replaces each stored medium in next with the entry of prev
// that has the same id. A request can keep or drop stored media but never
// introduce one, so keys and URLs always come from the saved record.
func resolveStored(prev, next []domain.MediaDTO) ([]domain.MediaDTO, error) {
	byID := make(map[string]domain.MediaDTO, len(prev))
	for _, m := range prev {
		byID[m.ID] = m
	}

	errs := domain.ValidationErrors{}
	out := make([]domain.MediaDTO, len(next))
	for i, m := range next {
		if m.IsDraft() {
			out[i] = m
			continue
		}
		stored, ok := byID[m.ID]
		if !ok {
			errs[fmt.Sprintf("media[%d].id", i)] = "unknown medium"
			continue
		}
		out[i] = stored
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// Removed returns the media in prev that next no longer carries.
func Removed(prev, next []domain.MediaDTO) []domain.MediaDTO {
	keep := make(map[string]struct{}, len(next))
	for _, m := range next {
		keep[m.ID] = struct{}{}
	}
	var out []domain.MediaDTO
	for _, m := range prev {
		if _, ok := keep[m.ID]; !ok {
			out = append(out, m)
		}
	}
	return out
}
