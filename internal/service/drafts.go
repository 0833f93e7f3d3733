package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG for DecodeConfig
	_ "image/png"  // register PNG for DecodeConfig
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/jdufresne12/web-portal/pkg/errors"

	"github.com/jdufresne12/web-portal/internal/domain"
	"github.com/jdufresne12/web-portal/internal/draft"
)

// DefaultMaxUploadBytes caps a single draft upload.
const DefaultMaxUploadBytes int64 = 100 << 20

// DraftService validates uploads against the media profiles and holds them
// as drafts until their record is saved.
type DraftService struct {
	drafts   DraftStore
	maxBytes int64
	logger   *slog.Logger
}

// NewDraftService creates a draft service.
func NewDraftService(drafts DraftStore, maxBytes int64, logger *slog.Logger) *DraftService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &DraftService{
		drafts:   drafts,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// MaxBytes returns the upload size limit.
func (s *DraftService) MaxBytes() int64 {
	return s.maxBytes
}

// CreateDraftInput holds one uploaded file and its placement. Width and
// Height are only read for video, whose dimensions cannot be decoded here.
type CreateDraftInput struct {
	FileName string
	Data     []byte
	Owner    domain.RecordKind
	Tag      domain.MediaTag
	Order    int
	Width    int
	Height   int
}

// Create sniffs, measures and checks an upload, then stores it as a draft.
func (s *DraftService) Create(ctx context.Context, in *CreateDraftInput) (*draft.Draft, domain.MediaDTO, error) {
	size := int64(len(in.Data))
	if size == 0 {
		return nil, domain.MediaDTO{}, apperrors.InvalidInput("file is empty")
	}
	if size > s.maxBytes {
		return nil, domain.MediaDTO{}, apperrors.InvalidInput(
			fmt.Sprintf("file size %d exceeds maximum allowed size of %d bytes", size, s.maxBytes))
	}
	if in.Order < 1 {
		return nil, domain.MediaDTO{}, apperrors.InvalidInput("order must be at least 1")
	}

	profile, err := domain.ProfileFor(in.Owner, in.Tag)
	if err != nil {
		return nil, domain.MediaDTO{}, apperrors.InvalidInput(err.Error())
	}

	contentType := sniff(in.Data)
	width, height := in.Width, in.Height
	if strings.HasPrefix(contentType, "image/") {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Data))
		if err != nil {
			return nil, domain.MediaDTO{}, apperrors.InvalidInput(fmt.Sprintf("could not decode image: %v", err))
		}
		width, height = cfg.Width, cfg.Height
	}

	if err := profile.Check(contentType, width, height); err != nil {
		s.logger.InfoContext(ctx, "media draft rejected",
			slog.String("profile", profile.Name),
			slog.String("content_type", contentType),
			slog.Int("width", width),
			slog.Int("height", height),
			slog.String("reason", err.Error()),
		)
		return nil, domain.MediaDTO{}, apperrors.InvalidInput(fmt.Sprintf("%s media: %v", profile.Name, err))
	}

	d := s.drafts.Put(&draft.Draft{
		FileName:    in.FileName,
		ContentType: contentType,
		Size:        size,
		Width:       width,
		Height:      height,
		Tag:         in.Tag,
		Order:       in.Order,
		Owner:       in.Owner,
		Data:        in.Data,
	})

	s.logger.InfoContext(ctx, "media draft created",
		slog.String("draft_id", d.ID),
		slog.String("profile", profile.Name),
		slog.String("content_type", contentType),
		slog.Int64("size", size),
	)
	return d, d.Medium(), nil
}

// Get returns a live draft for previewing.
func (s *DraftService) Get(_ context.Context, id string) (*draft.Draft, error) {
	return s.drafts.Get(id)
}

// Release discards a draft.
func (s *DraftService) Release(ctx context.Context, id string) error {
	if !s.drafts.Release(id) {
		return apperrors.NotFound("draft", id)
	}
	s.logger.DebugContext(ctx, "media draft released", slog.String("draft_id", id))
	return nil
}

// Profile returns the constraint profile for an owner kind and tag.
func (s *DraftService) Profile(owner domain.RecordKind, tag domain.MediaTag) (domain.Profile, error) {
	p, err := domain.ProfileFor(owner, tag)
	if err != nil {
		return domain.Profile{}, apperrors.InvalidInput(err.Error())
	}
	return p, nil
}

// sniff detects the content type from the bytes and drops any parameters.
func sniff(data []byte) string {
	ct := mimetype.Detect(data).String()
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
