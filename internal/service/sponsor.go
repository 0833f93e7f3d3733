package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/jdufresne12/web-portal/pkg/errors"

	"github.com/jdufresne12/web-portal/internal/cache"
	"github.com/jdufresne12/web-portal/internal/domain"
	"github.com/jdufresne12/web-portal/internal/repository"
)

const tracerName = "github.com/jdufresne12/web-portal/internal/service"

// fanOutLimit bounds the per-user-level product queries.
const fanOutLimit = 8

// errPartial marks a step in which some items failed.
var errPartial = errors.New("one or more items failed")

// MutationResult is returned by Add, Edit and Delete.
type MutationResult struct {
	Sponsor domain.SponsorData     `json:"sponsor"`
	Report  *domain.MutationReport `json:"report"`
}

// SponsorService orchestrates record mutations and owns the in-memory list.
type SponsorService struct {
	backend Backend
	cache   cache.Cache
	store   *Store
	media   *MediaSyncer
	coupons *CouponSyncer
	reports repository.ReportRepository
	events  EventPublisher
	nowFunc func() time.Time
	tracer  trace.Tracer
	logger  *slog.Logger

	loaded atomic.Bool
	loads  singleflight.Group
}

// NewSponsorService creates the orchestrator. reports may be nil when the
// audit log is disabled.
func NewSponsorService(
	backend Backend,
	c cache.Cache,
	store *Store,
	media *MediaSyncer,
	coupons *CouponSyncer,
	reports repository.ReportRepository,
	events EventPublisher,
	logger *slog.Logger,
) *SponsorService {
	return &SponsorService{
		backend: backend,
		cache:   c,
		store:   store,
		media:   media,
		coupons: coupons,
		reports: reports,
		events:  events,
		nowFunc: time.Now,
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// Add validates and creates a record, then its coupons and media. Only a
// failure to save the record itself is returned as an error.
func (s *SponsorService) Add(ctx context.Context, v domain.SponsorData) (*MutationResult, error) {
	if v.ID == "" {
		v.ID = domain.NewID()
	}
	prepare(&v)
	if err := domain.Validate(v); err != nil {
		return nil, err
	}
	media, err := resolveStored(nil, v.Media)
	if err != nil {
		return nil, err
	}
	v.Media = media

	ctx, span := s.tracer.Start(ctx, "sponsors.add", trace.WithAttributes(recordAttrs(v)...))
	defer span.End()

	report := domain.NewMutationReport(domain.OpAdd, v, s.nowFunc())
	if err := s.saveRecord(ctx, domain.OpAdd, v, report); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.step(ctx, domain.OpAdd, domain.StepCoupons, func(ctx context.Context) error {
		if !s.coupons.Enabled() {
			return errSkipped
		}
		res := s.coupons.ForAdd(ctx, v)
		report.CouponsCreated = res.Created
		return s.collect(report, res.Failures)
	})

	_ = s.step(ctx, domain.OpAdd, domain.StepMedia, func(ctx context.Context) error {
		res := s.media.Upload(ctx, v)
		v.Media = res.Media
		report.MediaUploaded = res.Uploaded
		return s.collect(report, res.Failures)
	})

	_ = s.step(ctx, domain.OpAdd, domain.StepStats, func(context.Context) error {
		s.store.Insert(v)
		return nil
	})
	s.invalidate(ctx, domain.OpAdd, report)

	s.finish(ctx, v, report, s.events.PublishRecordCreated)
	return &MutationResult{Sponsor: v.Clone(), Report: report}, nil
}

// Edit saves changes to an existing record, reconciles coupons, uploads new
// drafts and deletes media the edit dropped.
func (s *SponsorService) Edit(ctx context.Context, id string, v domain.SponsorData) (*MutationResult, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	prev, ok := s.store.Find(id)
	if !ok {
		return nil, apperrors.NotFound("sponsor", id)
	}
	v.ID = id
	if v.Type == "" {
		v.Type = prev.Type
	}
	if v.Type.Kind() != prev.Type.Kind() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot change %s record to type %q", prev.Type.Kind(), v.Type))
	}
	prepare(&v)
	if err := domain.Validate(v); err != nil {
		return nil, err
	}
	media, err := resolveStored(prev.Media, v.Media)
	if err != nil {
		return nil, err
	}
	v.Media = media

	ctx, span := s.tracer.Start(ctx, "sponsors.edit", trace.WithAttributes(recordAttrs(v)...))
	defer span.End()

	report := domain.NewMutationReport(domain.OpEdit, v, s.nowFunc())
	if err := s.saveRecord(ctx, domain.OpEdit, v, report); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_ = s.step(ctx, domain.OpEdit, domain.StepCoupons, func(ctx context.Context) error {
		if !s.coupons.Enabled() {
			return errSkipped
		}
		res := s.coupons.ForEdit(ctx, prev, v)
		report.CouponsCreated = res.Created
		report.CouponsUpdated = res.Updated
		report.CouponsDeleted = res.Deleted
		return s.collect(report, res.Failures)
	})

	removed := Removed(prev.Media, v.Media)
	_ = s.step(ctx, domain.OpEdit, domain.StepMedia, func(ctx context.Context) error {
		var (
			up  UploadResult
			del DeleteResult
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			up = s.media.Upload(gctx, v)
			return nil
		})
		if len(removed) > 0 {
			g.Go(func() error {
				del = s.media.Delete(gctx, v, removed, false)
				return nil
			})
		}
		_ = g.Wait()

		v.Media = up.Media
		report.MediaUploaded = up.Uploaded
		report.MediaDeleted = del.Deleted
		return s.collect(report, append(up.Failures, del.Failures...))
	})

	_ = s.step(ctx, domain.OpEdit, domain.StepStats, func(context.Context) error {
		if _, ok := s.store.Replace(v); !ok {
			// Deleted concurrently; put it back as the backend still has it.
			s.store.Insert(v)
		}
		return nil
	})
	s.invalidate(ctx, domain.OpEdit, report)

	s.finish(ctx, v, report, s.events.PublishRecordUpdated)
	return &MutationResult{Sponsor: v.Clone(), Report: report}, nil
}

// Delete removes a record and all of its media.
func (s *SponsorService) Delete(ctx context.Context, id string) (*MutationResult, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	prev, ok := s.store.Find(id)
	if !ok {
		return nil, apperrors.NotFound("sponsor", id)
	}

	ctx, span := s.tracer.Start(ctx, "sponsors.delete", trace.WithAttributes(recordAttrs(prev)...))
	defer span.End()

	report := domain.NewMutationReport(domain.OpDelete, prev, s.nowFunc())
	err := s.step(ctx, domain.OpDelete, domain.StepRecord, func(ctx context.Context) error {
		return s.backend.DeleteRecord(ctx, prev.Type.Kind(), prev.ID)
	})
	if err != nil {
		s.recordFailed(ctx, domain.OpDelete, prev, report, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("delete record: %w", err)
	}

	_ = s.step(ctx, domain.OpDelete, domain.StepMedia, func(ctx context.Context) error {
		if len(prev.Media) == 0 {
			return errSkipped
		}
		res := s.media.Delete(ctx, prev, prev.Media, true)
		report.MediaDeleted = res.Deleted
		return s.collect(report, res.Failures)
	})

	_ = s.step(ctx, domain.OpDelete, domain.StepStats, func(context.Context) error {
		s.store.Remove(prev.ID)
		return nil
	})
	s.invalidate(ctx, domain.OpDelete, report)

	s.finish(ctx, prev, report, s.events.PublishRecordDeleted)
	return &MutationResult{Sponsor: prev, Report: report}, nil
}

// saveRecord runs the only fatal step.
func (s *SponsorService) saveRecord(ctx context.Context, op domain.Operation, v domain.SponsorData, report *domain.MutationReport) error {
	err := s.step(ctx, op, domain.StepRecord, func(ctx context.Context) error {
		return s.backend.SaveRecord(ctx, domain.MapToDTO(v, v.Type))
	})
	if err != nil {
		s.recordFailed(ctx, op, v, report, err)
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *SponsorService) recordFailed(ctx context.Context, op domain.Operation, v domain.SponsorData, report *domain.MutationReport, err error) {
	s.logger.ErrorContext(ctx, "record persistence failed",
		slog.String("operation", string(op)),
		slog.String("record_id", v.ID),
		slog.String("record_type", string(v.Type)),
		slog.String("error", err.Error()),
	)
	report.Fail(domain.ReportItem{
		Step:     domain.StepRecord,
		Action:   string(op),
		TargetID: v.ID,
		Error:    err.Error(),
	})
	s.persistReport(ctx, report)
}

// invalidate clears the cache. A failure leaves a stale slot that expires on
// its own, so it is only logged.
func (s *SponsorService) invalidate(ctx context.Context, op domain.Operation, report *domain.MutationReport) {
	err := s.step(ctx, op, domain.StepCache, func(ctx context.Context) error {
		return s.cache.Clear(ctx)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to clear sponsor cache",
			slog.String("record_id", report.RecordID),
			slog.String("error", err.Error()),
		)
	}
}

// finish logs the outcome, stores the report and publishes the event.
func (s *SponsorService) finish(
	ctx context.Context,
	v domain.SponsorData,
	report *domain.MutationReport,
	publish func(context.Context, domain.SponsorData, *domain.MutationReport) error,
) {
	attrs := []any{
		slog.String("operation", string(report.Operation)),
		slog.String("record_id", v.ID),
		slog.String("record_type", string(v.Type)),
		slog.String("report_id", report.ID),
		slog.Int("media_uploaded", report.MediaUploaded),
		slog.Int("media_deleted", report.MediaDeleted),
		slog.Int("failed_items", len(report.Failures)),
	}
	if report.HasFailures() {
		s.logger.WarnContext(ctx, "record saved with failed attachments", attrs...)
	} else {
		s.logger.InfoContext(ctx, "record saved", attrs...)
	}

	s.persistReport(ctx, report)

	_ = s.step(ctx, report.Operation, domain.StepEvents, func(ctx context.Context) error {
		if err := publish(ctx, v, report); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish record event",
				slog.String("record_id", v.ID),
				slog.String("error", err.Error()),
			)
			return err
		}
		return nil
	})
}

func (s *SponsorService) persistReport(ctx context.Context, report *domain.MutationReport) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Create(ctx, report); err != nil {
		s.logger.ErrorContext(ctx, "failed to store mutation report",
			slog.String("report_id", report.ID),
			slog.String("error", err.Error()),
		)
	}
}

// collect appends failures to report and turns them into a step outcome.
func (s *SponsorService) collect(report *domain.MutationReport, failures []domain.ReportItem) error {
	for _, f := range failures {
		report.Fail(f)
	}
	if len(failures) > 0 {
		return errPartial
	}
	return nil
}

// errSkipped marks a step that had nothing to do.
var errSkipped = errors.New("skipped")

// step runs fn in a child span and counts its outcome.
func (s *SponsorService) step(ctx context.Context, op domain.Operation, step domain.Step, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "sponsors.step."+string(step),
		trace.WithAttributes(
			attribute.String("sponsors.operation", string(op)),
			attribute.String("sponsors.step", string(step)),
		),
	)
	defer span.End()

	err := fn(ctx)
	switch {
	case errors.Is(err, errSkipped):
		MutationSteps.WithLabelValues(string(op), string(step), outcomeSkipped).Inc()
		return nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		MutationSteps.WithLabelValues(string(op), string(step), outcomeFailure).Inc()
		return err
	default:
		MutationSteps.WithLabelValues(string(op), string(step), outcomeSuccess).Inc()
		return nil
	}
}

// prepare canonicalizes ids and discount fields and attaches media to the
// record.
func prepare(v *domain.SponsorData) {
	v.ID = strings.ToLower(strings.TrimSpace(v.ID))
	v.NormalizeDiscount()
	kind := v.Type.Kind()
	for i := range v.Media {
		m := &v.Media[i]
		if m.ID == "" {
			m.ID = domain.NewID()
		}
		m.ID = strings.ToLower(m.ID)
		m.SponsorID, m.ProductID = "", ""
		if kind == domain.KindProduct {
			m.ProductID = v.ID
		} else {
			m.SponsorID = v.ID
		}
	}
}

func recordAttrs(v domain.SponsorData) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("sponsors.record_id", v.ID),
		attribute.String("sponsors.record_type", string(v.Type)),
	}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// Get returns one record from the in-memory list.
func (s *SponsorService) Get(_ context.Context, id string) (domain.SponsorData, error) {
	v, ok := s.store.Find(strings.ToLower(strings.TrimSpace(id)))
	if !ok {
		return domain.SponsorData{}, apperrors.NotFound("sponsor", id)
	}
	return v, nil
}

// List returns a sorted snapshot of records of type t (every type when t is
// empty) filtered by status.
func (s *SponsorService) List(_ context.Context, t domain.SponsorType, status domain.StatusFilter) []domain.SponsorData {
	return s.store.Snapshot(t, status)
}

// Stats returns the current counters.
func (s *SponsorService) Stats(_ context.Context) domain.Stats {
	return s.store.Stats()
}

// UserLevels lists the backend's user levels.
func (s *SponsorService) UserLevels(ctx context.Context) ([]domain.UserLevelDTO, error) {
	levels, err := s.backend.ListUserLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user levels: %w", err)
	}
	return levels, nil
}

// Reports lists stored mutation reports.
func (s *SponsorService) Reports(ctx context.Context, filter repository.ReportFilter, page, perPage int) ([]domain.MutationReport, int, error) {
	if s.reports == nil {
		return nil, 0, apperrors.ServiceUnavailable("mutation reports are disabled")
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	reports, total, err := s.reports.List(ctx, filter, (page-1)*perPage, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list mutation reports: %w", err)
	}
	return reports, total, nil
}

// ---------------------------------------------------------------------------
// Fetching
// ---------------------------------------------------------------------------

// FetchCategory returns the records of one category, from the cache when it
// holds a fresh snapshot of that category and from the backend otherwise.
// The in-memory list is updated either way.
func (s *SponsorService) FetchCategory(ctx context.Context, c domain.Category) ([]domain.SponsorData, error) {
	ctx, span := s.tracer.Start(ctx, "sponsors.fetch",
		trace.WithAttributes(attribute.String("sponsors.category", string(c))))
	defer span.End()

	items, hit, err := s.cache.Load(ctx, c)
	switch {
	case err != nil:
		CacheLookups.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "sponsor cache read failed, fetching from backend",
			slog.String("category", string(c)),
			slog.String("error", err.Error()),
		)
	case hit:
		CacheLookups.WithLabelValues("hit").Inc()
		s.store.ReplaceType(c.Type(), items)
		return domain.SortByActiveAndDate(items), nil
	default:
		CacheLookups.WithLabelValues("miss").Inc()
	}

	items, err = s.fetchRemote(ctx, c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	items = domain.SortByActiveAndDate(items)

	if err := s.cache.Save(ctx, items, c); err != nil {
		s.logger.WarnContext(ctx, "failed to save sponsor cache",
			slog.String("category", string(c)),
			slog.String("error", err.Error()),
		)
	}
	s.store.ReplaceType(c.Type(), items)

	s.logger.InfoContext(ctx, "fetched category",
		slog.String("category", string(c)),
		slog.Int("count", len(items)),
	)
	return items, nil
}

// LoadAll replaces the in-memory list with every record the backend holds
// and recomputes stats with a full scan.
func (s *SponsorService) LoadAll(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "sponsors.load_all")
	defer span.End()

	var sponsors, redeem, star []domain.SponsorData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sponsors, err = s.fetchSponsors(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		redeem, err = s.fetchRedeem(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		star, err = s.fetchStar(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	all := make([]domain.SponsorData, 0, len(sponsors)+len(redeem)+len(star))
	all = append(all, sponsors...)
	all = append(all, redeem...)
	all = append(all, star...)
	all = domain.RemoveDuplicates(all, domain.KeepFirst[domain.SponsorData]())
	s.store.Load(all)
	s.loaded.Store(true)

	stats := s.store.Stats()
	s.logger.InfoContext(ctx, "loaded all records",
		slog.Int("total", stats.Total),
		slog.Int("active", stats.Active),
		slog.Int("inactive", stats.Inactive),
	)
	return nil
}

// EnsureLoaded runs LoadAll once, on the first read that needs the full
// list. The backend requires a session, so this cannot happen at startup.
// Concurrent callers share one load. A canceled caller stops waiting while
// the load carries on for the others.
func (s *SponsorService) EnsureLoaded(ctx context.Context) error {
	if s.loaded.Load() {
		return nil
	}
	ch := s.loads.DoChan("all", func() (any, error) {
		if s.loaded.Load() {
			return nil, nil
		}
		return nil, s.LoadAll(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// Refresh drops the cache and reloads everything.
func (s *SponsorService) Refresh(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to clear sponsor cache",
			slog.String("error", err.Error()),
		)
	}
	return s.LoadAll(ctx)
}

func (s *SponsorService) fetchRemote(ctx context.Context, c domain.Category) ([]domain.SponsorData, error) {
	switch c {
	case domain.CategoryTitle, domain.CategoryFlash:
		return s.fetchSponsors(ctx, c.Type())
	case domain.CategoryRedeem:
		return s.fetchRedeem(ctx)
	case domain.CategoryStar:
		return s.fetchStar(ctx)
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown category %q", c))
	}
}

// fetchSponsors lists sponsors of type only, or of both sponsor types when
// only is empty.
func (s *SponsorService) fetchSponsors(ctx context.Context, only domain.SponsorType) ([]domain.SponsorData, error) {
	dtos, err := s.backend.ListSponsors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sponsors: %w", err)
	}
	out := make([]domain.SponsorData, 0, len(dtos))
	for i := range dtos {
		t := dtos[i].ClassifiedType()
		if only != "" && t != only {
			continue
		}
		out = append(out, domain.MapToSponsor(&dtos[i], t))
	}
	return domain.RemoveDuplicates(out, domain.KeepFirst[domain.SponsorData]()), nil
}

func (s *SponsorService) fetchRedeem(ctx context.Context) ([]domain.SponsorData, error) {
	dtos, err := s.backend.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]domain.SponsorData, 0, len(dtos))
	for i := range dtos {
		if dtos[i].ClassifiedType() != domain.TypeRedeemShop {
			continue
		}
		out = append(out, domain.MapToSponsor(&dtos[i], domain.TypeRedeemShop))
	}
	return domain.RemoveDuplicates(out, domain.KeepFirst[domain.SponsorData]()), nil
}

// fetchStar queries products per user level concurrently. A product that
// qualifies for several levels is kept once.
func (s *SponsorService) fetchStar(ctx context.Context) ([]domain.SponsorData, error) {
	levels, err := s.backend.ListUserLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user levels: %w", err)
	}

	perLevel := make([][]domain.ProductDTO, len(levels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i, level := range levels {
		g.Go(func() error {
			dtos, err := s.backend.ListProductsByUserLevel(gctx, level.ID)
			if err != nil {
				return fmt.Errorf("list products for user level %s: %w", level.ID, err)
			}
			for j := range dtos {
				if dtos[j].UserLevelID == "" {
					dtos[j].UserLevelID = level.ID
				}
				if dtos[j].UserLevel == nil {
					lvl := level
					dtos[j].UserLevel = &lvl
				}
			}
			perLevel[i] = dtos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.SponsorData
	for _, dtos := range perLevel {
		for i := range dtos {
			out = append(out, domain.MapToSponsor(&dtos[i], domain.TypeStarStore))
		}
	}
	return domain.RemoveDuplicates(out, domain.KeepFirst[domain.SponsorData]()), nil
}
