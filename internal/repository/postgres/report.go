package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jdufresne12/web-portal/pkg/database"
	apperrors "github.com/jdufresne12/web-portal/pkg/errors"

	"github.com/jdufresne12/web-portal/internal/domain"
	"github.com/jdufresne12/web-portal/internal/repository"
)

const reportColumns = `id, operation, record_id, record_type, media_uploaded, media_deleted,
	coupons_created, coupons_updated, coupons_deleted, failures, created_at`

// ReportRepository implements repository.ReportRepository using PostgreSQL.
type ReportRepository struct {
	db database.DBTX
}

// NewReportRepository creates a new PostgreSQL-backed report repository.
func NewReportRepository(db database.DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a mutation report.
func (r *ReportRepository) Create(ctx context.Context, m *domain.MutationReport) (err error) {
	failures := m.Failures
	if failures == nil {
		failures = []domain.ReportItem{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}

	query := `
		INSERT INTO mutation_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ctx, end := database.TraceQuery(ctx, "CreateMutationReport", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		m.ID,
		string(m.Operation),
		m.RecordID,
		string(m.RecordType),
		m.MediaUploaded,
		m.MediaDeleted,
		m.CouponsCreated,
		m.CouponsUpdated,
		m.CouponsDeleted,
		failuresJSON,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mutation report: %w", err)
	}
	return nil
}

// GetByID retrieves a report by its ID.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (_ *domain.MutationReport, err error) {
	query := `SELECT ` + reportColumns + ` FROM mutation_reports WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetMutationReport", query)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	var m domain.MutationReport
	if err := scanReport(r.db.QueryRow(ctx, query, id), &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("mutation_report", id)
		}
		return nil, fmt.Errorf("scan mutation report: %w", err)
	}
	return &m, nil
}

// List returns reports matching filter, newest first.
func (r *ReportRepository) List(ctx context.Context, filter repository.ReportFilter, offset, limit int) (_ []domain.MutationReport, _ int, err error) {
	query := `
		SELECT ` + reportColumns + `, count(*) OVER() AS total_count
		FROM mutation_reports
		WHERE ($1 = '' OR record_id = $1)
		  AND (NOT $2 OR jsonb_array_length(failures) > 0)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	ctx, end := database.TraceQuery(ctx, "ListMutationReports", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, filter.RecordID, filter.FailedOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list mutation reports: %w", err)
	}
	defer rows.Close()

	var (
		reports    []domain.MutationReport
		totalCount int
	)
	for rows.Next() {
		var m domain.MutationReport
		if err := scanReport(rows, &m, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("scan mutation report row: %w", err)
		}
		reports = append(reports, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate mutation report rows: %w", err)
	}

	if reports == nil {
		reports = []domain.MutationReport{}
	}
	return reports, totalCount, nil
}

// scanReport reads one report row. extra receives trailing columns such as
// a window count.
func scanReport(row pgx.Row, m *domain.MutationReport, extra ...any) error {
	var (
		operation, recordType string
		failuresJSON          []byte
	)
	dest := []any{
		&m.ID,
		&operation,
		&m.RecordID,
		&recordType,
		&m.MediaUploaded,
		&m.MediaDeleted,
		&m.CouponsCreated,
		&m.CouponsUpdated,
		&m.CouponsDeleted,
		&failuresJSON,
		&m.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	m.Operation = domain.Operation(operation)
	m.RecordType = domain.SponsorType(recordType)
	m.Failures = []domain.ReportItem{}
	if len(failuresJSON) > 0 {
		if err := json.Unmarshal(failuresJSON, &m.Failures); err != nil {
			return fmt.Errorf("unmarshal failures: %w", err)
		}
	}
	return nil
}

var _ repository.ReportRepository = (*ReportRepository)(nil)
