package repository

import (
	"context"

	"github.com/jdufresne12/web-portal/internal/domain"
)

// ReportFilter narrows a report listing. Empty fields match everything.
type ReportFilter struct {
	RecordID   string
	FailedOnly bool
}

// ReportRepository persists mutation reports.
type ReportRepository interface {
	// Create stores a finished report.
	Create(ctx context.Context, report *domain.MutationReport) error

	// GetByID returns a single report.
	GetByID(ctx context.Context, id string) (*domain.MutationReport, error)

	// List returns reports newest first along with the total match count.
	List(ctx context.Context, filter ReportFilter, offset, limit int) ([]domain.MutationReport, int, error)
}
