package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
)

// FilingService serves processed filings and structured records to the read
// side of the API.
type FilingService struct {
	filings filing.Repository
	records report.Repository
	logger  *logging.Logger
}

func NewFilingService(filings filing.Repository, records report.Repository, logger *logging.Logger) *FilingService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FilingService{
		filings: filings,
		records: records,
		logger:  logger,
	}
}

func (s *FilingService) ListByDate(ctx context.Context, date string, docTypeCodes []string) ([]filing.Metadata, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FilingService.ListByDate")
	defer span.End()

	if s.filings == nil {
		return nil, fmt.Errorf("%w: filing repository is not configured", ErrDependencyUnavailable)
	}

	date = strings.TrimSpace(date)
	if date == "" {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	parsed, err := time.ParseInLocation("2006-01-02", date, filing.JST)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	return s.filings.ListByDate(ctx, parsed, docTypeCodes)
}

func (s *FilingService) GetByDocID(ctx context.Context, docID string) (filing.Metadata, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FilingService.GetByDocID")
	defer span.End()

	docID = strings.TrimSpace(docID)
	if docID == "" {
		return filing.Metadata{}, fmt.Errorf("%w: doc_id is required", ErrInvalidInput)
	}
	if s.filings == nil {
		return filing.Metadata{}, fmt.Errorf("%w: filing repository is not configured", ErrDependencyUnavailable)
	}

	meta, found, err := s.filings.GetByDocID(ctx, docID)
	if err != nil {
		return filing.Metadata{}, err
	}
	if !found {
		return filing.Metadata{}, fmt.Errorf("%w: filing doc_id=%s", ErrNotFound, docID)
	}
	return meta, nil
}

func (s *FilingService) GetRecord(ctx context.Context, docID string) (report.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FilingService.GetRecord")
	defer span.End()

	docID = strings.TrimSpace(docID)
	if docID == "" {
		return report.Record{}, fmt.Errorf("%w: doc_id is required", ErrInvalidInput)
	}
	if s.records == nil {
		return report.Record{}, fmt.Errorf("%w: record repository is not configured", ErrDependencyUnavailable)
	}

	record, found, err := s.records.GetByDocID(ctx, docID)
	if err != nil {
		return report.Record{}, err
	}
	if !found {
		return report.Record{}, fmt.Errorf("%w: record doc_id=%s", ErrNotFound, docID)
	}
	return record, nil
}
