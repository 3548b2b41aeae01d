package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/archive"
	"github.com/kaiseki-dev/edinet-insight/internal/docproc"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
	"github.com/kaiseki-dev/edinet-insight/internal/textenc"
)

// Facts fed to the summarizer alongside the structured record.
const maxTextBlocks = 40

type ProcessingService struct {
	dispatcher *docproc.Dispatcher
	logger     *logging.Logger
	now        func() time.Time
}

func NewProcessingService(dispatcher *docproc.Dispatcher, logger *logging.Logger) *ProcessingService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ProcessingService{
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessArchive runs extract → process for one downloaded filing and
// returns the structured record plus cleaned item/value text blocks from the
// primary table for downstream summarization.
func (s *ProcessingService) ProcessArchive(ctx context.Context, meta filing.Metadata, payload filing.ArchivePayload) (report.Record, []string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProcessingService.ProcessArchive")
	defer span.End()

	if s.dispatcher == nil {
		return report.Record{}, nil, fmt.Errorf("%w: document dispatcher is not configured", ErrDependencyUnavailable)
	}

	tables, err := archive.ExtractTables(payload)
	if err != nil {
		return report.Record{}, nil, fmt.Errorf("extract tables doc_id=%s: %w", meta.DocID, err)
	}

	primary := tables[0]
	fields, err := s.dispatcher.Process(meta.DocTypeCode, primary.Rows)
	if err != nil {
		return report.Record{}, nil, fmt.Errorf("process doc_id=%s type=%s: %w", meta.DocID, meta.DocTypeCode, err)
	}

	s.logger.InfoContext(ctx, "filing processed",
		"doc_id", meta.DocID,
		"doc_type", meta.DocTypeCode,
		"table", primary.Name,
		"fields", len(fields),
	)

	record := report.Record{
		DocID:       meta.DocID,
		DocTypeCode: meta.DocTypeCode,
		Fields:      fields,
		ProcessedAt: s.now().UTC(),
	}

	return record, textBlocksFromTable(primary), nil
}

// textBlocksFromTable renders the leading rows of the primary table as
// "item: value" lines for prompt assembly.
func textBlocksFromTable(table report.Table) []string {
	blocks := make([]string, 0, maxTextBlocks)
	for _, row := range table.Rows {
		if len(blocks) >= maxTextBlocks {
			break
		}
		item, _ := row.Cell("項目名")
		value, ok := row.Cell("値")
		if !ok && len(row.Cells) > 0 {
			value = row.Cells[len(row.Cells)-1]
		}

		item = textenc.CleanField(item)
		value = textenc.CleanField(value)
		if value == "" {
			continue
		}
		if item == "" {
			blocks = append(blocks, value)
			continue
		}
		blocks = append(blocks, item+": "+value)
	}
	return blocks
}
