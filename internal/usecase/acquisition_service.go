package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
)

// DisclosureClient is the outbound port to the disclosure API.
type DisclosureClient interface {
	ListFilings(ctx context.Context, date time.Time, criteria filing.SearchCriteria) ([]filing.Metadata, error)
	DownloadArchive(ctx context.Context, docID string) (filing.ArchivePayload, error)
}

// ArchiveResult pairs one filing with its downloaded payload or failure. A
// failed download never fails the batch.
type ArchiveResult struct {
	Meta    filing.Metadata
	Payload filing.ArchivePayload
	Err     error
}

type AcquisitionService struct {
	client       DisclosureClient
	logger       *logging.Logger
	lookbackDays int
	maxWorkers   int
	now          func() time.Time
}

func NewAcquisitionService(client DisclosureClient, logger *logging.Logger, lookbackDays, maxWorkers int) *AcquisitionService {
	if logger == nil {
		logger = logging.Default()
	}
	if lookbackDays < 0 {
		lookbackDays = 3
	}
	return &AcquisitionService{
		client:       client,
		logger:       logger,
		lookbackDays: lookbackDays,
		maxWorkers:   maxWorkers,
		now:          time.Now,
	}
}

// MostRecentFilings walks back day by day from startDate (today in the
// regulator's timezone when zero) until a day yields at least one filing
// matching the criteria. An exhausted window returns a zero date and no
// filings, not an error; weekends and holidays publish nothing.
func (s *AcquisitionService) MostRecentFilings(ctx context.Context, startDate time.Time, criteria filing.SearchCriteria) (time.Time, []filing.Metadata, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AcquisitionService.MostRecentFilings")
	defer span.End()

	if s.client == nil {
		return time.Time{}, nil, fmt.Errorf("%w: disclosure client is not configured", ErrDependencyUnavailable)
	}

	if startDate.IsZero() {
		startDate = s.now().In(filing.JST)
	}
	startDate = time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, filing.JST)

	for offset := 0; offset <= s.lookbackDays; offset++ {
		date := startDate.AddDate(0, 0, -offset)
		filings, err := s.client.ListFilings(ctx, date, criteria)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("list filings date=%s: %w", date.Format("2006-01-02"), err)
		}
		if len(filings) > 0 {
			return date, filings, nil
		}
		s.logger.InfoContext(ctx, "no filings published, walking back",
			"date", date.Format("2006-01-02"),
			"offset", offset,
		)
	}

	return time.Time{}, nil, nil
}

// DownloadAll fetches archives with a bounded worker pool. Results are
// ordered by document ID regardless of completion order.
func (s *AcquisitionService) DownloadAll(ctx context.Context, filings []filing.Metadata) ([]ArchiveResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AcquisitionService.DownloadAll")
	defer span.End()

	if s.client == nil {
		return nil, fmt.Errorf("%w: disclosure client is not configured", ErrDependencyUnavailable)
	}
	if len(filings) == 0 {
		return nil, nil
	}

	workerCount := normalizeDownloadWorkerCount(s.maxWorkers, len(filings))
	results := make(chan ArchiveResult, len(filings))

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, meta := range filings {
		meta := meta
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			results <- s.downloadOne(ctx, meta)
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit download to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	out := make([]ArchiveResult, 0, len(filings))
	for row := range results {
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Meta.DocID < out[j].Meta.DocID
	})

	return out, nil
}

func (s *AcquisitionService) downloadOne(ctx context.Context, meta filing.Metadata) ArchiveResult {
	if !meta.CSVAvailable {
		return ArchiveResult{
			Meta: meta,
			Err:  fmt.Errorf("no tabular package published for doc_id=%s", meta.DocID),
		}
	}

	payload, err := s.client.DownloadArchive(ctx, meta.DocID)
	if err != nil {
		s.logger.WarnContext(ctx, "archive download failed",
			"doc_id", meta.DocID,
			"doc_type", meta.DocTypeCode,
			"error", err,
		)
		return ArchiveResult{Meta: meta, Err: err}
	}

	return ArchiveResult{Meta: meta, Payload: payload}
}

func normalizeDownloadWorkerCount(value, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 2
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
