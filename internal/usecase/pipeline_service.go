package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/pipeline"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/id"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
)

const (
	docStatusProcessed  = "processed"
	docStatusSummarized = "summarized"
	docStatusFailed     = "failed"
)

type RunInput struct {
	Trigger   pipeline.Trigger
	StartDate time.Time              // zero means today in the regulator's timezone
	Criteria  *filing.SearchCriteria // nil means the configured default criteria
}

type RunDocumentResult struct {
	DocID   string `json:"doc_id"`
	DocType string `json:"doc_type"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type RunReport struct {
	RunID      string              `json:"run_id"`
	Status     pipeline.RunStatus  `json:"status"`
	TargetDate string              `json:"target_date,omitempty"`
	Counts     pipeline.RunCounts  `json:"counts"`
	Documents  []RunDocumentResult `json:"documents"`
}

// PipelineService orchestrates acquire → download → process → summarize for
// one run. A failure in one filing never aborts the rest of the batch.
type PipelineService struct {
	acquisition *AcquisitionService
	processing  *ProcessingService
	summaries   *SummaryService // nil disables summarization
	filings     filing.Repository
	records     recordWriter
	runs        pipeline.Repository
	idGen       id.Generator
	logger      *logging.Logger
	criteria    filing.SearchCriteria
	now         func() time.Time
}

// recordWriter narrows the record port to what the pipeline writes.
type recordWriter interface {
	Upsert(ctx context.Context, record report.Record) error
}

func NewPipelineService(
	acquisition *AcquisitionService,
	processing *ProcessingService,
	summaries *SummaryService,
	filings filing.Repository,
	records recordWriter,
	runs pipeline.Repository,
	idGen id.Generator,
	logger *logging.Logger,
	criteria filing.SearchCriteria,
) *PipelineService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PipelineService{
		acquisition: acquisition,
		processing:  processing,
		summaries:   summaries,
		filings:     filings,
		records:     records,
		runs:        runs,
		idGen:       idGen,
		logger:      logger,
		criteria:    criteria,
		now:         time.Now,
	}
}

func (s *PipelineService) Run(ctx context.Context, input RunInput) (RunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.Run")
	defer span.End()

	if s.acquisition == nil || s.processing == nil {
		return RunReport{}, fmt.Errorf("%w: pipeline is not fully configured", ErrDependencyUnavailable)
	}

	runID, err := s.newRunID()
	if err != nil {
		return RunReport{}, err
	}

	trigger := input.Trigger
	if trigger == "" {
		trigger = pipeline.TriggerManual
	}
	criteria := s.criteria
	if input.Criteria != nil {
		criteria = *input.Criteria
	}

	run := pipeline.Run{
		RunID:     runID,
		Trigger:   trigger,
		Status:    pipeline.StatusRunning,
		StartedAt: s.now().UTC(),
	}
	if s.runs != nil {
		if err := s.runs.Create(ctx, run); err != nil {
			return RunReport{}, fmt.Errorf("create pipeline run: %w", err)
		}
	}

	runReport, runErr := s.execute(ctx, &run, input.StartDate, criteria)

	finishedAt := s.now().UTC()
	run.FinishedAt = &finishedAt
	if runErr != nil {
		run.Status = pipeline.StatusFailed
		run.ErrorMessage = runErr.Error()
	} else {
		run.Status = pipeline.StatusCompleted
	}
	if s.runs != nil {
		if err := s.runs.Update(ctx, run); err != nil {
			s.logger.ErrorContext(ctx, "update pipeline run failed", "run_id", runID, "error", err)
		}
	}

	runReport.RunID = runID
	runReport.Status = run.Status
	runReport.Counts = run.Counts
	if !run.TargetDate.IsZero() {
		runReport.TargetDate = run.TargetDate.Format("2006-01-02")
	}

	if runErr != nil {
		return runReport, runErr
	}
	return runReport, nil
}

func (s *PipelineService) execute(ctx context.Context, run *pipeline.Run, startDate time.Time, criteria filing.SearchCriteria) (RunReport, error) {
	var runReport RunReport

	date, filings, err := s.acquisition.MostRecentFilings(ctx, startDate, criteria)
	if err != nil {
		return runReport, fmt.Errorf("acquire filings: %w", err)
	}
	run.TargetDate = date
	run.Counts.Listed = len(filings)
	if len(filings) == 0 {
		s.logger.InfoContext(ctx, "no filings found in lookback window", "run_id", run.RunID)
		return runReport, nil
	}

	if s.filings != nil {
		if err := s.filings.UpsertMany(ctx, filings); err != nil {
			return runReport, fmt.Errorf("persist filings: %w", err)
		}
	}

	results, err := s.acquisition.DownloadAll(ctx, filings)
	if err != nil {
		return runReport, fmt.Errorf("download archives: %w", err)
	}

	runReport.Documents = make([]RunDocumentResult, 0, len(results))
	for _, result := range results {
		runReport.Documents = append(runReport.Documents, s.processOne(ctx, run, result))
	}

	return runReport, nil
}

// processOne runs the per-document stages; any failure is recorded against
// that document alone.
func (s *PipelineService) processOne(ctx context.Context, run *pipeline.Run, result ArchiveResult) RunDocumentResult {
	doc := RunDocumentResult{
		DocID:   result.Meta.DocID,
		DocType: result.Meta.DocTypeCode,
	}

	if result.Err != nil {
		run.Counts.Failed++
		doc.Status = docStatusFailed
		doc.Message = result.Err.Error()
		return doc
	}
	run.Counts.Downloaded++

	record, blocks, err := s.processing.ProcessArchive(ctx, result.Meta, result.Payload)
	if err != nil {
		run.Counts.Failed++
		doc.Status = docStatusFailed
		doc.Message = err.Error()
		return doc
	}
	if s.records != nil {
		if err := s.records.Upsert(ctx, record); err != nil {
			run.Counts.Failed++
			doc.Status = docStatusFailed
			doc.Message = fmt.Sprintf("persist record: %v", err)
			return doc
		}
	}
	run.Counts.Processed++
	doc.Status = docStatusProcessed

	if s.summaries == nil {
		return doc
	}
	if _, err := s.summaries.SummarizeFiling(ctx, result.Meta, record, blocks); err != nil {
		// The record is already stored; a summarization failure demotes the
		// document, it does not undo processing.
		run.Counts.Failed++
		doc.Status = docStatusFailed
		doc.Message = fmt.Sprintf("summarize: %v", err)
		return doc
	}
	run.Counts.Summarized++
	doc.Status = docStatusSummarized

	return doc
}

func (s *PipelineService) GetRun(ctx context.Context, runID string) (pipeline.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.GetRun")
	defer span.End()

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return pipeline.Run{}, fmt.Errorf("%w: run_id is required", ErrInvalidInput)
	}
	if s.runs == nil {
		return pipeline.Run{}, fmt.Errorf("%w: run repository is not configured", ErrDependencyUnavailable)
	}

	run, found, err := s.runs.GetByRunID(ctx, runID)
	if err != nil {
		return pipeline.Run{}, err
	}
	if !found {
		return pipeline.Run{}, fmt.Errorf("%w: pipeline run run_id=%s", ErrNotFound, runID)
	}
	return run, nil
}

func (s *PipelineService) ListRecentRuns(ctx context.Context, limit int) ([]pipeline.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineService.ListRecentRuns")
	defer span.End()

	if s.runs == nil {
		return nil, fmt.Errorf("%w: run repository is not configured", ErrDependencyUnavailable)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runs.ListRecent(ctx, limit)
}

func (s *PipelineService) newRunID() (string, error) {
	if s.idGen == nil {
		return "", fmt.Errorf("%w: id generator is not configured", ErrDependencyUnavailable)
	}
	runID, err := s.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return runID, nil
}
