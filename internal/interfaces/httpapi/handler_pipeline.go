package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/pipeline"
	"github.com/kaiseki-dev/edinet-insight/internal/usecase"
)

type runPipelineRequest struct {
	Date         string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DocTypeCodes []string `json:"docTypeCodes" validate:"omitempty,dive,required"`
}

func (h *Handler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPipeline")
	defer span.End()

	if h.pipelineService == nil {
		writeError(ctx, w, fmt.Errorf("%w: pipeline service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeRunPipelineRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.RunInput{Trigger: pipeline.TriggerAPI}
	if req.Date != "" {
		startDate, parseErr := time.ParseInLocation("2006-01-02", req.Date, filing.JST)
		if parseErr != nil {
			writeError(ctx, w, fmt.Errorf("%w: date must be YYYY-MM-DD", usecase.ErrInvalidInput))
			return
		}
		input.StartDate = startDate
	}
	if len(req.DocTypeCodes) > 0 {
		input.Criteria = &filing.SearchCriteria{DocTypeCodes: req.DocTypeCodes}
	}

	result, err := h.pipelineService.Run(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "pipeline run failed", "run_id", result.RunID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, runReportToDTO(ctx, result))
}

func (h *Handler) GetPipelineRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPipelineRun")
	defer span.End()

	if h.pipelineService == nil {
		writeError(ctx, w, fmt.Errorf("%w: pipeline service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	runID := strings.TrimSpace(r.PathValue("runID"))
	run, err := h.pipelineService.GetRun(ctx, runID)
	if err != nil {
		h.logger.WarnContext(ctx, "get pipeline run failed", "run_id", runID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pipelineRunToDTO(ctx, run))
}

func (h *Handler) ListPipelineRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPipelineRuns")
	defer span.End()

	if h.pipelineService == nil {
		writeError(ctx, w, fmt.Errorf("%w: pipeline service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	runs, err := h.pipelineService.ListRecentRuns(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list pipeline runs failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]pipelineRunDTO, 0, len(runs))
	for _, run := range runs {
		items = append(items, pipelineRunToDTO(ctx, run))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

// decodeRunPipelineRequest tolerates an empty body: a bare POST runs the
// pipeline with the configured defaults.
func decodeRunPipelineRequest(r *http.Request) (runPipelineRequest, error) {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req runPipelineRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return runPipelineRequest{}, nil
		}
		return runPipelineRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

type runCountsDTO struct {
	Listed     int `json:"listed"`
	Downloaded int `json:"downloaded"`
	Processed  int `json:"processed"`
	Summarized int `json:"summarized"`
	Failed     int `json:"failed"`
}

type runDocumentDTO struct {
	DocID   string `json:"docId"`
	DocType string `json:"docType"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type runReportDTO struct {
	RunID      string           `json:"runId"`
	Status     string           `json:"status"`
	TargetDate string           `json:"targetDate,omitempty"`
	Counts     runCountsDTO     `json:"counts"`
	Documents  []runDocumentDTO `json:"documents"`
}

type pipelineRunDTO struct {
	RunID        string       `json:"runId"`
	Trigger      string       `json:"trigger"`
	Status       string       `json:"status"`
	TargetDate   string       `json:"targetDate,omitempty"`
	Counts       runCountsDTO `json:"counts"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	StartedAt    string       `json:"startedAtUtc"`
	FinishedAt   string       `json:"finishedAtUtc,omitempty"`
}

func countsToDTO(counts pipeline.RunCounts) runCountsDTO {
	return runCountsDTO{
		Listed:     counts.Listed,
		Downloaded: counts.Downloaded,
		Processed:  counts.Processed,
		Summarized: counts.Summarized,
		Failed:     counts.Failed,
	}
}

func runReportToDTO(ctx context.Context, v usecase.RunReport) runReportDTO {
	ctx, span := startSpan(ctx, "httpapi.runReportToDTO")
	defer span.End()

	documents := make([]runDocumentDTO, 0, len(v.Documents))
	for _, doc := range v.Documents {
		documents = append(documents, runDocumentDTO{
			DocID:   doc.DocID,
			DocType: doc.DocType,
			Status:  doc.Status,
			Message: doc.Message,
		})
	}

	return runReportDTO{
		RunID:      v.RunID,
		Status:     string(v.Status),
		TargetDate: v.TargetDate,
		Counts:     countsToDTO(v.Counts),
		Documents:  documents,
	}
}

func pipelineRunToDTO(ctx context.Context, v pipeline.Run) pipelineRunDTO {
	ctx, span := startSpan(ctx, "httpapi.pipelineRunToDTO")
	defer span.End()

	dto := pipelineRunDTO{
		RunID:        v.RunID,
		Trigger:      string(v.Trigger),
		Status:       string(v.Status),
		Counts:       countsToDTO(v.Counts),
		ErrorMessage: v.ErrorMessage,
		StartedAt:    v.StartedAt.UTC().Format(time.RFC3339),
	}
	if !v.TargetDate.IsZero() {
		dto.TargetDate = v.TargetDate.Format("2006-01-02")
	}
	if v.FinishedAt != nil {
		dto.FinishedAt = v.FinishedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
