package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/summary"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
	"github.com/kaiseki-dev/edinet-insight/internal/usecase"
)

type Handler struct {
	filingService   *usecase.FilingService
	summaryService  *usecase.SummaryService
	pipelineService *usecase.PipelineService
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	filingService *usecase.FilingService,
	summaryService *usecase.SummaryService,
	pipelineService *usecase.PipelineService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		filingService:   filingService,
		summaryService:  summaryService,
		pipelineService: pipelineService,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	if h.filingService == nil || h.pipelineService == nil {
		writeError(ctx, w, fmt.Errorf("%w: services are not wired", usecase.ErrDependencyUnavailable))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) ListFilings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFilings")
	defer span.End()

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	docTypeCodes := splitQueryList(r.URL.Query().Get("doc_type"))

	filings, err := h.filingService.ListByDate(ctx, date, docTypeCodes)
	if err != nil {
		h.logger.WarnContext(ctx, "list filings failed", "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]filingDTO, 0, len(filings))
	for _, f := range filings {
		items = append(items, filingToDTO(ctx, f))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetFiling(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFiling")
	defer span.End()

	docID := strings.TrimSpace(r.PathValue("docID"))
	meta, err := h.filingService.GetByDocID(ctx, docID)
	if err != nil {
		h.logger.WarnContext(ctx, "get filing failed", "doc_id", docID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, filingToDTO(ctx, meta))
}

func (h *Handler) GetFilingRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFilingRecord")
	defer span.End()

	docID := strings.TrimSpace(r.PathValue("docID"))
	record, err := h.filingService.GetRecord(ctx, docID)
	if err != nil {
		h.logger.WarnContext(ctx, "get filing record failed", "doc_id", docID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, recordToDTO(ctx, record))
}

func (h *Handler) ListFilingSummaries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFilingSummaries")
	defer span.End()

	docID := strings.TrimSpace(r.PathValue("docID"))
	analyses, err := h.summaryService.ListByDocID(ctx, docID)
	if err != nil {
		h.logger.WarnContext(ctx, "list filing summaries failed", "doc_id", docID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]summaryDTO, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, summaryToDTO(ctx, a))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func splitQueryList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type filingDTO struct {
	DocID          string `json:"docId"`
	DocTypeCode    string `json:"docTypeCode"`
	DocTypeName    string `json:"docTypeName"`
	EdinetCode     string `json:"edinetCode,omitempty"`
	SecCode        string `json:"secCode,omitempty"`
	FilerName      string `json:"filerName"`
	DocDescription string `json:"docDescription,omitempty"`
	PeriodStart    string `json:"periodStart,omitempty"`
	PeriodEnd      string `json:"periodEnd,omitempty"`
	SubmittedAt    string `json:"submittedAtUtc,omitempty"`
	FilingDate     string `json:"filingDate,omitempty"`
	CSVAvailable   bool   `json:"csvAvailable"`
}

type recordDTO struct {
	DocID       string        `json:"docId"`
	DocTypeCode string        `json:"docTypeCode"`
	Fields      report.Fields `json:"fields"`
	ProcessedAt string        `json:"processedAtUtc"`
}

type summaryDTO struct {
	DocID       string             `json:"docId"`
	Kind        string             `json:"kind"`
	ModelUsed   string             `json:"modelUsed"`
	GeneratedAt string             `json:"generatedAtUtc"`
	OneLine     *summary.OneLine   `json:"oneLine,omitempty"`
	Executive   *summary.Executive `json:"executive,omitempty"`
}

func filingToDTO(ctx context.Context, v filing.Metadata) filingDTO {
	ctx, span := startSpan(ctx, "httpapi.filingToDTO")
	defer span.End()

	dto := filingDTO{
		DocID:          v.DocID,
		DocTypeCode:    v.DocTypeCode,
		DocTypeName:    filing.DocTypeName(v.DocTypeCode),
		EdinetCode:     v.EdinetCode,
		SecCode:        v.SecCode,
		FilerName:      v.FilerName,
		DocDescription: v.DocDescription,
		PeriodStart:    v.PeriodStart,
		PeriodEnd:      v.PeriodEnd,
		CSVAvailable:   v.CSVAvailable,
	}
	if !v.SubmitAt.IsZero() {
		dto.SubmittedAt = v.SubmitAt.UTC().Format(time.RFC3339)
	}
	if !v.FilingDate.IsZero() {
		dto.FilingDate = v.FilingDate.Format("2006-01-02")
	}
	return dto
}

func recordToDTO(ctx context.Context, v report.Record) recordDTO {
	ctx, span := startSpan(ctx, "httpapi.recordToDTO")
	defer span.End()

	return recordDTO{
		DocID:       v.DocID,
		DocTypeCode: v.DocTypeCode,
		Fields:      v.Fields,
		ProcessedAt: v.ProcessedAt.UTC().Format(time.RFC3339),
	}
}

func summaryToDTO(ctx context.Context, v summary.Analysis) summaryDTO {
	ctx, span := startSpan(ctx, "httpapi.summaryToDTO")
	defer span.End()

	return summaryDTO{
		DocID:       v.DocID,
		Kind:        string(v.Kind),
		ModelUsed:   v.ModelUsed,
		GeneratedAt: v.GeneratedAt.UTC().Format(time.RFC3339),
		OneLine:     v.OneLine,
		Executive:   v.Executive,
	}
}
