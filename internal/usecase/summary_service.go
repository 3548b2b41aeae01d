package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/valyala/bytebufferpool"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/summary"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/cache"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
)

// ChatCompleter is the outbound port to a chat completion API. The model
// must answer with a single JSON object.
type ChatCompleter interface {
	CompleteJSON(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

const defaultPromptCharBudget = 6000

const oneLineSystemPrompt = `You are a financial disclosure analyst. From the facts provided, respond with a single JSON object {"company_name_en": string, "summary": string}. The summary is one English sentence stating what the filing discloses. Respond with JSON only, no prose.`

const executiveSystemPrompt = `You are a financial disclosure analyst. From the facts provided, respond with a single JSON object {"company_name_en": string, "company_description_short": string, "summary": string, "key_highlights": [string, ...], "potential_impact_rationale": string}. Write in English for an investor audience. Respond with JSON only, no prose.`

type SummaryServiceConfig struct {
	PrimaryModel     string
	FallbackModel    string
	PromptCharBudget int
}

type SummaryService struct {
	llm      ChatCompleter
	repo     summary.Repository
	store    *cache.Store
	validate *validator.Validate
	logger   *logging.Logger
	cfg      SummaryServiceConfig
	now      func() time.Time
}

func NewSummaryService(llm ChatCompleter, repo summary.Repository, store *cache.Store, logger *logging.Logger, cfg SummaryServiceConfig) *SummaryService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PromptCharBudget <= 0 {
		cfg.PromptCharBudget = defaultPromptCharBudget
	}
	return &SummaryService{
		llm:      llm,
		repo:     repo,
		store:    store,
		validate: validator.New(),
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SummarizeFiling generates the one-line and executive summaries for one
// processed filing and persists them when a repository is configured.
func (s *SummaryService) SummarizeFiling(ctx context.Context, meta filing.Metadata, record report.Record, blocks []string) ([]summary.Analysis, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SummaryService.SummarizeFiling")
	defer span.End()

	if s.llm == nil {
		return nil, fmt.Errorf("%w: chat completion client is not configured", ErrDependencyUnavailable)
	}

	facts := s.buildFacts(meta, record, blocks)

	var oneLine summary.OneLine
	oneLineModel, err := s.completeWithFallback(ctx, oneLineSystemPrompt, facts, &oneLine)
	if err != nil {
		return nil, fmt.Errorf("one-line summary doc_id=%s: %w", meta.DocID, err)
	}

	var executive summary.Executive
	executiveModel, err := s.completeWithFallback(ctx, executiveSystemPrompt, facts, &executive)
	if err != nil {
		return nil, fmt.Errorf("executive summary doc_id=%s: %w", meta.DocID, err)
	}

	generatedAt := s.now().UTC()
	analyses := []summary.Analysis{
		{DocID: meta.DocID, Kind: summary.KindOneLine, ModelUsed: oneLineModel, GeneratedAt: generatedAt, OneLine: &oneLine},
		{DocID: meta.DocID, Kind: summary.KindExecutive, ModelUsed: executiveModel, GeneratedAt: generatedAt, Executive: &executive},
	}

	if s.repo != nil {
		if err := s.repo.UpsertMany(ctx, analyses); err != nil {
			return nil, fmt.Errorf("persist summaries doc_id=%s: %w", meta.DocID, err)
		}
		if s.store != nil {
			s.store.DeletePrefix(ctx, "summaries:"+meta.DocID)
		}
	}

	return analyses, nil
}

// ListByDocID serves summaries through the read cache.
func (s *SummaryService) ListByDocID(ctx context.Context, docID string) ([]summary.Analysis, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SummaryService.ListByDocID")
	defer span.End()

	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, fmt.Errorf("%w: doc_id is required", ErrInvalidInput)
	}
	if s.repo == nil {
		return nil, fmt.Errorf("%w: summary repository is not configured", ErrDependencyUnavailable)
	}

	if s.store == nil {
		return s.repo.ListByDocID(ctx, docID)
	}

	out, err := s.store.GetOrLoad(ctx, "summaries:"+docID, func(ctx context.Context) (any, error) {
		return s.repo.ListByDocID(ctx, docID)
	})
	if err != nil {
		return nil, err
	}
	items, ok := out.([]summary.Analysis)
	if !ok {
		return nil, fmt.Errorf("unexpected cache payload type %T", out)
	}
	return items, nil
}

// completeWithFallback asks the primary model, and on any failure (request,
// decode or validation) retries once with the fallback model.
func (s *SummaryService) completeWithFallback(ctx context.Context, systemPrompt, userPrompt string, out any) (string, error) {
	raw, err := s.llm.CompleteJSON(ctx, s.cfg.PrimaryModel, systemPrompt, userPrompt)
	if err == nil {
		if decodeErr := s.decodeAndValidate(raw, out); decodeErr == nil {
			return s.cfg.PrimaryModel, nil
		} else {
			err = decodeErr
		}
	}

	if s.cfg.FallbackModel == "" || s.cfg.FallbackModel == s.cfg.PrimaryModel {
		return "", fmt.Errorf("model %s: %w", s.cfg.PrimaryModel, err)
	}

	s.logger.WarnContext(ctx, "primary model failed, retrying with fallback",
		"primary", s.cfg.PrimaryModel,
		"fallback", s.cfg.FallbackModel,
		"error", err,
	)

	raw, fallbackErr := s.llm.CompleteJSON(ctx, s.cfg.FallbackModel, systemPrompt, userPrompt)
	if fallbackErr != nil {
		return "", fmt.Errorf("fallback model %s: %w", s.cfg.FallbackModel, fallbackErr)
	}
	if decodeErr := s.decodeAndValidate(raw, out); decodeErr != nil {
		return "", fmt.Errorf("fallback model %s: %w", s.cfg.FallbackModel, decodeErr)
	}
	return s.cfg.FallbackModel, nil
}

func (s *SummaryService) decodeAndValidate(raw string, out any) error {
	raw = extractJSONObject(raw)
	if raw == "" {
		return fmt.Errorf("model response contains no JSON object")
	}
	if err := sonic.UnmarshalString(raw, out); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	if err := s.validate.Struct(out); err != nil {
		return fmt.Errorf("validate model response: %w", err)
	}
	return nil
}

// extractJSONObject cuts the outermost JSON object out of a response; models
// occasionally wrap the object in markdown fences.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

func (s *SummaryService) buildFacts(meta filing.Metadata, record report.Record, blocks []string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeLine := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		_, _ = buf.WriteString(label)
		_, _ = buf.WriteString(": ")
		_, _ = buf.WriteString(value)
		_ = buf.WriteByte('\n')
	}

	writeLine("filer", meta.FilerName)
	writeLine("document", meta.DocDescription)
	writeLine("document type", filing.DocTypeName(meta.DocTypeCode))
	if !meta.FilingDate.IsZero() {
		writeLine("filing date", meta.FilingDate.Format("2006-01-02"))
	}
	writeLine("securities code", meta.SecCode)

	keys := make([]string, 0, len(record.Fields))
	for key := range record.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		writeLine(key, record.Fields[key].String())
	}

	if len(blocks) > 0 {
		_, _ = buf.WriteString("reported line items:\n")
		for _, block := range blocks {
			_, _ = buf.WriteString("- ")
			_, _ = buf.WriteString(block)
			_ = buf.WriteByte('\n')
		}
	}

	return truncateRunes(buf.String(), s.cfg.PromptCharBudget)
}

func truncateRunes(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
