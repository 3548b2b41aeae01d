package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/summary"
	"github.com/kaiseki-dev/edinet-insight/internal/infrastructure/repository/memory"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/cache"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
)

type stubChatCompleter struct {
	mu       sync.Mutex
	complete func(model, systemPrompt, userPrompt string) (string, error)
	models   []string
	prompts  []string
}

func (c *stubChatCompleter) CompleteJSON(_ context.Context, model, systemPrompt, userPrompt string) (string, error) {
	c.mu.Lock()
	c.models = append(c.models, model)
	c.prompts = append(c.prompts, userPrompt)
	c.mu.Unlock()
	return c.complete(model, systemPrompt, userPrompt)
}

type countingSummaryRepo struct {
	inner *memory.SummaryRepository
	lists int
}

func (r *countingSummaryRepo) UpsertMany(ctx context.Context, items []summary.Analysis) error {
	return r.inner.UpsertMany(ctx, items)
}

func (r *countingSummaryRepo) ListByDocID(ctx context.Context, docID string) ([]summary.Analysis, error) {
	r.lists++
	return r.inner.ListByDocID(ctx, docID)
}

const validOneLineJSON = `{"company_name_en":"Example Co","summary":"Example Co filed its semi-annual report."}`

const validExecutiveJSON = `{"company_name_en":"Example Co","company_description_short":"A manufacturer.","summary":"Semi-annual results held steady.","key_highlights":["Net sales reached 1,000,000."],"potential_impact_rationale":"Revenue remains on plan."}`

func answerBySystemPrompt(systemPrompt string) string {
	if strings.Contains(systemPrompt, "key_highlights") {
		return validExecutiveJSON
	}
	return validOneLineJSON
}

func testFilingMeta() filing.Metadata {
	return filing.Metadata{
		DocID:          "S100TEST",
		DocTypeCode:    filing.DocTypeSemiAnnualReport,
		FilerName:      "Example Co",
		DocDescription: "半期報告書",
		FilingDate:     time.Date(2026, 8, 20, 0, 0, 0, 0, filing.JST),
	}
}

func testRecord() report.Record {
	return report.Record{
		DocID:       "S100TEST",
		DocTypeCode: filing.DocTypeSemiAnnualReport,
		Fields: report.Fields{
			"filer_name": report.StringValue("Example Co"),
			"net_sales":  report.NumberValue(1000000),
		},
	}
}

func TestSummaryService_SummarizeFiling_PersistsBothKinds(t *testing.T) {
	completer := &stubChatCompleter{complete: func(_, systemPrompt, _ string) (string, error) {
		return answerBySystemPrompt(systemPrompt), nil
	}}
	repo := memory.NewSummaryRepository()
	service := NewSummaryService(completer, repo, nil, logging.NewNop(), SummaryServiceConfig{
		PrimaryModel: "gpt-4o",
	})

	fixedNow := time.Date(2026, 8, 20, 18, 0, 0, 0, filing.JST)
	service.now = func() time.Time { return fixedNow }

	analyses, err := service.SummarizeFiling(t.Context(), testFilingMeta(), testRecord(), []string{"売上高: 1000000"})
	if err != nil {
		t.Fatalf("summarize filing failed: %v", err)
	}

	if len(analyses) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(analyses))
	}
	if analyses[0].Kind != summary.KindOneLine || analyses[1].Kind != summary.KindExecutive {
		t.Fatalf("unexpected analysis kinds: %s, %s", analyses[0].Kind, analyses[1].Kind)
	}
	if analyses[0].OneLine == nil || analyses[0].OneLine.Summary == "" {
		t.Fatalf("expected populated one-line summary, got %+v", analyses[0].OneLine)
	}
	if analyses[1].Executive == nil || len(analyses[1].Executive.KeyHighlights) != 1 {
		t.Fatalf("expected populated executive summary, got %+v", analyses[1].Executive)
	}
	for _, analysis := range analyses {
		if analysis.ModelUsed != "gpt-4o" {
			t.Fatalf("expected primary model, got %s", analysis.ModelUsed)
		}
		if !analysis.GeneratedAt.Equal(fixedNow.UTC()) {
			t.Fatalf("expected generated_at %v, got %v", fixedNow.UTC(), analysis.GeneratedAt)
		}
	}

	stored, err := repo.ListByDocID(t.Context(), "S100TEST")
	if err != nil {
		t.Fatalf("list stored summaries failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored summaries, got %d", len(stored))
	}
}

func TestSummaryService_SummarizeFiling_FallsBackWhenPrimaryReturnsProse(t *testing.T) {
	completer := &stubChatCompleter{complete: func(model, systemPrompt, _ string) (string, error) {
		if model == "gpt-4o" {
			return "Sorry, I cannot answer in JSON today.", nil
		}
		return answerBySystemPrompt(systemPrompt), nil
	}}
	service := NewSummaryService(completer, memory.NewSummaryRepository(), nil, logging.NewNop(), SummaryServiceConfig{
		PrimaryModel:  "gpt-4o",
		FallbackModel: "gpt-4-turbo",
	})

	analyses, err := service.SummarizeFiling(t.Context(), testFilingMeta(), testRecord(), nil)
	if err != nil {
		t.Fatalf("summarize filing failed: %v", err)
	}

	for _, analysis := range analyses {
		if analysis.ModelUsed != "gpt-4-turbo" {
			t.Fatalf("expected fallback model on %s, got %s", analysis.Kind, analysis.ModelUsed)
		}
	}

	wantModels := []string{"gpt-4o", "gpt-4-turbo", "gpt-4o", "gpt-4-turbo"}
	if len(completer.models) != len(wantModels) {
		t.Fatalf("expected %d completions, got %d (%v)", len(wantModels), len(completer.models), completer.models)
	}
	for i, model := range wantModels {
		if completer.models[i] != model {
			t.Fatalf("completion %d: expected %s, got %s", i, model, completer.models[i])
		}
	}
}

func TestSummaryService_SummarizeFiling_RejectsIncompleteModelAnswer(t *testing.T) {
	completer := &stubChatCompleter{complete: func(string, string, string) (string, error) {
		// Valid JSON that fails required-field validation.
		return `{"company_name_en":"Example Co"}`, nil
	}}
	service := NewSummaryService(completer, memory.NewSummaryRepository(), nil, logging.NewNop(), SummaryServiceConfig{
		PrimaryModel: "gpt-4o",
	})

	_, err := service.SummarizeFiling(t.Context(), testFilingMeta(), testRecord(), nil)
	if err == nil || !strings.Contains(err.Error(), "doc_id=S100TEST") {
		t.Fatalf("expected validation failure naming the document, got %v", err)
	}
}

func TestSummaryService_SummarizeFiling_PropagatesCompleterFailure(t *testing.T) {
	completer := &stubChatCompleter{complete: func(string, string, string) (string, error) {
		return "", errors.New("completion endpoint down")
	}}
	service := NewSummaryService(completer, memory.NewSummaryRepository(), nil, logging.NewNop(), SummaryServiceConfig{
		PrimaryModel: "gpt-4o",
	})

	_, err := service.SummarizeFiling(t.Context(), testFilingMeta(), testRecord(), nil)
	if err == nil || !strings.Contains(err.Error(), "completion endpoint down") {
		t.Fatalf("expected completer failure, got %v", err)
	}
}

func TestSummaryService_ListByDocID_ServesFromCacheUntilInvalidated(t *testing.T) {
	completer := &stubChatCompleter{complete: func(_, systemPrompt, _ string) (string, error) {
		return answerBySystemPrompt(systemPrompt), nil
	}}
	repo := &countingSummaryRepo{inner: memory.NewSummaryRepository()}
	service := NewSummaryService(completer, repo, cache.NewStore(time.Minute), logging.NewNop(), SummaryServiceConfig{
		PrimaryModel: "gpt-4o",
	})

	if _, err := service.ListByDocID(t.Context(), "S100TEST"); err != nil {
		t.Fatalf("first list failed: %v", err)
	}
	if _, err := service.ListByDocID(t.Context(), "S100TEST"); err != nil {
		t.Fatalf("second list failed: %v", err)
	}
	if repo.lists != 1 {
		t.Fatalf("expected one repository read before invalidation, got %d", repo.lists)
	}

	if _, err := service.SummarizeFiling(t.Context(), testFilingMeta(), testRecord(), nil); err != nil {
		t.Fatalf("summarize filing failed: %v", err)
	}

	items, err := service.ListByDocID(t.Context(), "S100TEST")
	if err != nil {
		t.Fatalf("list after summarize failed: %v", err)
	}
	if repo.lists != 2 {
		t.Fatalf("expected cache invalidation to re-read the repository, got %d reads", repo.lists)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 summaries after invalidation, got %d", len(items))
	}
}

func TestSummaryService_BuildFacts_TruncatesToBudget(t *testing.T) {
	service := NewSummaryService(nil, nil, nil, logging.NewNop(), SummaryServiceConfig{
		PrimaryModel:     "gpt-4o",
		PromptCharBudget: 40,
	})

	facts := service.buildFacts(testFilingMeta(), testRecord(), []string{"売上高: 1000000"})
	if got := len([]rune(facts)); got > 40 {
		t.Fatalf("expected facts capped at 40 runes, got %d", got)
	}

	service.cfg.PromptCharBudget = defaultPromptCharBudget
	facts = service.buildFacts(testFilingMeta(), testRecord(), []string{"売上高: 1000000"})
	for _, want := range []string{
		"filer: Example Co",
		"document type: semi-annual securities report",
		"filing date: 2026-08-20",
		"net_sales: 1000000",
		"- 売上高: 1000000",
	} {
		if !strings.Contains(facts, want) {
			t.Fatalf("expected facts to contain %q, got:\n%s", want, facts)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	fenced := "```json\n" + validOneLineJSON + "\n```"
	if got := extractJSONObject(fenced); got != validOneLineJSON {
		t.Fatalf("expected fenced object extracted, got %q", got)
	}
	if got := extractJSONObject("no json here"); got != "" {
		t.Fatalf("expected empty result for prose, got %q", got)
	}
}
