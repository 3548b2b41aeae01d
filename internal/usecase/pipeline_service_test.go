package usecase

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/docproc"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/pipeline"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/infrastructure/repository/memory"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/cache"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
)

type staticIDGenerator struct {
	id string
}

func (g staticIDGenerator) NewID() (string, error) {
	return g.id, nil
}

// buildFilingArchive zips one tabular export with the standard element id,
// label and value columns.
func buildFilingArchive(t *testing.T, rows [][3]string) []byte {
	t.Helper()

	var table strings.Builder
	table.WriteString("要素ID\t項目名\t値\n")
	for _, row := range rows {
		table.WriteString(row[0])
		table.WriteByte('\t')
		table.WriteString(row[1])
		table.WriteByte('\t')
		table.WriteString(row[2])
		table.WriteByte('\n')
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create("XBRL_TO_CSV/jpcrp040300-ssr-001_E12345-000_2026-06-30_01_2026-08-20.csv")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := entry.Write([]byte(table.String())); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func semiAnnualArchive(t *testing.T) []byte {
	t.Helper()
	return buildFilingArchive(t, [][3]string{
		{"jpdei_cor:EDINETCodeDEI", "EDINETコード、DEI", "E12345"},
		{"JPCRP_FilerName", "提出者名", "Example Co"},
		{"JPCRP_NetSales", "売上高", "1000000"},
	})
}

func TestPipelineService_Run_ProcessesSemiAnnualFiling(t *testing.T) {
	filingDate := time.Date(2026, 8, 20, 0, 0, 0, 0, filing.JST)
	client := &stubDisclosureClient{
		filingsByDate: map[string][]filing.Metadata{
			"2026-08-20": {{
				DocID:        "S100TEST",
				DocTypeCode:  filing.DocTypeSemiAnnualReport,
				FilerName:    "Example Co",
				FilingDate:   filingDate,
				CSVAvailable: true,
			}},
		},
		archives: map[string][]byte{"S100TEST": semiAnnualArchive(t)},
	}

	filingRepo := memory.NewFilingRepository()
	recordRepo := memory.NewRecordRepository()
	runRepo := memory.NewRunRepository()

	logger := logging.NewNop()
	service := NewPipelineService(
		NewAcquisitionService(client, logger, 3, 2),
		NewProcessingService(docproc.NewDispatcher(), logger),
		nil,
		filingRepo,
		recordRepo,
		runRepo,
		staticIDGenerator{id: "run-001"},
		logger,
		filing.SearchCriteria{},
	)

	runReport, err := service.Run(t.Context(), RunInput{StartDate: filingDate})
	if err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}

	if runReport.RunID != "run-001" {
		t.Fatalf("expected run id run-001, got %s", runReport.RunID)
	}
	if runReport.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed run, got %s", runReport.Status)
	}
	if runReport.TargetDate != "2026-08-20" {
		t.Fatalf("expected target date 2026-08-20, got %s", runReport.TargetDate)
	}
	wantCounts := pipeline.RunCounts{Listed: 1, Downloaded: 1, Processed: 1}
	if runReport.Counts != wantCounts {
		t.Fatalf("unexpected counts: %+v", runReport.Counts)
	}
	if len(runReport.Documents) != 1 || runReport.Documents[0].Status != docStatusProcessed {
		t.Fatalf("unexpected documents: %+v", runReport.Documents)
	}

	record, found, err := recordRepo.GetByDocID(t.Context(), "S100TEST")
	if err != nil || !found {
		t.Fatalf("expected stored record, found=%v err=%v", found, err)
	}
	netSales, ok := record.Fields["net_sales"]
	if !ok || netSales.Kind != report.FieldNumber || netSales.Num != 1000000 {
		t.Fatalf("unexpected net_sales field: %+v", netSales)
	}
	filer, ok := record.Fields["filer_name"]
	if !ok || filer.Str != "Example Co" {
		t.Fatalf("unexpected filer_name field: %+v", filer)
	}

	if _, found, _ := filingRepo.GetByDocID(t.Context(), "S100TEST"); !found {
		t.Fatalf("expected filing metadata to be persisted")
	}

	run, found, err := runRepo.GetByRunID(t.Context(), "run-001")
	if err != nil || !found {
		t.Fatalf("expected stored run, found=%v err=%v", found, err)
	}
	if run.Status != pipeline.StatusCompleted || run.FinishedAt == nil {
		t.Fatalf("expected finished completed run, got %+v", run)
	}
}

func TestPipelineService_Run_SummarizesWhenConfigured(t *testing.T) {
	filingDate := time.Date(2026, 8, 20, 0, 0, 0, 0, filing.JST)
	client := &stubDisclosureClient{
		filingsByDate: map[string][]filing.Metadata{
			"2026-08-20": {{
				DocID:        "S100TEST",
				DocTypeCode:  filing.DocTypeSemiAnnualReport,
				FilerName:    "Example Co",
				FilingDate:   filingDate,
				CSVAvailable: true,
			}},
		},
		archives: map[string][]byte{"S100TEST": semiAnnualArchive(t)},
	}

	completer := &stubChatCompleter{complete: func(_, systemPrompt, _ string) (string, error) {
		if strings.Contains(systemPrompt, "key_highlights") {
			return `{"company_name_en":"Example Co","company_description_short":"A manufacturer.","summary":"Semi-annual results.","key_highlights":["Net sales reached 1,000,000."],"potential_impact_rationale":"Steady revenue."}`, nil
		}
		return `{"company_name_en":"Example Co","summary":"Example Co filed its semi-annual report."}`, nil
	}}

	summaryRepo := memory.NewSummaryRepository()
	runRepo := memory.NewRunRepository()
	logger := logging.NewNop()
	summaries := NewSummaryService(completer, summaryRepo, cache.NewStore(time.Minute), logger, SummaryServiceConfig{
		PrimaryModel: "gpt-4o",
	})

	service := NewPipelineService(
		NewAcquisitionService(client, logger, 3, 2),
		NewProcessingService(docproc.NewDispatcher(), logger),
		summaries,
		memory.NewFilingRepository(),
		memory.NewRecordRepository(),
		runRepo,
		staticIDGenerator{id: "run-002"},
		logger,
		filing.SearchCriteria{},
	)

	runReport, err := service.Run(t.Context(), RunInput{StartDate: filingDate, Trigger: pipeline.TriggerAPI})
	if err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}

	if runReport.Counts.Summarized != 1 || runReport.Counts.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", runReport.Counts)
	}
	if len(runReport.Documents) != 1 || runReport.Documents[0].Status != docStatusSummarized {
		t.Fatalf("unexpected documents: %+v", runReport.Documents)
	}

	analyses, err := summaryRepo.ListByDocID(t.Context(), "S100TEST")
	if err != nil {
		t.Fatalf("list summaries failed: %v", err)
	}
	if len(analyses) != 2 {
		t.Fatalf("expected one-line and executive summaries, got %d", len(analyses))
	}
	for _, analysis := range analyses {
		if analysis.ModelUsed != "gpt-4o" {
			t.Fatalf("expected primary model on %s, got %s", analysis.Kind, analysis.ModelUsed)
		}
	}

	run, found, _ := runRepo.GetByRunID(t.Context(), "run-002")
	if !found || run.Trigger != pipeline.TriggerAPI {
		t.Fatalf("expected api-triggered run, got %+v", run)
	}
}

func TestPipelineService_Run_FailedDocumentDoesNotAbortBatch(t *testing.T) {
	filingDate := time.Date(2026, 8, 20, 0, 0, 0, 0, filing.JST)
	client := &stubDisclosureClient{
		filingsByDate: map[string][]filing.Metadata{
			"2026-08-20": {
				{DocID: "S100GOOD", DocTypeCode: filing.DocTypeSemiAnnualReport, FilerName: "Example Co", FilingDate: filingDate, CSVAvailable: true},
				{DocID: "S100LOST", DocTypeCode: filing.DocTypeAnnualReport, FilerName: "Other Co", FilingDate: filingDate, CSVAvailable: true},
			},
		},
		archives:     map[string][]byte{"S100GOOD": semiAnnualArchive(t)},
		downloadErrs: map[string]error{"S100LOST": errors.New("archive endpoint down")},
	}

	runRepo := memory.NewRunRepository()
	logger := logging.NewNop()
	service := NewPipelineService(
		NewAcquisitionService(client, logger, 3, 2),
		NewProcessingService(docproc.NewDispatcher(), logger),
		nil,
		memory.NewFilingRepository(),
		memory.NewRecordRepository(),
		runRepo,
		staticIDGenerator{id: "run-003"},
		logger,
		filing.SearchCriteria{},
	)

	runReport, err := service.Run(t.Context(), RunInput{StartDate: filingDate})
	if err != nil {
		t.Fatalf("expected per-document failure to not fail the run, got %v", err)
	}

	if runReport.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed run, got %s", runReport.Status)
	}
	if runReport.Counts.Processed != 1 || runReport.Counts.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", runReport.Counts)
	}

	statusByDoc := make(map[string]string, len(runReport.Documents))
	for _, doc := range runReport.Documents {
		statusByDoc[doc.DocID] = doc.Status
	}
	if statusByDoc["S100GOOD"] != docStatusProcessed {
		t.Fatalf("expected S100GOOD processed, got %s", statusByDoc["S100GOOD"])
	}
	if statusByDoc["S100LOST"] != docStatusFailed {
		t.Fatalf("expected S100LOST failed, got %s", statusByDoc["S100LOST"])
	}
}

func TestPipelineService_Run_RecordsFailedRunOnAcquisitionError(t *testing.T) {
	client := &stubDisclosureClient{listErr: errors.New("list endpoint down")}
	runRepo := memory.NewRunRepository()
	logger := logging.NewNop()
	service := NewPipelineService(
		NewAcquisitionService(client, logger, 3, 2),
		NewProcessingService(docproc.NewDispatcher(), logger),
		nil,
		memory.NewFilingRepository(),
		memory.NewRecordRepository(),
		runRepo,
		staticIDGenerator{id: "run-004"},
		logger,
		filing.SearchCriteria{},
	)

	runReport, err := service.Run(t.Context(), RunInput{
		StartDate: time.Date(2026, 8, 20, 0, 0, 0, 0, filing.JST),
	})
	if err == nil {
		t.Fatalf("expected acquisition failure to fail the run")
	}
	if runReport.Status != pipeline.StatusFailed {
		t.Fatalf("expected failed run report, got %s", runReport.Status)
	}

	run, found, _ := runRepo.GetByRunID(t.Context(), "run-004")
	if !found {
		t.Fatalf("expected run row to be recorded")
	}
	if run.Status != pipeline.StatusFailed || !strings.Contains(run.ErrorMessage, "list endpoint down") {
		t.Fatalf("expected failed run with error message, got %+v", run)
	}
	if run.FinishedAt == nil {
		t.Fatalf("expected finished_at on failed run")
	}
}

func TestPipelineService_Run_EmptyWindowCompletesWithNoDocuments(t *testing.T) {
	client := &stubDisclosureClient{}
	runRepo := memory.NewRunRepository()
	logger := logging.NewNop()
	service := NewPipelineService(
		NewAcquisitionService(client, logger, 2, 2),
		NewProcessingService(docproc.NewDispatcher(), logger),
		nil,
		memory.NewFilingRepository(),
		memory.NewRecordRepository(),
		runRepo,
		staticIDGenerator{id: "run-005"},
		logger,
		filing.SearchCriteria{},
	)

	runReport, err := service.Run(t.Context(), RunInput{
		StartDate: time.Date(2026, 8, 16, 0, 0, 0, 0, filing.JST),
	})
	if err != nil {
		t.Fatalf("empty window should complete cleanly, got %v", err)
	}
	if runReport.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed run, got %s", runReport.Status)
	}
	if runReport.TargetDate != "" {
		t.Fatalf("expected no target date, got %s", runReport.TargetDate)
	}
	if len(runReport.Documents) != 0 {
		t.Fatalf("expected no documents, got %+v", runReport.Documents)
	}
}
