package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/pipeline"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/summary"
)

func TestFieldsJSONRoundTrip(t *testing.T) {
	period := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	fields := report.Fields{
		"filer_name": report.StringValue("Example Co"),
		"net_sales":  report.NumberValue(1000000),
		"period_end": report.DateValue(period),
	}

	encoded, err := fieldsToJSON(fields)
	if err != nil {
		t.Fatalf("fieldsToJSON: %v", err)
	}

	decoded, err := fieldsFromJSON(encoded)
	if err != nil {
		t.Fatalf("fieldsFromJSON: %v", err)
	}

	if len(decoded) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(decoded))
	}
	if got := decoded["filer_name"]; got.Kind != report.FieldString || got.Str != "Example Co" {
		t.Fatalf("unexpected filer_name: %+v", got)
	}
	if got := decoded["net_sales"]; got.Kind != report.FieldNumber || got.Num != 1000000 {
		t.Fatalf("unexpected net_sales: %+v", got)
	}
	if got := decoded["period_end"]; got.Kind != report.FieldDate || !got.Date.Equal(period) {
		t.Fatalf("unexpected period_end: %+v", got)
	}
}

func TestFieldsFromJSONRejectsUnknownKind(t *testing.T) {
	_, err := fieldsFromJSON(`{"net_sales":{"kind":"decimal","value":1}}`)
	if err == nil || !strings.Contains(err.Error(), "unknown stored kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestFilingModelKeepsFilingDay(t *testing.T) {
	meta := filing.Metadata{
		DocID:       "S100TEST",
		DocTypeCode: filing.DocTypeSemiAnnualReport,
		FilerName:   "Example Co",
		FilingDate:  time.Date(2026, 8, 20, 0, 0, 0, 0, filing.JST),
		SubmitAt:    time.Date(2026, 8, 20, 15, 1, 0, 0, filing.JST),
	}

	insert := filingToInsert(meta)
	if insert.FilingDate != "2026-08-20" {
		t.Fatalf("unexpected insert filing date: %s", insert.FilingDate)
	}
	if insert.SubmittedAt == nil {
		t.Fatalf("expected submitted_at to be set")
	}

	row := filingTableModel{
		DocID:       meta.DocID,
		DocTypeCode: meta.DocTypeCode,
		FilerName:   meta.FilerName,
		SubmittedAt: insert.SubmittedAt,
		FilingDate:  time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}
	got := filingFromRow(row)
	if got.FilingDate.Format("2006-01-02") != "2026-08-20" {
		t.Fatalf("unexpected filing date: %s", got.FilingDate)
	}
	if zone, _ := got.FilingDate.Zone(); zone != "JST" {
		t.Fatalf("expected JST filing date, got zone %s", zone)
	}
	if !got.SubmitAt.Equal(meta.SubmitAt) {
		t.Fatalf("unexpected submit time: %s", got.SubmitAt)
	}
}

func TestFilingModelSkipsZeroSubmitTime(t *testing.T) {
	insert := filingToInsert(filing.Metadata{
		DocID:      "S100TEST",
		FilingDate: time.Date(2026, 8, 20, 0, 0, 0, 0, filing.JST),
	})
	if insert.SubmittedAt != nil {
		t.Fatalf("expected nil submitted_at for zero submit time")
	}
}

func TestSummaryModelRoundTrip(t *testing.T) {
	generated := time.Date(2026, 8, 20, 7, 30, 0, 0, time.UTC)
	item := summary.Analysis{
		DocID:       "S100TEST",
		Kind:        summary.KindExecutive,
		ModelUsed:   "gpt-4o",
		GeneratedAt: generated,
		Executive: &summary.Executive{
			CompanyNameEN:            "Example Co",
			CompanyDescriptionShort:  "Industrial manufacturer",
			Summary:                  "Steady first half.",
			KeyHighlights:            []string{"Net sales up"},
			PotentialImpactRationale: "Limited impact.",
		},
	}

	insert, err := summaryToInsert(item)
	if err != nil {
		t.Fatalf("summaryToInsert: %v", err)
	}

	got, err := summaryFromRow(summaryTableModel{
		DocID:       insert.DocID,
		Kind:        insert.Kind,
		ModelUsed:   insert.ModelUsed,
		Payload:     insert.Payload,
		GeneratedAt: insert.GeneratedAt,
	})
	if err != nil {
		t.Fatalf("summaryFromRow: %v", err)
	}

	if got.Executive == nil || got.OneLine != nil {
		t.Fatalf("expected executive payload only, got %+v", got)
	}
	if got.Executive.CompanyNameEN != "Example Co" || len(got.Executive.KeyHighlights) != 1 {
		t.Fatalf("unexpected executive payload: %+v", got.Executive)
	}
	if !got.GeneratedAt.Equal(generated) {
		t.Fatalf("unexpected generated_at: %s", got.GeneratedAt)
	}
}

func TestSummaryToInsertRejectsMissingPayload(t *testing.T) {
	_, err := summaryToInsert(summary.Analysis{DocID: "S100TEST", Kind: summary.KindOneLine})
	if err == nil || !strings.Contains(err.Error(), "one line payload required") {
		t.Fatalf("expected missing payload error, got %v", err)
	}
}

func TestRunModelRoundTrip(t *testing.T) {
	started := time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	run := pipeline.Run{
		RunID:      "run-001",
		Trigger:    pipeline.TriggerAPI,
		Status:     pipeline.StatusCompleted,
		TargetDate: time.Date(2026, 8, 20, 0, 0, 0, 0, filing.JST),
		Counts:     pipeline.RunCounts{Listed: 4, Downloaded: 3, Processed: 3, Summarized: 2, Failed: 1},
		StartedAt:  started,
		FinishedAt: &finished,
	}

	insert, err := runToInsert(run)
	if err != nil {
		t.Fatalf("runToInsert: %v", err)
	}
	if insert.TargetDate == nil || *insert.TargetDate != "2026-08-20" {
		t.Fatalf("unexpected target date: %v", insert.TargetDate)
	}
	if insert.ErrorMessage != nil {
		t.Fatalf("expected nil error message")
	}

	targetDate := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	got, err := runFromRow(runTableModel{
		RunID:         insert.RunID,
		TriggerSource: insert.TriggerSource,
		Status:        insert.Status,
		TargetDate:    &targetDate,
		Counts:        insert.Counts,
		ErrorMessage:  insert.ErrorMessage,
		StartedAt:     insert.StartedAt,
		FinishedAt:    insert.FinishedAt,
	})
	if err != nil {
		t.Fatalf("runFromRow: %v", err)
	}

	if got.Trigger != pipeline.TriggerAPI || got.Status != pipeline.StatusCompleted {
		t.Fatalf("unexpected run identity: %+v", got)
	}
	if got.Counts != run.Counts {
		t.Fatalf("unexpected counts: %+v", got.Counts)
	}
	if got.TargetDate.Format("2006-01-02") != "2026-08-20" {
		t.Fatalf("unexpected target date: %s", got.TargetDate)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Fatalf("unexpected finished_at: %v", got.FinishedAt)
	}
}
