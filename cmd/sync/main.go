package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/app"
	"github.com/kaiseki-dev/edinet-insight/internal/config"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/pipeline"
	"github.com/kaiseki-dev/edinet-insight/internal/platform/logging"
	"github.com/kaiseki-dev/edinet-insight/internal/usecase"
)

func main() {
	var (
		dateFlag      = flag.String("date", "", "start date YYYY-MM-DD (default: today in JST)")
		daysBackFlag  = flag.Int("days-back", -1, "how many days to walk back looking for filings (default: PIPELINE_LOOKBACK_DAYS)")
		docTypesFlag  = flag.String("doc-types", "", "comma-separated document type codes (default: PIPELINE_DOC_TYPES)")
		skipSummaries = flag.Bool("skip-summaries", false, "process filings without calling the LLM")
		timeoutFlag   = flag.Duration("timeout", 15*time.Minute, "overall run timeout")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	if *daysBackFlag >= 0 {
		cfg.PipelineLookbackDays = *daysBackFlag
	}
	if *skipSummaries {
		cfg.OpenAIAPIKey = ""
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	input := usecase.RunInput{Trigger: pipeline.TriggerManual}
	if *dateFlag != "" {
		startDate, parseErr := time.ParseInLocation("2006-01-02", *dateFlag, filing.JST)
		if parseErr != nil {
			fmt.Fprintf(os.Stderr, "invalid -date %q: expected YYYY-MM-DD\n", *dateFlag)
			os.Exit(2)
		}
		input.StartDate = startDate
	}
	if *docTypesFlag != "" {
		codes := splitCSV(*docTypesFlag)
		input.Criteria = &filing.SearchCriteria{
			DocTypeCodes:   codes,
			RequireSecCode: cfg.PipelineRequireSecCode,
		}
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build app: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = application.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	report, err := application.Pipeline.Run(ctx, input)
	printReport(report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline run failed: %v\n", err)
		os.Exit(1)
	}
	if report.Status == pipeline.StatusFailed {
		os.Exit(1)
	}
}

func printReport(report usecase.RunReport) {
	fmt.Printf("run %s: %s\n", report.RunID, report.Status)
	if report.TargetDate != "" {
		fmt.Printf("target date: %s\n", report.TargetDate)
	}
	fmt.Printf("listed=%d downloaded=%d processed=%d summarized=%d failed=%d\n",
		report.Counts.Listed,
		report.Counts.Downloaded,
		report.Counts.Processed,
		report.Counts.Summarized,
		report.Counts.Failed,
	)
	for _, doc := range report.Documents {
		line := fmt.Sprintf("  %s type=%s %s", doc.DocID, doc.DocType, doc.Status)
		if doc.Message != "" {
			line += " (" + doc.Message + ")"
		}
		fmt.Println(line)
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
