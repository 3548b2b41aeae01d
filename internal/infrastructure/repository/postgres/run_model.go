package postgres

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/pipeline"
)

type runTableModel struct {
	ID            int64      `db:"id"`
	RunID         string     `db:"run_id"`
	TriggerSource string     `db:"trigger_source"`
	Status        string     `db:"status"`
	TargetDate    *time.Time `db:"target_date"`
	Counts        string     `db:"counts"`
	ErrorMessage  *string    `db:"error_message"`
	StartedAt     time.Time  `db:"started_at"`
	FinishedAt    *time.Time `db:"finished_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

type runInsertModel struct {
	RunID         string     `db:"run_id"`
	TriggerSource string     `db:"trigger_source"`
	Status        string     `db:"status"`
	TargetDate    *string    `db:"target_date"`
	Counts        string     `db:"counts"`
	ErrorMessage  *string    `db:"error_message"`
	StartedAt     time.Time  `db:"started_at"`
	FinishedAt    *time.Time `db:"finished_at"`
}

type runCountsRow struct {
	Listed     int `json:"listed"`
	Downloaded int `json:"downloaded"`
	Processed  int `json:"processed"`
	Summarized int `json:"summarized"`
	Failed     int `json:"failed"`
}

func countsToJSON(counts pipeline.RunCounts) (string, error) {
	raw, err := jsoniter.Marshal(runCountsRow{
		Listed:     counts.Listed,
		Downloaded: counts.Downloaded,
		Processed:  counts.Processed,
		Summarized: counts.Summarized,
		Failed:     counts.Failed,
	})
	if err != nil {
		return "", fmt.Errorf("marshal run counts: %w", err)
	}
	return string(raw), nil
}

func countsFromJSON(encoded string) (pipeline.RunCounts, error) {
	if encoded == "" || encoded == "{}" {
		return pipeline.RunCounts{}, nil
	}

	var row runCountsRow
	if err := jsoniter.Unmarshal([]byte(encoded), &row); err != nil {
		return pipeline.RunCounts{}, fmt.Errorf("unmarshal run counts: %w", err)
	}
	return pipeline.RunCounts{
		Listed:     row.Listed,
		Downloaded: row.Downloaded,
		Processed:  row.Processed,
		Summarized: row.Summarized,
		Failed:     row.Failed,
	}, nil
}

func runToInsert(run pipeline.Run) (runInsertModel, error) {
	counts, err := countsToJSON(run.Counts)
	if err != nil {
		return runInsertModel{}, err
	}

	model := runInsertModel{
		RunID:         run.RunID,
		TriggerSource: string(run.Trigger),
		Status:        string(run.Status),
		Counts:        counts,
		ErrorMessage:  nullableString(run.ErrorMessage),
		StartedAt:     run.StartedAt.UTC(),
	}
	if !run.TargetDate.IsZero() {
		date := run.TargetDate.In(filing.JST).Format("2006-01-02")
		model.TargetDate = &date
	}
	if run.FinishedAt != nil {
		finished := run.FinishedAt.UTC()
		model.FinishedAt = &finished
	}
	return model, nil
}

func runFromRow(row runTableModel) (pipeline.Run, error) {
	counts, err := countsFromJSON(row.Counts)
	if err != nil {
		return pipeline.Run{}, fmt.Errorf("run run_id=%s: %w", row.RunID, err)
	}

	run := pipeline.Run{
		RunID:        row.RunID,
		Trigger:      pipeline.Trigger(row.TriggerSource),
		Status:       pipeline.RunStatus(row.Status),
		Counts:       counts,
		ErrorMessage: stringOrEmpty(row.ErrorMessage),
		StartedAt:    row.StartedAt,
	}
	if row.TargetDate != nil && !row.TargetDate.IsZero() {
		year, month, day := row.TargetDate.Date()
		run.TargetDate = time.Date(year, month, day, 0, 0, 0, 0, filing.JST)
	}
	if row.FinishedAt != nil {
		finished := *row.FinishedAt
		run.FinishedAt = &finished
	}
	return run, nil
}
