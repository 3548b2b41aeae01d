package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/pipeline"
	qb "github.com/kaiseki-dev/edinet-insight/internal/platform/querybuilder"
)

type RunRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Create(ctx context.Context, run pipeline.Run) error {
	if run.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	model, err := runToInsert(run)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("pipeline_runs", model, "")
	if err != nil {
		return fmt.Errorf("build create run query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create pipeline run run_id=%s: %w", run.RunID, err)
	}

	return nil
}

func (r *RunRepository) Update(ctx context.Context, run pipeline.Run) error {
	if run.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	model, err := runToInsert(run)
	if err != nil {
		return err
	}

	query, args, err := qb.Update("pipeline_runs").
		Set("status", model.Status).
		Set("target_date", model.TargetDate).
		Set("counts", model.Counts).
		Set("error_message", model.ErrorMessage).
		Set("finished_at", model.FinishedAt).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("run_id", run.RunID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update run query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update pipeline run run_id=%s: %w", run.RunID, err)
	}

	return nil
}

func (r *RunRepository) GetByRunID(ctx context.Context, runID string) (pipeline.Run, bool, error) {
	query, args, err := runBaseSelect().
		Where(qb.Eq("run_id", runID)).
		ToSQL()
	if err != nil {
		return pipeline.Run{}, false, fmt.Errorf("build get run query: %w", err)
	}

	var row runTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pipeline.Run{}, false, nil
		}
		return pipeline.Run{}, false, fmt.Errorf("get pipeline run run_id=%s: %w", runID, err)
	}

	run, err := runFromRow(row)
	if err != nil {
		return pipeline.Run{}, false, err
	}
	return run, true, nil
}

func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]pipeline.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := runBaseSelect().
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list recent runs query: %w", err)
	}

	var rows []runTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list recent pipeline runs: %w", err)
	}

	out := make([]pipeline.Run, 0, len(rows))
	for _, row := range rows {
		run, err := runFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

func runBaseSelect() *qb.SelectBuilder {
	return qb.Select("*").From("pipeline_runs")
}
