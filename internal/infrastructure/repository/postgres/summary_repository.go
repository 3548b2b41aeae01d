package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/summary"
	qb "github.com/kaiseki-dev/edinet-insight/internal/platform/querybuilder"
)

type SummaryRepository struct {
	db *sqlx.DB
}

func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) UpsertMany(ctx context.Context, items []summary.Analysis) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert summaries tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		if item.DocID == "" {
			continue
		}

		model, err := summaryToInsert(item)
		if err != nil {
			return err
		}

		query, args, err := qb.InsertModel("summaries", model, `ON CONFLICT (doc_id, kind)
DO UPDATE SET
	model_used = EXCLUDED.model_used,
	payload = EXCLUDED.payload,
	generated_at = EXCLUDED.generated_at,
	updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert summary query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert summary doc_id=%s kind=%s: %w", item.DocID, item.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert summaries tx: %w", err)
	}

	return nil
}

func (r *SummaryRepository) ListByDocID(ctx context.Context, docID string) ([]summary.Analysis, error) {
	query, args, err := qb.Select("*").
		From("summaries").
		Where(qb.Eq("doc_id", docID)).
		OrderBy("kind").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list summaries query: %w", err)
	}

	var rows []summaryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list summaries doc_id=%s: %w", docID, err)
	}

	out := make([]summary.Analysis, 0, len(rows))
	for _, row := range rows {
		item, err := summaryFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
