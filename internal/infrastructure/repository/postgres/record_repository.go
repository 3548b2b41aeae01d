package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	qb "github.com/kaiseki-dev/edinet-insight/internal/platform/querybuilder"
)

type RecordRepository struct {
	db *sqlx.DB
}

func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) Upsert(ctx context.Context, rec report.Record) error {
	if rec.DocID == "" {
		return fmt.Errorf("doc id is required")
	}

	model, err := recordToInsert(rec)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("records", model, `ON CONFLICT (doc_id)
DO UPDATE SET
	doc_type_code = EXCLUDED.doc_type_code,
	fields = EXCLUDED.fields,
	processed_at = EXCLUDED.processed_at,
	updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert record query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert record doc_id=%s: %w", rec.DocID, err)
	}

	return nil
}

func (r *RecordRepository) GetByDocID(ctx context.Context, docID string) (report.Record, bool, error) {
	query, args, err := qb.Select("*").
		From("records").
		Where(qb.Eq("doc_id", docID)).
		ToSQL()
	if err != nil {
		return report.Record{}, false, fmt.Errorf("build get record query: %w", err)
	}

	var row recordTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return report.Record{}, false, nil
		}
		return report.Record{}, false, fmt.Errorf("get record doc_id=%s: %w", docID, err)
	}

	rec, err := recordFromRow(row)
	if err != nil {
		return report.Record{}, false, err
	}
	return rec, true, nil
}
