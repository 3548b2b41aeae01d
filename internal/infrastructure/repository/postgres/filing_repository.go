package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	qb "github.com/kaiseki-dev/edinet-insight/internal/platform/querybuilder"
)

type FilingRepository struct {
	db *sqlx.DB
}

func NewFilingRepository(db *sqlx.DB) *FilingRepository {
	return &FilingRepository{db: db}
}

func (r *FilingRepository) UpsertMany(ctx context.Context, items []filing.Metadata) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert filings tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		if item.DocID == "" {
			continue
		}

		query, args, err := qb.InsertModel("filings", filingToInsert(item), `ON CONFLICT (doc_id)
DO UPDATE SET
	doc_type_code = EXCLUDED.doc_type_code,
	edinet_code = EXCLUDED.edinet_code,
	sec_code = EXCLUDED.sec_code,
	filer_name = EXCLUDED.filer_name,
	doc_description = EXCLUDED.doc_description,
	period_start = EXCLUDED.period_start,
	period_end = EXCLUDED.period_end,
	submitted_at = EXCLUDED.submitted_at,
	filing_date = EXCLUDED.filing_date,
	csv_available = EXCLUDED.csv_available,
	updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert filing query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert filing doc_id=%s: %w", item.DocID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert filings tx: %w", err)
	}

	return nil
}

func (r *FilingRepository) GetByDocID(ctx context.Context, docID string) (filing.Metadata, bool, error) {
	query, args, err := filingBaseSelect().
		Where(qb.Eq("doc_id", docID)).
		ToSQL()
	if err != nil {
		return filing.Metadata{}, false, fmt.Errorf("build get filing query: %w", err)
	}

	var row filingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return filing.Metadata{}, false, nil
		}
		return filing.Metadata{}, false, fmt.Errorf("get filing doc_id=%s: %w", docID, err)
	}

	return filingFromRow(row), true, nil
}

func (r *FilingRepository) ListByDate(ctx context.Context, date time.Time, docTypeCodes []string) ([]filing.Metadata, error) {
	conditions := []qb.Condition{
		qb.Eq("filing_date", date.In(filing.JST).Format("2006-01-02")),
	}
	if len(docTypeCodes) > 0 {
		values := make([]any, 0, len(docTypeCodes))
		for _, code := range docTypeCodes {
			values = append(values, code)
		}
		conditions = append(conditions, qb.In("doc_type_code", values))
	}

	query, args, err := filingBaseSelect().
		Where(conditions...).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list filings query: %w", err)
	}

	var rows []filingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list filings by date: %w", err)
	}

	out := make([]filing.Metadata, 0, len(rows))
	for _, row := range rows {
		out = append(out, filingFromRow(row))
	}
	return out, nil
}

func filingBaseSelect() *qb.SelectBuilder {
	return qb.Select("*").From("filings")
}
