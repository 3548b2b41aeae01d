package postgres

import (
	"time"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
)

type filingTableModel struct {
	ID             int64      `db:"id"`
	DocID          string     `db:"doc_id"`
	DocTypeCode    string     `db:"doc_type_code"`
	EdinetCode     string     `db:"edinet_code"`
	SecCode        string     `db:"sec_code"`
	FilerName      string     `db:"filer_name"`
	DocDescription string     `db:"doc_description"`
	PeriodStart    string     `db:"period_start"`
	PeriodEnd      string     `db:"period_end"`
	SubmittedAt    *time.Time `db:"submitted_at"`
	FilingDate     time.Time  `db:"filing_date"`
	CSVAvailable   bool       `db:"csv_available"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

type filingInsertModel struct {
	DocID          string     `db:"doc_id"`
	DocTypeCode    string     `db:"doc_type_code"`
	EdinetCode     string     `db:"edinet_code"`
	SecCode        string     `db:"sec_code"`
	FilerName      string     `db:"filer_name"`
	DocDescription string     `db:"doc_description"`
	PeriodStart    string     `db:"period_start"`
	PeriodEnd      string     `db:"period_end"`
	SubmittedAt    *time.Time `db:"submitted_at"`
	FilingDate     string     `db:"filing_date"`
	CSVAvailable   bool       `db:"csv_available"`
}

func filingFromRow(row filingTableModel) filing.Metadata {
	meta := filing.Metadata{
		DocID:          row.DocID,
		DocTypeCode:    row.DocTypeCode,
		EdinetCode:     row.EdinetCode,
		SecCode:        row.SecCode,
		FilerName:      row.FilerName,
		DocDescription: row.DocDescription,
		PeriodStart:    row.PeriodStart,
		PeriodEnd:      row.PeriodEnd,
		CSVAvailable:   row.CSVAvailable,
	}
	if row.SubmittedAt != nil {
		meta.SubmitAt = row.SubmittedAt.In(filing.JST)
	}
	if !row.FilingDate.IsZero() {
		// DATE scans at UTC midnight; rebuild the day in the filing timezone.
		year, month, day := row.FilingDate.Date()
		meta.FilingDate = time.Date(year, month, day, 0, 0, 0, 0, filing.JST)
	}
	return meta
}

func filingToInsert(meta filing.Metadata) filingInsertModel {
	return filingInsertModel{
		DocID:          meta.DocID,
		DocTypeCode:    meta.DocTypeCode,
		EdinetCode:     meta.EdinetCode,
		SecCode:        meta.SecCode,
		FilerName:      meta.FilerName,
		DocDescription: meta.DocDescription,
		PeriodStart:    meta.PeriodStart,
		PeriodEnd:      meta.PeriodEnd,
		SubmittedAt:    nullableTime(meta.SubmitAt),
		FilingDate:     meta.FilingDate.In(filing.JST).Format("2006-01-02"),
		CSVAvailable:   meta.CSVAvailable,
	}
}
