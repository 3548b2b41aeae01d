package postgres

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
)

type recordTableModel struct {
	ID          int64     `db:"id"`
	DocID       string    `db:"doc_id"`
	DocTypeCode string    `db:"doc_type_code"`
	Fields      string    `db:"fields"`
	ProcessedAt time.Time `db:"processed_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type recordInsertModel struct {
	DocID       string    `db:"doc_id"`
	DocTypeCode string    `db:"doc_type_code"`
	Fields      string    `db:"fields"`
	ProcessedAt time.Time `db:"processed_at"`
}

// fieldValueRow is the stored shape of one field value. The domain type
// marshals to bare values and cannot round-trip, so storage keeps its own
// kind-tagged encoding.
type fieldValueRow struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

const (
	fieldKindString = "string"
	fieldKindNumber = "number"
	fieldKindDate   = "date"
)

func fieldsToJSON(fields report.Fields) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}

	rows := make(map[string]fieldValueRow, len(fields))
	for name, value := range fields {
		switch value.Kind {
		case report.FieldNumber:
			rows[name] = fieldValueRow{Kind: fieldKindNumber, Value: value.Num}
		case report.FieldDate:
			rows[name] = fieldValueRow{Kind: fieldKindDate, Value: value.Date.Format("2006-01-02")}
		default:
			rows[name] = fieldValueRow{Kind: fieldKindString, Value: value.Str}
		}
	}

	raw, err := jsoniter.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("marshal record fields: %w", err)
	}
	return string(raw), nil
}

func fieldsFromJSON(encoded string) (report.Fields, error) {
	if encoded == "" || encoded == "{}" {
		return report.Fields{}, nil
	}

	var rows map[string]fieldValueRow
	if err := jsoniter.Unmarshal([]byte(encoded), &rows); err != nil {
		return nil, fmt.Errorf("unmarshal record fields: %w", err)
	}

	fields := make(report.Fields, len(rows))
	for name, row := range rows {
		switch row.Kind {
		case fieldKindNumber:
			num, ok := row.Value.(float64)
			if !ok {
				return nil, fmt.Errorf("field %s: number stored as %T", name, row.Value)
			}
			fields[name] = report.NumberValue(num)
		case fieldKindDate:
			text, ok := row.Value.(string)
			if !ok {
				return nil, fmt.Errorf("field %s: date stored as %T", name, row.Value)
			}
			parsed, err := time.Parse("2006-01-02", text)
			if err != nil {
				return nil, fmt.Errorf("field %s: parse stored date: %w", name, err)
			}
			fields[name] = report.DateValue(parsed)
		case fieldKindString:
			text, ok := row.Value.(string)
			if !ok {
				return nil, fmt.Errorf("field %s: string stored as %T", name, row.Value)
			}
			fields[name] = report.StringValue(text)
		default:
			return nil, fmt.Errorf("field %s: unknown stored kind %q", name, row.Kind)
		}
	}
	return fields, nil
}

func recordFromRow(row recordTableModel) (report.Record, error) {
	fields, err := fieldsFromJSON(row.Fields)
	if err != nil {
		return report.Record{}, fmt.Errorf("record doc_id=%s: %w", row.DocID, err)
	}
	return report.Record{
		DocID:       row.DocID,
		DocTypeCode: row.DocTypeCode,
		Fields:      fields,
		ProcessedAt: row.ProcessedAt,
	}, nil
}

func recordToInsert(rec report.Record) (recordInsertModel, error) {
	fields, err := fieldsToJSON(rec.Fields)
	if err != nil {
		return recordInsertModel{}, err
	}
	return recordInsertModel{
		DocID:       rec.DocID,
		DocTypeCode: rec.DocTypeCode,
		Fields:      fields,
		ProcessedAt: rec.ProcessedAt.UTC(),
	}, nil
}
