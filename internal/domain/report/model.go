package report

import (
	"encoding/json"
	"strconv"
	"time"
)

// RawTableRow is one row of a tabular export: ordered cells plus a header
// mapping (column name to cell index). The header map is shared across all
// rows of one table.
type RawTableRow struct {
	Cells  []string
	Header map[string]int
}

// Cell returns the value under a named column, false when the column is not
// present or the row is ragged.
func (r RawTableRow) Cell(column string) (string, bool) {
	idx, ok := r.Header[column]
	if !ok || idx < 0 || idx >= len(r.Cells) {
		return "", false
	}
	return r.Cells[idx], true
}

// Table is one tabular file extracted from a filing archive.
type Table struct {
	Name string
	Rows []RawTableRow
}

type FieldKind uint8

const (
	FieldString FieldKind = iota + 1
	FieldNumber
	FieldDate
)

// FieldValue is a normalized cell value: string, number or date.
type FieldValue struct {
	Kind FieldKind
	Str  string
	Num  float64
	Date time.Time
}

func StringValue(s string) FieldValue {
	return FieldValue{Kind: FieldString, Str: s}
}

func NumberValue(n float64) FieldValue {
	return FieldValue{Kind: FieldNumber, Num: n}
}

func DateValue(t time.Time) FieldValue {
	return FieldValue{Kind: FieldDate, Date: t}
}

// MarshalJSON emits the bare value so downstream consumers see a plain
// string-keyed mapping.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case FieldNumber:
		return json.Marshal(v.Num)
	case FieldDate:
		return json.Marshal(v.Date.Format("2006-01-02"))
	default:
		return json.Marshal(v.Str)
	}
}

func (v FieldValue) String() string {
	switch v.Kind {
	case FieldNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case FieldDate:
		return v.Date.Format("2006-01-02")
	default:
		return v.Str
	}
}

// Fields maps canonical field names to values. Keys come from a fixed
// per-document-type schema; optional fields that were not found are absent,
// never present with an empty value.
type Fields map[string]FieldValue

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Record is the structured result of processing one filing. Built once,
// never mutated afterwards.
type Record struct {
	DocID       string
	DocTypeCode string
	Fields      Fields
	ProcessedAt time.Time
}
