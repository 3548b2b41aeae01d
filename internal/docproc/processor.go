// Package docproc turns raw disclosure table rows into structured records.
// A registry maps document type codes to extraction strategies; codes
// without a dedicated strategy flow through a generic fallback.
package docproc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/textenc"
)

// ErrSchemaViolation marks a document missing a field its type requires.
var ErrSchemaViolation = crerr.New("docproc: required field missing")

// Column labels in the tabular exports; labels vary across export vintages.
const (
	columnElementID = "要素ID"
	columnValue     = "値"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02"}

// Strategy extracts canonical fields from the rows of one document.
type Strategy interface {
	Extract(rows []report.RawTableRow) (report.Fields, error)
}

type schemaStrategy struct {
	name   string
	fields schema
	index  map[string]fieldSpec
}

func newSchemaStrategy(name string, fields schema) schemaStrategy {
	index := make(map[string]fieldSpec)
	for _, f := range fields {
		for _, id := range f.ElementIDs {
			if _, exists := index[id]; !exists {
				index[id] = f
			}
		}
	}
	return schemaStrategy{name: name, fields: fields, index: index}
}

// Extract scans every row once; the first row matching a field wins. Rows
// whose element identifier is not in the schema are ignored. The input is
// never mutated and each call returns a fresh mapping.
func (s schemaStrategy) Extract(rows []report.RawTableRow) (report.Fields, error) {
	out := make(report.Fields, len(s.fields))

	for _, row := range rows {
		id := rowElementID(row)
		if id == "" {
			continue
		}
		spec, ok := s.index[id]
		if !ok {
			continue
		}
		if _, exists := out[spec.Canonical]; exists {
			continue
		}
		value, ok := parseFieldValue(spec.Kind, rowValue(row))
		if !ok {
			continue
		}
		out[spec.Canonical] = value
	}

	for _, f := range s.fields {
		if !f.Required {
			continue
		}
		if _, ok := out[f.Canonical]; !ok {
			return nil, fmt.Errorf("%w: %s requires %s", ErrSchemaViolation, s.name, f.Canonical)
		}
	}

	return out, nil
}

// Dispatcher routes document rows to the strategy registered for the type
// code, or to the generic fallback.
type Dispatcher struct {
	registry map[string]Strategy
	fallback Strategy
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		registry: map[string]Strategy{
			filing.DocTypeSemiAnnualReport:    newSchemaStrategy("semi-annual report", semiAnnualFields),
			filing.DocTypeExtraordinaryReport: newSchemaStrategy("extraordinary report", extraordinaryFields),
		},
		fallback: newSchemaStrategy("generic report", genericFields),
	}
}

// RegisteredTypes lists the codes with a dedicated strategy, sorted.
func (d *Dispatcher) RegisteredTypes() []string {
	types := make([]string, 0, len(d.registry))
	for code := range d.registry {
		types = append(types, code)
	}
	sort.Strings(types)
	return types
}

func (d *Dispatcher) Process(docTypeCode string, rows []report.RawTableRow) (report.Fields, error) {
	strategy, ok := d.registry[strings.TrimSpace(docTypeCode)]
	if !ok {
		strategy = d.fallback
	}
	return strategy.Extract(rows)
}

func rowElementID(row report.RawTableRow) string {
	if v, ok := row.Cell(columnElementID); ok {
		return textenc.CleanField(v)
	}
	if v, ok := row.Cell("id"); ok {
		return textenc.CleanField(v)
	}
	if len(row.Cells) > 0 {
		return textenc.CleanField(row.Cells[0])
	}
	return ""
}

func rowValue(row report.RawTableRow) string {
	if v, ok := row.Cell(columnValue); ok {
		return v
	}
	if v, ok := row.Cell("value"); ok {
		return v
	}
	if len(row.Cells) > 0 {
		return row.Cells[len(row.Cells)-1]
	}
	return ""
}

func parseFieldValue(kind report.FieldKind, raw string) (report.FieldValue, bool) {
	cleaned := textenc.CleanField(raw)
	if cleaned == "" {
		return report.FieldValue{}, false
	}
	switch kind {
	case report.FieldNumber:
		return parseNumber(cleaned)
	case report.FieldDate:
		return parseDate(cleaned)
	default:
		return report.StringValue(cleaned), true
	}
}

// parseNumber accepts grouped digits and the triangle negative marker used
// in Japanese financial tables.
func parseNumber(text string) (report.FieldValue, bool) {
	t := strings.ReplaceAll(text, ",", "")
	negative := false
	for _, marker := range []string{"△", "▲", "-"} {
		if strings.HasPrefix(t, marker) {
			negative = true
			t = strings.TrimPrefix(t, marker)
			break
		}
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
	if err != nil {
		return report.FieldValue{}, false
	}
	if negative {
		n = -n
	}
	return report.NumberValue(n), true
}

func parseDate(text string) (report.FieldValue, bool) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return report.DateValue(parsed), true
		}
	}
	return report.FieldValue{}, false
}
