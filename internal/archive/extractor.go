// Package archive pulls tabular data files out of disclosure ZIP payloads.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	crerr "github.com/cockroachdb/errors"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
	"github.com/kaiseki-dev/edinet-insight/internal/domain/report"
	"github.com/kaiseki-dev/edinet-insight/internal/textenc"
)

var (
	ErrCorruptArchive = crerr.New("archive: corrupt or unreadable zip")
	ErrNoTableFound   = crerr.New("archive: no tabular data file")
)

// Per-entry decompression cap.
const maxTableBytes = 32 << 20

// ExtractTables opens the archive in memory and decodes every tabular entry.
// The returned slice is ordered with the primary table first: candidates are
// sorted by uncompressed size descending, full entry name ascending on ties,
// so selection never depends on archive iteration order.
func ExtractTables(payload filing.ArchivePayload) ([]report.Table, error) {
	reader, err := zip.NewReader(bytes.NewReader(payload.Data), int64(len(payload.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: doc_id=%s: %v", ErrCorruptArchive, payload.DocID, err)
	}

	candidates := make([]*zip.File, 0, len(reader.File))
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !isTableEntry(entry.Name) {
			continue
		}
		candidates = append(candidates, entry)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: doc_id=%s", ErrNoTableFound, payload.DocID)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].UncompressedSize64 != candidates[j].UncompressedSize64 {
			return candidates[i].UncompressedSize64 > candidates[j].UncompressedSize64
		}
		return candidates[i].Name < candidates[j].Name
	})

	tables := make([]report.Table, 0, len(candidates))
	for _, entry := range candidates {
		table, err := readTable(entry)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	return tables, nil
}

// isTableEntry keeps CSV data files and drops the noise the packages ship
// with: macOS resource forks, hidden files, and auditor exports (jpaud
// prefix) that carry no filer data.
func isTableEntry(name string) bool {
	clean := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(clean, "__MACOSX/") || strings.Contains(clean, "/__MACOSX/") {
		return false
	}

	base := strings.ToLower(path.Base(clean))
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !strings.HasSuffix(base, ".csv") {
		return false
	}
	if strings.HasPrefix(base, "jpaud") {
		return false
	}
	return true
}

func readTable(entry *zip.File) (report.Table, error) {
	rc, err := entry.Open()
	if err != nil {
		return report.Table{}, fmt.Errorf("%w: open %s: %v", ErrCorruptArchive, entry.Name, err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(rc, maxTableBytes))
	_ = rc.Close()
	if readErr != nil {
		return report.Table{}, fmt.Errorf("%w: read %s: %v", ErrCorruptArchive, entry.Name, readErr)
	}

	text, _ := textenc.Decode(raw)
	rows, err := parseRows(text)
	if err != nil {
		return report.Table{}, fmt.Errorf("%w: parse %s: %v", ErrCorruptArchive, entry.Name, err)
	}

	return report.Table{Name: entry.Name, Rows: rows}, nil
}

// parseRows splits tab-separated text into rows. The first line is the
// header; its cleaned cell values index the columns of every row.
func parseRows(text string) ([]report.RawTableRow, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, cell := range records[0] {
		name := textenc.CleanField(cell)
		if name == "" {
			continue
		}
		if _, exists := header[name]; !exists {
			header[name] = i
		}
	}

	rows := make([]report.RawTableRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, report.RawTableRow{Cells: record, Header: header})
	}

	return rows, nil
}
