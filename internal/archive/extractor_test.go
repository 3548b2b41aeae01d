package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"sort"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/kaiseki-dev/edinet-insight/internal/domain/filing"
)

func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := f.Write(entries[name]); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func tableContent(rows ...[3]string) []byte {
	var b strings.Builder
	b.WriteString("要素ID\t項目名\tコンテキストID\t相対年度\t連結・個別\t期間・時点\tユニットID\t単位\t値\n")
	for _, r := range rows {
		b.WriteString(r[0] + "\t" + r[1] + "\tCurrentYearDuration\t当期\t連結\t期間\tJPY\t円\t" + r[2] + "\n")
	}
	return []byte(b.String())
}

func toUTF16LE(t *testing.T, raw []byte) []byte {
	t.Helper()
	out, _, err := transform.Bytes(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder(), raw)
	if err != nil {
		t.Fatalf("encode utf-16le: %v", err)
	}
	return out
}

func TestExtractTables_PrimaryIsLargestDataFile(t *testing.T) {
	t.Parallel()

	primaryName := "XBRL_TO_CSV/jpcrp030000-asr-001_E02144-000_2026-03-31_01_2026-06-24.csv"
	data := buildZip(t, map[string][]byte{
		primaryName: tableContent(
			[3]string{"jpcrp_cor:NetSalesSummaryOfBusinessResults", "売上高", "1000000"},
			[3]string{"jpcrp_cor:OperatingIncome", "営業利益", "200000"},
			[3]string{"jpcrp_cor:OrdinaryIncome", "経常利益", "210000"},
		),
		"XBRL_TO_CSV/jpsps070000-asr-001_E02144-000_2026-03-31_01_2026-06-24.csv": tableContent(
			[3]string{"jpsps_cor:FundName", "ファンド名", "サンプル"},
		),
		"XBRL_TO_CSV/jpaud-aai-cc-001_E02144-000_2026-03-31_01_2026-06-24.csv": tableContent(
			[3]string{"jpaud_cor:A1", "監査1", "x"},
			[3]string{"jpaud_cor:A2", "監査2", "x"},
			[3]string{"jpaud_cor:A3", "監査3", "x"},
			[3]string{"jpaud_cor:A4", "監査4", "x"},
			[3]string{"jpaud_cor:A5", "監査5", "x"},
			[3]string{"jpaud_cor:A6", "監査6", "x"},
		),
		"__MACOSX/XBRL_TO_CSV/._jpcrp030000-asr-001.csv": []byte{0x00, 0x05, 0x16, 0x07},
	})

	tables, err := ExtractTables(filing.ArchivePayload{DocID: "S100TEST", Data: data})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables after filtering, got=%d", len(tables))
	}
	if tables[0].Name != primaryName {
		t.Fatalf("expected primary=%s, got=%s", primaryName, tables[0].Name)
	}
	if len(tables[0].Rows) != 3 {
		t.Fatalf("expected 3 data rows, got=%d", len(tables[0].Rows))
	}

	row := tables[0].Rows[0]
	if got, ok := row.Cell("要素ID"); !ok || got != "jpcrp_cor:NetSalesSummaryOfBusinessResults" {
		t.Fatalf("unexpected element id cell: %q ok=%v", got, ok)
	}
	if got, ok := row.Cell("値"); !ok || got != "1000000" {
		t.Fatalf("unexpected value cell: %q ok=%v", got, ok)
	}
}

func TestExtractTables_TieBreaksOnEntryName(t *testing.T) {
	t.Parallel()

	content := tableContent([3]string{"jpcrp_cor:NetSales", "売上高", "1"})
	data := buildZip(t, map[string][]byte{
		"XBRL_TO_CSV/b_second.csv": content,
		"XBRL_TO_CSV/a_first.csv":  content,
	})

	tables, err := ExtractTables(filing.ArchivePayload{DocID: "S100TEST", Data: data})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tables[0].Name != "XBRL_TO_CSV/a_first.csv" {
		t.Fatalf("expected name tiebreak to pick a_first.csv, got=%s", tables[0].Name)
	}
}

func TestExtractTables_DecodesUTF16Entries(t *testing.T) {
	t.Parallel()

	content := toUTF16LE(t, tableContent([3]string{"jpcrp_cor:FilerNameInJapaneseDEI", "提出者名", "トヨタ自動車株式会社"}))
	data := buildZip(t, map[string][]byte{
		"XBRL_TO_CSV/jpcrp030000-asr-001_E02144-000_2026-03-31_01_2026-06-24.csv": content,
	})

	tables, err := ExtractTables(filing.ArchivePayload{DocID: "S100TEST", Data: data})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables) != 1 || len(tables[0].Rows) != 1 {
		t.Fatalf("expected one table with one row, got=%v", tables)
	}
	if got, ok := tables[0].Rows[0].Cell("値"); !ok || got != "トヨタ自動車株式会社" {
		t.Fatalf("unexpected decoded cell: %q ok=%v", got, ok)
	}
}

func TestExtractTables_CorruptPayload(t *testing.T) {
	t.Parallel()

	_, err := ExtractTables(filing.ArchivePayload{DocID: "S100BAD", Data: []byte("this is not a zip")})
	if !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("expected corrupt archive error, got=%v", err)
	}
}

func TestExtractTables_NoTabularEntries(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string][]byte{
		"XBRL_TO_CSV/manifest.xml": []byte(`<manifest/>`),
		"XBRL_TO_CSV/jpaud-aai-cc-001_E02144-000_2026-03-31_01_2026-06-24.csv": tableContent(
			[3]string{"jpaud_cor:A1", "監査1", "x"},
		),
	})

	_, err := ExtractTables(filing.ArchivePayload{DocID: "S100NONE", Data: data})
	if !errors.Is(err, ErrNoTableFound) {
		t.Fatalf("expected no table error, got=%v", err)
	}
}
