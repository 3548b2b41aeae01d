package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("doc_id", "filer_name").
		From("filings").
		Where(Eq("filing_date", "2026-08-20"), IsNull("deleted_at")).
		OrderBy("doc_id").
		Limit(50).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT doc_id, filer_name FROM filings WHERE filing_date = $1 AND deleted_at IS NULL ORDER BY doc_id LIMIT 50"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "2026-08-20" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_InCondition(t *testing.T) {
	query, args, err := Select("doc_id").
		From("filings").
		Where(In("doc_type_code", []any{"160", "180"})).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT doc_id FROM filings WHERE doc_type_code IN ($1, $2)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("filings").
		Columns("doc_id", "filer_name").
		Values("S100TEST", "Example Co").
		Suffix("RETURNING doc_id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO filings (doc_id, filer_name) VALUES ($1, $2) RETURNING doc_id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "S100TEST" || args[1] != "Example Co" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("pipeline_runs").
		Set("status", "completed").
		SetExpr("finished_at", "NOW()").
		Where(Eq("run_id", "run-1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE pipeline_runs SET status = $1, finished_at = NOW() WHERE run_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "completed" || args[1] != "run-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	type filingRow struct {
		DocID     string `db:"doc_id"`
		FilerName string `db:"filer_name"`
		ignored   string
	}

	query, args, err := InsertModel("filings", filingRow{DocID: "S100TEST", FilerName: "Example Co"}, "")
	if err != nil {
		t.Fatalf("build insert from model: %v", err)
	}

	wantQuery := "INSERT INTO filings (doc_id, filer_name) VALUES ($1, $2)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
}
