package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genes.db")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	stmts := []string{
		`CREATE TABLE genes (id INTEGER PRIMARY KEY, name TEXT, chromosome TEXT)`,
		`CREATE TABLE samples (
			id INTEGER PRIMARY KEY,
			gene_id INTEGER,
			value REAL,
			FOREIGN KEY (gene_id) REFERENCES genes(id)
		)`,
		`INSERT INTO genes (id, name, chromosome) VALUES (1, 'BRCA1', '17'), (2, 'TP53', '17')`,
		`INSERT INTO samples (id, gene_id, value) VALUES (1, 1, 0.5), (2, 1, 0.7), (3, 2, 0.1)`,
	}
	for _, s := range stmts {
		if _, err := conn.Exec(s); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func newTestReader(t *testing.T) *SQLiteReader {
	t.Helper()
	r, err := Open(newTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestListTables(t *testing.T) {
	r := newTestReader(t)
	tables, err := r.ListTables(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"genes", "samples"}
	if !reflect.DeepEqual(tables, want) {
		t.Errorf("expected %v, got %v", want, tables)
	}
}

func TestTableColumns(t *testing.T) {
	r := newTestReader(t)
	cols, err := r.TableColumns(context.Background(), "genes")
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	if cols[0].Name != "id" || cols[0].Type != "INTEGER" {
		t.Errorf("unexpected first column: %+v", cols[0])
	}

	if _, err := r.TableColumns(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestPrimaryKey(t *testing.T) {
	r := newTestReader(t)
	pk, err := r.PrimaryKey(context.Background(), "genes")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(pk, []string{"id"}) {
		t.Errorf("expected [id], got %v", pk)
	}
}

func TestForeignKeys(t *testing.T) {
	r := newTestReader(t)
	fks, err := r.ForeignKeys(context.Background(), "samples")
	if err != nil {
		t.Fatal(err)
	}
	if len(fks) != 1 {
		t.Fatalf("expected 1 foreign key, got %d", len(fks))
	}
	fk := fks[0]
	if fk.ReferencedTable != "genes" {
		t.Errorf("expected reference to genes, got %s", fk.ReferencedTable)
	}
	if !reflect.DeepEqual(fk.Columns, []string{"gene_id"}) {
		t.Errorf("unexpected fk columns: %v", fk.Columns)
	}
	if !reflect.DeepEqual(fk.ReferencedColumns, []string{"id"}) {
		t.Errorf("unexpected referenced columns: %v", fk.ReferencedColumns)
	}
}

func TestRowCountAndSampleRows(t *testing.T) {
	r := newTestReader(t)
	ctx := context.Background()

	count, err := r.RowCount(ctx, "samples")
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected 3 rows, got %d", count)
	}

	rows, err := r.SampleRows(ctx, "samples", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 sampled rows, got %d", len(rows))
	}
	if _, ok := rows[0]["gene_id"]; !ok {
		t.Errorf("expected gene_id key in sampled row, got %v", rows[0])
	}
}

func TestDetectKind(t *testing.T) {
	cases := []struct {
		tables []string
		want   string
	}{
		{[]string{"genes", "annotations"}, "Bioinformatics database"},
		{[]string{"experiments", "runs"}, "Experimental database"},
		{[]string{"users", "orders"}, "SQLite database"},
	}
	for _, c := range cases {
		if got := DetectKind(c.tables); got != c.want {
			t.Errorf("DetectKind(%v) = %q, want %q", c.tables, got, c.want)
		}
	}
}
