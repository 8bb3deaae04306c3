package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Reader is the read-only view of a database that analysis consumes.
// Implementations must never write to the underlying database.
type Reader interface {
	// ListTables returns the names of all user tables.
	ListTables(ctx context.Context) ([]string, error)
	// TableColumns returns the declared columns of a table.
	TableColumns(ctx context.Context, table string) ([]Column, error)
	// PrimaryKey returns the primary key columns of a table, in key order.
	PrimaryKey(ctx context.Context, table string) ([]string, error)
	// ForeignKeys returns the foreign keys declared on a table.
	ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error)
	// RowCount returns the number of rows in a table.
	RowCount(ctx context.Context, table string) (int64, error)
	// SampleRows returns up to n rows from a table.
	SampleRows(ctx context.Context, table string, n int) ([]map[string]any, error)
	// Close releases resources.
	Close() error
}

// Column is one declared column of a table.
type Column struct {
	Name string
	Type string
}

// ForeignKey is one foreign key constraint, possibly spanning multiple columns.
type ForeignKey struct {
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
}

// SQLiteReader implements Reader over a SQLite database file.
type SQLiteReader struct {
	db *sql.DB
}

// Open opens a SQLite database in read-only mode.
func Open(path string) (*SQLiteReader, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &SQLiteReader{db: db}, nil
}

// quoteIdent quotes an identifier for interpolation into PRAGMA and SELECT
// statements, which cannot take bound parameters for identifiers.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ListTables returns user table names, excluding SQLite internal tables.
func (r *SQLiteReader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableColumns returns the declared columns of a table.
func (r *SQLiteReader) TableColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, Column{Name: name, Type: ctype})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table info %s: no such table", table)
	}
	return cols, nil
}

// PrimaryKey returns the primary key columns of a table in key order.
func (r *SQLiteReader) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	// pk is the 1-based position of the column within the primary key.
	byPos := make(map[int]string)
	maxPos := 0
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		if pk > 0 {
			byPos[pk] = name
			if pk > maxPos {
				maxPos = pk
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pkCols := make([]string, 0, maxPos)
	for i := 1; i <= maxPos; i++ {
		pkCols = append(pkCols, byPos[i])
	}
	return pkCols, nil
}

// ForeignKeys returns the foreign keys declared on a table. Multi-column keys
// share an id in foreign_key_list output and are grouped back together.
func (r *SQLiteReader) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("foreign key list %s: %w", table, err)
	}
	defer rows.Close()

	var fks []ForeignKey
	lastID := -1
	for rows.Next() {
		var id, seq int
		var refTable, from string
		var to sql.NullString
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		if id != lastID {
			fks = append(fks, ForeignKey{ReferencedTable: refTable})
			lastID = id
		}
		fk := &fks[len(fks)-1]
		fk.Columns = append(fk.Columns, from)
		fk.ReferencedColumns = append(fk.ReferencedColumns, to.String)
	}
	return fks, rows.Err()
}

// RowCount returns the number of rows in a table.
func (r *SQLiteReader) RowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("row count %s: %w", table, err)
	}
	return count, nil
}

// SampleRows returns up to n rows from a table as column-name keyed maps.
func (r *SQLiteReader) SampleRows(ctx context.Context, table string, n int) ([]map[string]any, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s LIMIT ?", quoteIdent(table)), n)
	if err != nil {
		return nil, fmt.Errorf("sample rows %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sample columns %s: %w", table, err)
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (r *SQLiteReader) Close() error {
	return r.db.Close()
}
