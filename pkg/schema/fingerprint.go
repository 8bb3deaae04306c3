// Package schema builds a structural fingerprint of a database: its tables,
// columns, and keys, plus a content hash that identifies the structure
// independently of row contents or enumeration order.
package schema

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/biodb-ai/biodb/pkg/db"
)

// ErrLoad is returned (wrapped) when the schema cannot be loaded from the
// database reader. It is fatal to orchestrator construction.
var ErrLoad = errors.New("schema load failed")

// Table describes one table's declared structure.
type Table struct {
	// Columns maps column name to declared type.
	Columns map[string]string `json:"columns"`
	// PrimaryKey lists the primary key columns in key order.
	PrimaryKey []string `json:"primary_key"`
}

// ForeignKey describes one foreign key constraint. References to nonexistent
// tables are recorded as-is; referential integrity is not validated here.
type ForeignKey struct {
	Columns           []string `json:"columns"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
}

// Fingerprint is an immutable structural summary of a database. Build it once
// per database connection; schema drift mid-session is not tracked.
type Fingerprint struct {
	Tables      map[string]Table        `json:"tables"`
	ForeignKeys map[string][]ForeignKey `json:"foreign_keys"`

	contentHash string
	lowerCols   map[string]map[string]bool
}

// Build loads the schema through the reader and computes the content hash.
func Build(ctx context.Context, r db.Reader) (*Fingerprint, error) {
	tables, err := r.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %v", ErrLoad, err)
	}

	fp := &Fingerprint{
		Tables:      make(map[string]Table, len(tables)),
		ForeignKeys: make(map[string][]ForeignKey),
	}

	for _, name := range tables {
		cols, err := r.TableColumns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: columns of %s: %v", ErrLoad, name, err)
		}
		pk, err := r.PrimaryKey(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: primary key of %s: %v", ErrLoad, name, err)
		}

		tbl := Table{Columns: make(map[string]string, len(cols)), PrimaryKey: pk}
		for _, c := range cols {
			tbl.Columns[c.Name] = c.Type
		}
		fp.Tables[name] = tbl

		fks, err := r.ForeignKeys(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: foreign keys of %s: %v", ErrLoad, name, err)
		}
		for _, fk := range fks {
			fp.ForeignKeys[name] = append(fp.ForeignKeys[name], ForeignKey{
				Columns:           fk.Columns,
				ReferencedTable:   fk.ReferencedTable,
				ReferencedColumns: fk.ReferencedColumns,
			})
		}
	}

	fp.contentHash = fp.hash()
	fp.lowerCols = lowerIndex(fp.Tables)
	return fp, nil
}

// FromStructure builds a Fingerprint directly from an already-known structure.
func FromStructure(tables map[string]Table, fks map[string][]ForeignKey) *Fingerprint {
	if fks == nil {
		fks = make(map[string][]ForeignKey)
	}
	fp := &Fingerprint{Tables: tables, ForeignKeys: fks}
	fp.contentHash = fp.hash()
	fp.lowerCols = lowerIndex(fp.Tables)
	return fp
}

// ContentHash returns the hex SHA-256 of the canonical schema serialization.
// Two databases with identical structure hash identically.
func (fp *Fingerprint) ContentHash() string {
	return fp.contentHash
}

// ContainsTable reports whether a table exists, case-insensitively.
func (fp *Fingerprint) ContainsTable(name string) bool {
	_, ok := fp.lowerCols[strings.ToLower(name)]
	return ok
}

// ContainsColumn reports whether a column exists on a table, case-insensitively.
func (fp *Fingerprint) ContainsColumn(table, col string) bool {
	cols, ok := fp.lowerCols[strings.ToLower(table)]
	return ok && cols[strings.ToLower(col)]
}

// TableNames returns all table names, sorted.
func (fp *Fingerprint) TableNames() []string {
	names := make([]string, 0, len(fp.Tables))
	for name := range fp.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hash serializes the structure with sorted keys so that reader enumeration
// order never affects the digest.
func (fp *Fingerprint) hash() string {
	h := sha256.New()

	for _, name := range fp.TableNames() {
		tbl := fp.Tables[name]
		fmt.Fprintf(h, "table\x00%s\x00", name)

		cols := make([]string, 0, len(tbl.Columns))
		for col := range tbl.Columns {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			fmt.Fprintf(h, "col\x00%s\x00%s\x00", col, tbl.Columns[col])
		}

		// Primary key order is part of the structure; do not sort it.
		fmt.Fprintf(h, "pk\x00%s\x00", strings.Join(tbl.PrimaryKey, ","))

		fkLines := make([]string, 0, len(fp.ForeignKeys[name]))
		for _, fk := range fp.ForeignKeys[name] {
			fkLines = append(fkLines, fmt.Sprintf("fk\x00%s\x00%s\x00%s",
				strings.Join(fk.Columns, ","),
				fk.ReferencedTable,
				strings.Join(fk.ReferencedColumns, ",")))
		}
		sort.Strings(fkLines)
		for _, line := range fkLines {
			fmt.Fprintf(h, "%s\x00", line)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

func lowerIndex(tables map[string]Table) map[string]map[string]bool {
	idx := make(map[string]map[string]bool, len(tables))
	for name, tbl := range tables {
		cols := make(map[string]bool, len(tbl.Columns))
		for col := range tbl.Columns {
			cols[strings.ToLower(col)] = true
		}
		idx[strings.ToLower(name)] = cols
	}
	return idx
}
