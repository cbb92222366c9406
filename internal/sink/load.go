package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/plandata/kpi-etl/internal/table"
)

// ColumnDef declares one column of an explicit load schema: name, cell kind
// (rendered to the dialect's SQL type) and an optional length.
type ColumnDef struct {
	Name string
	Kind table.Kind
	Size int
}

// Load writes tbl into tableName as a full-replace snapshot: the target
// table is dropped and recreated on every call, never appended to. When defs
// is nil the schema is inferred from the table contents; otherwise the
// declared schema is applied and the table's column order must match it
// exactly. All rows are inserted in one transaction.
func (db *DB) Load(ctx context.Context, tbl *table.Table, tableName string, defs []ColumnDef) error {
	if err := db.EnsureSchema(ctx); err != nil {
		return db.loadFailure(tableName, err)
	}

	cols := tbl.Columns()
	if defs == nil {
		defs = inferColumnDefs(tbl)
	} else if err := checkDeclaredSchema(tableName, defs, cols); err != nil {
		db.log.Error("declared load schema does not match table", zap.String("table", tableName), zap.Error(err))
		return err
	}

	qualified := db.Handler.QualifiedTable(db.Config, tableName)

	tx, err := db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return db.loadFailure(tableName, fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+qualified); err != nil {
		return db.loadFailure(tableName, fmt.Errorf("drop table: %w", err))
	}
	if _, err := tx.ExecContext(ctx, db.createTableSQL(qualified, defs)); err != nil {
		return db.loadFailure(tableName, fmt.Errorf("create table: %w", err))
	}

	insert := db.insertSQL(qualified, cols)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return db.loadFailure(tableName, fmt.Errorf("prepare insert: %w", err))
	}
	defer stmt.Close()

	for i := 0; i < tbl.NumRows(); i++ {
		args := make([]any, len(cols))
		for j, v := range tbl.Row(i) {
			args[j] = v.Arg()
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return db.loadFailure(tableName, fmt.Errorf("insert row %d: %w", i, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return db.loadFailure(tableName, fmt.Errorf("commit: %w", err))
	}

	sample := ""
	if tbl.NumRows() > 0 {
		sample = rowString(tbl.Row(0))
	}
	db.log.Info("data loaded into sink table",
		zap.String("table", tableName),
		zap.Int("rows", tbl.NumRows()),
		zap.String("sample", sample))
	return nil
}

// ReadTable reads the named table back into memory in full.
func (db *DB) ReadTable(ctx context.Context, tableName string) (*table.Table, error) {
	exists, err := db.TableExists(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &TableNotFoundError{Table: tableName}
	}

	qualified := db.Handler.QualifiedTable(db.Config, tableName)
	return db.queryTable(ctx, "SELECT * FROM "+qualified)
}

// Preview returns the first n rows of the named table. Pure read; the only
// side effect is a log line carrying the rendered rows.
func (db *DB) Preview(ctx context.Context, tableName string, n int) (*table.Table, error) {
	exists, err := db.TableExists(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &TableNotFoundError{Table: tableName}
	}

	qualified := db.Handler.QualifiedTable(db.Config, tableName)
	tbl, err := db.queryTable(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualified, n))
	if err != nil {
		return nil, err
	}
	db.log.Info("table preview",
		zap.String("table", tableName),
		zap.Int("rows", tbl.NumRows()),
		zap.String("head", "\n"+tbl.Render()))
	return tbl, nil
}

func (db *DB) queryTable(ctx context.Context, query string) (*table.Table, error) {
	rows, err := db.Pool.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sink: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	tbl := table.New(cols...)

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		vals := make([]table.Value, len(cols))
		for i, v := range raw {
			vals[i] = valueFromSQL(v)
		}
		if err := tbl.AppendRow(vals...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tbl, nil
}

func (db *DB) createTableSQL(qualified string, defs []ColumnDef) string {
	parts := make([]string, len(defs))
	for i, d := range defs {
		typ := db.Handler.TypeName(d.Kind)
		if d.Size > 0 {
			typ = fmt.Sprintf("%s(%d)", typ, d.Size)
		}
		parts[i] = db.Handler.QuoteIdentifier(d.Name) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(parts, ", "))
}

func (db *DB) insertSQL(qualified string, cols []string) string {
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = db.Handler.QuoteIdentifier(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qualified, strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

func (db *DB) loadFailure(tableName string, err error) error {
	lf := &LoadFailureError{Table: tableName, Err: err}
	db.log.Error("sink load failed", zap.String("table", tableName), zap.Error(err))
	return lf
}

func checkDeclaredSchema(tableName string, defs []ColumnDef, cols []string) error {
	mismatch := len(defs) != len(cols)
	if !mismatch {
		for i, d := range defs {
			if d.Name != cols[i] {
				mismatch = true
				break
			}
		}
	}
	if mismatch {
		want := make([]string, len(defs))
		for i, d := range defs {
			want[i] = d.Name
		}
		return &SchemaMismatchError{Table: tableName, Want: want, Got: cols}
	}
	return nil
}

// inferColumnDefs derives a schema from the table contents: the kind of the
// first non-missing value per column, text when a column is all missing.
func inferColumnDefs(tbl *table.Table) []ColumnDef {
	cols := tbl.Columns()
	defs := make([]ColumnDef, len(cols))
	for j, c := range cols {
		kind := table.KindText
		for i := 0; i < tbl.NumRows(); i++ {
			v, _ := tbl.Cell(i, c)
			if !v.IsMissing() {
				kind = v.Kind()
				break
			}
		}
		defs[j] = ColumnDef{Name: c, Kind: kind}
	}
	return defs
}

func rowString(row []table.Value) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func valueFromSQL(v any) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Missing()
	case string:
		return table.Text(x)
	case []byte:
		return table.Text(string(x))
	case int64:
		return table.Integer(x)
	case int32:
		return table.Integer(int64(x))
	case int:
		return table.Integer(int64(x))
	case float64:
		return table.Real(x)
	case float32:
		return table.Real(float64(x))
	case time.Time:
		return table.Timestamp(x)
	case bool:
		if x {
			return table.Text("true")
		}
		return table.Text("false")
	case sql.RawBytes:
		return table.Text(string(x))
	default:
		return table.Text(fmt.Sprint(x))
	}
}
