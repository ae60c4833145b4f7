// Package sqlite implements the driver contract for SQLite files via
// mattn/go-sqlite3. A SQLite connection is a single file, so database and
// schema listings collapse to the fixed "main" database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/serialexp/dbui/pkg/config"
	"github.com/serialexp/dbui/pkg/dbuierrors"
	"github.com/serialexp/dbui/pkg/driver/core"
	"github.com/serialexp/dbui/pkg/logger"
	"github.com/serialexp/dbui/pkg/models"
)

// mainDatabase is the name SQLite gives the primary attached database.
const mainDatabase = "main"

// Driver wraps a database/sql pool over one SQLite file.
type Driver struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens the file named by cfg.Host. The file is created lazily on the
// first write, matching sqlite3 command line behavior, so Open only fails
// for paths with unreachable parent directories or corrupted files.
func Open(ctx context.Context, cfg *config.ConnectionConfig) (*Driver, error) {
	db, err := sql.Open("sqlite3", cfg.Host)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "failed to open SQLite database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "failed to open SQLite database")
	}

	return &Driver{
		db:     db,
		path:   cfg.Host,
		logger: logger.With(zap.String("backend", "sqlite"), zap.String("path", cfg.Host)),
	}, nil
}

// Close releases the pool.
func (d *Driver) Close(ctx context.Context) error {
	return d.db.Close()
}

// ListDatabases returns the single main database.
func (d *Driver) ListDatabases(ctx context.Context) ([]string, error) {
	return []string{mainDatabase}, nil
}

// ListSchemas returns the single main schema.
func (d *Driver) ListSchemas(ctx context.Context, database string) ([]string, error) {
	return []string{mainDatabase}, nil
}

func (d *Driver) listMaster(ctx context.Context, failure, objectType string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = ? AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`, objectType)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, failure)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, failure)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, failure)
	}
	return names, nil
}

// ListTables returns user tables, excluding sqlite_ internal tables.
func (d *Driver) ListTables(ctx context.Context, database, schema string) ([]string, error) {
	return d.listMaster(ctx, "failed to list tables", "table")
}

// ListViews returns views.
func (d *Driver) ListViews(ctx context.Context, database, schema string) ([]string, error) {
	return d.listMaster(ctx, "failed to list views", "view")
}

// ListFunctions returns an empty list: SQLite has no stored functions.
func (d *Driver) ListFunctions(ctx context.Context, database, schema string) ([]string, error) {
	return []string{}, nil
}

// GetFunctionDefinition always fails: SQLite has no stored functions.
func (d *Driver) GetFunctionDefinition(ctx context.Context, database, schema, function string) (*models.FunctionInfo, error) {
	return nil, dbuierrors.New(dbuierrors.ErrorTypeUnsupported, "SQLite does not support stored functions")
}

// ListColumns reads PRAGMA table_info. The pk column carries the 1-based
// position of the column within the primary key, or zero.
func (d *Driver) ListColumns(ctx context.Context, database, schema, table string) ([]models.ColumnInfo, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list columns")
	}
	defer rows.Close()

	columns := []models.ColumnInfo{}
	for rows.Next() {
		var (
			cid     int
			col     models.ColumnInfo
			notNull int
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &col.Default, &pk); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list columns")
		}
		col.IsNullable = notNull == 0
		col.IsPrimaryKey = pk > 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list columns")
	}
	return columns, nil
}

// ListIndexes combines PRAGMA index_list with index_info for the column
// names of each index. Indexes with origin "pk" are primary.
func (d *Driver) ListIndexes(ctx context.Context, database, schema, table string) ([]models.IndexInfo, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
	}

	type indexRow struct {
		name   string
		unique bool
		origin string
	}
	list := []indexRow{}
	for rows.Next() {
		var (
			seq     int
			ir      indexRow
			uniq    int
			partial int
		)
		if err := rows.Scan(&seq, &ir.name, &uniq, &ir.origin, &partial); err != nil {
			rows.Close()
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
		}
		ir.unique = uniq != 0
		list = append(list, ir)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
	}
	rows.Close()

	indexes := []models.IndexInfo{}
	for _, ir := range list {
		cols, err := d.indexColumns(ctx, ir.name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, models.IndexInfo{
			Name:      ir.name,
			Columns:   cols,
			IsUnique:  ir.unique,
			IsPrimary: ir.origin == "pk",
		})
	}
	return indexes, nil
}

func (d *Driver) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(index)))
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
	}
	defer rows.Close()

	cols := []string{}
	for rows.Next() {
		var (
			seqno int
			cid   int
			name  sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
	}
	return cols, nil
}

// ListConstraints synthesizes constraint descriptors from PRAGMA output: one
// PRIMARY KEY group from table_info and one FOREIGN KEY group per id from
// foreign_key_list.
func (d *Driver) ListConstraints(ctx context.Context, database, schema, table string) ([]models.ConstraintInfo, error) {
	constraints := []models.ConstraintInfo{}

	columns, err := d.ListColumns(ctx, database, schema, table)
	if err != nil {
		return nil, err
	}
	pkCols := []string{}
	for _, col := range columns {
		if col.IsPrimaryKey {
			pkCols = append(pkCols, col.Name)
		}
	}
	if len(pkCols) > 0 {
		constraints = append(constraints, models.ConstraintInfo{
			Name:    table + "_pkey",
			Type:    "PRIMARY KEY",
			Columns: pkCols,
		})
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list constraints")
	}
	defer rows.Close()

	type fkGroup struct {
		table      string
		columns    []string
		references []string
	}
	groups := map[int]*fkGroup{}
	order := []int{}
	for rows.Next() {
		var (
			id       int
			seq      int
			refTable string
			from     string
			to       sql.NullString
			onUpdate string
			onDelete string
			match    string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list constraints")
		}
		g, ok := groups[id]
		if !ok {
			g = &fkGroup{table: refTable}
			groups[id] = g
			order = append(order, id)
		}
		g.columns = append(g.columns, from)
		if to.Valid {
			g.references = append(g.references, to.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list constraints")
	}

	sort.Ints(order)
	for _, id := range order {
		g := groups[id]
		foreignTable := g.table
		constraints = append(constraints, models.ConstraintInfo{
			Name:           fmt.Sprintf("fk_%s_%d", table, id),
			Type:           "FOREIGN KEY",
			Columns:        g.columns,
			ForeignTable:   &foreignTable,
			ForeignColumns: g.references,
		})
	}
	return constraints, nil
}

// ExecuteQuery runs one statement against the file. The database argument is
// ignored: a SQLite connection is bound to its file.
func (d *Driver) ExecuteQuery(ctx context.Context, statement, database string) (*models.QueryResult, error) {
	return core.ExecuteSQL(ctx, d.db, statement)
}

// quoteIdent wraps an identifier in double quotes for PRAGMA arguments,
// which do not accept bind parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
