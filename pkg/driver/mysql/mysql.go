// Package mysql implements the driver contract for MySQL and MariaDB on
// database/sql with the go-sql-driver. In MySQL schemas and databases are
// synonymous, so schema listings return the database name itself.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	driver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/serialexp/dbui/pkg/config"
	"github.com/serialexp/dbui/pkg/dbuierrors"
	"github.com/serialexp/dbui/pkg/driver/core"
	"github.com/serialexp/dbui/pkg/logger"
	"github.com/serialexp/dbui/pkg/models"
)

// systemSchemas are excluded from database listings.
var systemSchemas = map[string]bool{
	"information_schema": true,
	"mysql":              true,
	"performance_schema": true,
	"sys":                true,
}

// Driver wraps a database/sql pool for one MySQL server.
type Driver struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open establishes a pooled connection described by cfg. The database
// defaults to "mysql" when the descriptor leaves it empty.
func Open(ctx context.Context, cfg *config.ConnectionConfig) (*Driver, error) {
	mysqlCfg := driver.NewConfig()
	mysqlCfg.User = cfg.Username
	mysqlCfg.Passwd = cfg.Password
	mysqlCfg.Net = "tcp"
	mysqlCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mysqlCfg.DBName = cfg.DatabaseName("mysql")
	mysqlCfg.ParseTime = true

	db, err := sql.Open("mysql", mysqlCfg.FormatDSN())
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "failed to connect to MySQL")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "failed to connect to MySQL")
	}

	return &Driver{
		db:     db,
		logger: logger.With(zap.String("backend", "mysql"), zap.String("host", cfg.Host)),
	}, nil
}

// Close releases the pool.
func (d *Driver) Close(ctx context.Context) error {
	return d.db.Close()
}

func (d *Driver) listStrings(ctx context.Context, failure, query string, args ...interface{}) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
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

// ListDatabases runs SHOW DATABASES and filters out system schemas.
func (d *Driver) ListDatabases(ctx context.Context) ([]string, error) {
	all, err := d.listStrings(ctx, "failed to list databases", "SHOW DATABASES")
	if err != nil {
		return nil, err
	}
	databases := []string{}
	for _, name := range all {
		if !systemSchemas[name] {
			databases = append(databases, name)
		}
	}
	return databases, nil
}

// ListSchemas returns the database itself: MySQL has no separate schema level.
func (d *Driver) ListSchemas(ctx context.Context, database string) ([]string, error) {
	return []string{database}, nil
}

// ListTables returns base tables of a database.
func (d *Driver) ListTables(ctx context.Context, database, schema string) ([]string, error) {
	return d.listStrings(ctx, "failed to list tables",
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = ? AND table_type = 'BASE TABLE'
		 ORDER BY table_name`, database)
}

// ListViews returns views of a database.
func (d *Driver) ListViews(ctx context.Context, database, schema string) ([]string, error) {
	return d.listStrings(ctx, "failed to list views",
		`SELECT table_name FROM information_schema.views
		 WHERE table_schema = ?
		 ORDER BY table_name`, database)
}

// ListFunctions returns stored functions of a database.
func (d *Driver) ListFunctions(ctx context.Context, database, schema string) ([]string, error) {
	return d.listStrings(ctx, "failed to list functions",
		`SELECT routine_name FROM information_schema.routines
		 WHERE routine_schema = ? AND routine_type = 'FUNCTION'
		 ORDER BY routine_name`, database)
}

// GetFunctionDefinition combines information_schema metadata with the SHOW
// CREATE FUNCTION statement text.
func (d *Driver) GetFunctionDefinition(ctx context.Context, database, schema, function string) (*models.FunctionInfo, error) {
	var info models.FunctionInfo
	err := d.db.QueryRowContext(ctx,
		`SELECT routine_name, data_type, external_language
		 FROM information_schema.routines
		 WHERE routine_schema = ? AND routine_name = ? AND routine_type = 'FUNCTION'
		 LIMIT 1`, database, function).
		Scan(&info.Name, &info.ReturnType, &info.Language)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to get function info")
	}

	// SHOW CREATE FUNCTION does not take bind parameters.
	showQuery := fmt.Sprintf("SHOW CREATE FUNCTION `%s`.`%s`",
		strings.ReplaceAll(database, "`", "``"), strings.ReplaceAll(function, "`", "``"))
	rows, err := d.db.QueryContext(ctx, showQuery)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to get function definition")
	}
	defer rows.Close()

	if rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to get function definition")
		}
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to get function definition")
		}
		// Column 2 of SHOW CREATE FUNCTION is the CREATE statement.
		if len(raw) > 2 {
			if b, ok := raw[2].([]byte); ok {
				info.Definition = string(b)
			} else if s, ok := raw[2].(string); ok {
				info.Definition = s
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to get function definition")
	}
	return &info, nil
}

// ListColumns returns column descriptors in ordinal position order. The
// column_key flag marks primary key membership.
func (d *Driver) ListColumns(ctx context.Context, database, schema, table string) ([]models.ColumnInfo, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT column_name, data_type, is_nullable, column_default, column_key
		 FROM information_schema.columns
		 WHERE table_schema = ? AND table_name = ?
		 ORDER BY ordinal_position`, database, table)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list columns")
	}
	defer rows.Close()

	columns := []models.ColumnInfo{}
	for rows.Next() {
		var (
			col       models.ColumnInfo
			nullable  string
			columnKey string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default, &columnKey); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list columns")
		}
		col.IsNullable = nullable == "YES"
		col.IsPrimaryKey = columnKey == "PRI"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list columns")
	}
	return columns, nil
}

// ListIndexes groups information_schema.statistics by index with columns
// joined in index order.
func (d *Driver) ListIndexes(ctx context.Context, database, schema, table string) ([]models.IndexInfo, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT
			index_name,
			GROUP_CONCAT(column_name ORDER BY seq_in_index) AS columns,
			NOT non_unique AS is_unique,
			index_name = 'PRIMARY' AS is_primary
		FROM information_schema.statistics
		WHERE table_schema = ? AND table_name = ?
		GROUP BY index_name, non_unique
		ORDER BY index_name`, database, table)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
	}
	defer rows.Close()

	indexes := []models.IndexInfo{}
	for rows.Next() {
		var (
			idx     models.IndexInfo
			columns string
		)
		if err := rows.Scan(&idx.Name, &columns, &idx.IsUnique, &idx.IsPrimary); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
		}
		idx.Columns = strings.Split(columns, ",")
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
	}
	return indexes, nil
}

// ListConstraints returns primary and foreign key groups for a table.
func (d *Driver) ListConstraints(ctx context.Context, database, schema, table string) ([]models.ConstraintInfo, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT
			tc.constraint_name,
			tc.constraint_type,
			GROUP_CONCAT(DISTINCT kcu.column_name) AS columns,
			kcu.referenced_table_name AS foreign_table,
			GROUP_CONCAT(DISTINCT kcu.referenced_column_name) AS foreign_columns
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = ? AND tc.table_name = ?
		GROUP BY tc.constraint_name, tc.constraint_type, kcu.referenced_table_name
		ORDER BY tc.constraint_name`, database, table)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list constraints")
	}
	defer rows.Close()

	constraints := []models.ConstraintInfo{}
	for rows.Next() {
		var (
			c           models.ConstraintInfo
			columns     string
			foreignCols sql.NullString
		)
		if err := rows.Scan(&c.Name, &c.Type, &columns, &c.ForeignTable, &foreignCols); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list constraints")
		}
		c.Columns = strings.Split(columns, ",")
		if foreignCols.Valid {
			c.ForeignColumns = strings.Split(foreignCols.String, ",")
		}
		constraints = append(constraints, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list constraints")
	}
	return constraints, nil
}

// ExecuteQuery runs one statement through the pool. The database argument is
// ignored: MySQL selects its database at connect time.
func (d *Driver) ExecuteQuery(ctx context.Context, statement, database string) (*models.QueryResult, error) {
	return core.ExecuteSQL(ctx, d.db, statement)
}
