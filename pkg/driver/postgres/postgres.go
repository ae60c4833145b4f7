// Package postgres implements the driver contract for PostgreSQL using a
// pgx connection pool. Introspection reads pg_catalog and
// information_schema; results are ordered by name except columns, which keep
// ordinal position order.
package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/serialexp/dbui/pkg/config"
	"github.com/serialexp/dbui/pkg/dbuierrors"
	"github.com/serialexp/dbui/pkg/logger"
	"github.com/serialexp/dbui/pkg/models"
)

// Driver wraps a pgx pool. Concurrent calls acquire independent pooled
// connections and never serialize on one session.
type Driver struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open establishes a pooled connection described by cfg. The database
// defaults to "postgres" when the descriptor leaves it empty.
func Open(ctx context.Context, cfg *config.ConnectionConfig) (*Driver, error) {
	connString := fmt.Sprintf("postgres://%s@%s:%d/%s",
		url.UserPassword(cfg.Username, cfg.Password),
		cfg.Host, cfg.Port, url.PathEscape(cfg.DatabaseName("postgres")))

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "failed to connect to PostgreSQL")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "failed to connect to PostgreSQL")
	}

	return &Driver{
		pool:   pool,
		logger: logger.With(zap.String("backend", "postgres"), zap.String("host", cfg.Host)),
	}, nil
}

// Close releases the pool.
func (d *Driver) Close(ctx context.Context) error {
	d.pool.Close()
	return nil
}

func (d *Driver) listStrings(ctx context.Context, failure, query string, args ...interface{}) ([]string, error) {
	rows, err := d.pool.Query(ctx, query, args...)
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

// ListDatabases returns non-template databases the current role may connect to.
func (d *Driver) ListDatabases(ctx context.Context) ([]string, error) {
	return d.listStrings(ctx, "failed to list databases",
		`SELECT datname FROM pg_database
		 WHERE datistemplate = false
		 AND has_database_privilege(datname, 'CONNECT')
		 ORDER BY datname`)
}

// ListSchemas returns user schemas of the connected database.
func (d *Driver) ListSchemas(ctx context.Context, database string) ([]string, error) {
	return d.listStrings(ctx, "failed to list schemas",
		`SELECT schema_name FROM information_schema.schemata
		 WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		 ORDER BY schema_name`)
}

// ListTables returns base tables of a schema.
func (d *Driver) ListTables(ctx context.Context, database, schema string) ([]string, error) {
	return d.listStrings(ctx, "failed to list tables",
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		 ORDER BY table_name`, schema)
}

// ListViews returns views of a schema.
func (d *Driver) ListViews(ctx context.Context, database, schema string) ([]string, error) {
	return d.listStrings(ctx, "failed to list views",
		`SELECT table_name FROM information_schema.views
		 WHERE table_schema = $1
		 ORDER BY table_name`, schema)
}

// ListFunctions returns stored functions of a schema.
func (d *Driver) ListFunctions(ctx context.Context, database, schema string) ([]string, error) {
	return d.listStrings(ctx, "failed to list functions",
		`SELECT routine_name FROM information_schema.routines
		 WHERE routine_schema = $1 AND routine_type = 'FUNCTION'
		 ORDER BY routine_name`, schema)
}

// GetFunctionDefinition returns one function with its full source text via
// pg_get_functiondef.
func (d *Driver) GetFunctionDefinition(ctx context.Context, database, schema, function string) (*models.FunctionInfo, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT
			p.proname AS name,
			pg_get_functiondef(p.oid) AS definition,
			pg_catalog.format_type(p.prorettype, NULL) AS return_type,
			l.lanname AS language
		FROM pg_proc p
		JOIN pg_namespace n ON p.pronamespace = n.oid
		JOIN pg_language l ON p.prolang = l.oid
		WHERE n.nspname = $1 AND p.proname = $2
		LIMIT 1`, schema, function)

	var info models.FunctionInfo
	if err := row.Scan(&info.Name, &info.Definition, &info.ReturnType, &info.Language); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to get function definition")
	}
	return &info, nil
}

// ListColumns returns column descriptors joined against the primary-key
// constraint, in ordinal position order.
func (d *Driver) ListColumns(ctx context.Context, database, schema, table string) ([]models.ColumnInfo, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			CASE WHEN pk.column_name IS NOT NULL THEN true ELSE false END AS is_primary_key
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = $1
				AND tc.table_name = $2
		) pk ON c.column_name = pk.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`, schema, table)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list columns")
	}
	defer rows.Close()

	columns := []models.ColumnInfo{}
	for rows.Next() {
		var (
			col      models.ColumnInfo
			nullable string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default, &col.IsPrimaryKey); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list columns")
		}
		col.IsNullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list columns")
	}
	return columns, nil
}

// ListIndexes returns index descriptors with column arrays in index order.
func (d *Driver) ListIndexes(ctx context.Context, database, schema, table string) ([]models.IndexInfo, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT
			i.relname AS index_name,
			array_agg(a.attname::TEXT ORDER BY array_position(ix.indkey, a.attnum))::TEXT[] AS columns,
			ix.indisunique AS is_unique,
			ix.indisprimary AS is_primary
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1 AND t.relname = $2
		GROUP BY i.relname, ix.indisunique, ix.indisprimary
		ORDER BY i.relname`, schema, table)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
	}
	defer rows.Close()

	indexes := []models.IndexInfo{}
	for rows.Next() {
		var idx models.IndexInfo
		if err := rows.Scan(&idx.Name, &idx.Columns, &idx.IsUnique, &idx.IsPrimary); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
		}
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list indexes")
	}
	return indexes, nil
}

// ListConstraints returns primary and foreign key groups for a table.
func (d *Driver) ListConstraints(ctx context.Context, database, schema, table string) ([]models.ConstraintInfo, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT
			tc.constraint_name,
			tc.constraint_type,
			array_agg(DISTINCT kcu.column_name::TEXT)::TEXT[] AS columns,
			ccu.table_name AS foreign_table,
			array_agg(DISTINCT ccu.column_name::TEXT) FILTER (WHERE ccu.column_name IS NOT NULL AND tc.constraint_type = 'FOREIGN KEY')::TEXT[] AS foreign_columns
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		LEFT JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
			AND tc.constraint_type = 'FOREIGN KEY'
		WHERE tc.table_schema = $1 AND tc.table_name = $2
		GROUP BY tc.constraint_name, tc.constraint_type, ccu.table_name
		ORDER BY tc.constraint_name`, schema, table)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list constraints")
	}
	defer rows.Close()

	constraints := []models.ConstraintInfo{}
	for rows.Next() {
		var c models.ConstraintInfo
		if err := rows.Scan(&c.Name, &c.Type, &c.Columns, &c.ForeignTable, &c.ForeignColumns); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list constraints")
		}
		constraints = append(constraints, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to list constraints")
	}
	return constraints, nil
}
