// Package core defines the driver contract every backend adapter implements,
// the write-statement classifier, and the native-to-portable value coercion
// engine shared by the relational adapters.
package core

import (
	"context"

	"github.com/serialexp/dbui/pkg/models"
)

// Driver is the uniform operation set every backend adapter implements.
// Backends without a concept for an operation return an empty listing, or an
// unsupported error when the operation is fundamentally inapplicable rather
// than merely empty.
type Driver interface {
	// ListDatabases returns the databases visible on the connection.
	ListDatabases(ctx context.Context) ([]string, error)
	// ListSchemas returns the schemas of a database.
	ListSchemas(ctx context.Context, database string) ([]string, error)
	// ListTables returns base table names, ordered by name.
	ListTables(ctx context.Context, database, schema string) ([]string, error)
	// ListViews returns view names, ordered by name.
	ListViews(ctx context.Context, database, schema string) ([]string, error)
	// ListFunctions returns stored function names, ordered by name.
	ListFunctions(ctx context.Context, database, schema string) ([]string, error)
	// GetFunctionDefinition returns one function with its source text.
	GetFunctionDefinition(ctx context.Context, database, schema, function string) (*models.FunctionInfo, error)
	// ListColumns returns column descriptors in ordinal position order.
	ListColumns(ctx context.Context, database, schema, table string) ([]models.ColumnInfo, error)
	// ListIndexes returns index descriptors with columns in index order.
	ListIndexes(ctx context.Context, database, schema, table string) ([]models.IndexInfo, error)
	// ListConstraints returns constraint descriptors grouped per constraint.
	ListConstraints(ctx context.Context, database, schema, table string) ([]models.ConstraintInfo, error)
	// ExecuteQuery runs one statement and normalizes the outcome. database is
	// advisory; only backends with cheap in-place selection honor it.
	ExecuteQuery(ctx context.Context, statement, database string) (*models.QueryResult, error)
	// Close releases the underlying pool or connection.
	Close(ctx context.Context) error
}

// DatabaseSwitcher is implemented by backends that can change the selected
// logical database on the live handle without reconnecting.
type DatabaseSwitcher interface {
	SwitchDatabase(ctx context.Context, database string) error
}
