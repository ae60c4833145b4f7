package core

import (
	"context"
	"database/sql"

	"github.com/serialexp/dbui/pkg/dbuierrors"
	"github.com/serialexp/dbui/pkg/models"
)

// ExecuteSQL runs one statement against a database/sql pool and normalizes
// the outcome into the portable result shape. Write-only statements report
// the affected-row count as a message; an empty result set reports a
// "0 row(s) affected." message instead of failing.
func ExecuteSQL(ctx context.Context, db *sql.DB, statement string) (*models.QueryResult, error) {
	if IsWriteOnly(statement) {
		res, err := db.ExecContext(ctx, statement)
		if err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "query failed")
		}
		affected, err := res.RowsAffected()
		if err != nil {
			affected = 0
		}
		return models.MessageResult("%d row(s) affected.", affected), nil
	}

	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "query failed")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to read result columns")
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to read column types")
	}
	tags := make([]string, len(types))
	for i, t := range types {
		tags[i] = t.DatabaseTypeName()
	}

	var resultRows [][]models.Value
	raw := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to scan row")
		}
		row := make([]models.Value, len(columns))
		for i, v := range raw {
			row[i] = CoerceSQL(tags[i], v)
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "query failed")
	}

	if len(resultRows) == 0 {
		return models.MessageResult("0 row(s) affected."), nil
	}

	return &models.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}
