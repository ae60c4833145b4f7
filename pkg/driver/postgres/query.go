package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/serialexp/dbui/pkg/dbuierrors"
	"github.com/serialexp/dbui/pkg/driver/core"
	"github.com/serialexp/dbui/pkg/models"
)

// ExecuteQuery runs one statement through the pool. The database argument is
// ignored: PostgreSQL selects its database at connect time.
func (d *Driver) ExecuteQuery(ctx context.Context, statement, database string) (*models.QueryResult, error) {
	if core.IsWriteOnly(statement) {
		tag, err := d.pool.Exec(ctx, statement)
		if err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "query failed")
		}
		return models.MessageResult("%d row(s) affected.", tag.RowsAffected()), nil
	}

	rows, err := d.pool.Query(ctx, statement)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "query failed")
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	tags := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
		tags[i] = typeTagForOID(fd.DataTypeOID)
	}

	var resultRows [][]models.Value
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "failed to read row values")
		}
		row := make([]models.Value, len(values))
		for i, v := range values {
			row[i] = coerceValue(tags[i], v)
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "query failed")
	}

	if len(resultRows) == 0 {
		return models.MessageResult("0 row(s) affected."), nil
	}

	d.logger.Debug("query executed", zap.Int("rows", len(resultRows)))

	return &models.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// typeTagForOID names the wire type for the common PostgreSQL OIDs. Unknown
// OIDs get an empty tag, which sends coercion down the plain-string path.
func typeTagForOID(oid uint32) string {
	switch oid {
	case pgtype.BoolOID:
		return "BOOL"
	case pgtype.Int2OID:
		return "INT2"
	case pgtype.Int4OID:
		return "INT4"
	case pgtype.Int8OID:
		return "INT8"
	case pgtype.Float4OID:
		return "FLOAT4"
	case pgtype.Float8OID:
		return "FLOAT8"
	case pgtype.NumericOID:
		return "NUMERIC"
	case pgtype.TimestampOID:
		return "TIMESTAMP"
	case pgtype.TimestamptzOID:
		return "TIMESTAMPTZ"
	case pgtype.DateOID:
		return "DATE"
	case pgtype.TimeOID:
		return "TIME"
	case pgtype.UUIDOID:
		return "UUID"
	}
	return ""
}

// coerceValue lowers one pgx-decoded value into a portable value. pgx hands
// back pgtype wrappers for numerics, which the shared engine does not know.
func coerceValue(tag string, v interface{}) models.Value {
	switch n := v.(type) {
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	}
	return core.CoerceSQL(tag, v)
}
