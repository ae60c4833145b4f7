// Package history persists executed queries to a local SQLite database and
// serves filtered and full-text lookups over them.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/serialexp/dbui/pkg/dbuierrors"
	"github.com/serialexp/dbui/pkg/logger"
)

// Entry is one executed query with its outcome.
type Entry struct {
	ID              string    `json:"id"`
	ConnectionID    string    `json:"connection_id"`
	Database        string    `json:"database"`
	Schema          string    `json:"schema"`
	Query           string    `json:"query"`
	Timestamp       time.Time `json:"timestamp"`
	ExecutionTimeMS uint64    `json:"execution_time_ms"`
	RowCount        int       `json:"row_count"`
	Success         bool      `json:"success"`
	ErrorMessage    *string   `json:"error_message"`
}

// Filter narrows history lookups. Nil fields are ignored.
type Filter struct {
	ConnectionID *string    `json:"connection_id"`
	Database     *string    `json:"database"`
	Schema       *string    `json:"schema"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	SuccessOnly  *bool      `json:"success_only"`
	SearchQuery  *string    `json:"search_query"`
	Limit        *int       `json:"limit"`
	Offset       *int       `json:"offset"`
}

// Manager owns the history database.
type Manager struct {
	db     *sql.DB
	fts    bool
	logger *zap.Logger
}

const createTable = `
CREATE TABLE IF NOT EXISTS query_history (
	id TEXT PRIMARY KEY,
	connection_id TEXT NOT NULL,
	database TEXT NOT NULL,
	schema TEXT NOT NULL,
	query TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	execution_time_ms INTEGER NOT NULL,
	row_count INTEGER NOT NULL,
	success INTEGER NOT NULL,
	error_message TEXT
)`

var createIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_connection_db ON query_history(connection_id, database, schema)",
	"CREATE INDEX IF NOT EXISTS idx_timestamp ON query_history(timestamp DESC)",
	"CREATE INDEX IF NOT EXISTS idx_success ON query_history(success)",
}

var createFTS = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS query_history_fts USING fts5(
		query,
		content='query_history',
		content_rowid='rowid'
	)`,
	`CREATE TRIGGER IF NOT EXISTS query_history_ai AFTER INSERT ON query_history BEGIN
		INSERT INTO query_history_fts(rowid, query) VALUES (new.rowid, new.query);
	END`,
	`CREATE TRIGGER IF NOT EXISTS query_history_ad AFTER DELETE ON query_history BEGIN
		DELETE FROM query_history_fts WHERE rowid = old.rowid;
	END`,
}

// NewManager opens or creates the history database at path. Full-text
// search needs an FTS5 enabled SQLite build; without one the manager falls
// back to substring search.
func NewManager(ctx context.Context, path string) (*Manager, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "failed to open history database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "failed to open history database")
	}

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeInternal, "failed to create query_history table")
	}
	for _, stmt := range createIndexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeInternal, "failed to create history index")
		}
	}

	m := &Manager{db: db, fts: true, logger: logger.Get().Named("history")}
	for _, stmt := range createFTS {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			m.fts = false
			m.logger.Warn("full-text search unavailable, falling back to substring search", zap.Error(err))
			break
		}
	}
	return m, nil
}

// Close releases the database.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Save records one executed query.
func (m *Manager) Save(ctx context.Context, entry Entry) error {
	success := 0
	if entry.Success {
		success = 1
	}
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO query_history
		 (id, connection_id, database, schema, query, timestamp, execution_time_ms, row_count, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ConnectionID, entry.Database, entry.Schema, entry.Query,
		entry.Timestamp.UTC().Format(time.RFC3339), int64(entry.ExecutionTimeMS),
		int64(entry.RowCount), success, entry.ErrorMessage)
	if err != nil {
		return dbuierrors.Wrap(err, dbuierrors.ErrorTypeInternal, "failed to save query history")
	}
	return nil
}

// filterClauses renders filter fields into WHERE fragments and bind args.
// The prefix qualifies column names when the query joins the FTS table.
func filterClauses(filter Filter, prefix string) ([]string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	add := func(clause string, arg interface{}) {
		clauses = append(clauses, prefix+clause)
		args = append(args, arg)
	}

	if filter.ConnectionID != nil {
		add("connection_id = ?", *filter.ConnectionID)
	}
	if filter.Database != nil {
		add("database = ?", *filter.Database)
	}
	if filter.Schema != nil {
		add("schema = ?", *filter.Schema)
	}
	if filter.StartDate != nil {
		add("timestamp >= ?", filter.StartDate.UTC().Format(time.RFC3339))
	}
	if filter.EndDate != nil {
		add("timestamp <= ?", filter.EndDate.UTC().Format(time.RFC3339))
	}
	if filter.SuccessOnly != nil {
		if *filter.SuccessOnly {
			add("success = ?", 1)
		} else {
			add("success = ?", 0)
		}
	}
	return clauses, args
}

func paging(filter Filter) (string, []interface{}) {
	clause := ""
	args := []interface{}{}
	if filter.Limit != nil {
		clause += " LIMIT ?"
		args = append(args, *filter.Limit)
	}
	if filter.Offset != nil {
		if clause == "" {
			clause = " LIMIT -1"
		}
		clause += " OFFSET ?"
		args = append(args, *filter.Offset)
	}
	return clause, args
}

// Entries returns entries matching the filter, newest first.
func (m *Manager) Entries(ctx context.Context, filter Filter) ([]Entry, error) {
	query := "SELECT id, connection_id, database, schema, query, timestamp, execution_time_ms, row_count, success, error_message FROM query_history"
	clauses, args := filterClauses(filter, "")
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	page, pageArgs := paging(filter)
	query += page
	args = append(args, pageArgs...)

	return m.fetch(ctx, query, args, "failed to fetch query history")
}

// Search returns entries whose query text matches the filter's search term,
// combined with the structured filters. With FTS5 available the term is an
// FTS MATCH expression, otherwise a case-insensitive substring.
func (m *Manager) Search(ctx context.Context, filter Filter) ([]Entry, error) {
	term := "*"
	if filter.SearchQuery != nil {
		term = *filter.SearchQuery
	}

	var (
		query string
		args  []interface{}
	)
	if m.fts {
		query = `SELECT qh.id, qh.connection_id, qh.database, qh.schema, qh.query, qh.timestamp,
			qh.execution_time_ms, qh.row_count, qh.success, qh.error_message
			FROM query_history qh
			JOIN query_history_fts fts ON qh.rowid = fts.rowid
			WHERE query_history_fts MATCH ?`
		args = append(args, term)
	} else {
		query = `SELECT id, connection_id, database, schema, query, timestamp,
			execution_time_ms, row_count, success, error_message
			FROM query_history qh
			WHERE query LIKE ?`
		args = append(args, "%"+strings.Trim(term, "*")+"%")
	}

	clauses, filterArgs := filterClauses(filter, "qh.")
	for _, clause := range clauses {
		query += " AND " + clause
	}
	args = append(args, filterArgs...)

	query += " ORDER BY qh.timestamp DESC"
	page, pageArgs := paging(filter)
	query += page
	args = append(args, pageArgs...)

	return m.fetch(ctx, query, args, "failed to search query history")
}

func (m *Manager) fetch(ctx context.Context, query string, args []interface{}, failure string) ([]Entry, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeInternal, failure)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			entry     Entry
			timestamp string
			success   int64
		)
		if err := rows.Scan(&entry.ID, &entry.ConnectionID, &entry.Database, &entry.Schema,
			&entry.Query, &timestamp, &entry.ExecutionTimeMS, &entry.RowCount,
			&success, &entry.ErrorMessage); err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeInternal, failure)
		}
		ts, err := time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeInternal,
				fmt.Sprintf("malformed timestamp in history row %s", entry.ID))
		}
		entry.Timestamp = ts
		entry.Success = success == 1
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeInternal, failure)
	}
	return entries, nil
}

// Delete removes one entry by id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, "DELETE FROM query_history WHERE id = ?", id); err != nil {
		return dbuierrors.Wrap(err, dbuierrors.ErrorTypeInternal, "failed to delete query history entry")
	}
	return nil
}

// Clear removes a connection's entries, or every entry when connectionID is
// nil.
func (m *Manager) Clear(ctx context.Context, connectionID *string) error {
	var err error
	if connectionID != nil {
		_, err = m.db.ExecContext(ctx, "DELETE FROM query_history WHERE connection_id = ?", *connectionID)
	} else {
		_, err = m.db.ExecContext(ctx, "DELETE FROM query_history")
	}
	if err != nil {
		return dbuierrors.Wrap(err, dbuierrors.ErrorTypeInternal, "failed to clear query history")
	}
	return nil
}
