// Package redisdb implements the driver contract for Redis on go-redis.
// Redis has no tables or schemas, so the structural listings return empty
// sets and the numbered databases 0 through 15 stand in for databases.
package redisdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/serialexp/dbui/pkg/config"
	"github.com/serialexp/dbui/pkg/dbuierrors"
	"github.com/serialexp/dbui/pkg/logger"
	"github.com/serialexp/dbui/pkg/models"
)

// databaseCount is the default number of numbered Redis databases.
const databaseCount = 16

// Driver wraps a go-redis client. A client is bound to one numbered
// database, so switching databases swaps the client behind the mutex while
// the Driver itself stays registered under its connection id.
type Driver struct {
	mu     sync.Mutex
	client *redis.Client
	opts   redis.Options
	logger *zap.Logger
}

// Open connects and authenticates against the server described by cfg.
func Open(ctx context.Context, cfg *config.ConnectionConfig) (*Driver, error) {
	opts := redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Username: cfg.Username,
		Password: cfg.Password,
	}
	client := redis.NewClient(&opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "failed to connect to Redis")
	}

	return &Driver{
		client: client,
		opts:   opts,
		logger: logger.With(zap.String("backend", "redis"), zap.String("addr", opts.Addr)),
	}, nil
}

// Close releases the current client.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client.Close()
}

func (d *Driver) currentClient() *redis.Client {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client
}

// SwitchDatabase reconnects to the numbered database named by the string
// index. The old client is closed only after the replacement is reachable.
func (d *Driver) SwitchDatabase(ctx context.Context, database string) error {
	index, err := strconv.Atoi(database)
	if err != nil {
		return dbuierrors.Newf(dbuierrors.ErrorTypeQuery, "invalid database index: %s", database)
	}
	return d.switchTo(ctx, index)
}

func (d *Driver) switchTo(ctx context.Context, index int) error {
	d.mu.Lock()
	opts := d.opts
	d.mu.Unlock()
	if opts.DB == index {
		return nil
	}
	opts.DB = index
	client := redis.NewClient(&opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return dbuierrors.Wrap(err, dbuierrors.ErrorTypeConnection, "failed to switch database")
	}

	d.mu.Lock()
	old := d.client
	d.client = client
	d.opts = opts
	d.mu.Unlock()

	old.Close()
	d.logger.Debug("switched redis database", zap.Int("db", index))
	return nil
}

// ListDatabases returns the numbered databases 0 through 15.
func (d *Driver) ListDatabases(ctx context.Context) ([]string, error) {
	databases := make([]string, 0, databaseCount)
	for i := 0; i < databaseCount; i++ {
		databases = append(databases, strconv.Itoa(i))
	}
	return databases, nil
}

// ListSchemas returns an empty list: Redis has no schemas.
func (d *Driver) ListSchemas(ctx context.Context, database string) ([]string, error) {
	return []string{}, nil
}

// ListTables returns an empty list: Redis has no tables.
func (d *Driver) ListTables(ctx context.Context, database, schema string) ([]string, error) {
	return []string{}, nil
}

// ListViews returns an empty list.
func (d *Driver) ListViews(ctx context.Context, database, schema string) ([]string, error) {
	return []string{}, nil
}

// ListFunctions returns an empty list.
func (d *Driver) ListFunctions(ctx context.Context, database, schema string) ([]string, error) {
	return []string{}, nil
}

// GetFunctionDefinition always fails.
func (d *Driver) GetFunctionDefinition(ctx context.Context, database, schema, function string) (*models.FunctionInfo, error) {
	return nil, dbuierrors.New(dbuierrors.ErrorTypeUnsupported, "Redis does not support functions in the traditional sense")
}

// ListColumns returns an empty list.
func (d *Driver) ListColumns(ctx context.Context, database, schema, table string) ([]models.ColumnInfo, error) {
	return []models.ColumnInfo{}, nil
}

// ListIndexes returns an empty list.
func (d *Driver) ListIndexes(ctx context.Context, database, schema, table string) ([]models.IndexInfo, error) {
	return []models.IndexInfo{}, nil
}

// ListConstraints returns an empty list.
func (d *Driver) ListConstraints(ctx context.Context, database, schema, table string) ([]models.ConstraintInfo, error) {
	return []models.ConstraintInfo{}, nil
}

// ExecuteQuery interprets one command line. A non-empty database selects that
// numbered database before the command runs. SELECT <n> switches the numbered
// database in place, BROWSE is the key explorer built on SCAN plus TYPE, and
// every other command is sent to the server verbatim and its reply shaped
// into a tabular result.
func (d *Driver) ExecuteQuery(ctx context.Context, statement, database string) (*models.QueryResult, error) {
	if database != "" {
		if err := d.SwitchDatabase(ctx, database); err != nil {
			return nil, err
		}
	}

	parts := Tokenize(statement)
	if len(parts) == 0 {
		return models.MessageResult("Empty command"), nil
	}

	name := strings.ToUpper(parts[0])
	args := parts[1:]

	if name == "SELECT" && len(args) == 1 {
		if index, err := strconv.Atoi(args[0]); err == nil {
			if err := d.switchTo(ctx, index); err != nil {
				return nil, err
			}
			return models.MessageResult("Switched to database %d", index), nil
		}
	}

	if name == "BROWSE" {
		return d.browseKeys(ctx, args)
	}

	doArgs := make([]interface{}, 0, len(parts))
	doArgs = append(doArgs, name)
	for _, arg := range args {
		doArgs = append(doArgs, arg)
	}

	reply, err := d.currentClient().Do(ctx, doArgs...).Result()
	if err != nil {
		return serverErrorResult(err)
	}
	return shapeReply(name, reply), nil
}

// browseKeys implements BROWSE [cursor] [COUNT n] [MATCH pattern] [TYPE t]:
// one SCAN page with the type of every returned key.
func (d *Driver) browseKeys(ctx context.Context, args []string) (*models.QueryResult, error) {
	var (
		cursor     int64
		count      int64 = 100
		pattern    string
		typeFilter string
	)
	for i := 0; i < len(args); {
		switch strings.ToUpper(args[i]) {
		case "COUNT":
			if i+1 < len(args) {
				if n, err := strconv.ParseInt(args[i+1], 10, 64); err == nil {
					count = n
				}
				i += 2
				continue
			}
		case "MATCH":
			if i+1 < len(args) {
				pattern = args[i+1]
				i += 2
				continue
			}
		case "TYPE":
			if i+1 < len(args) {
				typeFilter = args[i+1]
				i += 2
				continue
			}
		}
		// First bare argument is the cursor.
		if i == 0 {
			if n, err := strconv.ParseInt(args[0], 10, 64); err == nil {
				cursor = n
			}
		}
		i++
	}

	scanArgs := []interface{}{"SCAN", cursor, "COUNT", count}
	if pattern != "" {
		scanArgs = append(scanArgs, "MATCH", pattern)
	}
	if typeFilter != "" {
		scanArgs = append(scanArgs, "TYPE", typeFilter)
	}

	client := d.currentClient()
	reply, err := client.Do(ctx, scanArgs...).Result()
	if err != nil {
		return serverErrorResult(err)
	}

	page, ok := reply.([]interface{})
	if !ok || len(page) != 2 {
		return nil, dbuierrors.New(dbuierrors.ErrorTypeQuery, "invalid SCAN response")
	}
	nextCursor := replyString(page[0])
	keys, ok := page[1].([]interface{})
	if !ok {
		return nil, dbuierrors.New(dbuierrors.ErrorTypeQuery, "invalid SCAN response")
	}

	rows := [][]models.Value{}
	for _, key := range keys {
		keyStr, ok := key.(string)
		if !ok {
			continue
		}
		keyType, err := client.Type(ctx, keyStr).Result()
		if err != nil {
			keyType = "unknown"
		}
		rows = append(rows, []models.Value{keyStr, keyType})
	}

	message := "Scan complete"
	if nextCursor != "0" {
		message = fmt.Sprintf("Next cursor: %s (run BROWSE %s to continue)", nextCursor, nextCursor)
	}
	return &models.QueryResult{
		Columns:  []string{"key", "type"},
		Rows:     rows,
		RowCount: len(rows),
		Message:  message,
	}, nil
}

// serverErrorResult turns a Redis server reply error into a result message.
// Transport failures still surface as errors.
func serverErrorResult(err error) (*models.QueryResult, error) {
	if errors.Is(err, redis.Nil) {
		return shapeReply("", nil), nil
	}
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return models.MessageResult("Server error: %s", replyErr.Error()), nil
	}
	return nil, dbuierrors.Wrap(err, dbuierrors.ErrorTypeQuery, "Redis error")
}
