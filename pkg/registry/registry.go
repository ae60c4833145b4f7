// Package registry tracks live database connections by id and dispatches
// operations to the backend drivers behind them.
package registry

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/serialexp/dbui/pkg/config"
	"github.com/serialexp/dbui/pkg/dbuierrors"
	"github.com/serialexp/dbui/pkg/driver/core"
	"github.com/serialexp/dbui/pkg/driver/mysql"
	"github.com/serialexp/dbui/pkg/driver/postgres"
	"github.com/serialexp/dbui/pkg/driver/redisdb"
	"github.com/serialexp/dbui/pkg/driver/sqlite"
	"github.com/serialexp/dbui/pkg/logger"
	"github.com/serialexp/dbui/pkg/models"
)

// OpenFunc opens a backend driver for a connection descriptor. The manager
// uses openByType unless a test injects its own factory.
type OpenFunc func(ctx context.Context, cfg *config.ConnectionConfig) (core.Driver, error)

// openByType dispatches on the descriptor's database type.
func openByType(ctx context.Context, cfg *config.ConnectionConfig) (core.Driver, error) {
	switch cfg.Type {
	case config.Postgres:
		return postgres.Open(ctx, cfg)
	case config.MySQL:
		return mysql.Open(ctx, cfg)
	case config.SQLite:
		return sqlite.Open(ctx, cfg)
	case config.Redis:
		return redisdb.Open(ctx, cfg)
	default:
		return nil, dbuierrors.Newf(dbuierrors.ErrorTypeUnsupported, "unsupported database type: %s", cfg.Type)
	}
}

// Manager holds the open drivers keyed by connection id.
type Manager struct {
	mu      sync.RWMutex
	drivers map[string]core.Driver
	open    OpenFunc
	logger  *zap.Logger
}

// NewManager returns an empty manager using the standard driver factory.
func NewManager() *Manager {
	return NewManagerWithOpener(openByType)
}

// NewManagerWithOpener returns an empty manager with a custom driver
// factory. Tests use this to register stub drivers.
func NewManagerWithOpener(open OpenFunc) *Manager {
	return &Manager{
		drivers: make(map[string]core.Driver),
		open:    open,
		logger:  logger.Get().Named("registry"),
	}
}

// Connect opens a driver for cfg and registers it under cfg.ID. A driver
// already registered under that id is closed and replaced; when the open
// fails the previous registration is left untouched.
func (m *Manager) Connect(ctx context.Context, cfg *config.ConnectionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	drv, err := m.open(ctx, cfg)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.drivers[cfg.ID]
	m.drivers[cfg.ID] = drv
	m.mu.Unlock()

	if old != nil {
		if cerr := old.Close(ctx); cerr != nil {
			m.logger.Warn("failed to close replaced connection",
				zap.String("connection_id", cfg.ID), zap.Error(cerr))
		}
	}
	m.logger.Info("connection established",
		zap.String("connection_id", cfg.ID), zap.String("db_type", string(cfg.Type)))
	return nil
}

// Disconnect removes the driver registered under id and closes it.
func (m *Manager) Disconnect(ctx context.Context, id string) error {
	m.mu.Lock()
	drv, ok := m.drivers[id]
	if ok {
		delete(m.drivers, id)
	}
	m.mu.Unlock()

	if !ok {
		return dbuierrors.Newf(dbuierrors.ErrorTypeNotFound, "connection not found: %s", id)
	}
	if err := drv.Close(ctx); err != nil {
		m.logger.Warn("failed to close connection", zap.String("connection_id", id), zap.Error(err))
	}
	m.logger.Info("connection closed", zap.String("connection_id", id))
	return nil
}

// Lookup returns the driver registered under id.
func (m *Manager) Lookup(id string) (core.Driver, error) {
	m.mu.RLock()
	drv, ok := m.drivers[id]
	m.mu.RUnlock()
	if !ok {
		return nil, dbuierrors.Newf(dbuierrors.ErrorTypeNotFound, "connection not found: %s", id)
	}
	return drv, nil
}

// IsConnected reports whether a driver is registered under id.
func (m *Manager) IsConnected(id string) bool {
	m.mu.RLock()
	_, ok := m.drivers[id]
	m.mu.RUnlock()
	return ok
}

// ConnectionIDs returns the ids of every registered connection.
func (m *Manager) ConnectionIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.drivers))
	for id := range m.drivers {
		ids = append(ids, id)
	}
	return ids
}

// SwitchDatabase points the connection registered under cfg.ID at another
// database. Drivers that can switch in place keep their registration alive
// throughout. For the others the connection is torn down and reopened
// against the new database, so a concurrently scheduled operation can
// observe a missing connection between the two steps.
func (m *Manager) SwitchDatabase(ctx context.Context, cfg *config.ConnectionConfig, database string) error {
	drv, err := m.Lookup(cfg.ID)
	if err != nil {
		return err
	}

	if switcher, ok := drv.(core.DatabaseSwitcher); ok {
		return switcher.SwitchDatabase(ctx, database)
	}

	if err := m.Disconnect(ctx, cfg.ID); err != nil {
		return err
	}
	next := *cfg
	next.Database = &database
	return m.Connect(ctx, &next)
}

// ListDatabases lists databases visible on the connection.
func (m *Manager) ListDatabases(ctx context.Context, id string) ([]string, error) {
	drv, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return drv.ListDatabases(ctx)
}

// ListSchemas lists schemas of a database.
func (m *Manager) ListSchemas(ctx context.Context, id, database string) ([]string, error) {
	drv, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return drv.ListSchemas(ctx, database)
}

// ListTables lists tables of a schema.
func (m *Manager) ListTables(ctx context.Context, id, database, schema string) ([]string, error) {
	drv, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return drv.ListTables(ctx, database, schema)
}

// ListViews lists views of a schema.
func (m *Manager) ListViews(ctx context.Context, id, database, schema string) ([]string, error) {
	drv, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return drv.ListViews(ctx, database, schema)
}

// ListFunctions lists stored functions of a schema.
func (m *Manager) ListFunctions(ctx context.Context, id, database, schema string) ([]string, error) {
	drv, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return drv.ListFunctions(ctx, database, schema)
}

// GetFunctionDefinition fetches metadata and source of a stored function.
func (m *Manager) GetFunctionDefinition(ctx context.Context, id, database, schema, function string) (*models.FunctionInfo, error) {
	drv, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return drv.GetFunctionDefinition(ctx, database, schema, function)
}

// ListColumns lists column descriptors of a table.
func (m *Manager) ListColumns(ctx context.Context, id, database, schema, table string) ([]models.ColumnInfo, error) {
	drv, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return drv.ListColumns(ctx, database, schema, table)
}

// ListIndexes lists index descriptors of a table.
func (m *Manager) ListIndexes(ctx context.Context, id, database, schema, table string) ([]models.IndexInfo, error) {
	drv, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return drv.ListIndexes(ctx, database, schema, table)
}

// ListConstraints lists constraint descriptors of a table.
func (m *Manager) ListConstraints(ctx context.Context, id, database, schema, table string) ([]models.ConstraintInfo, error) {
	drv, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return drv.ListConstraints(ctx, database, schema, table)
}

// ExecuteQuery runs one statement on the connection.
func (m *Manager) ExecuteQuery(ctx context.Context, id, statement, database string) (*models.QueryResult, error) {
	drv, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	return drv.ExecuteQuery(ctx, statement, database)
}

// CloseAll disconnects every registered connection.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	drivers := m.drivers
	m.drivers = make(map[string]core.Driver)
	m.mu.Unlock()

	for id, drv := range drivers {
		if err := drv.Close(ctx); err != nil {
			m.logger.Warn("failed to close connection", zap.String("connection_id", id), zap.Error(err))
		}
	}
}
