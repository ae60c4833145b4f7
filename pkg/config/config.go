// Package config defines connection descriptors and their on-disk
// persistence. Connections and categories are stored as JSON files in a
// caller-supplied config directory; the core never mutates a descriptor
// after it is handed to a connect call.
package config

import (
	"github.com/google/uuid"

	"github.com/serialexp/dbui/pkg/dbuierrors"
)

// DatabaseType identifies one of the supported backends.
type DatabaseType string

const (
	Postgres DatabaseType = "postgres"
	MySQL    DatabaseType = "mysql"
	SQLite   DatabaseType = "sqlite"
	Redis    DatabaseType = "redis"
)

// Valid reports whether t names a supported backend.
func (t DatabaseType) Valid() bool {
	switch t {
	case Postgres, MySQL, SQLite, Redis:
		return true
	}
	return false
}

// DefaultPort returns the conventional port for the backend, 0 when the
// backend has no network port.
func (t DatabaseType) DefaultPort() uint16 {
	switch t {
	case Postgres:
		return 5432
	case MySQL:
		return 3306
	case Redis:
		return 6379
	}
	return 0
}

// ConnectionConfig describes one saved connection. For SQLite the Host field
// carries the database file path.
type ConnectionConfig struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       DatabaseType `json:"db_type"`
	Host       string       `json:"host"`
	Port       uint16       `json:"port"`
	Username   string       `json:"username"`
	Password   string       `json:"password"`
	Database   *string      `json:"database,omitempty"`
	CategoryID *string      `json:"category_id,omitempty"`
}

// NewConnectionConfig builds a descriptor with a fresh id.
func NewConnectionConfig(name string, dbType DatabaseType, host string, port uint16, username, password string, database, categoryID *string) ConnectionConfig {
	return ConnectionConfig{
		ID:         uuid.NewString(),
		Name:       name,
		Type:       dbType,
		Host:       host,
		Port:       port,
		Username:   username,
		Password:   password,
		Database:   database,
		CategoryID: categoryID,
	}
}

// Validate checks the descriptor before it is handed to a connect call.
func (c *ConnectionConfig) Validate() error {
	if c.ID == "" {
		return dbuierrors.New(dbuierrors.ErrorTypeConfig, "connection id is required")
	}
	if !c.Type.Valid() {
		return dbuierrors.Newf(dbuierrors.ErrorTypeConfig, "unsupported database type %q", c.Type)
	}
	if c.Host == "" {
		return dbuierrors.New(dbuierrors.ErrorTypeConfig, "host is required")
	}
	return nil
}

// DatabaseName returns the configured database or the given fallback.
func (c *ConnectionConfig) DatabaseName(fallback string) string {
	if c.Database != nil && *c.Database != "" {
		return *c.Database
	}
	return fallback
}

// Category groups saved connections in the UI.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// NewCategory builds a category with a fresh id.
func NewCategory(name, color string) Category {
	return Category{ID: uuid.NewString(), Name: name, Color: color}
}
