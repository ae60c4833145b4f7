// Package dbui provides a multi-backend database explorer: a connection
// registry, backend adapters for PostgreSQL, MySQL, SQLite and Redis, a
// shared value coercion engine, and persistent query history.
//
// Every backend is driven through one uniform contract. A caller registers a
// connection descriptor, and from then on addresses the backend only by its
// connection id:
//
//	import (
//	    "context"
//	    "github.com/serialexp/dbui/pkg/config"
//	    "github.com/serialexp/dbui/pkg/registry"
//	)
//
//	cfg := config.NewConnectionConfig("local", config.Postgres,
//	    "localhost", 5432, "postgres", "secret", nil, nil)
//
//	mgr := registry.NewManager()
//	if err := mgr.Connect(ctx, &cfg); err != nil {
//	    return err
//	}
//	defer mgr.CloseAll(context.Background())
//
//	result, err := mgr.ExecuteQuery(ctx, cfg.ID, "SELECT * FROM users", "")
//
// Relational results come back as a portable grid of JSON-safe values;
// booleans stay booleans, integers stay integers, and timestamps are
// formatted per type. Redis commands are tokenized, interpreted and shaped
// into the same grid, so HGETALL renders as field/value rows and SCAN as a
// key listing with a cursor message.
//
// # Key Packages
//
//	pkg/registry      - Connection registry mapping ids to live drivers
//	pkg/driver/core   - Driver contract, statement classifier, coercion engine
//	pkg/driver/...    - Backend adapters (postgres, mysql, sqlite, redisdb)
//	pkg/config        - Connection descriptors, URL parsing, persistence
//	pkg/history       - SQLite-backed query history with full-text search
//	pkg/cloud         - AWS and kubeconfig credential discovery
//	pkg/dbuierrors    - Structured error handling
//	pkg/logger        - Structured logging
//
// # Command Line
//
// The dbui binary exposes the same operations from the shell:
//
//	dbui connections add --name local --type postgres --host localhost \
//	    --username postgres --password secret
//	dbui query -c <id> "SELECT * FROM users"
//	dbui show tables -c <id> -s public
//	dbui history list --search "users"
//
// Settings load from ~/.dbui/config.yaml and DBUI_ environment variables.
package dbui
