package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/serialexp/dbui/pkg/cloud"
	appconfig "github.com/serialexp/dbui/pkg/config"
	"github.com/serialexp/dbui/pkg/history"
	"github.com/serialexp/dbui/pkg/logger"
	"github.com/serialexp/dbui/pkg/models"
	"github.com/serialexp/dbui/pkg/registry"
)

var version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initSettings wires the settings file and DBUI_ environment variables.
// Everything has a default so the CLI works without any configuration.
func initSettings() error {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".dbui")

	viper.SetDefault("data_dir", dataDir)
	viper.SetDefault("history_path", filepath.Join(dataDir, "history.db"))
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("query_timeout", "30s")

	viper.SetEnvPrefix("DBUI")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dataDir)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read settings: %w", err)
		}
	}

	return logger.Init(logger.Config{Level: viper.GetString("log_level")})
}

func queryContext() (context.Context, context.CancelFunc) {
	timeout := viper.GetDuration("query_timeout")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func openStore() (*appconfig.Store, error) {
	return appconfig.NewStore(viper.GetString("data_dir"))
}

// withConnection loads a stored connection, opens it and runs fn with a
// ready registry. The CLI process is short lived, so each invocation
// connects and disconnects around the single operation.
func withConnection(id string, fn func(ctx context.Context, mgr *registry.Manager, cfg *appconfig.ConnectionConfig) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	cfg, err := store.GetConnection(id)
	if err != nil {
		return err
	}

	ctx, cancel := queryContext()
	defer cancel()

	mgr := registry.NewManager()
	if err := mgr.Connect(ctx, &cfg); err != nil {
		return err
	}
	defer mgr.CloseAll(context.Background())

	return fn(ctx, mgr, &cfg)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func run() error {
	root := &cobra.Command{
		Use:   "dbui",
		Short: "dbui - multi-backend database explorer",
		Long: `dbui manages connections to PostgreSQL, MySQL, SQLite and Redis servers
and runs queries and schema introspection against them from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initSettings()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dbui v%s\n", version)
		},
	})

	root.AddCommand(connectionsCommand())
	root.AddCommand(queryCommand())
	root.AddCommand(browseCommands())
	root.AddCommand(historyCommand())
	root.AddCommand(cloudCommand())

	defer func() { _ = logger.Sync() }()
	return root.Execute()
}

func connectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Manage stored connections",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			conns, err := store.LoadConnections()
			if err != nil {
				return err
			}
			return printJSON(conns)
		},
	})

	var (
		name     string
		dbType   string
		host     string
		port     uint16
		username string
		password string
		database string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			var db *string
			if database != "" {
				db = &database
			}
			t := appconfig.DatabaseType(dbType)
			if port == 0 {
				port = t.DefaultPort()
			}
			cfg := appconfig.NewConnectionConfig(name, t, host, port, username, password, db, nil)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if _, err := store.AddConnection(cfg); err != nil {
				return err
			}
			fmt.Println(cfg.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	addCmd.Flags().StringVar(&dbType, "type", "", "Backend type: postgres, mysql, sqlite or redis (required)")
	addCmd.Flags().StringVar(&host, "host", "", "Host, or file path for sqlite (required)")
	addCmd.Flags().Uint16Var(&port, "port", 0, "Port (defaults per backend)")
	addCmd.Flags().StringVar(&username, "username", "", "Username")
	addCmd.Flags().StringVar(&password, "password", "", "Password")
	addCmd.Flags().StringVar(&database, "database", "", "Initial database")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("host")
	cmd.AddCommand(addCmd)

	var importName string
	importCmd := &cobra.Command{
		Use:   "import <url>",
		Short: "Store a connection parsed from a database URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := appconfig.ParseConnectionURL(args[0])
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			host := parsed.Host
			database := parsed.Database
			if parsed.Type == appconfig.SQLite && database != nil {
				// SQLite stores the file path in the host field.
				host = *database
				database = nil
			}
			name := importName
			if name == "" {
				name = host
			}
			cfg := appconfig.NewConnectionConfig(name, parsed.Type, host, parsed.Port,
				parsed.Username, parsed.Password, database, nil)
			if _, err := store.AddConnection(cfg); err != nil {
				return err
			}
			fmt.Println(cfg.ID)
			return nil
		},
	}
	importCmd.Flags().StringVar(&importName, "name", "", "Display name (defaults to the host)")
	cmd.AddCommand(importCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a stored connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			return store.RemoveConnection(args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "test <id>",
		Short: "Open and immediately close a stored connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(args[0], func(ctx context.Context, mgr *registry.Manager, cfg *appconfig.ConnectionConfig) error {
				fmt.Println("OK")
				return nil
			})
		},
	})

	return cmd
}

func queryCommand() *cobra.Command {
	var (
		connectionID string
		database     string
		schema       string
		noHistory    bool
	)
	cmd := &cobra.Command{
		Use:   "query <statement>",
		Short: "Run a statement on a stored connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statement := args[0]
			return withConnection(connectionID, func(ctx context.Context, mgr *registry.Manager, cfg *appconfig.ConnectionConfig) error {
				started := time.Now()
				result, err := mgr.ExecuteQuery(ctx, cfg.ID, statement, database)
				elapsed := time.Since(started)

				if !noHistory {
					recordHistory(cfg.ID, database, schema, statement, elapsed, result, err)
				}
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}
	cmd.Flags().StringVarP(&connectionID, "connection", "c", "", "Stored connection id (required)")
	cmd.Flags().StringVarP(&database, "database", "d", "", "Database to run against")
	cmd.Flags().StringVar(&schema, "schema", "", "Schema recorded in history")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording the query in history")
	_ = cmd.MarkFlagRequired("connection")
	return cmd
}

// recordHistory saves the outcome of one query. History failures are logged
// and never fail the query itself.
func recordHistory(connectionID, database, schema, statement string, elapsed time.Duration, result *models.QueryResult, qerr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mgr, err := history.NewManager(ctx, viper.GetString("history_path"))
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
		return
	}
	defer mgr.Close()

	entry := history.Entry{
		ID:              uuid.NewString(),
		ConnectionID:    connectionID,
		Database:        database,
		Schema:          schema,
		Query:           statement,
		Timestamp:       time.Now().UTC(),
		ExecutionTimeMS: uint64(elapsed.Milliseconds()),
		Success:         qerr == nil,
	}
	if qerr != nil {
		msg := qerr.Error()
		entry.ErrorMessage = &msg
	} else if result != nil {
		entry.RowCount = result.RowCount
	}
	if err := mgr.Save(ctx, entry); err != nil {
		logger.Warn("failed to record history", zap.Error(err))
	}
}

// browseCommands exposes the introspection operations as one subcommand per
// listing.
func browseCommands() *cobra.Command {
	var (
		connectionID string
		database     string
		schema       string
		table        string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Inspect databases, schemas, tables and their structure",
	}
	cmd.PersistentFlags().StringVarP(&connectionID, "connection", "c", "", "Stored connection id (required)")
	cmd.PersistentFlags().StringVarP(&database, "database", "d", "", "Database")
	cmd.PersistentFlags().StringVarP(&schema, "schema", "s", "", "Schema")
	cmd.PersistentFlags().StringVarP(&table, "table", "t", "", "Table")
	_ = cmd.MarkPersistentFlagRequired("connection")

	simple := func(use, short string, op func(ctx context.Context, mgr *registry.Manager, id string) (interface{}, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withConnection(connectionID, func(ctx context.Context, mgr *registry.Manager, cfg *appconfig.ConnectionConfig) error {
					out, err := op(ctx, mgr, cfg.ID)
					if err != nil {
						return err
					}
					return printJSON(out)
				})
			},
		}
	}

	cmd.AddCommand(simple("databases", "List databases", func(ctx context.Context, mgr *registry.Manager, id string) (interface{}, error) {
		return mgr.ListDatabases(ctx, id)
	}))
	cmd.AddCommand(simple("schemas", "List schemas of a database", func(ctx context.Context, mgr *registry.Manager, id string) (interface{}, error) {
		return mgr.ListSchemas(ctx, id, database)
	}))
	cmd.AddCommand(simple("tables", "List tables of a schema", func(ctx context.Context, mgr *registry.Manager, id string) (interface{}, error) {
		return mgr.ListTables(ctx, id, database, schema)
	}))
	cmd.AddCommand(simple("views", "List views of a schema", func(ctx context.Context, mgr *registry.Manager, id string) (interface{}, error) {
		return mgr.ListViews(ctx, id, database, schema)
	}))
	cmd.AddCommand(simple("functions", "List stored functions of a schema", func(ctx context.Context, mgr *registry.Manager, id string) (interface{}, error) {
		return mgr.ListFunctions(ctx, id, database, schema)
	}))
	cmd.AddCommand(simple("columns", "List columns of a table", func(ctx context.Context, mgr *registry.Manager, id string) (interface{}, error) {
		return mgr.ListColumns(ctx, id, database, schema, table)
	}))
	cmd.AddCommand(simple("indexes", "List indexes of a table", func(ctx context.Context, mgr *registry.Manager, id string) (interface{}, error) {
		return mgr.ListIndexes(ctx, id, database, schema, table)
	}))
	cmd.AddCommand(simple("constraints", "List constraints of a table", func(ctx context.Context, mgr *registry.Manager, id string) (interface{}, error) {
		return mgr.ListConstraints(ctx, id, database, schema, table)
	}))

	var function string
	functionCmd := simple("function", "Show a stored function's definition", func(ctx context.Context, mgr *registry.Manager, id string) (interface{}, error) {
		return mgr.GetFunctionDefinition(ctx, id, database, schema, function)
	})
	functionCmd.Flags().StringVar(&function, "name", "", "Function name (required)")
	_ = functionCmd.MarkFlagRequired("name")
	cmd.AddCommand(functionCmd)

	return cmd
}

func historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and prune query history",
	}

	openHistory := func(ctx context.Context) (*history.Manager, error) {
		return history.NewManager(ctx, viper.GetString("history_path"))
	}

	var (
		connectionID string
		successOnly  bool
		search       string
		limit        int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded queries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := queryContext()
			defer cancel()
			mgr, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			filter := history.Filter{Limit: &limit}
			if connectionID != "" {
				filter.ConnectionID = &connectionID
			}
			if successOnly {
				filter.SuccessOnly = &successOnly
			}

			var entries []history.Entry
			if search != "" {
				filter.SearchQuery = &search
				entries, err = mgr.Search(ctx, filter)
			} else {
				entries, err = mgr.Entries(ctx, filter)
			}
			if err != nil {
				return err
			}
			return printJSON(entries)
		},
	}
	listCmd.Flags().StringVarP(&connectionID, "connection", "c", "", "Filter by connection id")
	listCmd.Flags().BoolVar(&successOnly, "success-only", false, "Only successful queries")
	listCmd.Flags().StringVar(&search, "search", "", "Full-text search over query text")
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := queryContext()
			defer cancel()
			mgr, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()
			return mgr.Delete(ctx, args[0])
		},
	})

	var clearConnection string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := queryContext()
			defer cancel()
			mgr, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			var conn *string
			if clearConnection != "" {
				conn = &clearConnection
			}
			return mgr.Clear(ctx, conn)
		},
	}
	clearCmd.Flags().StringVarP(&clearConnection, "connection", "c", "", "Only this connection's entries")
	cmd.AddCommand(clearCmd)

	return cmd
}

func cloudCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cloud",
		Short: "Import credentials from cloud secret stores",
	}

	var profile, region, prefix string
	aws := &cobra.Command{
		Use:   "aws",
		Short: "AWS SSM Parameter Store and Secrets Manager",
	}
	aws.PersistentFlags().StringVar(&profile, "profile", "default", "AWS profile")
	aws.PersistentFlags().StringVar(&region, "region", "", "AWS region")

	aws.AddCommand(&cobra.Command{
		Use:   "profiles",
		Short: "List profiles from the shared AWS config files",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := cloud.ListAWSProfiles(cloud.DefaultAWSFiles())
			if err != nil {
				return err
			}
			return printJSON(profiles)
		},
	})

	ssmList := &cobra.Command{
		Use:   "parameters",
		Short: "List SSM parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := queryContext()
			defer cancel()
			var p *string
			if prefix != "" {
				p = &prefix
			}
			params, err := cloud.ListSSMParameters(ctx, profile, region, p)
			if err != nil {
				return err
			}
			return printJSON(params)
		},
	}
	ssmList.Flags().StringVar(&prefix, "prefix", "", "Only parameter names beginning with this path")
	aws.AddCommand(ssmList)

	aws.AddCommand(&cobra.Command{
		Use:   "parameter <name>",
		Short: "Fetch one SSM parameter value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := queryContext()
			defer cancel()
			value, err := cloud.GetSSMParameterValue(ctx, profile, region, args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	})

	aws.AddCommand(&cobra.Command{
		Use:   "secrets",
		Short: "List Secrets Manager secrets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := queryContext()
			defer cancel()
			secrets, err := cloud.ListAWSSecrets(ctx, profile, region)
			if err != nil {
				return err
			}
			return printJSON(secrets)
		},
	})

	aws.AddCommand(&cobra.Command{
		Use:   "secret <id>",
		Short: "Fetch one secret value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := queryContext()
			defer cancel()
			value, err := cloud.GetAWSSecretValue(ctx, profile, region, args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	})
	cmd.AddCommand(aws)

	cmd.AddCommand(&cobra.Command{
		Use:   "kube-contexts",
		Short: "List contexts from the active kubeconfig",
		RunE: func(cmd *cobra.Command, args []string) error {
			contexts, err := cloud.ListKubeContexts(cloud.KubeconfigPath())
			if err != nil {
				return err
			}
			return printJSON(contexts)
		},
	})

	return cmd
}

