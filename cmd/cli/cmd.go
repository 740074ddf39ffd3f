package main

import (
	"database/sql"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	// Database drivers the engine can execute against
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/numkem/sqlscript/catalog"
	"github.com/numkem/sqlscript/executor"
	"github.com/numkem/sqlscript/store"
)

var rootCmd = &cobra.Command{
	Use:   "sqlscript",
	Short: "sqlscript CLI",
	Long:  `sqlscript is a command line interface for cataloging named SQL scripts and executing them against a database`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := log.ParseLevel(cmd.Flag("log-level").Value.String())
		if err != nil {
			log.Fatalf("Invalid log level: %v", err)
		}
		log.SetLevel(level)

		if os.Getenv("DEBUG") != "" {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	// .env can carry SQLSCRIPT_DRIVER / SQLSCRIPT_DSN so credentials stay
	// out of the command line
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Debugf("no .env file loaded: %v", err)
	}

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "set the logger to this log level")
	rootCmd.PersistentFlags().StringP("metadata", "m", "scripts_metadata.json", "Path to the script metadata file")
	rootCmd.PersistentFlags().StringP("scripts-dir", "s", ".", "Base directory for file-backed script bodies")
	rootCmd.PersistentFlags().String("driver", envOr("SQLSCRIPT_DRIVER", "sqlite3"), "Database driver (sqlite3, mysql, postgres)")
	rootCmd.PersistentFlags().String("dsn", os.Getenv("SQLSCRIPT_DSN"), "Database connection string")
}

func Execute() error {
	return rootCmd.Execute()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

// openRepository loads the metadata index and wires it to the file body store
// from the persistent flags.
func openRepository(cmd *cobra.Command) (*catalog.Repository, error) {
	meta := store.NewJSONMetadataStore(cmd.Flag("metadata").Value.String())
	ix, err := catalog.Load(cmd.Context(), meta)
	if err != nil {
		return nil, err
	}

	return catalog.NewRepository(ix, store.NewFileBodyStore(cmd.Flag("scripts-dir").Value.String())), nil
}

// openEngine builds an execution engine on top of the repository and a live
// database connection. The caller owns closing the returned DB.
func openEngine(cmd *cobra.Command, opts ...executor.Option) (*executor.Engine, *sql.DB, error) {
	repo, err := openRepository(cmd)
	if err != nil {
		return nil, nil, err
	}

	driver := cmd.Flag("driver").Value.String()
	db, err := executor.Connect(cmd.Context(), driver, cmd.Flag("dsn").Value.String())
	if err != nil {
		return nil, nil, err
	}

	opts = append(opts, executor.WithDriver(driver))
	return executor.NewEngine(repo, db, opts...), db, nil
}
