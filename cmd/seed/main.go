// Command seed manages the user_data table: schema creation, CSV import,
// row streaming, and summary statistics.
//
// Configuration comes from the environment (optionally via a .env file):
//
//	DB_DRIVER   sqlite3 | postgres   (default sqlite3)
//	DB_DSN      driver-specific DSN  (default file:users.db)
//	SEED_CSV    default CSV path for import (default user_data.csv)
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/goliatone/go-db-middleware/users"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type config struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"DB_DSN" envDefault:"file:users.db"`
	CSV    string `env:"SEED_CSV" envDefault:"user_data.csv"`
}

func loadConfig() (config, error) {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()
	return env.ParseAs[config]()
}

func openStore(cfg config, log *zap.Logger) (*users.Store, *bun.DB, error) {
	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	var db *bun.DB
	switch cfg.Driver {
	case "postgres":
		db = bun.NewDB(sqldb, pgdialect.New())
	case "sqlite3":
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		sqldb.Close()
		return nil, nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	return users.NewStore(db, users.WithLogger(log)), db, nil
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	root := &cobra.Command{
		Use:           "seed",
		Short:         "Manage the user_data table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newInitCmd(log), newImportCmd(log), newStreamCmd(log), newStatsCmd(log))

	if err := root.Execute(); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func withStore(log *zap.Logger, run func(cmd *cobra.Command, cfg config, store *users.Store) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, db, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		return run(cmd, cfg, store)
	}
}

func newInitCmd(log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the user_data table if it does not exist",
		RunE: withStore(log, func(cmd *cobra.Command, _ config, store *users.Store) error {
			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			log.Info("schema ready")
			return nil
		}),
	}
}

func newImportCmd(log *zap.Logger) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import users from a CSV file",
		RunE: withStore(log, func(cmd *cobra.Command, cfg config, store *users.Store) error {
			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}

			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			if count > 0 {
				log.Info("table already populated, skipping import", zap.Int("rows", count))
				return nil
			}

			path := file
			if path == "" {
				path = cfg.CSV
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			stats, err := store.ImportCSV(cmd.Context(), f)
			if err != nil {
				return err
			}
			log.Info("import finished",
				zap.String("file", path),
				zap.Int("inserted", stats.Inserted),
				zap.Int("skipped", stats.Skipped))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import (defaults to SEED_CSV)")
	return cmd
}

func newStreamCmd(log *zap.Logger) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream users one row at a time to stdout",
		RunE: withStore(log, func(cmd *cobra.Command, _ config, store *users.Store) error {
			printed := 0
			err := store.Stream(cmd.Context(), func(u users.User) error {
				if limit > 0 && printed >= limit {
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d\n", u.ID, u.Name, u.Email, u.Age)
				printed++
				return nil
			})
			return err
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after printing this many rows (0 = all)")
	return cmd
}

func newStatsCmd(log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print row count and average age",
		RunE: withStore(log, func(cmd *cobra.Command, _ config, store *users.Store) error {
			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			avg, err := store.AverageAge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users: %d\naverage age: %.2f\n", count, avg)
			return nil
		}),
	}
}
