// Command migrate manages the PostgreSQL schema of the gym backend and
// creates staff accounts, which are never created through the API.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/onixgym/backend/internal/infrastructure/config"
	"github.com/onixgym/backend/internal/infrastructure/logger"
	"github.com/onixgym/backend/internal/infrastructure/migration"
	"github.com/onixgym/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// cli carries what every subcommand shares once the root command ran
type cli struct {
	migrationsPath string
	logLevel       string

	cfg *config.Config
	log *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Onix Gym schema migrations and staff accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.log != nil {
				_ = logger.Sync(c.log)
			}
		},
	}
	root.PersistentFlags().StringVar(&c.migrationsPath, "path", "", "migrations directory (default: database.migrations_path or ./migrations)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "debug, info, warn or error")

	root.AddCommand(
		c.schemaCmd("up", "Apply all pending migrations", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Up()
		}),
		c.schemaCmd("down", "Roll back all migrations", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Down()
		}),
		c.schemaCmd("step <n>", "Apply n migrations, negative n rolls back", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		}),
		c.schemaCmd("goto <version>", "Migrate to a specific version", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.GoTo(uint(v))
		}),
		c.schemaCmd("version", "Show the applied version", cobra.NoArgs, c.printVersion),
		c.schemaCmd("force <version>", "Record a version without running it", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(v)
		}),
		c.dropCmd(),
		c.createCmd(),
		c.listCmd(),
		c.createAdminCmd(),
	)
	return root
}

func (c *cli) setup() error {
	log, err := logger.New(&logger.Config{
		Level:      c.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.log = log

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	c.cfg = cfg

	path, err := resolveMigrationsPath(c.migrationsPath, cfg.Database.MigrationsPath)
	if err != nil {
		return err
	}
	c.migrationsPath = path
	return nil
}

// resolveMigrationsPath prefers the flag, then the configured path, then
// ./migrations next to the working directory or two levels above the
// binary (bin/<os>/migrate in a checkout).
func resolveMigrationsPath(flagValue, configured string) (string, error) {
	path := flagValue
	if path == "" {
		path = configured
	}
	if path == "" || path == defaultMigrationsPath {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	return filepath.Abs(path)
}

// schemaCmd builds a subcommand that needs a migrator over PostgreSQL
func (c *cli) schemaCmd(use, short string, args cobra.PositionalArgs, run func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Database.Driver == config.DriverSQLite {
				return c.sqliteSchema(cmd.Name())
			}
			m, err := c.migrator()
			if err != nil {
				return err
			}
			defer m.Close()
			return run(m, args)
		},
	}
}

// sqliteSchema handles the sqlite driver, which has no SQL migrations: the
// schema comes from the models and only "up" makes sense.
func (c *cli) sqliteSchema(command string) error {
	if command != "up" {
		return fmt.Errorf("only 'up' is supported for the sqlite driver, got %q", command)
	}
	db, err := persistence.Open(&c.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	c.log.Info("sqlite schema is up to date", zap.String("path", c.cfg.Database.SQLitePath))
	return nil
}

func (c *cli) migrator() (*migration.Migrator, error) {
	db, err := persistence.Open(&c.cfg.Database)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.SQL()
	if err != nil {
		return nil, err
	}
	c.log.Debug("Using migrations", zap.String("path", c.migrationsPath))
	return migration.New(sqlDB, c.migrationsPath, c.log)
}

func (c *cli) printVersion(m *migration.Migrator, _ []string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		c.log.Info("No migrations applied")
		return nil
	}
	c.log.Info("Current schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func (c *cli) dropCmd() *cobra.Command {
	var confirm bool
	cmd := c.schemaCmd("drop", "Drop every database object", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
		if !confirm {
			return fmt.Errorf("drop cancelled, pass --confirm to drop the clients, payments and cards")
		}
		return m.Drop()
	})
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm dropping all data")
	return cmd
}

func (c *cli) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create the next numbered migration pair",
		Example: `  migrate create add_trainer_schedule "Weekly slots per trainer"`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(c.migrationsPath, args[0], description)
			if err != nil {
				return err
			}
			c.log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the migrations on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := migration.ListMigrations(c.migrationsPath)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				c.log.Info("No migrations found", zap.String("path", c.migrationsPath))
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), "  -", name)
			}
			return nil
		},
	}
}
