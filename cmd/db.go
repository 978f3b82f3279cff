package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/vcubone/library-boot/internal/db/bunx"
	"github.com/vcubone/library-boot/internal/migrations"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long:  `Commands for managing the catalog schema and its migrations.`,
}

// openDB connects to the configured database. Callers close it with bunx.Close.
func openDB() (*bun.DB, error) {
	db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{MaxOpenConns: cfg.MaxDBConnections, Debug: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// withMigrator runs fn against a migrator bound to the configured database.
func withMigrator(fn func(cmd *cobra.Command, m *migrate.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer bunx.Close(db)

		return fn(cmd, migrate.NewMigrator(db, migrations.Migrations))
	}
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize migration tables",
	Long:  `Creates the migration tracking tables in the database. Run this once during initial setup.`,
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
		if err := m.Init(cmd.Context()); err != nil {
			return fmt.Errorf("failed to initialize migrator: %w", err)
		}
		log.Printf("Migration tables initialized successfully")
		return nil
	}),
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Creates the schema and seeds the ROLE_USER and ROLE_ADMIN roles, applying every pending migration under the migration lock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer bunx.Close(db)

		group, err := migrations.Apply(cmd.Context(), db)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		if group.IsZero() {
			log.Printf("No new migrations to apply")
		} else {
			log.Printf("Applied migration group %s", group)
		}
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  `Displays the applied and pending catalog migrations.`,
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
		ms, err := m.MigrationsWithStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

		log.Printf("Migrations:")
		for _, mig := range ms {
			status := "pending"
			if mig.GroupID > 0 {
				status = fmt.Sprintf("applied (group %d)", mig.GroupID)
			}
			log.Printf("  %s: %s", mig.Name, status)
		}
		return nil
	}),
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback last migration group",
	Long:  `Rolls back the most recently applied migration group under the migration lock.`,
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
		ctx := cmd.Context()
		if err := m.Lock(ctx); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		defer func() {
			if err := m.Unlock(ctx); err != nil {
				log.Printf("Warning: failed to release migration lock: %v", err)
			}
		}()

		group, err := m.Rollback(ctx)
		if err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		if group.IsZero() {
			log.Printf("No migrations to rollback")
		} else {
			log.Printf("Rolled back migration group %s", group)
		}
		return nil
	}),
}

var dbLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Manually acquire migration lock",
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
		if err := m.Lock(cmd.Context()); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		log.Printf("Migration lock acquired; run 'db unlock' when finished")
		return nil
	}),
}

var dbUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Force release migration lock",
	Long:  `Force releases the migration lock. Use this if a migration crashed while holding the lock.`,
	RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrator) error {
		if err := m.Unlock(cmd.Context()); err != nil {
			return fmt.Errorf("failed to release migration lock: %w", err)
		}
		log.Printf("Migration lock released successfully")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd, dbMigrateCmd, dbStatusCmd, dbRollbackCmd, dbLockCmd, dbUnlockCmd)
}
