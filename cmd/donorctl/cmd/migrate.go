package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kursadbilgin/donor-dispatch/internal/infra/postgresql/migrations"
)

func migrateCmd() *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Example: `  donorctl migrate
  donorctl migrate --rollback`,
		RunE: func(c *cobra.Command, _ []string) error {
			a, logger, err := bootstrap(c.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Sync() //nolint:errcheck

			if rollback {
				if err := migrations.RollbackLast(a.DB); err != nil {
					return fmt.Errorf("rolling back migration: %w", err)
				}
				logger.Info("last migration rolled back")
				return nil
			}

			if err := migrations.Migrate(a.DB); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			logger.Info("migrations complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the most recent migration")

	return cmd
}
