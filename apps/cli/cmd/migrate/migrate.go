package migrate

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	sqlassets "github.com/prosektorweb/inbox-api/database"
	"github.com/prosektorweb/inbox-api/platform/persistence"
)

// Command applies the embedded schema to the configured database. Statements
// are idempotent (CREATE IF NOT EXISTS) so re-running is safe.
func Command() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the inbox schema to the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return fmt.Errorf("database url required (flag --database-url or DATABASE_URL)")
			}

			ctx := cmd.Context()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			assets := []struct {
				name string
				sql  string
			}{
				{"tenants", sqlassets.TenantsSQL},
				{"memberships", sqlassets.MembershipsSQL},
				{"inbox", sqlassets.InboxSQL},
			}

			for _, asset := range assets {
				if _, err := pool.Exec(ctx, asset.sql); err != nil {
					return fmt.Errorf("apply %s schema: %w", asset.name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s schema\n", asset.name)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")

	return cmd
}
