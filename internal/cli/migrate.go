package cli

import (
	"github.com/spf13/cobra"

	"github.com/victornm/quizforge/internal/postgres"
	"github.com/victornm/quizforge/internal/server"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			db, err := server.ConnectPostgres(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer db.Close()

			return postgres.Migrate(cmd.Context(), db)
		},
	}
}
