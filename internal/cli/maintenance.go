package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/database"
	"github.com/alejandroruanova/preprocessing-service/internal/infrastructure/storage"
)

// MigrateCmd creates or updates the job and dedup hash tables
func MigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := database.NewPostgresDB(&a.cfg.Database, a.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return db.Migrate()
		},
	}
}

// CleanupCmd removes stored uploads and results older than --older-than
func CleanupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old job uploads and results from storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			olderThan, err := cmd.Flags().GetDuration("older-than")
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}

			files, err := storage.NewLocalStorage(&a.cfg.Storage, a.logger)
			if err != nil {
				return err
			}

			removed, err := files.CleanupOldFiles(cmd.Context(), olderThan)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d job directories\n", removed)
			return nil
		},
	}

	cmd.Flags().Duration("older-than", 7*24*time.Hour, "age after which job files are removed")

	return cmd
}
