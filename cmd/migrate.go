package cmd

import (
	"example.com/backstage/services/buildline/config"
	"example.com/backstage/services/buildline/internal/database"
	"example.com/backstage/services/buildline/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Apply the schema for journeys, bins, audit trails and QC checklists, then exit`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	gormDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database handle")
	}

	if err := models.SetupModels(gormDB); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	log.Info().Msg("Migrations applied")
	return nil
}
