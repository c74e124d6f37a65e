// Package cli implements ledgerctl, the operator command line for the emissions ledger.
package cli

import (
	"fmt"

	"carbon-registry/internal/application/ledger"
	"carbon-registry/internal/config"
	"carbon-registry/internal/infrastructure/database"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// session is the state shared by subcommands once the root pre-run has opened the ledger.
type session struct {
	databaseURL string
	db          *gorm.DB
	store       *ledger.Store
}

// NewRootCmd creates the ledgerctl root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	s := &session{}

	cmd := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Operate the carbon registry ledger",
		Long:         "ledgerctl manages projects and emission records in the carbon registry database.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			config.SetupLogging(cfg)
			if s.databaseURL == "" {
				s.databaseURL = cfg.DatabaseURL
			}
			db, err := database.Open(s.databaseURL)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			s.db = db
			s.store = ledger.New(db)
			if err := s.store.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			log.Debug().Str("command", cmd.Name()).Msg("ledger opened")
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if s.db == nil {
				return
			}
			if sqlDB, err := s.db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&s.databaseURL, "database", "",
		"SQLite path or postgres:// URL (default DATABASE_URL)")

	cmd.AddCommand(newMigrateCmd(s))
	cmd.AddCommand(newProjectsCmd(s))
	cmd.AddCommand(newEmissionsCmd(s))
	return cmd
}

func newMigrateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the ledger schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine := "sqlite"
			if database.IsPostgres(s.databaseURL) {
				engine = "postgres"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", engine)
			return nil
		},
	}
}
