package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/beacon/internal/core/config"
	"github.com/solatis/beacon/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply event sink migrations",
	RunE:  runMigrate,
}

var migrateStatus bool

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print migration status without applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	url, err := resolveDBURL()
	if err != nil {
		return err
	}
	if url == "" {
		return fmt.Errorf("--db-url or sink.db_url required")
	}

	database, err := db.Open(url)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if !migrateStatus {
		if err := db.MigrateUp(database); err != nil {
			return err
		}
	}

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(out, "%-32s %s\n", s.ID, state)
	}
	return nil
}

// resolveDBURL prefers --db-url over sink.db_url from config.
func resolveDBURL() (string, error) {
	if dbURL != "" {
		return dbURL, nil
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.Sink.DBURL, nil
}
