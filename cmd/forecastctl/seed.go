package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"forecast/internal/storage"
	"forecast/internal/storage/memory"
)

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Load projects, consultants and roster lines into the SQLite database",
	Long: `seed writes a JSON seed file into the SQLite database. Projects and
consultants are upserted by id; roster lines are appended, so seeding the
same file twice duplicates them.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := memory.LoadSeed(cmd.Context(), args[0], repo); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %s from %s\n", cfg.SQLiteDBPath, args[0])
	return nil
}
