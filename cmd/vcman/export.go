package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vcman/internal/db"
	"vcman/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <output.jsonl>",
	Short: "Export the archive to a JSONL file",
	Long: `Export writes one JSON object per contact, ordered by card file
name. The output captures everything the database mirrors and can be
fed back to 'vcman import' to rebuild the card files.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer database.Close()

		count, err := export.WriteJSONL(database, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %d contacts to %s\n", count, args[0])
	},
}

var importCmd = &cobra.Command{
	Use:   "import <input.jsonl>",
	Short: "Rebuild card files from a JSONL export",
	Long: `Import reads a JSONL export and writes a card file for each
record. Existing card files are never overwritten; run 'vcman sync'
afterwards to bring the database up to date.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if err := os.MkdirAll(cfg.CardsDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating cards directory: %v\n", err)
			os.Exit(1)
		}

		result, err := export.Import(args[0], cfg.CardsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Wrote %d cards to %s (%d skipped)\n",
			result.CardsWritten, cfg.CardsDir, result.Skipped)
		for _, e := range result.Errors {
			fmt.Printf("  warning: %s\n", e)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
