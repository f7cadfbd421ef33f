package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vcman/internal/db"
	"vcman/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a one-shot full sync of the card directory",
	Long: `Sync walks the card directory once, reconciles every vCard file
into the database and prints what changed. Unparseable cards are
skipped and counted; they never abort the pass.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer database.Close()

		if err := database.InitSchema(); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing schema: %v\n", err)
			os.Exit(1)
		}

		syncer := sync.New(database, nil)

		start := time.Now()
		result, err := syncer.FullSync(cfg.CardsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error syncing: %v\n", err)
			os.Exit(1)
		}
		elapsed := time.Since(start)

		fmt.Printf("Synced %s in %v\n", cfg.CardsDir, elapsed.Round(time.Millisecond))
		fmt.Printf("  Listed:    %d\n", len(result.Entries))
		fmt.Printf("  Inserted:  %d\n", result.Inserted)
		fmt.Printf("  Updated:   %d\n", result.Updated)
		fmt.Printf("  Unchanged: %d\n", result.Unchanged)
		fmt.Printf("  Skipped:   %d\n", result.Skipped)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive database status",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		info, err := os.Stat(cfg.DBPath)
		if os.IsNotExist(err) {
			fmt.Printf("Database: %s (not created yet, run 'vcman sync')\n", cfg.DBPath)
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer database.Close()

		files, err := database.FileCount()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting files: %v\n", err)
			os.Exit(1)
		}
		contacts, err := database.ContactCount()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting contacts: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Database: %s\n", cfg.DBPath)
		fmt.Printf("  Size:     %s\n", formatSize(info.Size()))
		fmt.Printf("  Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		fmt.Printf("  Files:    %d\n", files)
		fmt.Printf("  Contacts: %d\n", contacts)
		fmt.Printf("Cards: %s\n", cfg.CardsDir)
	},
}

// formatSize renders a byte count in human units.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}
