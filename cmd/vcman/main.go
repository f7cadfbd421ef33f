// Command vcman manages a personal archive of vCard contact files
// mirrored into a SQLite database.
package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"vcman/internal/config"
	"vcman/internal/tui"
)

var (
	flagConfig   string
	flagDBPath   string
	flagCardsDir string
)

var rootCmd = &cobra.Command{
	Use:   "vcman",
	Short: "Personal vCard archive with a SQLite mirror",
	Long: `vcman keeps a directory of vCard 4.0 files (.vcf / .vcard) in sync
with a local SQLite database and provides interactive screens to browse,
edit and create contacts.

Running vcman with no subcommand opens the interactive screens. The
card files stay the source of truth; the database is a queryable mirror
rebuilt by the sync engine.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		// Interactive screens run on the alternate screen, so logs go
		// to a rotating file instead of stderr.
		logger := fileLogger(cfg)

		program := tea.NewProgram(tui.New(cfg, logger), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// loadConfig reads the config file and applies flag overrides. A broken
// config file is a startup failure.
func loadConfig() *config.Config {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	if flagCardsDir != "" {
		cfg.CardsDir = flagCardsDir
	}
	return cfg
}

// fileLogger builds the rotating file logger, falling back to stderr
// when file logging is disabled.
func fileLogger(cfg *config.Config) *log.Logger {
	if cfg.Log.File == "" {
		return log.New(os.Stderr, "[vcman] ", log.LstdFlags)
	}

	return log.New(&lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}, "[vcman] ", log.LstdFlags)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.config/vcman/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "archive database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCardsDir, "cards", "", "card directory (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
