package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vcman/internal/daemon"
	"vcman/internal/dashboard"
	"vcman/internal/db"
	"vcman/internal/sync"
)

var (
	flagWatchInterval  time.Duration
	flagDashboardPort  int
	flagWatchDashboard bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the card directory and keep the database in sync",
	Long: `Watch runs in the foreground: it performs an initial full sync,
then reacts to card file changes and re-runs a full pass on a timer.
With --dashboard it also serves a WebSocket feed of archive activity.

Press Ctrl+C to stop.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := log.New(os.Stderr, "[vcman] ", log.LstdFlags)

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

		syncer := sync.New(database, logger)

		daemonCfg := daemon.DefaultConfig()
		daemonCfg.FullSyncInterval = flagWatchInterval
		daemonCfg.Logger = logger

		d, err := daemon.NewWithConfig(syncer, cfg.CardsDir, daemonCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}

		if flagWatchDashboard {
			port := flagDashboardPort
			if port == 0 {
				port = cfg.DashboardPort
			}
			server := dashboard.NewServer(&dashboard.Config{Port: port, Logger: logger})
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
				os.Exit(1)
			}
			defer server.Stop()

			handler := dashboard.NewHandler(server, database, logger)
			d.OnSync(func(r *sync.Result) {
				handler.OnSyncComplete(r, 0)
			})
			d.OnCardSynced(func(e *sync.Entry, out sync.Outcome) {
				switch out {
				case sync.OutcomeInserted:
					handler.OnContactCreated(e.FileName, e.ContactName)
				case sync.OutcomeUpdated:
					handler.OnContactUpdated(e.FileName, e.ContactName)
				}
			})
			d.OnCardRemoved(handler.OnContactRemoved)
			logger.Printf("Dashboard: http://localhost%s", server.GetAddr())
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Printf("Watching %s (full sync every %v)", cfg.CardsDir, flagWatchInterval)
		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().DurationVar(&flagWatchInterval, "interval", 30*time.Second, "full sync interval")
	watchCmd.Flags().BoolVar(&flagWatchDashboard, "dashboard", false, "serve the WebSocket dashboard")
	watchCmd.Flags().IntVar(&flagDashboardPort, "dashboard-port", 0, "dashboard port (default from config)")
	rootCmd.AddCommand(watchCmd)
}
