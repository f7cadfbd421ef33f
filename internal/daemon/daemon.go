// Package daemon provides the background watcher that keeps the archive
// database aligned with the card directory.
//
// The daemon:
// 1. Watches the card directory for file changes
// 2. Reconciles affected cards into the database
// 3. Periodically re-runs a full sync as a safety net
// 4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vcman/internal/sync"
	"vcman/internal/vcard"
)

// Config holds configuration for the daemon.
type Config struct {
	// FullSyncInterval is how often to re-run a full pass over the
	// card directory. Catches events the watcher missed.
	FullSyncInterval time.Duration

	// DebounceInterval is how long to wait before processing file
	// changes. This batches rapid updates together.
	DebounceInterval time.Duration

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		FullSyncInterval: 30 * time.Second,
		DebounceInterval: 100 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates file watching and database synchronization.
type Daemon struct {
	syncer   sync.Syncer
	cardsDir string
	config   *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> timestamp
	changeQueueMu gosync.Mutex

	onSync   func(*sync.Result)
	onCard   func(*sync.Entry, sync.Outcome)
	onRemove func(fileName string)

	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

// New creates a new Daemon instance.
//
// The daemon requires a Syncer backed by an initialized database and
// the directory holding the card files. Use Start() to begin watching
// and syncing.
func New(syncer sync.Syncer, cardsDir string) (*Daemon, error) {
	return NewWithConfig(syncer, cardsDir, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(syncer sync.Syncer, cardsDir string, config *Config) (*Daemon, error) {
	if syncer == nil {
		return nil, fmt.Errorf("syncer cannot be nil")
	}
	if cardsDir == "" {
		return nil, fmt.Errorf("cardsDir cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		syncer:      syncer,
		cardsDir:    cardsDir,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// OnSync registers a callback invoked after every full sync pass. Used
// by the dashboard to broadcast archive state. Must be called before
// Start.
func (d *Daemon) OnSync(fn func(*sync.Result)) {
	d.onSync = fn
}

// OnCardSynced registers a callback invoked after a single card is
// reconciled from a file event. Must be called before Start.
func (d *Daemon) OnCardSynced(fn func(*sync.Entry, sync.Outcome)) {
	d.onCard = fn
}

// OnCardRemoved registers a callback invoked after a deleted card's
// records are removed. Must be called before Start.
func (d *Daemon) OnCardRemoved(fn func(fileName string)) {
	d.onRemove = fn
}

// Start begins the daemon's operation.
//
// The daemon will:
// 1. Perform a full sync from files to database
// 2. Start watching for card file changes
// 3. Periodically re-run the full sync
// 4. Process file changes with debouncing
//
// This blocks until ctx is cancelled or an error occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := d.PerformFullSync(); err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}

	if err := d.watcher.Add(d.cardsDir); err != nil {
		return fmt.Errorf("failed to watch cards directory: %w", err)
	}

	d.config.Logger.Printf("Watching: %s", d.cardsDir)

	d.wg.Add(3)
	go d.watchFileEvents()
	go d.processChangeQueue()
	go d.periodicFullSync()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// PerformFullSync runs one full pass over the card directory.
//
// Called on startup and on the periodic timer; can also be triggered
// manually.
func (d *Daemon) PerformFullSync() error {
	result, err := d.syncer.FullSync(d.cardsDir)
	if err != nil {
		return err
	}
	if d.onSync != nil {
		d.onSync(result)
	}
	return nil
}

// watchFileEvents monitors filesystem events and queues changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			// Only care about Create, Write, Remove, Rename
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if !vcard.HasCardExtension(event.Name) {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange adds a file to the change queue with debouncing.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue processes queued file changes with debouncing.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges syncs files that have been queued for long
// enough.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()

	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}

		d.config.Logger.Printf("Processing change: %s", path)

		if err := d.syncCardFile(path); err != nil {
			d.config.Logger.Printf("Error syncing card %s: %v", path, err)
		}

		delete(d.changeQueue, path)
	}
}

// syncCardFile reconciles a single card path, handling deletion.
func (d *Daemon) syncCardFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fileName := filepath.Base(path)
		d.config.Logger.Printf("Card removed: %s", fileName)
		if err := d.syncer.Remove(fileName); err != nil {
			return err
		}
		if d.onRemove != nil {
			d.onRemove(fileName)
		}
		return nil
	}

	entry, out, err := d.syncer.SyncCard(path)
	if err != nil {
		return fmt.Errorf("failed to sync card file: %w", err)
	}
	if d.onCard != nil {
		d.onCard(entry, out)
	}
	return nil
}

// periodicFullSync re-runs the full pass on a timer.
func (d *Daemon) periodicFullSync() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.FullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if err := d.PerformFullSync(); err != nil {
				d.config.Logger.Printf("Error in periodic sync: %v", err)
			}
		}
	}
}
