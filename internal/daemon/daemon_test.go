package daemon

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vcman/internal/db"
	"vcman/internal/sync"
)

// setupDaemon wires a database, syncer and daemon against a temp card
// directory. The daemon is not started.
func setupDaemon(t *testing.T) (*Daemon, *db.DB, string) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Open(filepath.Join(tmpDir, "archive.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	cardsDir := filepath.Join(tmpDir, "cards")
	if err := os.MkdirAll(cardsDir, 0755); err != nil {
		t.Fatalf("failed to create cards directory: %v", err)
	}

	quiet := log.New(io.Discard, "", 0)
	syncer := sync.New(database, quiet)

	config := &Config{
		FullSyncInterval: time.Hour, // keep the timer out of the way
		DebounceInterval: 20 * time.Millisecond,
		Logger:           quiet,
	}
	d, err := NewWithConfig(syncer, cardsDir, config)
	if err != nil {
		t.Fatalf("failed to create daemon: %v", err)
	}
	return d, database, cardsDir
}

// writeCard writes a minimal valid card file.
func writeCard(t *testing.T, dir, name, fn string) string {
	t.Helper()

	content := "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:" + fn + "\r\nEND:VCARD\r\n"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write card: %v", err)
	}
	return path
}

// waitFor polls until the condition holds or the deadline expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNewWithConfigValidation(t *testing.T) {
	if _, err := NewWithConfig(nil, "/tmp/cards", nil); err == nil {
		t.Error("expected error for nil syncer")
	}

	database, err := db.Open(filepath.Join(t.TempDir(), "v.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()
	syncer := sync.New(database, log.New(io.Discard, "", 0))

	if _, err := NewWithConfig(syncer, "", nil); err == nil {
		t.Error("expected error for empty cardsDir")
	}
}

func TestDaemonInitialSync(t *testing.T) {
	d, database, cardsDir := setupDaemon(t)

	writeCard(t, cardsDir, "alice.vcf", "Alice")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	waitFor(t, "initial sync", func() bool {
		count, _ := database.ContactCount()
		return count == 1
	})

	cancel()
	if err := <-done; err != nil {
		t.Errorf("daemon exited with error: %v", err)
	}
}

func TestDaemonPicksUpNewCard(t *testing.T) {
	d, database, cardsDir := setupDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	// Let the watcher get established before writing.
	time.Sleep(50 * time.Millisecond)
	writeCard(t, cardsDir, "bob.vcf", "Bob")

	waitFor(t, "new card sync", func() bool {
		rec, _ := database.FindFileByName("bob.vcf")
		return rec != nil
	})

	cancel()
	<-done
}

func TestDaemonRemovesDeletedCard(t *testing.T) {
	d, database, cardsDir := setupDaemon(t)

	path := writeCard(t, cardsDir, "gone.vcf", "Gone")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	waitFor(t, "initial sync", func() bool {
		rec, _ := database.FindFileByName("gone.vcf")
		return rec != nil
	})

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove card: %v", err)
	}

	waitFor(t, "card removal", func() bool {
		rec, _ := database.FindFileByName("gone.vcf")
		return rec == nil
	})

	cancel()
	<-done
}

func TestDaemonOnSyncCallback(t *testing.T) {
	d, _, cardsDir := setupDaemon(t)

	writeCard(t, cardsDir, "alice.vcf", "Alice")

	results := make(chan *sync.Result, 1)
	d.OnSync(func(r *sync.Result) {
		select {
		case results <- r:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	select {
	case r := <-results:
		if len(r.Entries) != 1 || r.Inserted != 1 {
			t.Errorf("callback result = %+v", r)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for sync callback")
	}

	cancel()
	<-done
}

func TestDaemonCardEventCallbacks(t *testing.T) {
	d, _, cardsDir := setupDaemon(t)

	synced := make(chan sync.Outcome, 4)
	removed := make(chan string, 4)
	d.OnCardSynced(func(e *sync.Entry, out sync.Outcome) {
		if e.FileName == "carol.vcf" {
			synced <- out
		}
	})
	d.OnCardRemoved(func(fileName string) {
		removed <- fileName
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	// Let the watcher get established before writing.
	time.Sleep(50 * time.Millisecond)
	path := writeCard(t, cardsDir, "carol.vcf", "Carol")

	select {
	case out := <-synced:
		if out != sync.OutcomeInserted {
			t.Errorf("outcome = %v, want inserted", out)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for card sync callback")
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove card: %v", err)
	}

	select {
	case name := <-removed:
		if name != "carol.vcf" {
			t.Errorf("removed = %q, want carol.vcf", name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for card removal callback")
	}

	cancel()
	<-done
}
