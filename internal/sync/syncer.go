package sync

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"vcman/internal/db"
	"vcman/internal/vcard"
)

// syncer implements the Syncer interface.
type syncer struct {
	db     *db.DB
	logger *log.Logger
}

// New creates a new Syncer instance.
//
// The database connection must be initialized and have schema created
// before passing to this function.
//
// If logger is nil, a default logger writing to stderr is used.
//
// Example:
//
//	database, err := db.Open("~/.vcman/archive.db")
//	if err != nil {
//	    return err
//	}
//	if err := database.InitSchema(); err != nil {
//	    return err
//	}
//	syncer := sync.New(database, nil)
func New(database *db.DB, logger *log.Logger) Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &syncer{
		db:     database,
		logger: logger,
	}
}

// SyncCard implements Syncer.SyncCard.
func (s *syncer) SyncCard(cardPath string) (*Entry, Outcome, error) {
	return s.syncCard(cardPath)
}

// syncCard parses and reconciles one card, reporting which branch was
// taken so FullSync can keep its counters.
func (s *syncer) syncCard(cardPath string) (*Entry, Outcome, error) {
	card, err := vcard.ParseFile(cardPath)
	if err != nil {
		return nil, OutcomeUnchanged, fmt.Errorf("failed to read card file: %w", err)
	}

	entry := &Entry{
		FileName:    filepath.Base(cardPath),
		Path:        cardPath,
		ContactName: card.FNValue(),
	}

	// No contact name to store. The card stays listed, but any stale
	// persisted name is left alone rather than overwritten with an
	// absence.
	if entry.ContactName == "" {
		s.logger.Printf("Card has empty FN, listing without sync: %s", entry.FileName)
		return entry, OutcomeUnchanged, nil
	}

	info, err := os.Stat(cardPath)
	if err != nil {
		return nil, OutcomeUnchanged, fmt.Errorf("failed to stat card file: %w", err)
	}
	mtime := info.ModTime()

	rec, err := s.db.FindFileByName(entry.FileName)
	if err != nil {
		return nil, OutcomeUnchanged, err
	}

	if rec == nil {
		fileID, err := s.db.InsertFile(entry.FileName, mtime, mtime)
		if err != nil {
			return nil, OutcomeUnchanged, err
		}
		birthday := storageTimestamp(card.Birthday)
		anniversary := storageTimestamp(card.Anniversary)
		if _, err := s.db.InsertContact(entry.ContactName, birthday, anniversary, fileID); err != nil {
			return nil, OutcomeUnchanged, err
		}
		s.logger.Printf("Synced new card: %s (%s)", entry.FileName, entry.ContactName)
		return entry, OutcomeInserted, nil
	}

	changed := false

	if !sameInstant(rec.LastModified, mtime) {
		if err := s.db.UpdateFileTimestamp(rec.FileID, mtime); err != nil {
			return nil, OutcomeUnchanged, err
		}
		changed = true
	}

	// Content drift check runs even when the timestamp matches; mtime
	// alone is an unreliable signal for out-of-band edits.
	drifted, err := s.reconcileContact(rec.FileID, card, entry.ContactName)
	if err != nil {
		return nil, OutcomeUnchanged, err
	}
	changed = changed || drifted

	if changed {
		s.logger.Printf("Synced card: %s (%s)", entry.FileName, entry.ContactName)
		return entry, OutcomeUpdated, nil
	}
	return entry, OutcomeUnchanged, nil
}

// reconcileContact aligns the CONTACT row for fileID with the card's
// current content. Returns whether a write happened.
func (s *syncer) reconcileContact(fileID int64, card *vcard.Card, name string) (bool, error) {
	contact, err := s.db.FindContactByFileID(fileID)
	if err != nil {
		return false, err
	}

	birthday := storageTimestamp(card.Birthday)
	anniversary := storageTimestamp(card.Anniversary)

	if contact == nil {
		// A FILE row without its CONTACT row should not happen, but
		// repairing it here keeps the one-to-one invariant.
		if _, err := s.db.InsertContact(name, birthday, anniversary, fileID); err != nil {
			return false, err
		}
		return true, nil
	}

	if contact.Name == name && contact.Birthday == birthday && contact.Anniversary == anniversary {
		return false, nil
	}
	if err := s.db.UpdateContactDetails(contact.ContactID, name, birthday, anniversary); err != nil {
		return false, err
	}
	return true, nil
}

// FullSync implements Syncer.FullSync.
func (s *syncer) FullSync(cardsDir string) (*Result, error) {
	s.logger.Printf("Starting full sync from %s", cardsDir)

	entries, err := os.ReadDir(cardsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cards directory: %w", err)
	}

	result := &Result{}
	for _, dirEntry := range entries {
		if dirEntry.IsDir() {
			continue
		}
		if !vcard.HasCardExtension(dirEntry.Name()) {
			continue
		}

		path := filepath.Join(cardsDir, dirEntry.Name())
		entry, out, err := s.syncCard(path)
		if err != nil {
			var verr *vcard.Error
			if errors.As(err, &verr) {
				// Unparseable cards are excluded from the listing.
				s.logger.Printf("Skipping card %s (%s): %v", dirEntry.Name(), vcard.CodeOf(err), err)
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to sync %s: %w", dirEntry.Name(), err)
		}

		result.Entries = append(result.Entries, *entry)
		switch out {
		case OutcomeInserted:
			result.Inserted++
		case OutcomeUpdated:
			result.Updated++
		default:
			result.Unchanged++
		}
	}

	s.logger.Printf("Full sync complete: listed=%d, inserted=%d, updated=%d, unchanged=%d, skipped=%d",
		len(result.Entries), result.Inserted, result.Updated, result.Unchanged, result.Skipped)

	return result, nil
}

// Remove implements Syncer.Remove.
func (s *syncer) Remove(fileName string) error {
	if err := s.db.DeleteFileByName(fileName); err != nil {
		return fmt.Errorf("failed to remove card record: %w", err)
	}

	s.logger.Printf("Removed card record: %s", fileName)
	return nil
}

// sameInstant compares timestamps at the database's second resolution.
func sameInstant(a, b time.Time) bool {
	return a.Unix() == b.Unix()
}

// storageTimestamp converts a card date-time to the database timestamp
// layout. Text values and values the layout cannot represent are stored
// as NULL (empty string here).
func storageTimestamp(dt *vcard.DateTime) string {
	if dt == nil || dt.IsText {
		return ""
	}
	d := dt.Date
	if len(d) != 8 || !allDigits(d) {
		return ""
	}
	date := d[:4] + "-" + d[4:6] + "-" + d[6:]

	t := dt.Time
	if t == "" {
		return date + " 00:00:00"
	}
	if len(t) != 6 || !allDigits(t) {
		return date + " 00:00:00"
	}
	return date + " " + t[:2] + ":" + t[2:4] + ":" + t[4:]
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
