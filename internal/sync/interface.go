// Package sync reconciles a directory of vCard files with the SQLite
// archive database.
package sync

// Entry is one card offered in the synchronized listing. A card appears
// here only if it parsed successfully; ContactName may still be empty
// when the card's FN has no usable value.
type Entry struct {
	// FileName is the base name of the card file.
	FileName string
	// Path is the absolute or directory-relative path the card was
	// loaded from.
	Path string
	// ContactName is the FN value extracted from the card.
	ContactName string
}

// Outcome classifies what a single-card reconcile did to the database.
type Outcome int

const (
	// OutcomeInserted means new FILE and CONTACT rows were created.
	OutcomeInserted Outcome = iota
	// OutcomeUpdated means the timestamp advanced or content drift was
	// corrected.
	OutcomeUpdated
	// OutcomeUnchanged means no write happened.
	OutcomeUnchanged
)

// Result summarizes one full synchronization pass.
//
// The counters account for every candidate file in the directory:
// Inserted + Updated + Unchanged + Skipped equals the number of files
// with a recognized card extension. Entries holds the visible listing,
// which excludes skipped files.
type Result struct {
	Entries   []Entry
	Inserted  int
	Updated   int
	Unchanged int
	Skipped   int
}

// Syncer keeps the archive database in sync with the card directory.
//
// The syncer reads card files from disk, validates them, and updates
// the FILE and CONTACT tables accordingly. It handles both incremental
// sync (single file changes) and full sync (all files in a directory).
//
// The syncer follows a minimal-write policy: rows are written only when
// a file is new, its timestamp advanced, or its content drifted from
// the persisted contact. Running a pass twice with no intervening file
// changes produces zero writes on the second pass.
//
// The syncer is designed to be resilient - individual file failures do
// not stop a full pass. Unparseable cards are logged and excluded from
// the listing.
type Syncer interface {
	// SyncCard reconciles a single card file with the database.
	//
	// The card is parsed and its FILE row looked up by base name:
	//
	//   - no row: a FILE row and a CONTACT row are inserted
	//   - row present, timestamp unchanged: the CONTACT row is checked
	//     for content drift and corrected if needed
	//   - row present, timestamp changed: last_modified is advanced and
	//     the same drift check applies
	//
	// A card whose FN is empty stays visible in the listing but never
	// triggers a database write; the previously persisted name, if any,
	// is left untouched.
	//
	// Returns the listing entry for the card and which of the branches
	// above was taken, or an error if the card cannot be parsed or a
	// database operation fails.
	//
	// Example:
	//   entry, out, err := syncer.SyncCard("/path/to/cards/alice.vcf")
	SyncCard(cardPath string) (*Entry, Outcome, error)

	// FullSync reconciles every card in cardsDir with the database.
	//
	// Files without a recognized card extension are ignored. Cards that
	// fail to parse are logged, counted as Skipped, and excluded from
	// the listing; they never abort the pass. The function returns an
	// error only if the directory cannot be read or a database
	// operation fails.
	//
	// Example:
	//   result, err := syncer.FullSync("/path/to/cards")
	FullSync(cardsDir string) (*Result, error)

	// Remove deletes the FILE row for a card file name. The cascading
	// foreign key removes the CONTACT row with it.
	//
	// This should be called when a card file is deleted from disk.
	// Removing an unknown name is not an error (idempotent).
	//
	// Example:
	//   err := syncer.Remove("alice.vcf")
	Remove(fileName string) error
}
