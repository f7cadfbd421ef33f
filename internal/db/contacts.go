package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FileRecord is a row in the FILE table.
type FileRecord struct {
	FileID       int64
	FileName     string
	LastModified time.Time
	CreationTime time.Time
}

// ContactRecord is a row in the CONTACT table. Birthday and Anniversary
// are empty when NULL.
type ContactRecord struct {
	ContactID   int64
	Name        string
	Birthday    string
	Anniversary string
	FileID      int64
}

// ContactListing is one row of the all-contacts join.
type ContactListing struct {
	Name     string
	Birthday string
	FileName string
}

// BirthdayListing is one row of the born-in-month query.
type BirthdayListing struct {
	Name     string
	Birthday string
}

// FindFileByName looks up a FILE row by its file name. Returns
// (nil, nil) when no row matches.
func (db *DB) FindFileByName(name string) (*FileRecord, error) {
	return db.FindFileByNameContext(context.Background(), name)
}

// FindFileByNameContext looks up a FILE row with context support.
func (db *DB) FindFileByNameContext(ctx context.Context, name string) (*FileRecord, error) {
	query := `SELECT file_id, file_name, last_modified, creation_time FROM FILE WHERE file_name = ?`

	var rec FileRecord
	var lastModified, creationTime sql.NullString
	err := db.conn.QueryRowContext(ctx, query, name).Scan(
		&rec.FileID, &rec.FileName, &lastModified, &creationTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find file %s: %w", name, err)
	}

	rec.LastModified = ParseTime(fromNullString(lastModified))
	rec.CreationTime = ParseTime(fromNullString(creationTime))
	return &rec, nil
}

// InsertFile creates a FILE row and returns its id. Inserting a
// duplicate file_name fails on the unique constraint.
func (db *DB) InsertFile(name string, lastModified, creationTime time.Time) (int64, error) {
	return db.InsertFileContext(context.Background(), name, lastModified, creationTime)
}

// InsertFileContext creates a FILE row with context support.
func (db *DB) InsertFileContext(ctx context.Context, name string, lastModified, creationTime time.Time) (int64, error) {
	query := `INSERT INTO FILE (file_name, last_modified, creation_time) VALUES (?, ?, ?)`

	res, err := db.conn.ExecContext(ctx, query, name, FormatTime(lastModified), FormatTime(creationTime))
	if err != nil {
		return 0, fmt.Errorf("failed to insert file %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read file id for %s: %w", name, err)
	}
	return id, nil
}

// UpdateFileTimestamp advances a FILE row's last_modified column.
func (db *DB) UpdateFileTimestamp(fileID int64, lastModified time.Time) error {
	return db.UpdateFileTimestampContext(context.Background(), fileID, lastModified)
}

// UpdateFileTimestampContext updates last_modified with context support.
func (db *DB) UpdateFileTimestampContext(ctx context.Context, fileID int64, lastModified time.Time) error {
	query := `UPDATE FILE SET last_modified = ? WHERE file_id = ?`
	if _, err := db.conn.ExecContext(ctx, query, FormatTime(lastModified), fileID); err != nil {
		return fmt.Errorf("failed to update file %d timestamp: %w", fileID, err)
	}
	return nil
}

// DeleteFileByName removes a FILE row; the cascading foreign key removes
// its CONTACT row. Idempotent: deleting an absent name is not an error.
func (db *DB) DeleteFileByName(name string) error {
	return db.DeleteFileByNameContext(context.Background(), name)
}

// DeleteFileByNameContext removes a FILE row with context support.
func (db *DB) DeleteFileByNameContext(ctx context.Context, name string) error {
	query := `DELETE FROM FILE WHERE file_name = ?`
	if _, err := db.conn.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", name, err)
	}
	return nil
}

// FindContactByFileID looks up the CONTACT row owned by a FILE row.
// Returns (nil, nil) when no row matches.
func (db *DB) FindContactByFileID(fileID int64) (*ContactRecord, error) {
	return db.FindContactByFileIDContext(context.Background(), fileID)
}

// FindContactByFileIDContext looks up a CONTACT row with context support.
func (db *DB) FindContactByFileIDContext(ctx context.Context, fileID int64) (*ContactRecord, error) {
	query := `SELECT contact_id, name, birthday, anniversary, file_id FROM CONTACT WHERE file_id = ?`

	var rec ContactRecord
	var birthday, anniversary sql.NullString
	err := db.conn.QueryRowContext(ctx, query, fileID).Scan(
		&rec.ContactID, &rec.Name, &birthday, &anniversary, &rec.FileID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact for file %d: %w", fileID, err)
	}

	rec.Birthday = fromNullString(birthday)
	rec.Anniversary = fromNullString(anniversary)
	return &rec, nil
}

// InsertContact creates a CONTACT row owned by fileID and returns its
// id. Birthday and anniversary may be empty (stored as NULL).
func (db *DB) InsertContact(name, birthday, anniversary string, fileID int64) (int64, error) {
	return db.InsertContactContext(context.Background(), name, birthday, anniversary, fileID)
}

// InsertContactContext creates a CONTACT row with context support.
func (db *DB) InsertContactContext(ctx context.Context, name, birthday, anniversary string, fileID int64) (int64, error) {
	query := `INSERT INTO CONTACT (name, birthday, anniversary, file_id) VALUES (?, ?, ?, ?)`

	res, err := db.conn.ExecContext(ctx, query, name, nullString(birthday), nullString(anniversary), fileID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contact %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read contact id for %s: %w", name, err)
	}
	return id, nil
}

// UpdateContactName renames a CONTACT row by its id.
func (db *DB) UpdateContactName(contactID int64, name string) error {
	query := `UPDATE CONTACT SET name = ? WHERE contact_id = ?`
	if _, err := db.conn.Exec(query, name, contactID); err != nil {
		return fmt.Errorf("failed to update contact %d: %w", contactID, err)
	}
	return nil
}

// UpdateContactNameByFileName renames the CONTACT row owned by the FILE
// row with the given name. Used by the detail screen's save path, which
// knows the file but not the row ids.
func (db *DB) UpdateContactNameByFileName(fileName, newName string) error {
	query := `
	UPDATE CONTACT SET name = ?
	WHERE file_id = (SELECT file_id FROM FILE WHERE file_name = ?)`
	if _, err := db.conn.Exec(query, newName, fileName); err != nil {
		return fmt.Errorf("failed to update contact for file %s: %w", fileName, err)
	}
	return nil
}

// UpdateContactDetails rewrites a CONTACT row's name, birthday and
// anniversary in one statement. Used by the sync engine's drift check.
func (db *DB) UpdateContactDetails(contactID int64, name, birthday, anniversary string) error {
	query := `UPDATE CONTACT SET name = ?, birthday = ?, anniversary = ? WHERE contact_id = ?`
	if _, err := db.conn.Exec(query, name, nullString(birthday), nullString(anniversary), contactID); err != nil {
		return fmt.Errorf("failed to update contact %d details: %w", contactID, err)
	}
	return nil
}

// ListContacts returns every contact joined with its owning file,
// ordered by contact name.
func (db *DB) ListContacts() ([]ContactListing, error) {
	return db.ListContactsContext(context.Background())
}

// ListContactsContext returns the all-contacts join with context support.
func (db *DB) ListContactsContext(ctx context.Context) ([]ContactListing, error) {
	query := `
	SELECT CONTACT.name, CONTACT.birthday, FILE.file_name
	FROM CONTACT
	JOIN FILE ON CONTACT.file_id = FILE.file_id
	ORDER BY CONTACT.name`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var listings []ContactListing
	for rows.Next() {
		var l ContactListing
		var birthday sql.NullString
		if err := rows.Scan(&l.Name, &birthday, &l.FileName); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		l.Birthday = fromNullString(birthday)
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return listings, nil
}

// ListContactsBornInMonth returns contacts whose birthday falls in the
// given month (1-12), ordered by birthday. Contacts with NULL or
// free-text birthdays are excluded by the month extraction.
func (db *DB) ListContactsBornInMonth(month int) ([]BirthdayListing, error) {
	return db.ListContactsBornInMonthContext(context.Background(), month)
}

// ListContactsBornInMonthContext runs the month query with context support.
func (db *DB) ListContactsBornInMonthContext(ctx context.Context, month int) ([]BirthdayListing, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month out of range: %d", month)
	}

	query := `
	SELECT name, birthday FROM CONTACT
	WHERE birthday IS NOT NULL
	  AND CAST(strftime('%m', birthday) AS INTEGER) = ?
	ORDER BY birthday`

	rows, err := db.conn.QueryContext(ctx, query, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query birthdays: %w", err)
	}
	defer rows.Close()

	var listings []BirthdayListing
	for rows.Next() {
		var l BirthdayListing
		var birthday sql.NullString
		if err := rows.Scan(&l.Name, &birthday); err != nil {
			return nil, fmt.Errorf("failed to scan birthday row: %w", err)
		}
		l.Birthday = fromNullString(birthday)
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating birthdays: %w", err)
	}
	return listings, nil
}

// ContactExport is one row of the full export join, including the
// anniversary column the listing queries omit.
type ContactExport struct {
	FileName    string
	Name        string
	Birthday    string
	Anniversary string
}

// ListContactExports returns every contact with its owning file name
// and all optional columns, ordered by file name.
func (db *DB) ListContactExports() ([]ContactExport, error) {
	query := `
	SELECT FILE.file_name, CONTACT.name, CONTACT.birthday, CONTACT.anniversary
	FROM CONTACT
	JOIN FILE ON CONTACT.file_id = FILE.file_id
	ORDER BY FILE.file_name`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact exports: %w", err)
	}
	defer rows.Close()

	var exports []ContactExport
	for rows.Next() {
		var e ContactExport
		var birthday, anniversary sql.NullString
		if err := rows.Scan(&e.FileName, &e.Name, &birthday, &anniversary); err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		e.Birthday = fromNullString(birthday)
		e.Anniversary = fromNullString(anniversary)
		exports = append(exports, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exports: %w", err)
	}
	return exports, nil
}

// FileCount returns the number of FILE rows.
func (db *DB) FileCount() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM FILE").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}

// ContactCount returns the number of CONTACT rows.
func (db *DB) ContactCount() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM CONTACT").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

// ContactCountByFileID returns how many CONTACT rows reference a FILE
// row. The sync engine keeps this at most 1.
func (db *DB) ContactCountByFileID(fileID int64) (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM CONTACT WHERE file_id = ?", fileID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contacts for file %d: %w", fileID, err)
	}
	return count, nil
}
