// Package export moves archive contents between the database and a
// line-oriented JSON dump, and can rebuild card files from a dump.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vcman/internal/db"
	"vcman/internal/vcard"
)

// Record is one contact in the JSONL dump.
type Record struct {
	FileName    string `json:"file_name"`
	Name        string `json:"name"`
	Birthday    string `json:"birthday,omitempty"`
	Anniversary string `json:"anniversary,omitempty"`
}

// ImportResult contains statistics about an import run.
type ImportResult struct {
	CardsWritten int
	Skipped      int
	Errors       []string
}

// ToJSONL writes every contact in the database as one JSON object per
// line. Returns the number of records written.
func ToJSONL(database *db.DB, w io.Writer) (int, error) {
	exports, err := database.ListContactExports()
	if err != nil {
		return 0, fmt.Errorf("failed to read contacts: %w", err)
	}

	encoder := json.NewEncoder(w)
	for _, e := range exports {
		rec := Record{
			FileName:    e.FileName,
			Name:        e.Name,
			Birthday:    e.Birthday,
			Anniversary: e.Anniversary,
		}
		if err := encoder.Encode(rec); err != nil {
			return 0, fmt.Errorf("failed to encode record %s: %w", e.FileName, err)
		}
	}
	return len(exports), nil
}

// WriteJSONL dumps the database to a JSONL file, written atomically via
// a temp file.
func WriteJSONL(database *db.DB, outPath string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	// #nosec G304 - controlled path from CLI
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	count, err := ToJSONL(database, file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to rename temp file: %w", err)
	}
	return count, nil
}

// FromJSONL reads a JSONL dump and returns its records.
func FromJSONL(jsonlPath string) ([]Record, error) {
	// #nosec G304 - controlled path from CLI
	file, err := os.Open(jsonlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer file.Close()

	var records []Record
	decoder := json.NewDecoder(file)
	lineNum := 0

	for {
		var rec Record
		if err := decoder.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("invalid JSON at line %d: %w", lineNum+1, err)
		}
		lineNum++
		records = append(records, rec)
	}

	return records, nil
}

// Import rebuilds card files in cardsDir from a JSONL dump. Records
// whose file already exists are skipped rather than overwritten, and a
// subsequent sync pass picks the new files up.
func Import(jsonlPath, cardsDir string) (*ImportResult, error) {
	records, err := FromJSONL(jsonlPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cardsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cards directory: %w", err)
	}

	result := &ImportResult{}
	for _, rec := range records {
		if rec.FileName == "" || rec.Name == "" {
			result.Errors = append(result.Errors,
				fmt.Sprintf("record missing file_name or name: %+v", rec))
			continue
		}
		if !vcard.HasCardExtension(rec.FileName) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("unrecognized card extension: %s", rec.FileName))
			continue
		}

		path := filepath.Join(cardsDir, rec.FileName)
		if _, err := os.Stat(path); err == nil {
			result.Skipped++
			continue
		}

		card := recordToCard(rec)
		if err := card.WriteFile(path); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to write %s: %v", rec.FileName, err))
			continue
		}
		result.CardsWritten++
	}

	return result, nil
}

// recordToCard builds a minimal card from a dump record.
func recordToCard(rec Record) *vcard.Card {
	card := vcard.NewEmpty()
	_ = card.SetFN(rec.Name)
	card.Birthday = timestampToDateTime(rec.Birthday)
	card.Anniversary = timestampToDateTime(rec.Anniversary)
	return card
}

// timestampToDateTime converts a database timestamp back to the card
// value form. Midnight collapses to a date-only value.
func timestampToDateTime(ts string) *vcard.DateTime {
	if ts == "" {
		return nil
	}

	parts := strings.SplitN(ts, " ", 2)
	date := strings.ReplaceAll(parts[0], "-", "")
	if len(date) != 8 {
		return &vcard.DateTime{Text: ts, IsText: true}
	}

	dt := &vcard.DateTime{Date: date}
	if len(parts) == 2 && parts[1] != "00:00:00" {
		dt.Time = strings.ReplaceAll(parts[1], ":", "")
	}
	return dt
}
