package tui

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vcman/internal/config"
	"vcman/internal/vcard"
)

// setupModel builds a root model with temp paths prefilled and no
// session established yet.
func setupModel(t *testing.T) (*Model, string, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "archive.db")
	cardsDir := filepath.Join(tmpDir, "cards")
	if err := os.MkdirAll(cardsDir, 0755); err != nil {
		t.Fatalf("failed to create cards directory: %v", err)
	}

	cfg := config.Default()
	cfg.DBPath = dbPath
	cfg.CardsDir = cardsDir

	m := New(cfg, log.New(io.Discard, "", 0))
	t.Cleanup(m.closeSession)
	return m, dbPath, cardsDir
}

// connect drives the login transition.
func connect(t *testing.T, m *Model, dbPath, cardsDir string) {
	t.Helper()

	m.Update(transitionMsg{
		trigger: TriggerConnect,
		payload: loginPayload{dbPath: dbPath, cardsDir: cardsDir},
	})
	if m.current != ScreenMain {
		t.Fatalf("after connect current = %v, want main (login err: %q)", m.current, m.login.err)
	}
}

func writeCard(t *testing.T, dir, name, fn string) string {
	t.Helper()

	content := "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:" + fn + "\r\nEND:VCARD\r\n"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write card: %v", err)
	}
	return path
}

func TestConnectEstablishesSessionAndSyncs(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)

	writeCard(t, cardsDir, "alice.vcf", "Alice")
	connect(t, m, dbPath, cardsDir)

	if m.session.DB == nil || m.session.Syncer == nil {
		t.Fatal("session not established")
	}
	if len(m.main.entries) != 1 || m.main.entries[0].ContactName != "Alice" {
		t.Errorf("listing = %+v", m.main.entries)
	}

	count, err := m.session.DB.ContactCount()
	if err != nil {
		t.Fatalf("ContactCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("contact count = %d, want 1", count)
	}
}

func TestConnectWithMissingFieldsStaysOnLogin(t *testing.T) {
	m, _, _ := setupModel(t)

	m.Update(transitionMsg{
		trigger: TriggerConnect,
		payload: loginPayload{},
	})

	if m.current != ScreenLogin {
		t.Errorf("current = %v, want login", m.current)
	}
	if m.login.err == "" {
		t.Error("expected inline error on login screen")
	}
}

func TestSelectViewLoadsDetail(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)

	path := writeCard(t, cardsDir, "alice.vcf", "Alice")
	connect(t, m, dbPath, cardsDir)

	m.Update(transitionMsg{trigger: TriggerSelectView, payload: path})

	if m.current != ScreenDetail {
		t.Fatalf("current = %v, want detail", m.current)
	}
	if m.session.Selected != path {
		t.Errorf("selected = %q, want %q", m.session.Selected, path)
	}
	if m.detail.nameInput.Value() != "Alice" {
		t.Errorf("detail name = %q", m.detail.nameInput.Value())
	}
}

func TestSelectViewUnparseableCardStaysOnMain(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)
	connect(t, m, dbPath, cardsDir)

	bad := filepath.Join(cardsDir, "bad.vcf")
	if err := os.WriteFile(bad, []byte("not a card"), 0644); err != nil {
		t.Fatalf("failed to write bad card: %v", err)
	}

	m.Update(transitionMsg{trigger: TriggerSelectView, payload: bad})

	if m.current != ScreenMain {
		t.Errorf("current = %v, want main", m.current)
	}
	if m.main.err == "" {
		t.Error("expected inline error on main screen")
	}
}

func TestSaveEditUpdatesSameContactRow(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)

	path := writeCard(t, cardsDir, "alice.vcf", "Alice")
	connect(t, m, dbPath, cardsDir)

	m.Update(transitionMsg{trigger: TriggerSelectView, payload: path})
	m.Update(transitionMsg{trigger: TriggerSaveValid, payload: editPayload{newName: "Alice B."}})

	if m.current != ScreenMain {
		t.Fatalf("current = %v, want main (detail err: %q)", m.current, m.detail.err)
	}

	// The card file is rewritten.
	card, err := vcard.ParseFile(path)
	if err != nil {
		t.Fatalf("saved card does not parse: %v", err)
	}
	if card.FNValue() != "Alice B." {
		t.Errorf("FN = %q", card.FNValue())
	}

	// The same contact row is updated, not a new one inserted.
	rec, _ := m.session.DB.FindFileByName("alice.vcf")
	contact, err := m.session.DB.FindContactByFileID(rec.FileID)
	if err != nil {
		t.Fatalf("FindContactByFileID failed: %v", err)
	}
	if contact.Name != "Alice B." {
		t.Errorf("contact name = %q", contact.Name)
	}
	count, _ := m.session.DB.ContactCount()
	if count != 1 {
		t.Errorf("contact count = %d, want 1", count)
	}
}

func TestSaveInvalidStaysOnDetail(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)

	path := writeCard(t, cardsDir, "alice.vcf", "Alice")
	connect(t, m, dbPath, cardsDir)
	m.Update(transitionMsg{trigger: TriggerSelectView, payload: path})

	m.detail.err = "contact name cannot be empty"
	m.Update(transitionMsg{trigger: TriggerSaveInvalid, payload: nil})

	if m.current != ScreenDetail {
		t.Errorf("current = %v, want detail", m.current)
	}
	if m.detail.err == "" {
		t.Error("expected inline error preserved on detail screen")
	}
}

func TestCreateFlowEndToEnd(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)
	connect(t, m, dbPath, cardsDir)

	m.Update(transitionMsg{trigger: TriggerCreate, payload: nil})
	if m.current != ScreenCreate {
		t.Fatalf("current = %v, want create", m.current)
	}

	m.Update(transitionMsg{
		trigger: TriggerCreateValid,
		payload: createPayload{fileName: "alice.vcf", contactName: "Alice"},
	})
	if m.current != ScreenMain {
		t.Fatalf("current = %v, want main (create err: %q)", m.current, m.create.err)
	}

	// Exactly one FILE row and one CONTACT row with matching ids.
	rec, err := m.session.DB.FindFileByName("alice.vcf")
	if err != nil {
		t.Fatalf("FindFileByName failed: %v", err)
	}
	if rec == nil {
		t.Fatal("expected FILE row")
	}
	contact, _ := m.session.DB.FindContactByFileID(rec.FileID)
	if contact == nil || contact.Name != "Alice" {
		t.Fatalf("contact = %+v", contact)
	}

	files, _ := m.session.DB.FileCount()
	contacts, _ := m.session.DB.ContactCount()
	if files != 1 || contacts != 1 {
		t.Errorf("files=%d contacts=%d, want 1/1", files, contacts)
	}

	// The new card is in the refreshed listing.
	if len(m.main.entries) != 1 || m.main.entries[0].FileName != "alice.vcf" {
		t.Errorf("listing = %+v", m.main.entries)
	}
}

func TestCreateSubmitValidation(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)

	writeCard(t, cardsDir, "taken.vcf", "Taken")
	connect(t, m, dbPath, cardsDir)
	m.Update(transitionMsg{trigger: TriggerCreate, payload: nil})

	tests := []struct {
		fileName, contactName string
	}{
		{"", ""},
		{"notes.txt", "Bad Extension"},
		{"taken.vcf", "Duplicate"},
	}
	for _, tt := range tests {
		m.create.inputs[0].SetValue(tt.fileName)
		m.create.inputs[1].SetValue(tt.contactName)
		cmd := m.create.submit()
		msg := cmd().(transitionMsg)
		if msg.trigger != TriggerCreateInvalid {
			t.Errorf("submit(%q, %q) = trigger %d, want invalid",
				tt.fileName, tt.contactName, msg.trigger)
		}
		if m.create.err == "" {
			t.Errorf("submit(%q, %q) left no inline error", tt.fileName, tt.contactName)
		}
	}

	// A valid form emits the create trigger with its payload.
	m.create.inputs[0].SetValue("new.vcard")
	m.create.inputs[1].SetValue("New Contact")
	msg := m.create.submit()().(transitionMsg)
	if msg.trigger != TriggerCreateValid {
		t.Fatalf("valid submit = trigger %d", msg.trigger)
	}
	p := msg.payload.(createPayload)
	if p.fileName != "new.vcard" || p.contactName != "New Contact" {
		t.Errorf("payload = %+v", p)
	}
}

func TestCreateInvalidKeepsFormState(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)
	connect(t, m, dbPath, cardsDir)

	m.Update(transitionMsg{trigger: TriggerCreate, payload: nil})
	m.create.inputs[0].SetValue("notes.txt")
	m.create.inputs[1].SetValue("Bad Extension")

	// Drive the full loop: submit emits the trigger, the root model
	// applies it.
	msg := m.create.submit()().(transitionMsg)
	m.Update(msg)

	if m.current != ScreenCreate {
		t.Fatalf("current = %v, want create", m.current)
	}
	if m.create.err == "" {
		t.Error("inline error was cleared")
	}
	if got := m.create.inputs[0].Value(); got != "notes.txt" {
		t.Errorf("file name input = %q, want preserved value", got)
	}
	if got := m.create.inputs[1].Value(); got != "Bad Extension" {
		t.Errorf("contact name input = %q, want preserved value", got)
	}
}

func TestSaveInvalidKeepsDetailInput(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)

	path := writeCard(t, cardsDir, "alice.vcf", "Alice")
	connect(t, m, dbPath, cardsDir)
	m.Update(transitionMsg{trigger: TriggerSelectView, payload: path})

	m.detail.nameInput.SetValue("  ")
	m.detail.err = "contact name cannot be empty"
	m.Update(transitionMsg{trigger: TriggerSaveInvalid, payload: nil})

	if m.current != ScreenDetail {
		t.Fatalf("current = %v, want detail", m.current)
	}
	if m.detail.err == "" {
		t.Error("inline error was cleared")
	}
	if got := m.detail.nameInput.Value(); got != "  " {
		t.Errorf("name input = %q, want preserved value", got)
	}
}

func TestDetailShowsStructuredName(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)

	content := "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Jane Doe\r\n" +
		"N:Doe;Jane;;;\r\nEND:VCARD\r\n"
	path := filepath.Join(cardsDir, "jane.vcf")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write card: %v", err)
	}
	connect(t, m, dbPath, cardsDir)

	m.Update(transitionMsg{trigger: TriggerSelectView, payload: path})

	if m.detail.structuredName != "Doe, Jane" {
		t.Errorf("structured name = %q, want %q", m.detail.structuredName, "Doe, Jane")
	}
	if !strings.Contains(m.detail.View(), "Doe, Jane") {
		t.Error("detail view missing structured name")
	}
}

func TestDBViewQueries(t *testing.T) {
	m, dbPath, cardsDir := setupModel(t)

	writeCard(t, cardsDir, "alice.vcf", "Alice")
	connect(t, m, dbPath, cardsDir)

	m.Update(transitionMsg{trigger: TriggerDBView, payload: nil})
	if m.current != ScreenDBView {
		t.Fatalf("current = %v, want dbview", m.current)
	}

	m.Update(transitionMsg{trigger: TriggerQuery, payload: queryAllContacts})
	if m.current != ScreenDBView {
		t.Errorf("query moved screens: %v", m.current)
	}
	if m.dbview.table == nil || len(m.dbview.table.Rows) != 1 {
		t.Errorf("table = %+v", m.dbview.table)
	}

	m.Update(transitionMsg{trigger: TriggerBack, payload: nil})
	if m.current != ScreenMain {
		t.Errorf("current = %v, want main", m.current)
	}
}
