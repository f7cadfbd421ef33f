package vcard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeCardFile writes raw content to a card file in a temp dir and
// returns its path.
func writeCardFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write card file: %v", err)
	}
	return path
}

func validCard() string {
	return "BEGIN:VCARD\r\n" +
		"VERSION:4.0\r\n" +
		"FN:Alice Example\r\n" +
		"BDAY:20090808T143000Z\r\n" +
		"EMAIL:alice@example.com\r\n" +
		"END:VCARD\r\n"
}

func TestParseFileValid(t *testing.T) {
	path := writeCardFile(t, "alice.vcf", validCard())

	card, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if got := card.FNValue(); got != "Alice Example" {
		t.Errorf("FN = %q, want %q", got, "Alice Example")
	}
	if card.Birthday == nil {
		t.Fatal("expected birthday to be parsed")
	}
	if card.Birthday.Date != "20090808" || card.Birthday.Time != "143000" || !card.Birthday.UTC {
		t.Errorf("birthday = %+v, want date 20090808 time 143000 UTC", card.Birthday)
	}
	if got := card.Birthday.Raw(); got != "20090808T143000Z" {
		t.Errorf("birthday raw = %q, want original token", got)
	}
	if len(card.Others) != 1 || card.Others[0].Name != "EMAIL" {
		t.Errorf("others = %+v, want one EMAIL property", card.Others)
	}
}

func TestParseFileFoldedLines(t *testing.T) {
	content := "BEGIN:VCARD\r\n" +
		"VERSION:4.0\r\n" +
		"FN:Alice\r\n" +
		"NOTE:first part\r\n" +
		" second part\r\n" +
		"END:VCARD\r\n"
	path := writeCardFile(t, "folded.vcf", content)

	card, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(card.Others) != 1 {
		t.Fatalf("expected 1 other property, got %d", len(card.Others))
	}
	if got := card.Others[0].Values[0]; got != "first partsecond part" {
		t.Errorf("unfolded value = %q", got)
	}
}

func TestParseFileTextBirthday(t *testing.T) {
	content := "BEGIN:VCARD\r\n" +
		"VERSION:4.0\r\n" +
		"FN:Bob\r\n" +
		"BDAY;VALUE=text:circa 1960\r\n" +
		"END:VCARD\r\n"
	path := writeCardFile(t, "bob.vcard", content)

	card, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if card.Birthday == nil || !card.Birthday.IsText {
		t.Fatalf("birthday = %+v, want text value", card.Birthday)
	}
	if card.Birthday.Text != "circa 1960" {
		t.Errorf("birthday text = %q", card.Birthday.Text)
	}
}

func TestParseFileEmptyFN(t *testing.T) {
	content := "BEGIN:VCARD\r\n" +
		"VERSION:4.0\r\n" +
		"FN: \r\n" +
		"END:VCARD\r\n"
	path := writeCardFile(t, "blank.vcf", content)

	card, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if got := card.FNValue(); got != "" {
		t.Errorf("FN = %q, want empty", got)
	}
}

func TestParseFileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    Code
	}{
		{
			name:    "bad extension",
			file:    "alice.txt",
			content: validCard(),
			code:    InvalidFile,
		},
		{
			name:    "missing envelope",
			file:    "noenv.vcf",
			content: "VERSION:4.0\r\nFN:X\r\n",
			code:    InvalidCard,
		},
		{
			name: "wrong version",
			file: "v3.vcf",
			content: "BEGIN:VCARD\r\nVERSION:3.0\r\n" +
				"FN:X\r\nEND:VCARD\r\n",
			code: InvalidCard,
		},
		{
			name: "missing FN",
			file: "nofn.vcf",
			content: "BEGIN:VCARD\r\nVERSION:4.0\r\n" +
				"EMAIL:x@y.z\r\nEND:VCARD\r\n",
			code: InvalidCard,
		},
		{
			name: "property without colon",
			file: "nocolon.vcf",
			content: "BEGIN:VCARD\r\nVERSION:4.0\r\n" +
				"FN:X\r\nBADLINE\r\nEND:VCARD\r\n",
			code: InvalidProp,
		},
		{
			name: "empty property value",
			file: "empty.vcf",
			content: "BEGIN:VCARD\r\nVERSION:4.0\r\n" +
				"FN:X\r\nEMAIL:\r\nEND:VCARD\r\n",
			code: InvalidProp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCardFile(t, tt.file, tt.content)
			_, err := ParseFile(path)
			if err == nil {
				t.Fatal("expected parse to fail")
			}
			if got := CodeOf(err); got != tt.code {
				t.Errorf("code = %v, want %v", got, tt.code)
			}
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.vcf"))
	if CodeOf(err) != InvalidFile {
		t.Errorf("code = %v, want InvalidFile", CodeOf(err))
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := writeCardFile(t, "src.vcf", validCard())

	card, err := ParseFile(src)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	out := filepath.Join(dir, "out.vcf")
	if err := card.WriteFile(out); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"BEGIN:VCARD\r\n",
		"VERSION:4.0\r\n",
		"FN:Alice Example\r\n",
		"BDAY:20090808T143000Z\r\n",
		"EMAIL:alice@example.com\r\n",
		"END:VCARD\r\n",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("output missing %q", want)
		}
	}

	// Output must parse back to the same card.
	again, err := ParseFile(out)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if again.FNValue() != card.FNValue() {
		t.Errorf("FN changed across round trip: %q vs %q", again.FNValue(), card.FNValue())
	}
}

func TestWriteFileLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	card := NewEmpty()
	if err := card.SetFN("Dana"); err != nil {
		t.Fatalf("SetFN failed: %v", err)
	}

	path := filepath.Join(dir, "dana.vcf")
	// Write twice so the overwrite path is exercised too.
	for i := 0; i < 2; i++ {
		if err := card.WriteFile(path); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "dana.vcf" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only dana.vcf", names)
	}
}

func TestNewEmptyAndSetFN(t *testing.T) {
	card := NewEmpty()
	if err := card.Validate(); err == nil {
		t.Error("empty card should not validate until FN is set")
	}

	if err := card.SetFN("Carol"); err != nil {
		t.Fatalf("SetFN failed: %v", err)
	}
	if got := card.FNValue(); got != "Carol" {
		t.Errorf("FN = %q, want Carol", got)
	}

	path := filepath.Join(t.TempDir(), "carol.vcf")
	if err := card.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	parsed, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if parsed.FNValue() != "Carol" {
		t.Errorf("parsed FN = %q", parsed.FNValue())
	}
}

func TestExtractField(t *testing.T) {
	path := writeCardFile(t, "alice.vcf", validCard())
	card, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	fn, ok := card.ExtractField("FN")
	if !ok || fn != "Alice Example" {
		t.Errorf("ExtractField(FN) = %q, %v", fn, ok)
	}
	bday, ok := card.ExtractField("BDAY")
	if !ok || bday != "20090808T143000Z" {
		t.Errorf("ExtractField(BDAY) = %q, %v", bday, ok)
	}
	if _, ok := card.ExtractField("fn"); ok {
		t.Error("field match must be case-sensitive")
	}
	if _, ok := card.ExtractField("NICKNAME"); ok {
		t.Error("absent field must report absence")
	}
}

func TestOtherPropertyCount(t *testing.T) {
	content := "BEGIN:VCARD\r\n" +
		"VERSION:4.0\r\n" +
		"FN:Alice\r\n" +
		"EMAIL:a@b.c\r\n" +
		"TEL:555-1234\r\n" +
		"END:VCARD\r\n"
	path := writeCardFile(t, "count.vcf", content)

	card, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if got := card.OtherPropertyCount(); got != 2 {
		t.Errorf("OtherPropertyCount = %d, want 2", got)
	}
}

func TestHasCardExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"alice.vcf", true},
		{"alice.vcard", true},
		{"ALICE.VCF", true},
		{"alice.txt", false},
		{"alice", false},
	}
	for _, tt := range tests {
		if got := HasCardExtension(tt.name); got != tt.want {
			t.Errorf("HasCardExtension(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
