package vcard

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// recognized card file extensions. File names must end in one of these
// for both parsing and the create flow.
var cardExtensions = []string{".vcf", ".vcard"}

// HasCardExtension reports whether name ends in a recognized card
// extension, case-insensitively.
func HasCardExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range cardExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ParseFile reads and parses a vCard file.
//
// The file must have a recognized extension, start with BEGIN:VCARD, end
// with END:VCARD, declare VERSION:4.0, and contain an FN property.
// Folded lines (continuation lines starting with space or tab) are
// unfolded before parsing. A UTF-8 BOM is tolerated.
func ParseFile(path string) (*Card, error) {
	if path == "" {
		return nil, &Error{Code: InvalidFile, Path: path, Detail: "empty path"}
	}
	if ext := filepath.Ext(path); ext != ".vcf" && ext != ".vcard" {
		return nil, &Error{Code: InvalidFile, Path: path, Detail: "unrecognized extension"}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Code: InvalidFile, Path: path, Detail: err.Error()}
	}
	defer f.Close()

	lines, err := readLogicalLines(f, path)
	if err != nil {
		return nil, err
	}

	if len(lines) < 2 || lines[0] != "BEGIN:VCARD" || lines[len(lines)-1] != "END:VCARD" {
		return nil, &Error{Code: InvalidCard, Path: path, Detail: "missing BEGIN/END envelope"}
	}

	card := &Card{}
	versionFound := false

	for _, line := range lines[1 : len(lines)-1] {
		if line == "" {
			continue
		}
		prop, err := parseProperty(line, path)
		if err != nil {
			return nil, err
		}

		switch prop.Name {
		case "BEGIN", "END":
			// Stray envelope lines are dropped.
		case "VERSION":
			if len(prop.Values) == 0 || prop.Values[0] != "4.0" {
				return nil, &Error{Code: InvalidCard, Path: path, Detail: "unsupported VERSION"}
			}
			versionFound = true
		case "FN":
			if card.FN != nil {
				card.Others = append(card.Others, prop)
			} else {
				card.FN = prop
			}
		case "BDAY":
			card.Birthday = parseDateTime(prop)
		case "ANNIVERSARY":
			card.Anniversary = parseDateTime(prop)
		default:
			card.Others = append(card.Others, prop)
		}
	}

	if !versionFound || card.FN == nil {
		return nil, &Error{Code: InvalidCard, Path: path, Detail: "missing VERSION or FN"}
	}

	return card, nil
}

// readLogicalLines reads the file into unfolded logical lines. Lines are
// CRLF or LF terminated; continuation lines start with space or tab and
// are appended, stripped of leading whitespace, to the preceding line.
func readLogicalLines(f *os.File, path string) ([]string, error) {
	var lines []string
	current := ""
	haveCurrent := false

	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}

		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if !haveCurrent {
				return nil, &Error{Code: InvalidProp, Path: path, Detail: "continuation line with no preceding property"}
			}
			current += strings.TrimLeft(line, " \t")
			continue
		}

		if haveCurrent {
			lines = append(lines, current)
		}
		current = line
		haveCurrent = true
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Code: InvalidFile, Path: path, Detail: err.Error()}
	}
	if haveCurrent {
		lines = append(lines, current)
	}
	return lines, nil
}

// parseProperty splits a logical line into group, name, parameters and
// values. The value part must be non-empty, with one exception: FN may
// be present with a blank value, in which case the card is listed but
// never persisted.
func parseProperty(line, path string) (*Property, error) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return nil, &Error{Code: InvalidProp, Path: path, Detail: "property line without colon"}
	}
	left := strings.TrimSpace(line[:colon])
	right := strings.TrimSpace(line[colon+1:])

	tokens := strings.Split(left, ";")
	head := strings.TrimSpace(tokens[0])
	if head == "" {
		return nil, &Error{Code: InvalidProp, Path: path, Detail: "property without name"}
	}

	prop := &Property{}
	if dot := strings.IndexByte(head, '.'); dot >= 0 {
		prop.Group = head[:dot]
		prop.Name = strings.TrimSpace(head[dot+1:])
	} else {
		prop.Name = head
	}

	if right == "" && prop.Name != "FN" {
		return nil, &Error{Code: InvalidProp, Path: path, Detail: "property with empty value"}
	}

	for _, token := range tokens[1:] {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		eq := strings.IndexByte(token, '=')
		if eq < 0 {
			return nil, &Error{Code: InvalidProp, Path: path, Detail: "parameter without '='"}
		}
		name := strings.TrimSpace(token[:eq])
		value := strings.TrimSpace(token[eq+1:])
		if name == "" || value == "" {
			return nil, &Error{Code: InvalidProp, Path: path, Detail: "empty parameter name or value"}
		}
		prop.Parameters = append(prop.Parameters, Parameter{Name: name, Value: value})
	}

	// N is a composite value split on semicolons; everything else keeps
	// the raw value as a single element.
	if prop.Name == "N" {
		prop.Values = strings.Split(right, ";")
	} else {
		prop.Values = []string{right}
	}

	return prop, nil
}

// parseDateTime interprets a BDAY/ANNIVERSARY property value. A
// VALUE=text parameter forces text; otherwise a 'T' separates date and
// time, a trailing 'Z' marks UTC, and values containing letters with no
// structure fall back to text.
func parseDateTime(prop *Property) *DateTime {
	raw := ""
	if len(prop.Values) > 0 {
		raw = prop.Values[0]
	}

	for _, param := range prop.Parameters {
		if param.Name == "VALUE" && param.Value == "text" {
			return &DateTime{IsText: true, Text: raw}
		}
	}

	dt := &DateTime{}
	value := raw
	if strings.HasSuffix(value, "Z") {
		dt.UTC = true
		value = strings.TrimSuffix(value, "Z")
	}

	if t := strings.IndexByte(value, 'T'); t >= 0 {
		dt.Date = value[:t]
		dt.Time = value[t+1:]
		return dt
	}
	if len(value) == 10 || !containsAlpha(value) {
		dt.Date = value
		return dt
	}
	return &DateTime{IsText: true, Text: raw}
}

func containsAlpha(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
