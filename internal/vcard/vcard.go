// Package vcard provides parsing, rendering and mutation of vCard 4.0
// contact files (.vcf / .vcard).
//
// The package implements the subset of RFC 6350 the archive needs:
//   - FN is mandatory and is the contact's display name
//   - BDAY and ANNIVERSARY are modeled as DateTime values (structured
//     date/time or free text)
//   - every other property is kept verbatim as an opaque Property
//
// Cards round-trip: ParseFile → mutate → WriteFile preserves properties
// the archive does not model.
package vcard

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a vCard processing failure.
type Code int

const (
	// OK indicates success.
	OK Code = iota
	// InvalidFile indicates the file is missing, unreadable, or has a
	// non-vCard extension.
	InvalidFile
	// InvalidCard indicates a structural violation (missing envelope,
	// wrong VERSION, missing FN).
	InvalidCard
	// InvalidProp indicates a malformed property line.
	InvalidProp
	// InvalidDateTime indicates a malformed BDAY or ANNIVERSARY value.
	InvalidDateTime
	// WriteFailed indicates serialization back to disk failed.
	WriteFailed
)

// String returns a human-readable description of the code.
func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case InvalidFile:
		return "Invalid file"
	case InvalidCard:
		return "Invalid card"
	case InvalidProp:
		return "Invalid property"
	case InvalidDateTime:
		return "Invalid date-time"
	case WriteFailed:
		return "Write error"
	default:
		return "Invalid error code"
	}
}

// Error wraps a Code with context about the failing file or line.
type Error struct {
	Code   Code
	Path   string
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Path)
}

// CodeOf extracts the Code from an error, or OK if err is nil.
// Unrecognized errors report InvalidCard.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code
	}
	return InvalidCard
}

// Parameter is a property parameter, e.g. VALUE=text.
type Parameter struct {
	Name  string
	Value string
}

// Property is a vCard content line the archive does not model structurally.
// Group is the optional group prefix ("item1" in "item1.TEL:...").
type Property struct {
	Group      string
	Name       string
	Parameters []Parameter
	Values     []string
}

// fileString renders the property in wire format:
// [group.]name[;param=value...]:value[;value...]
func (p *Property) fileString() string {
	var sb strings.Builder
	if p.Group != "" {
		sb.WriteString(p.Group)
		sb.WriteByte('.')
	}
	sb.WriteString(p.Name)
	for _, param := range p.Parameters {
		sb.WriteByte(';')
		sb.WriteString(param.Name)
		sb.WriteByte('=')
		sb.WriteString(param.Value)
	}
	sb.WriteByte(':')
	sb.WriteString(strings.Join(p.Values, ";"))
	return sb.String()
}

// displayString renders the property for human-readable card output.
func (p *Property) displayString() string {
	name := p.Name
	if p.Group != "" {
		name = p.Group + "." + name
	}
	return fmt.Sprintf("%s: %s", name, strings.Join(p.Values, ", "))
}

// DateTime is a BDAY or ANNIVERSARY value. Structured values carry Date
// (YYYYMMDD or similar) and optionally Time (HHMMSS) and a UTC marker;
// free-text values ("circa 1960") carry only Text with IsText set.
type DateTime struct {
	Date   string
	Time   string
	Text   string
	UTC    bool
	IsText bool
}

// Raw returns the wire-format value: the text for text values, otherwise
// date[Ttime][Z].
func (dt *DateTime) Raw() string {
	if dt.IsText {
		return dt.Text
	}
	s := dt.Date
	if dt.Time != "" {
		s += "T" + dt.Time
	}
	if dt.UTC {
		s += "Z"
	}
	return s
}

// Card is an in-memory vCard. FN is always present after a successful
// parse; Birthday and Anniversary are nil when absent.
type Card struct {
	FN          *Property
	Birthday    *DateTime
	Anniversary *DateTime
	Others      []*Property
}

// NewEmpty returns a minimal valid card skeleton with an empty FN,
// suitable for the create-new flow. The FN must be set before the card
// passes validation.
func NewEmpty() *Card {
	return &Card{
		FN: &Property{Name: "FN", Values: []string{""}},
	}
}

// SetFN replaces the card's formatted name in place.
func (c *Card) SetFN(value string) error {
	if c.FN == nil {
		c.FN = &Property{Name: "FN", Values: []string{value}}
		return nil
	}
	if len(c.FN.Values) == 0 {
		c.FN.Values = []string{value}
		return nil
	}
	c.FN.Values[0] = value
	return nil
}

// FNValue returns the formatted name, trimmed.
func (c *Card) FNValue() string {
	if c.FN == nil || len(c.FN.Values) == 0 {
		return ""
	}
	return strings.TrimSpace(c.FN.Values[0])
}

// Validate checks structural invariants: FN present with a value, no
// duplicate N or KIND properties, no stray VERSION/BDAY/ANNIVERSARY among
// the opaque properties, and well-formed DateTime values.
func (c *Card) Validate() error {
	if c == nil || c.FN == nil {
		return &Error{Code: InvalidCard, Detail: "missing FN"}
	}
	if c.FN.Name != "FN" || len(c.FN.Values) == 0 {
		return &Error{Code: InvalidProp, Detail: "malformed FN"}
	}
	if c.FNValue() == "" {
		return &Error{Code: InvalidProp, Detail: "empty FN"}
	}
	countN, countKind := 0, 0
	for _, p := range c.Others {
		switch p.Name {
		case "VERSION":
			return &Error{Code: InvalidCard, Detail: "duplicate VERSION"}
		case "BDAY", "ANNIVERSARY":
			return &Error{Code: InvalidDateTime, Detail: "duplicate " + p.Name}
		case "N":
			countN++
			if len(p.Values) != 5 {
				return &Error{Code: InvalidProp, Detail: "N must have 5 components"}
			}
		case "KIND":
			countKind++
		}
		if len(p.Values) == 0 {
			return &Error{Code: InvalidProp, Detail: p.Name + " has no value"}
		}
		for _, param := range p.Parameters {
			if param.Name == "" || param.Value == "" {
				return &Error{Code: InvalidProp, Detail: p.Name + " has empty parameter"}
			}
		}
	}
	if countN > 1 || countKind > 1 {
		return &Error{Code: InvalidProp, Detail: "duplicate N or KIND"}
	}
	if err := validateDateTime(c.Birthday, "BDAY"); err != nil {
		return err
	}
	return validateDateTime(c.Anniversary, "ANNIVERSARY")
}

func validateDateTime(dt *DateTime, name string) error {
	if dt == nil {
		return nil
	}
	if dt.IsText {
		if dt.Date != "" || dt.Time != "" || dt.UTC {
			return &Error{Code: InvalidDateTime, Detail: name + " mixes text and structured fields"}
		}
		return nil
	}
	if dt.Date == "" && dt.Time == "" {
		return &Error{Code: InvalidDateTime, Detail: name + " is empty"}
	}
	if dt.Text != "" {
		return &Error{Code: InvalidDateTime, Detail: name + " mixes structured and text fields"}
	}
	return nil
}

// String renders the card in the line-oriented display form consumed by
// ExtractField and the detail screen: "FN: x", "BDAY: raw",
// "ANNIVERSARY: raw", then each opaque property.
func (c *Card) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FN: %s\n", c.FNValue())
	if c.Birthday != nil {
		fmt.Fprintf(&sb, "BDAY: %s\n", c.Birthday.Raw())
	}
	if c.Anniversary != nil {
		fmt.Fprintf(&sb, "ANNIVERSARY: %s\n", c.Anniversary.Raw())
	}
	for _, p := range c.Others {
		sb.WriteString(p.displayString())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ExtractField returns the first field whose rendered line starts with
// name followed by a colon, trimmed. The match is case-sensitive. The
// second return is false when no such field exists.
func (c *Card) ExtractField(name string) (string, bool) {
	prefix := name + ":"
	for _, line := range strings.Split(c.String(), "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}

// OtherPropertyCount counts rendered lines that are not one of the
// modeled or structural properties. The detail screen shows this as
// "Other properties: N".
func (c *Card) OtherPropertyCount() int {
	skip := []string{"FN:", "BDAY:", "ANNIVERSARY:", "VERSION:", "BEGIN:", "END:"}
	count := 0
	for _, line := range strings.Split(c.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		skipped := false
		for _, prefix := range skip {
			if strings.HasPrefix(line, prefix) {
				skipped = true
				break
			}
		}
		if !skipped {
			count++
		}
	}
	return count
}
