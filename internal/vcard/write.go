package vcard

import (
	"fmt"
	"os"
	"strings"
)

// WriteFile serializes the card to path in vCard 4.0 wire format,
// overwriting any existing file. Lines are CRLF terminated and written
// unfolded, in the order BEGIN, VERSION, FN, BDAY, ANNIVERSARY, opaque
// properties, END. The write goes through a temp file and a rename so
// a failure mid-write cannot leave a truncated card behind.
func (c *Card) WriteFile(path string) error {
	if c == nil || c.FN == nil {
		return &Error{Code: WriteFailed, Path: path, Detail: "card has no FN"}
	}

	var sb strings.Builder
	sb.WriteString("BEGIN:VCARD\r\n")
	sb.WriteString("VERSION:4.0\r\n")
	sb.WriteString(c.FN.fileString())
	sb.WriteString("\r\n")

	if c.Birthday != nil {
		writeDateTime(&sb, "BDAY", c.Birthday)
	}
	if c.Anniversary != nil {
		writeDateTime(&sb, "ANNIVERSARY", c.Anniversary)
	}

	for _, p := range c.Others {
		sb.WriteString(p.fileString())
		sb.WriteString("\r\n")
	}
	sb.WriteString("END:VCARD\r\n")

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(sb.String()), 0644); err != nil {
		return &Error{Code: WriteFailed, Path: path, Detail: err.Error()}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &Error{Code: WriteFailed, Path: path, Detail: err.Error()}
	}
	return nil
}

func writeDateTime(sb *strings.Builder, name string, dt *DateTime) {
	if dt.IsText {
		fmt.Fprintf(sb, "%s;VALUE=text:%s\r\n", name, dt.Text)
		return
	}
	fmt.Fprintf(sb, "%s:%s\r\n", name, dt.Raw())
}
