package vcard

import "strings"

// FormatTemporal converts a raw vCard date-time token into a display
// string:
//
//	"20090808T143000Z" -> "Date: 2009/08/08 Time: 14:30:00 (UTC)"
//	"20090808T143000"  -> "Date: 2009/08/08 Time: 14:30:00"
//	"20090808"         -> "Date: 2009/08/08"
//	"circa 1960"       -> "circa 1960"
//
// Malformed numeric-looking segments pass through unchanged; the
// function never fails.
func FormatTemporal(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	utc := false
	if strings.HasSuffix(s, "Z") {
		utc = true
		s = strings.TrimSuffix(s, "Z")
	}

	if t := strings.IndexByte(s, 'T'); t >= 0 {
		result := "Date: " + formatDateSegment(s[:t]) + " Time: " + formatTimeSegment(s[t+1:])
		if utc {
			result += " (UTC)"
		}
		return result
	}

	if len(s) == 8 && allDigits(s) {
		return "Date: " + formatDateSegment(s)
	}
	return s
}

// formatDateSegment converts YYYYMMDD to YYYY/MM/DD; anything else
// passes through.
func formatDateSegment(s string) string {
	if len(s) == 8 && allDigits(s) {
		return s[0:4] + "/" + s[4:6] + "/" + s[6:8]
	}
	return s
}

// formatTimeSegment converts HHMMSS to HH:MM:SS; anything else passes
// through.
func formatTimeSegment(s string) string {
	if len(s) == 6 && allDigits(s) {
		return s[0:2] + ":" + s[2:4] + ":" + s[4:6]
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
