package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength caps URL paths in logs.
	MaxPathLength = 500
	// MaxOwnerIDLength caps owner ids in logs.
	MaxOwnerIDLength = 128
	// MaxGeneralStringLength caps general strings in logs.
	MaxGeneralStringLength = 2000
)

// SanitizePath makes a URL path safe for a log field: control
// characters stripped, UTF-8 validated, length capped.
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeOwnerID makes an owner id safe for a log field.
func SanitizeOwnerID(ownerID string) string {
	return SanitizeString(ownerID, MaxOwnerIDLength)
}

// SanitizeString strips control characters, validates UTF-8, and
// truncates to maxLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = filterRunes(s)
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}

func filterRunes(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
