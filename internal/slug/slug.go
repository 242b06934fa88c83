// Package slug derives stable, human-readable identifiers from display names.
//
// The same scheme is used at creation time and when healing legacy rows, so a
// row always ends up with the identical slug no matter which path produced it.
package slug

import (
	"fmt"
	"strings"
	"unicode"
)

// Make derives a slug from a display name and a row id: lowercase, whitespace
// collapsed to single dashes, everything else non-alphanumeric stripped, with
// "-<id>" appended so two rows with identical names still get distinct slugs.
func Make(name string, id int64) string {
	base := normalize(name)
	if base == "" {
		base = "untitled"
	}
	return fmt.Sprintf("%s-%d", base, id)
}

func normalize(name string) string {
	var b strings.Builder
	lastDash := true // suppress leading dash

	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case unicode.IsSpace(r):
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
		// every other rune is stripped
	}

	return strings.TrimRight(b.String(), "-")
}
