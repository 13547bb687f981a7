package export

import (
	"strings"
	"unicode/utf16"
)

const (
	// ImageExtension is appended to every derived image name.
	ImageExtension = ".png"
	// ArchiveName is the default name of the downloadable archive.
	ArchiveName = "formatted_texts.zip"

	maxNameLength = 50
)

// FileName derives an archive entry name from a row template: every character
// outside [A-Za-z0-9] becomes "_" and the result is cut to 50 characters.
// Characters outside the Basic Multilingual Plane count as two, matching how
// browsers measure strings.
func FileName(template string) string {
	var b strings.Builder
	b.Grow(len(template))

	for _, r := range template {
		if isAlnum(r) {
			b.WriteRune(r)
			continue
		}
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		b.WriteString(strings.Repeat("_", n))
	}

	name := b.String()
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name + ImageExtension
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
