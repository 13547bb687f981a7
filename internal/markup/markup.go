// Package markup splits text templates into plain and emphasized segments.
package markup

import "strings"

// DefaultDelimiter marks the start and end of the emphasized segment.
const DefaultDelimiter = '*'

// Segment is one rendering line of a template.
type Segment struct {
	Text     string
	Emphasis bool
}

// Split cuts template on every occurrence of delim. Exactly two delimiters
// yield three segments (pre, emphasized, post); any other count yields the
// whole template as a single plain segment.
func Split(template string, delim rune) []Segment {
	parts := strings.Split(template, string(delim))
	if len(parts) != 3 {
		return []Segment{{Text: template}}
	}
	return []Segment{
		{Text: parts[0]},
		{Text: parts[1], Emphasis: true},
		{Text: parts[2]},
	}
}

// HasEmphasis reports whether template carries exactly one emphasized segment.
func HasEmphasis(template string, delim rune) bool {
	return strings.Count(template, string(delim)) == 2
}
