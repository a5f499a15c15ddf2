package parser

import (
	"regexp"
	"strings"
)

// Glyphs that frame a structured entry.
const (
	headerGlyph = "┌"
	bodyGlyph   = "│"
	footerGlyph = "└"
)

var singleStartPattern = regexp.MustCompile(`^\s*\[\w+:\s`)

// IsEntryStart reports whether line opens a new entry: a structured header
// beginning with ┌, or a single-line entry beginning with "[Word: ".
func IsEntryStart(line string) bool {
	return strings.HasPrefix(line, headerGlyph) || singleStartPattern.MatchString(line)
}
