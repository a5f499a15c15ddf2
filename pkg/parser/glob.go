package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandGlobs resolves log source patterns to a sorted, deduplicated list of
// regular files. Patterns use doublestar syntax, so ** crosses directories.
// A pattern prefixed with ! removes matching paths from the result,
// whichever position it has in the list.
//
// A pattern that matches nothing is kept literally so that opening it later
// fails with the name the user wrote.
func ExpandGlobs(patterns []string) ([]string, error) {
	var include, exclude []string
	for _, p := range patterns {
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			if !doublestar.ValidatePathPattern(rest) {
				return nil, fmt.Errorf("invalid exclude pattern %q: %w", rest, doublestar.ErrBadPattern)
			}
			exclude = append(exclude, rest)
			continue
		}
		include = append(include, p)
	}

	seen := make(map[string]bool)
	for _, p := range include {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			matches = []string{p}
		}
		for _, m := range matches {
			seen[m] = true
		}
	}

	result := make([]string, 0, len(seen))
	for path := range seen {
		if !excluded(path, exclude) {
			result = append(result, path)
		}
	}
	sort.Strings(result)
	return result, nil
}

func excluded(path string, patterns []string) bool {
	for _, p := range patterns {
		// Patterns were validated above.
		if ok, _ := doublestar.PathMatch(p, path); ok {
			return true
		}
	}
	return false
}
