package parser

import (
	"fmt"
	"regexp"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

var singlePattern = regexp.MustCompile(`^\s*\[\s*(\w+):\s*(.*?)\s*\]?\s*$`)

// MatchSingle parses a "[Level: message]" line; the closing bracket is optional.
func MatchSingle(line string) (level, message string, ok bool) {
	m := singlePattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// singleParser turns a one-line block into an entry.
type singleParser struct {
	filter Filter
}

// parse reads the block's first line. Continuation lines that did not start
// a new entry are ignored.
func (p *singleParser) parse(block []LogLine) (entry.LogEntry, error) {
	origin := entry.Origin{Source: block[0].Source, LineNum: block[0].LineNum}

	level, message, ok := MatchSingle(block[0].Content)
	if !ok {
		return entry.LogEntry{}, &Rejection{Reason: ReasonUnrecognized, Origin: origin}
	}

	if !p.filter.AcceptMessage(message) {
		return entry.LogEntry{}, &Rejection{
			Reason: ReasonMessageFilter,
			Origin: origin,
			Detail: fmt.Sprintf("message %q does not contain %q", message, p.filter.Message),
		}
	}

	return entry.LogEntry{
		Kind:    entry.KindSingle,
		Level:   level,
		Message: message,
		Origin:  origin,
	}, nil
}
