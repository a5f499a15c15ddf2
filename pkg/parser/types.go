// Package parser turns raw log lines into typed entries. A Segmenter groups
// lines into blocks at entry boundaries and hands each block to the
// structured (boxed) or single-line parser.
package parser

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

// LogLine is a raw log line before segmentation.
type LogLine struct {
	// Content is the raw line text.
	Content string

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int

	// Truncated is set when the line exceeded MaxLineSize and was cut.
	Truncated bool
}

// Options configures a parse. The schema and filters are fixed for its duration.
type Options struct {
	// Schema lists the body fields to extract and require.
	Schema entry.Schema

	// Filter rejects entries by message or module substring.
	Filter Filter

	// Logger receives a debug record per rejected block. Nil disables logging.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// RejectReason classifies why a block produced no entry.
type RejectReason string

const (
	// ReasonUnrecognized means the block's first line is not an entry start.
	ReasonUnrecognized RejectReason = "unrecognized"

	// ReasonMalformedHeader means a boxed block's header did not parse.
	ReasonMalformedHeader RejectReason = "malformed_header"

	// ReasonMessageFilter means the message did not contain the message filter.
	ReasonMessageFilter RejectReason = "message_filter"

	// ReasonModuleFilter means the footer module did not contain the module filter.
	ReasonModuleFilter RejectReason = "module_filter"

	// ReasonInvalidValue means a schema field failed to parse as its type.
	ReasonInvalidValue RejectReason = "invalid_value"

	// ReasonMissingField means a schema field was absent from the body.
	ReasonMissingField RejectReason = "missing_field"

	// ReasonLineTooLong means a line of the block exceeded MaxLineSize.
	ReasonLineTooLong RejectReason = "line_too_long"
)

// Rejection explains why a block was dropped. It is reported to loggers and
// counted in Stats but never returned to ParseLogs callers.
type Rejection struct {
	Reason RejectReason
	Origin entry.Origin
	Field  string
	Detail string
	Err    error
}

// Error implements error.
func (r *Rejection) Error() string {
	msg := string(r.Reason)
	if r.Field != "" {
		msg += fmt.Sprintf(" (field %s)", r.Field)
	}
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	if r.Err != nil {
		msg += ": " + r.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying parse error, if any.
func (r *Rejection) Unwrap() error {
	return r.Err
}

// Stats counts what a parse saw.
type Stats struct {
	// Lines is the number of input lines consumed.
	Lines int `json:"lines"`

	// Blocks is the number of accumulated blocks flushed to a parser.
	Blocks int `json:"blocks"`

	// Entries is the number of entries emitted.
	Entries int `json:"entries"`

	// Rejected counts dropped blocks by reason.
	Rejected map[RejectReason]int `json:"rejected,omitempty"`
}

// TotalRejected returns the number of blocks that produced no entry.
func (s Stats) TotalRejected() int {
	total := 0
	for _, n := range s.Rejected {
		total += n
	}
	return total
}

// add accumulates other into s.
func (s *Stats) add(other Stats) {
	s.Lines += other.Lines
	s.Blocks += other.Blocks
	s.Entries += other.Entries
	for reason, n := range other.Rejected {
		if s.Rejected == nil {
			s.Rejected = make(map[RejectReason]int)
		}
		s.Rejected[reason] += n
	}
}

// Result is the output of parsing one or more sources.
type Result struct {
	// Entries are the accepted entries in input order.
	Entries []entry.LogEntry

	// Sources lists the inputs that were read, in order.
	Sources []string

	Stats Stats
}
