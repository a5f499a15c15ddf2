package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

// Segmenter accumulates lines into blocks and emits an entry for each block
// that parses. A block ends only when the next entry starts or input ends.
// A Segmenter handles exactly one input stream and is not safe for
// concurrent use.
type Segmenter struct {
	structured structuredParser
	single     singleParser
	logger     *zap.Logger

	buf     []LogLine
	entries []entry.LogEntry
	stats   Stats
}

// NewSegmenter creates a Segmenter for one parse.
func NewSegmenter(opts Options) *Segmenter {
	return &Segmenter{
		structured: structuredParser{schema: opts.Schema, filter: opts.Filter},
		single:     singleParser{filter: opts.Filter},
		logger:     opts.logger(),
	}
}

// Push feeds the next line. If a block is pending and line starts a new
// entry, the pending block is parsed first.
func (s *Segmenter) Push(line LogLine) {
	s.stats.Lines++
	if len(s.buf) > 0 && IsEntryStart(line.Content) {
		s.flush()
	}
	s.buf = append(s.buf, line)
}

// Flush parses any pending block. Call it once after the last Push.
func (s *Segmenter) Flush() {
	s.flush()
}

// Entries returns the entries emitted so far.
func (s *Segmenter) Entries() []entry.LogEntry {
	return s.entries
}

// Stats returns counters for the lines pushed so far.
func (s *Segmenter) Stats() Stats {
	return s.stats
}

func (s *Segmenter) flush() {
	if len(s.buf) == 0 {
		return
	}
	s.stats.Blocks++

	e, err := s.parseBlock(s.buf)
	s.buf = s.buf[:0]

	if err != nil {
		s.reject(err)
		return
	}
	s.entries = append(s.entries, e)
	s.stats.Entries++
}

func (s *Segmenter) parseBlock(block []LogLine) (entry.LogEntry, error) {
	for _, line := range block {
		if line.Truncated {
			return entry.LogEntry{}, &Rejection{
				Reason: ReasonLineTooLong,
				Origin: entry.Origin{Source: block[0].Source, LineNum: block[0].LineNum},
				Detail: fmt.Sprintf("line %d exceeds %d bytes", line.LineNum, MaxLineSize),
			}
		}
	}
	if strings.HasPrefix(block[0].Content, headerGlyph) {
		return s.structured.parse(block)
	}
	return s.single.parse(block)
}

func (s *Segmenter) reject(err error) {
	var rej *Rejection
	if !errors.As(err, &rej) {
		rej = &Rejection{Reason: ReasonUnrecognized, Err: err}
	}

	if s.stats.Rejected == nil {
		s.stats.Rejected = make(map[RejectReason]int)
	}
	s.stats.Rejected[rej.Reason]++

	s.logger.Debug("entry rejected",
		zap.String("reason", string(rej.Reason)),
		zap.String("source", rej.Origin.Source),
		zap.Int("line", rej.Origin.LineNum),
		zap.String("field", rej.Field),
		zap.String("detail", rej.Error()))
}

// ParseLogs parses lines into entries. Blocks that fail to parse, fail
// schema validation, or fail a filter are omitted; nothing else is reported.
func ParseLogs(lines []string, opts Options) []entry.LogEntry {
	seg := NewSegmenter(opts)
	for i, line := range lines {
		seg.Push(LogLine{Content: line, LineNum: i + 1})
	}
	seg.Flush()
	return seg.Entries()
}

// Parse reads src to exhaustion through a single Segmenter. Only failures to
// read src are returned as errors.
func Parse(ctx context.Context, src LineSource, opts Options) (*Result, error) {
	seg := NewSegmenter(opts)
	result := &Result{}
	seen := make(map[string]bool)

	for {
		line, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log source: %w", err)
		}

		if line.Source != "" && !seen[line.Source] {
			seen[line.Source] = true
			result.Sources = append(result.Sources, line.Source)
		}

		seg.Push(*line)
	}
	seg.Flush()

	result.Entries = seg.Entries()
	result.Stats = seg.Stats()
	return result, nil
}

// ParseFiles parses each file with its own Segmenter, concurrently, and
// concatenates the results in file order. Entries never span files.
func ParseFiles(ctx context.Context, files []string, opts Options) (*Result, error) {
	results := make([]*Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			src := NewFileSource(path)
			defer src.Close()

			r, err := Parse(gctx, src, opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Result{}
	for i, r := range results {
		merged.Entries = append(merged.Entries, r.Entries...)
		merged.Sources = append(merged.Sources, files[i])
		merged.Stats.add(r.Stats)
	}

	opts.logger().Debug("parsed log files",
		zap.Int("files", len(files)),
		zap.Int("lines", merged.Stats.Lines),
		zap.Int("entries", merged.Stats.Entries),
		zap.Int("rejected", merged.Stats.TotalRejected()))

	return merged, nil
}
