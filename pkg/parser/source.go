package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// MaxLineSize bounds a single line read from a file. Longer lines are cut
// at this size and marked Truncated; the rest of the line is discarded.
const MaxLineSize = 1024 * 1024

// FileSource implements LineSource for a single log file. The file is opened
// lazily on the first call to Next.
type FileSource struct {
	path string

	file    *os.File
	reader  *bufio.Reader
	lineNum int
	done    bool
}

// NewFileSource creates a LineSource that reads the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Next returns the next line of the file.
// Returns io.EOF when the file has been exhausted.
func (s *FileSource) Next(ctx context.Context) (*LogLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if s.done {
		return nil, io.EOF
	}

	if s.reader == nil {
		if err := s.open(); err != nil {
			return nil, err
		}
	}

	content, truncated, err := s.readLine()
	if err == io.EOF {
		s.done = true
		if err := s.Close(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	s.lineNum++
	return &LogLine{
		Content:   content,
		Source:    s.path,
		LineNum:   s.lineNum,
		Truncated: truncated,
	}, nil
}

// readLine returns the next physical line without its line ending, keeping
// at most MaxLineSize bytes of it.
func (s *FileSource) readLine() (string, bool, error) {
	var line []byte
	truncated := false
	started := false

	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			if err == io.EOF && started {
				break
			}
			return "", false, err
		}
		started = true

		if room := MaxLineSize - len(line); len(chunk) > room {
			chunk = chunk[:room]
			truncated = true
		}
		line = append(line, chunk...)

		if !isPrefix {
			break
		}
	}
	return string(line), truncated, nil
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *FileSource) open() error {
	f, err := os.Open(s.path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", s.path, err)
	}

	s.file = f
	s.reader = bufio.NewReaderSize(f, 64*1024)
	return nil
}

// SliceSource implements LineSource over lines already in memory.
type SliceSource struct {
	name  string
	lines []string
	pos   int
}

// NewSliceSource creates a LineSource over lines, reported under name.
func NewSliceSource(name string, lines []string) *SliceSource {
	return &SliceSource{name: name, lines: lines}
}

// Next returns the next line, or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (*LogLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if s.pos >= len(s.lines) {
		return nil, io.EOF
	}
	s.pos++
	return &LogLine{
		Content: s.lines[s.pos-1],
		Source:  s.name,
		LineNum: s.pos,
	}, nil
}

// Close is a no-op.
func (s *SliceSource) Close() error {
	return nil
}
