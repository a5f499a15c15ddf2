package parser

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

var (
	headerPattern = regexp.MustCompile(`^` + headerGlyph + ` (\w+): ?(.*)$`)
	fieldPattern  = regexp.MustCompile(`^` + bodyGlyph + `\s*([^\s=]+)\s*=(.*)$`)
	footerPattern = regexp.MustCompile(`^` + footerGlyph + ` @ (\S+) (\S.*):(\d+)\s*$`)
)

// MatchHeader parses a "┌ Level: message" line.
func MatchHeader(line string) (level, message string, ok bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// MatchField parses a "│ name = value" body line. The value is returned untrimmed.
func MatchField(line string) (name, value string, ok bool) {
	m := fieldPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// MatchFooter parses a "└ @ Module file:line" line.
func MatchFooter(line string) (entry.Provenance, bool) {
	m := footerPattern.FindStringSubmatch(line)
	if m == nil {
		return entry.Provenance{}, false
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return entry.Provenance{}, false
	}
	return entry.Provenance{Module: m[1], File: m[2], Line: n}, true
}

// structuredParser turns a boxed block into an entry.
type structuredParser struct {
	schema entry.Schema
	filter Filter
}

// parse handles one block whose first line is the header. The last line is
// treated as the footer; everything between is body. Any failure rejects the
// whole block.
func (p *structuredParser) parse(block []LogLine) (entry.LogEntry, error) {
	origin := entry.Origin{Source: block[0].Source, LineNum: block[0].LineNum}

	level, message, ok := MatchHeader(block[0].Content)
	if !ok {
		return entry.LogEntry{}, &Rejection{Reason: ReasonMalformedHeader, Origin: origin}
	}

	if !p.filter.AcceptMessage(message) {
		return entry.LogEntry{}, &Rejection{
			Reason: ReasonMessageFilter,
			Origin: origin,
			Detail: fmt.Sprintf("message %q does not contain %q", message, p.filter.Message),
		}
	}

	e := entry.LogEntry{
		Kind:    entry.KindStructured,
		Level:   level,
		Message: message,
		Origin:  origin,
	}

	var body []LogLine
	if len(block) > 2 {
		body = block[1 : len(block)-1]
	}

	for _, line := range body {
		name, raw, ok := MatchField(line.Content)
		if !ok {
			continue
		}
		t, declared := p.schema.Lookup(name)
		if !declared {
			continue
		}
		v, err := entry.ParseValue(t, raw)
		if err != nil {
			return entry.LogEntry{}, &Rejection{
				Reason: ReasonInvalidValue,
				Origin: origin,
				Field:  name,
				Err:    err,
			}
		}
		e.KeyValues = e.KeyValues.Set(name, v)
	}

	for _, name := range p.schema.Names() {
		if _, ok := e.KeyValues.Get(name); !ok {
			return entry.LogEntry{}, &Rejection{Reason: ReasonMissingField, Origin: origin, Field: name}
		}
	}

	if len(block) > 1 {
		if prov, ok := MatchFooter(block[len(block)-1].Content); ok {
			if !p.filter.AcceptModule(prov.Module) {
				return entry.LogEntry{}, &Rejection{
					Reason: ReasonModuleFilter,
					Origin: origin,
					Detail: fmt.Sprintf("module %q does not contain %q", prov.Module, p.filter.Module),
				}
			}
			e.Provenance = &prov
		}
	}

	return e, nil
}
