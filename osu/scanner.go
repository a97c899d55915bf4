package osu

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LineReader supplies one logical text line per call, without the line
// terminator. It returns io.EOF once the source is exhausted; any other
// error aborts the decode as an I/O failure.
type LineReader interface {
	ReadLine() (string, error)
}

type scanState uint8

const (
	scanAwaiting scanState = iota // reading content, no header latched
	scanSection                   // a [Section] header is latched in section
	scanDone                      // source exhausted; permanent
)

// scanner filters the raw line stream: blank lines and // comments
// disappear, a [Section] header is latched instead of yielded, and
// exhaustion is remembered so every later call stops cleanly even when
// the source ran out mid-section.
type scanner struct {
	src     LineReader
	state   scanState
	section string // pending name, valid while state == scanSection
}

// nextContent returns the next trimmed content line. ok is false when the
// call produced no content: either a section header was latched or the
// source is done. Callers tell the two apart through nextSection.
func (s *scanner) nextContent() (string, bool, error) {
	if s.state == scanDone {
		return "", false, nil
	}
	for {
		raw, err := s.src.ReadLine()
		if err == io.EOF {
			s.state = scanDone
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("osu: read line: %w", err)
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			s.section = strings.TrimSpace(strings.Trim(line, "[]"))
			s.state = scanSection
			return "", false, nil
		}
		return line, true, nil
	}
}

// nextSection returns the following section name. ok is false at the clean
// end of input. Content where a header belongs is an error, as is running
// out of input before the first header.
func (s *scanner) nextSection() (string, bool, error) {
	if s.state == scanDone {
		return "", false, nil
	}
	if s.state != scanSection {
		line, ok, err := s.nextContent()
		if err != nil {
			return "", false, err
		}
		if ok {
			return "", false, fmt.Errorf("%w: %q", ErrFieldOutsideSection, line)
		}
	}
	if s.state != scanSection {
		return "", false, ErrExpectedSection
	}
	name := s.section
	s.section = ""
	s.state = scanAwaiting
	return name, true, nil
}

// nextKeyValue returns the next Key: Value pair of the current section,
// both sides trimmed, splitting on the first colon only. ok is false once
// the section ends. A content line without a colon is malformed.
func (s *scanner) nextKeyValue() (key, value string, ok bool, err error) {
	line, ok, err := s.nextContent()
	if err != nil || !ok {
		return "", "", false, err
	}
	i := strings.Index(line, ":")
	if i < 0 {
		return "", "", false, fmt.Errorf("%w: %q", ErrMalformedField, line)
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true, nil
}

// ---------- token coercion ----------

func parseUint32(field, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidNumber, field, s)
	}
	return uint32(v), nil
}

func parseUint64(field, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidNumber, field, s)
	}
	return v, nil
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidNumber, field, s)
	}
	return v, nil
}

// parseBool accepts exactly "0" and "1".
func parseBool(field, s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("%w: %s %q", ErrInvalidBool, field, s)
}

// trimQuotes strips wrapping quote characters from a path token. No other
// escape handling is done.
func trimQuotes(s string) string {
	return strings.Trim(s, "\"")
}
