package text

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

var (
	ErrSpanOutOfRange = errors.New("text: span out of range")
	ErrSpanSplitsRune = errors.New("text: span boundary splits a character")
)

// LinedString is a text buffer with an index of line starts.
//
// lines[k] is the offset just past the (k+1)-th newline, so line 0 starts
// at offset 0 implicitly and len(lines) equals the number of newlines.
// Positions use byte columns: Character is the byte distance from the start
// of the line, not a UTF-16 count.
//
// A LinedString that has been handed out as a snapshot must not be
// mutated; ApplyChanges always builds a new one.
type LinedString struct {
	s     []byte
	lines []int
}

func NewLinedString(text string) *LinedString {
	l := &LinedString{}
	l.Extend(text)
	return l
}

func (l *LinedString) String() string {
	return string(l.s)
}

// Len returns the content length in bytes.
func (l *LinedString) Len() int {
	return len(l.s)
}

// NumLines returns the number of newlines in the content.
func (l *LinedString) NumLines() int {
	return len(l.lines)
}

// LineStarts returns a copy of the line start index.
func (l *LinedString) LineStarts() []int {
	return slices.Clone(l.lines)
}

func (l *LinedString) Clone() *LinedString {
	return &LinedString{s: slices.Clone(l.s), lines: slices.Clone(l.lines)}
}

// ToPos converts a byte offset into a position.
func (l *LinedString) ToPos(idx int) protocol.Position {
	n, found := slices.BinarySearch(l.lines, idx)
	if found {
		return protocol.Position{Line: protocol.UInteger(n + 1)}
	}
	start := 0
	if n > 0 {
		start = l.lines[n-1]
	}
	return protocol.Position{
		Line:      protocol.UInteger(n),
		Character: protocol.UInteger(idx - start),
	}
}

// ToIdx converts a position into a byte offset. It reports false when the
// position lies on a line the buffer does not have.
func (l *LinedString) ToIdx(pos protocol.Position) (int, bool) {
	if pos.Line == 0 {
		return int(pos.Character), true
	}
	n := int(pos.Line) - 1
	if n >= len(l.lines) {
		return 0, false
	}
	return l.lines[n] + int(pos.Character), true
}

func (l *LinedString) ToRange(s Span) protocol.Range {
	return protocol.Range{Start: l.ToPos(s.Start), End: l.ToPos(s.End)}
}

func (l *LinedString) ToLoc(fs FileSpan) protocol.Location {
	return protocol.Location{URI: fs.File.URI(), Range: l.ToRange(fs.Span)}
}

// End returns the position just past the last byte.
func (l *LinedString) End() protocol.Position {
	return l.ToPos(len(l.s))
}

// Slice returns the text covered by s. Spans are expected to come from
// token or line boundaries; anything else is reported as an error.
func (l *LinedString) Slice(s Span) (string, error) {
	if s.Start < 0 || s.Start > s.End || s.End > len(l.s) {
		return "", fmt.Errorf("%w: %s in %d bytes", ErrSpanOutOfRange, s, len(l.s))
	}
	if !l.isBoundary(s.Start) || !l.isBoundary(s.End) {
		return "", fmt.Errorf("%w: %s", ErrSpanSplitsRune, s)
	}
	return string(l.s[s.Start:s.End]), nil
}

func (l *LinedString) isBoundary(idx int) bool {
	return idx == len(l.s) || utf8.RuneStart(l.s[idx])
}

// Extend appends text, indexing the newlines it contains.
func (l *LinedString) Extend(text string) {
	base := len(l.s)
	l.s = append(l.s, text...)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			l.lines = append(l.lines, base+i+1)
		}
	}
}

// ExtendUntil appends the prefix of src that moves End() to pos and returns
// the rest of src. If src runs out first, all of it is appended.
// pos must not precede End().
func (l *LinedString) ExtendUntil(src string, pos protocol.Position) string {
	end := l.End()
	if ComparePositions(end, pos) > 0 {
		panic(fmt.Sprintf("text: ExtendUntil target %d:%d precedes end %d:%d",
			pos.Line, pos.Character, end.Line, end.Character))
	}

	var off int
	tail := src
	if pos.Line == end.Line {
		off = int(pos.Character - end.Character)
	} else {
		off = int(pos.Character)
		need := int(pos.Line - end.Line)
		cut := len(src)
		for i := 0; i < len(src); i++ {
			if src[i] != '\n' {
				continue
			}
			if need--; need == 0 {
				cut = i + 1
				break
			}
		}
		l.Extend(src[:cut])
		tail = src[cut:]
	}

	off = min(off, len(tail))
	l.Extend(tail[:off])
	return tail[off:]
}

// Truncate cuts the buffer back to pos. Positions that do not resolve to an
// offset strictly inside the content leave the buffer unchanged.
func (l *LinedString) Truncate(pos protocol.Position) {
	idx, ok := l.ToIdx(pos)
	if !ok || idx >= len(l.s) {
		return
	}
	l.s = l.s[:idx]
	keep, _ := slices.BinarySearch(l.lines, idx+1)
	l.lines = l.lines[:keep]
}

// ComparePositions orders positions by line, then character.
func ComparePositions(a, b protocol.Position) int {
	switch {
	case a.Line < b.Line:
		return -1
	case a.Line > b.Line:
		return 1
	case a.Character < b.Character:
		return -1
	case a.Character > b.Character:
		return 1
	}
	return 0
}
