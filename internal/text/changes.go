package text

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Change replaces Range with Text, or the whole document when Range is nil.
type Change struct {
	Range *protocol.Range
	Text  string
}

// Observer is called with every snapshot Apply produces.
type Observer func(next *LinedString)

// ChangesFromLSP converts the content changes decoded by glsp.
func ChangesFromLSP(raw []any) ([]Change, error) {
	changes := make([]Change, 0, len(raw))
	for _, r := range raw {
		switch c := r.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, Change{Range: c.Range, Text: c.Text})
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, Change{Text: c.Text})
		default:
			return nil, fmt.Errorf("unexpected change event type %T", r)
		}
	}
	return changes, nil
}

// ApplyChanges is Apply without an observer.
func (l *LinedString) ApplyChanges(changes []Change) (protocol.Position, *LinedString) {
	return Apply(l, changes, nil)
}

// Apply runs a batch of changes against old and returns the new snapshot
// together with the earliest position at which it differs from old.
// old is not modified.
//
// Each change is relative to the document produced by the ones before it.
// The new buffer is built front to back: unchanged text is copied from the
// uncopied remainder and replaced regions are dropped. A change that starts
// before what has already been written forces the partial output to be
// completed and used as the source for the rest of the batch.
func Apply(old *LinedString, changes []Change, observe Observer) (protocol.Position, *LinedString) {
	out := &LinedString{}
	uncopied := string(old.s)

	var first protocol.Position
	seen, whole := false, false
	for _, c := range changes {
		if c.Range == nil {
			out = NewLinedString(c.Text)
			uncopied = ""
			first = protocol.Position{}
			seen, whole = true, true
			continue
		}

		start, end := c.Range.Start, c.Range.End
		if ComparePositions(end, start) < 0 {
			end = start
		}
		if !seen || ComparePositions(start, first) < 0 {
			first = start
			seen = true
		}

		if ComparePositions(out.End(), start) > 0 {
			out.Extend(uncopied)
			uncopied = out.String()
			out = &LinedString{}
		}
		uncopied = out.ExtendUntil(uncopied, end)
		out.Truncate(start)
		out.Extend(c.Text)
	}
	out.Extend(uncopied)

	if observe != nil {
		observe(out)
	}

	switch {
	case whole:
		return protocol.Position{}, out
	case !seen:
		return out.End(), out
	}
	return firstDifference(old, out, first), out
}

// firstDifference scans old and next in lock-step from the offset of from,
// returning the position of the first differing byte in next, or next's end.
func firstDifference(old, next *LinedString, from protocol.Position) protocol.Position {
	start, ok := next.ToIdx(from)
	if !ok {
		start = 0
	}
	n := min(len(old.s), len(next.s))
	for i := min(start, n); i < n; i++ {
		if old.s[i] != next.s[i] {
			return next.ToPos(i)
		}
	}
	return next.End()
}
