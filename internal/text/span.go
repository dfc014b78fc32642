// Package text holds the line-indexed document model: byte spans, file
// identity handles and the LinedString buffer that follows a stream of
// editor change events.
package text

import (
	"fmt"
	"iter"
)

// Span is a half-open byte range [Start, End) into one buffer snapshot.
type Span struct {
	Start int
	End   int
}

// NewSpan returns the span [start, end). It panics if start > end.
func NewSpan(start, end int) Span {
	if start > end {
		panic(fmt.Sprintf("text: invalid span [%d, %d)", start, end))
	}
	return Span{Start: start, End: end}
}

// SpanAt returns the zero-width span at offset.
func SpanAt(offset int) Span {
	return Span{Start: offset, End: offset}
}

// SpanFromBounds is the inverse of Bounds.
func SpanFromBounds(bounds [2]int) Span {
	return NewSpan(bounds[0], bounds[1])
}

// Bounds returns the span as a primitive [start, end) pair.
func (s Span) Bounds() [2]int {
	return [2]int{s.Start, s.End}
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// Contains reports whether offset lies in [Start, End).
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset < s.End
}

// Offsets yields the contained offsets in ascending order.
func (s Span) Offsets() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := s.Start; i < s.End; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

// Backward yields the contained offsets in descending order.
func (s Span) Backward() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := s.End - 1; i >= s.Start; i-- {
			if !yield(i) {
				return
			}
		}
	}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}
