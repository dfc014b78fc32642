package text_test

import (
	"path/filepath"
	"strings"
	"testing"

	"mm0ls/internal/text"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func pos(line, char protocol.UInteger) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

var samples = []string{
	"",
	"abc",
	"\n",
	"abc\ndef\n",
	"\n\nx\n\ny",
	"term wff: nat;\naxiom ax_1: $ a $;\n\n  theorem foo: $ b $;",
	"héllo\nwörld\n",
}

func TestToPos(t *testing.T) {
	l := text.NewLinedString("abc\ndef\n\nx")
	tests := []struct {
		offset int
		want   protocol.Position
	}{
		{0, pos(0, 0)},
		{2, pos(0, 2)},
		{3, pos(0, 3)},
		{4, pos(1, 0)},
		{7, pos(1, 3)},
		{8, pos(2, 0)},
		{9, pos(3, 0)},
		{10, pos(3, 1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.ToPos(tt.offset), "offset %d", tt.offset)
	}
	assert.Equal(t, pos(3, 1), l.End())
	assert.Equal(t, 3, l.NumLines())
}

func TestToIdx(t *testing.T) {
	l := text.NewLinedString("abc\ndef\n")

	idx, ok := l.ToIdx(pos(0, 2))
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = l.ToIdx(pos(1, 1))
	require.True(t, ok)
	assert.Equal(t, 5, idx)

	idx, ok = l.ToIdx(pos(2, 0))
	require.True(t, ok)
	assert.Equal(t, 8, idx)

	_, ok = l.ToIdx(pos(3, 0))
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	for _, s := range samples {
		l := text.NewLinedString(s)
		for o := 0; o <= len(s); o++ {
			idx, ok := l.ToIdx(l.ToPos(o))
			require.True(t, ok, "%q offset %d", s, o)
			assert.Equal(t, o, idx, "%q offset %d", s, o)
		}
	}
}

func TestMonotonic(t *testing.T) {
	for _, s := range samples {
		l := text.NewLinedString(s)
		for o := 1; o <= len(s); o++ {
			prev, cur := l.ToPos(o-1), l.ToPos(o)
			require.LessOrEqual(t, prev.Line, cur.Line, "%q offset %d", s, o)
			if prev.Line == cur.Line {
				require.Less(t, prev.Character, cur.Character, "%q offset %d", s, o)
			}
			require.Negative(t, text.ComparePositions(prev, cur))
		}
	}
}

func TestExtendLineCount(t *testing.T) {
	l := text.NewLinedString("")
	for _, s := range samples {
		before := l.NumLines()
		l.Extend(s)
		assert.Equal(t, before+strings.Count(s, "\n"), l.NumLines())
	}
	assert.Equal(t, strings.Join(samples, ""), l.String())

	want := text.NewLinedString(strings.Join(samples, ""))
	assert.Equal(t, want.LineStarts(), l.LineStarts())
}

func TestExtendUntil(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		src      string
		target   protocol.Position
		wantText string
		wantRest string
	}{
		{
			name:     "same line",
			prefix:   "ab",
			src:      "cdef\ngh",
			target:   pos(0, 4),
			wantText: "abcd",
			wantRest: "ef\ngh",
		},
		{
			name:     "later line",
			prefix:   "ab",
			src:      "c\nde\nfgh",
			target:   pos(2, 1),
			wantText: "abc\nde\nf",
			wantRest: "gh",
		},
		{
			name:     "line start",
			prefix:   "",
			src:      "abc\ndef",
			target:   pos(1, 0),
			wantText: "abc\n",
			wantRest: "def",
		},
		{
			name:     "source exhausted",
			prefix:   "x",
			src:      "y\nz",
			target:   pos(5, 2),
			wantText: "xy\nz",
			wantRest: "",
		},
		{
			name:     "column past source",
			prefix:   "",
			src:      "ab",
			target:   pos(0, 9),
			wantText: "ab",
			wantRest: "",
		},
		{
			name:     "no-op",
			prefix:   "a\nb",
			src:      "cd",
			target:   pos(1, 1),
			wantText: "a\nb",
			wantRest: "cd",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := text.NewLinedString(tt.prefix)
			rest := l.ExtendUntil(tt.src, tt.target)
			assert.Equal(t, tt.wantText, l.String())
			assert.Equal(t, tt.wantRest, rest)
			assert.Equal(t, text.NewLinedString(tt.wantText).LineStarts(), l.LineStarts())
		})
	}
}

func TestExtendUntilBackwardPanics(t *testing.T) {
	l := text.NewLinedString("abc\nde")
	assert.Panics(t, func() { l.ExtendUntil("x", pos(0, 1)) })
}

func TestTruncate(t *testing.T) {
	l := text.NewLinedString("abc\ndef\nghi")
	l.Truncate(pos(1, 2))
	assert.Equal(t, "abc\nde", l.String())
	assert.Equal(t, []int{4}, l.LineStarts())

	l.Truncate(pos(1, 0))
	assert.Equal(t, "abc\n", l.String())
	assert.Equal(t, []int{4}, l.LineStarts())

	l.Truncate(pos(0, 1))
	assert.Equal(t, "a", l.String())
	assert.Empty(t, l.LineStarts())
}

func TestTruncateNoOp(t *testing.T) {
	tests := []protocol.Position{
		pos(7, 0),  // beyond the line count
		pos(2, 3),  // resolves exactly to the end
		pos(2, 40), // past the end of the last line
	}
	for _, p := range tests {
		l := text.NewLinedString("abc\ndef\nghi")
		l.Truncate(p)
		assert.Equal(t, "abc\ndef\nghi", l.String())
		assert.Equal(t, []int{4, 8}, l.LineStarts())
	}
}

func TestToRangeAndLoc(t *testing.T) {
	l := text.NewLinedString("term a;\nterm b;\n")
	f := text.NewFileRef(filepath.Join(t.TempDir(), "x.mm0"))

	r := l.ToRange(text.NewSpan(5, 13))
	assert.Equal(t, protocol.Range{Start: pos(0, 5), End: pos(1, 5)}, r)

	loc := l.ToLoc(text.FileSpan{File: f, Span: text.NewSpan(8, 15)})
	assert.Equal(t, f.URI(), loc.URI)
	assert.Equal(t, protocol.Range{Start: pos(1, 0), End: pos(1, 7)}, loc.Range)
}

func TestSlice(t *testing.T) {
	l := text.NewLinedString("héllo\n")

	got, err := l.Slice(text.NewSpan(0, 3))
	require.NoError(t, err)
	assert.Equal(t, "hé", got)

	_, err = l.Slice(text.NewSpan(0, 2))
	require.ErrorIs(t, err, text.ErrSpanSplitsRune)

	_, err = l.Slice(text.NewSpan(4, 40))
	require.ErrorIs(t, err, text.ErrSpanOutOfRange)

	got, err = l.Slice(text.SpanAt(l.Len()))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClone(t *testing.T) {
	l := text.NewLinedString("a\nb")
	c := l.Clone()
	c.Extend("\nc")
	assert.Equal(t, "a\nb", l.String())
	assert.Equal(t, 1, l.NumLines())
	assert.Equal(t, 2, c.NumLines())
}
