// Package sitteradapter translates document snapshots and their change
// positions into tree-sitter edits.
package sitteradapter

import (
	"mm0ls/internal/text"

	sitter "github.com/smacker/go-tree-sitter"
	lsp "github.com/tliron/glsp/protocol_3_16"
)

// PositionToPoint converts an LSP position to a tree-sitter point. Both use
// byte columns, so this is a field copy.
func PositionToPoint(pos lsp.Position) sitter.Point {
	return sitter.Point{Row: pos.Line, Column: pos.Character}
}

// PointToPosition is the inverse of PositionToPoint.
func PointToPosition(pt sitter.Point) lsp.Position {
	return lsp.Position{Line: pt.Row, Character: pt.Column}
}

// BatchEdit describes the whole batch that turned old into next as one
// tree-sitter edit: everything from changedFrom to the end of the document
// is treated as replaced.
func BatchEdit(old, next *text.LinedString, changedFrom lsp.Position) sitter.EditInput {
	start, ok := next.ToIdx(changedFrom)
	if !ok || start > next.Len() || start > old.Len() {
		start = min(old.Len(), next.Len())
		changedFrom = next.ToPos(start)
	}

	return sitter.EditInput{
		StartIndex:  uint32(start),
		OldEndIndex: uint32(old.Len()),
		NewEndIndex: uint32(next.Len()),
		StartPoint:  PositionToPoint(changedFrom),
		OldEndPoint: PositionToPoint(old.End()),
		NewEndPoint: PositionToPoint(next.End()),
	}
}
