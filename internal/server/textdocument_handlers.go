package server

import (
	"fmt"

	"mm0ls/internal/manager"
	"mm0ls/internal/text"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// resolve maps a client URI to a tracked file. Untracked documents and
// URIs without a file system path are ignored rather than reported.
func (s *Server) resolve(uri protocol.DocumentUri) (text.FileRef, bool) {
	file, err := text.ParseFileRef(uri)
	if err != nil {
		log.Debugf("ignoring %s: %s", uri, err)
		return text.FileRef{}, false
	}
	return file, s.config.Tracks(file.Path())
}

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	file, ok := s.resolve(params.TextDocument.URI)
	if !ok {
		return nil
	}
	s.manager.Open(file, params.TextDocument.Version, params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	file, ok := s.resolve(params.TextDocument.URI)
	if !ok {
		return nil
	}
	changes, err := text.ChangesFromLSP(params.ContentChanges)
	if err != nil {
		return err
	}
	if _, err := s.manager.Change(file, params.TextDocument.Version, changes); err != nil {
		return fmt.Errorf("unexpected error during edit: %w", err)
	}
	return nil
}

func (s *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	file, ok := s.resolve(params.TextDocument.URI)
	if !ok || params.Text == nil {
		return nil
	}
	_, _, err := s.manager.Sync(file, *params.Text)
	return err
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	file, ok := s.resolve(params.TextDocument.URI)
	if !ok {
		return nil
	}
	return s.manager.Close(file)
}

func logInvalidation(u manager.Update) error {
	log.Infof("%s version %d changed from %d:%d",
		u.File, u.Version, u.ChangedFrom.Line, u.ChangedFrom.Character)
	return nil
}

func logSnapshot(next *text.LinedString) {
	log.Debugf("new snapshot, %d bytes in %d lines:\n%s", next.Len(), next.NumLines()+1, next)
}
