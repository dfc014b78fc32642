package text

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.lsp.dev/uri"
)

var (
	ErrEmptyPath     = errors.New("text: empty file path")
	ErrNotFileScheme = errors.New("text: uri has no file system mapping")
)

type fileIdentity struct {
	path string
	uri  uri.URI
}

// registry interns identities by canonical path, so that handles built
// independently for the same file share one pointer.
var registry sync.Map // string -> *fileIdentity

// FileRef is a cheap, comparable handle pairing a canonical file path with
// its file:// URI. The zero FileRef refers to no file.
type FileRef struct {
	id *fileIdentity
}

// NewFileRef returns the handle for path. Relative paths are made absolute.
// It panics if the path has no URI form.
func NewFileRef(path string) FileRef {
	f, err := fileRefFromPath(path)
	if err != nil {
		panic(fmt.Sprintf("bad file path %q: %v", path, err))
	}
	return f
}

// FileRefFromURI returns the handle for a file:// URI. It panics if the URI
// does not denote a local file.
func FileRefFromURI(u string) FileRef {
	f, err := ParseFileRef(u)
	if err != nil {
		panic(fmt.Sprintf("bad URI %q: %v", u, err))
	}
	return f
}

// ParseFileRef is FileRefFromURI for URIs that come from outside the
// process, reporting failure instead of panicking.
func ParseFileRef(u string) (FileRef, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return FileRef{}, fmt.Errorf("failed to parse uri: %w", err)
	}
	if parsed.Scheme != uri.FileScheme {
		return FileRef{}, fmt.Errorf("%w: %q", ErrNotFileScheme, u)
	}
	normalized, err := uri.Parse(u)
	if err != nil {
		return FileRef{}, fmt.Errorf("failed to parse uri: %w", err)
	}
	return fileRefFromPath(normalized.Filename())
}

func fileRefFromPath(path string) (FileRef, error) {
	if path == "" {
		return FileRef{}, ErrEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileRef{}, err
	}
	if id, ok := registry.Load(abs); ok {
		return FileRef{id: id.(*fileIdentity)}, nil
	}

	u := uri.File(abs)
	if back := filepath.Clean(u.Filename()); back != abs {
		return FileRef{}, fmt.Errorf("uri %s maps back to %q", u, back)
	}

	id, _ := registry.LoadOrStore(abs, &fileIdentity{path: abs, uri: u})
	return FileRef{id: id.(*fileIdentity)}, nil
}

func (f FileRef) IsZero() bool {
	return f.id == nil
}

func (f FileRef) Path() string {
	if f.id == nil {
		return ""
	}
	return f.id.path
}

func (f FileRef) URI() protocol.DocumentUri {
	if f.id == nil {
		return ""
	}
	return protocol.DocumentUri(f.id.uri)
}

// Equal compares by (path, URI) value. Interning makes it agree with ==.
func (f FileRef) Equal(other FileRef) bool {
	if f.id == other.id {
		return true
	}
	if f.id == nil || other.id == nil {
		return false
	}
	return *f.id == *other.id
}

func (f FileRef) String() string {
	return string(f.URI())
}

// FileSpan locates a byte range within a file.
type FileSpan struct {
	File FileRef
	Span Span
}

func (fs FileSpan) String() string {
	return fmt.Sprintf("%s%s", fs.File, fs.Span)
}
