// Package manager keeps one line-indexed snapshot per open document and
// hands every new snapshot to an Invalidator.
package manager

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"mm0ls/internal/scheduler"
	"mm0ls/internal/sitteradapter"
	"mm0ls/internal/text"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var (
	ErrNotOpen      = errors.New("manager: document not open")
	ErrStaleVersion = errors.New("manager: stale document version")
)

var log = commonlog.GetLogger("mm0ls.manager")

// Update describes one transition of a document. ChangedFrom is the first
// position at which Snapshot differs from Previous.
type Update struct {
	File        text.FileRef
	Version     protocol.Integer
	ChangedFrom protocol.Position
	Edit        sitter.EditInput
	Previous    *text.LinedString
	Snapshot    *text.LinedString
}

// Invalidator consumes updates, e.g. to discard analysis past ChangedFrom.
type Invalidator interface {
	Invalidate(u Update) error
}

type InvalidatorFunc func(u Update) error

func (f InvalidatorFunc) Invalidate(u Update) error {
	return f(u)
}

type document struct {
	mu      sync.Mutex
	version protocol.Integer
	text    *text.LinedString
}

// DocumentManager owns the snapshots of all open documents. Changes to one
// document are serialized; different documents proceed independently.
type DocumentManager struct {
	mu   sync.Mutex
	docs map[text.FileRef]*document

	scheduler   *scheduler.Scheduler
	invalidator Invalidator
	observer    text.Observer

	pendingMu sync.Mutex
	pending   map[text.FileRef]Update
}

type Option func(*DocumentManager)

// WithInvalidator sets the consumer of updates.
func WithInvalidator(inv Invalidator) Option {
	return func(dm *DocumentManager) { dm.invalidator = inv }
}

// WithObserver installs a hook that sees every snapshot built from a batch
// of changes.
func WithObserver(obs text.Observer) Option {
	return func(dm *DocumentManager) { dm.observer = obs }
}

// WithScheduler runs invalidations on s instead of inline.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(dm *DocumentManager) { dm.scheduler = s }
}

// NewDocumentManager creates an initialized DocumentManager.
func NewDocumentManager(opts ...Option) *DocumentManager {
	dm := &DocumentManager{
		docs:    make(map[text.FileRef]*document),
		pending: make(map[text.FileRef]Update),
	}
	for _, opt := range opts {
		opt(dm)
	}
	return dm
}

// Open starts tracking file with the given content, replacing any snapshot
// already held for it.
func (dm *DocumentManager) Open(file text.FileRef, version protocol.Integer, content string) Update {
	empty := text.NewLinedString("")
	from, snapshot := text.Apply(empty, []text.Change{{Text: content}}, dm.observer)

	dm.mu.Lock()
	dm.docs[file] = &document{version: version, text: snapshot}
	dm.mu.Unlock()

	// Versions restart with a new session; nothing queued before it applies.
	dm.pendingMu.Lock()
	delete(dm.pending, file)
	dm.pendingMu.Unlock()

	u := Update{
		File:        file,
		Version:     version,
		ChangedFrom: from,
		Edit:        sitteradapter.BatchEdit(empty, snapshot, from),
		Previous:    empty,
		Snapshot:    snapshot,
	}
	log.Infof("opened %s (version %d, %d lines)", file, version, snapshot.NumLines())
	dm.invalidate(u)
	return u
}

// Change applies a batch of content changes. Versions must increase; a
// batch that is not newer than the held snapshot is rejected.
func (dm *DocumentManager) Change(
	file text.FileRef,
	version protocol.Integer,
	changes []text.Change,
) (Update, error) {
	doc, err := dm.lookup(file)
	if err != nil {
		return Update{}, err
	}

	doc.mu.Lock()
	if version <= doc.version {
		current := doc.version
		doc.mu.Unlock()
		return Update{}, fmt.Errorf("%w: %s has version %d, got %d", ErrStaleVersion, file, current, version)
	}
	u := dm.apply(file, doc, version, changes)
	doc.mu.Unlock()

	dm.invalidate(u)
	log.Debugf("changed %s to version %d from %d:%d",
		file, version, u.ChangedFrom.Line, u.ChangedFrom.Character)
	return u, nil
}

// Sync brings the snapshot in line with content as reported on save. It
// reports whether the content differed.
func (dm *DocumentManager) Sync(file text.FileRef, content string) (Update, bool, error) {
	doc, err := dm.lookup(file)
	if err != nil {
		return Update{}, false, err
	}

	doc.mu.Lock()
	if doc.text.String() == content {
		doc.mu.Unlock()
		return Update{}, false, nil
	}
	u := dm.apply(file, doc, doc.version, []text.Change{{Text: content}})
	doc.mu.Unlock()

	log.Warningf("%s was out of sync on save, replaced its content", file)
	dm.invalidate(u)
	return u, true, nil
}

// apply must be called with doc.mu held.
func (dm *DocumentManager) apply(
	file text.FileRef,
	doc *document,
	version protocol.Integer,
	changes []text.Change,
) Update {
	previous := doc.text
	from, snapshot := text.Apply(previous, changes, dm.observer)
	doc.text = snapshot
	doc.version = version

	return Update{
		File:        file,
		Version:     version,
		ChangedFrom: from,
		Edit:        sitteradapter.BatchEdit(previous, snapshot, from),
		Previous:    previous,
		Snapshot:    snapshot,
	}
}

// invalidate runs without any document lock held, so invalidators may read
// back from the manager. With a scheduler, updates that queue up for one
// document are merged so the invalidator sees a single update spanning them.
func (dm *DocumentManager) invalidate(u Update) {
	if dm.invalidator == nil {
		return
	}
	if dm.scheduler == nil {
		dm.run(u)
		return
	}

	dm.pendingMu.Lock()
	if p, ok := dm.pending[u.File]; ok {
		u = merge(p, u)
	}
	dm.pending[u.File] = u
	dm.pendingMu.Unlock()

	err := dm.scheduler.Schedule(scheduler.Task{
		Key:  u.File.String(),
		Name: "invalidate",
		Execute: func() error {
			dm.pendingMu.Lock()
			next, ok := dm.pending[u.File]
			delete(dm.pending, u.File)
			dm.pendingMu.Unlock()
			if ok {
				dm.run(next)
			}
			return nil
		},
	})
	if err != nil {
		log.Warningf("dropping invalidation of %s: %s", u.File, err)
	}
}

func (dm *DocumentManager) run(u Update) {
	if err := dm.invalidator.Invalidate(u); err != nil {
		log.Errorf("invalidating %s failed: %s", u.File, err)
	}
}

// merge combines two updates of one document. Text before the earlier of
// the two changed positions is untouched by both.
func merge(a, b Update) Update {
	if b.Version < a.Version {
		a, b = b, a
	}
	from := a.ChangedFrom
	if text.ComparePositions(b.ChangedFrom, from) < 0 {
		from = b.ChangedFrom
	}
	return Update{
		File:        b.File,
		Version:     b.Version,
		ChangedFrom: from,
		Edit:        sitteradapter.BatchEdit(a.Previous, b.Snapshot, from),
		Previous:    a.Previous,
		Snapshot:    b.Snapshot,
	}
}

// Snapshot returns the current text and version of file.
func (dm *DocumentManager) Snapshot(file text.FileRef) (*text.LinedString, protocol.Integer, error) {
	doc, err := dm.lookup(file)
	if err != nil {
		return nil, 0, err
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.text, doc.version, nil
}

// Location resolves fs against the current snapshot of its file.
func (dm *DocumentManager) Location(fs text.FileSpan) (protocol.Location, error) {
	snapshot, _, err := dm.Snapshot(fs.File)
	if err != nil {
		return protocol.Location{}, err
	}
	return snapshot.ToLoc(fs), nil
}

// Files lists the open documents ordered by path.
func (dm *DocumentManager) Files() []text.FileRef {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	files := make([]text.FileRef, 0, len(dm.docs))
	for f := range dm.docs {
		files = append(files, f)
	}
	slices.SortFunc(files, func(a, b text.FileRef) int {
		return strings.Compare(a.Path(), b.Path())
	})
	return files
}

// Close stops tracking file.
func (dm *DocumentManager) Close(file text.FileRef) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if _, ok := dm.docs[file]; !ok {
		return fmt.Errorf("%w: %s", ErrNotOpen, file)
	}
	delete(dm.docs, file)
	log.Infof("closed %s", file)
	return nil
}

// CloseAll forgets every document.
func (dm *DocumentManager) CloseAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs = make(map[text.FileRef]*document)
}

func (dm *DocumentManager) lookup(file text.FileRef) (*document, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[file]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, file)
	}
	return doc, nil
}
