package server

import (
	"mm0ls/internal/config"
	"mm0ls/internal/manager"
	"mm0ls/internal/scheduler"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
)

const lsName = "mm0ls"

// Version will be set during the build process using ldflags.
var Version = "(dev) v0.0.0"

var log = commonlog.GetLogger("mm0ls.server")

type Server struct {
	handler     *protocol.Handler
	config      config.Config
	manager     *manager.DocumentManager
	scheduler   *scheduler.Scheduler
	invalidator manager.Invalidator
}

type Option func(*Server)

// WithInvalidator hands document updates to inv instead of only logging
// them.
func WithInvalidator(inv manager.Invalidator) Option {
	return func(s *Server) { s.invalidator = inv }
}

// New creates a Server with the default configuration. initialize replaces
// it with the client's.
func New(opts ...Option) *Server {
	s := &Server{invalidator: manager.InvalidatorFunc(logInvalidation)}
	for _, opt := range opts {
		opt(s)
	}
	s.configure(config.Default())

	s.handler = &protocol.Handler{
		Initialize:            s.initialize,
		Initialized:           s.initialized,
		Shutdown:              s.shutdown,
		SetTrace:              s.setTrace,
		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,
	}
	return s
}

// NewServer wraps a new Server in a glsp server ready to run.
func NewServer(opts ...Option) (*glspserver.Server, error) {
	s := New(opts...)
	return glspserver.NewServer(s.handler, lsName, false), nil
}

func (s *Server) Handler() *protocol.Handler {
	return s.handler
}

// configure (re)builds the scheduler and document manager for cfg. Open
// documents are dropped.
func (s *Server) configure(cfg config.Config) {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.config = cfg
	s.scheduler = scheduler.NewScheduler(cfg.QueueSize)
	s.scheduler.Run()

	opts := []manager.Option{
		manager.WithScheduler(s.scheduler),
		manager.WithInvalidator(s.invalidator),
	}
	if cfg.LogChanges {
		opts = append(opts, manager.WithObserver(logSnapshot))
	}
	s.manager = manager.NewDocumentManager(opts...)
}
