// Package scheduler runs invalidation work off the request path, one task
// at a time, dropping tasks that a newer task for the same key supersedes.
package scheduler

import (
	"errors"
	"sync"

	"github.com/tliron/commonlog"
)

var ErrStopped = errors.New("scheduler: stopped")

var log = commonlog.GetLogger("mm0ls.scheduler")

type Task struct {
	// Key groups tasks; only the most recently scheduled task per key runs.
	Key     string
	Name    string
	Execute func() error

	seq uint64
}

type Scheduler struct {
	taskQueue chan Task
	wg        sync.WaitGroup

	mu      sync.Mutex
	seq     uint64
	latest  map[string]uint64
	stopped bool
}

// NewScheduler creates a new Scheduler with the specified queue size.
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		latest:    make(map[string]uint64),
	}
}

// Run starts the worker loop. It returns immediately.
func (s *Scheduler) Run() {
	go func() {
		for task := range s.taskQueue {
			s.execute(task)
		}
	}()
}

func (s *Scheduler) execute(task Task) {
	defer s.wg.Done()

	s.mu.Lock()
	current := s.latest[task.Key] == task.seq
	if current {
		delete(s.latest, task.Key)
	}
	s.mu.Unlock()

	if !current {
		log.Debugf("skipping superseded %s task for %s", task.Name, task.Key)
		return
	}
	log.Debugf("executing %s task for %s", task.Name, task.Key)
	if err := task.Execute(); err != nil {
		log.Errorf("%s task for %s failed: %s", task.Name, task.Key, err)
	}
}

// Schedule queues task behind any pending work. It blocks while the queue
// is full.
func (s *Scheduler) Schedule(task Task) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.seq++
	task.seq = s.seq
	s.latest[task.Key] = task.seq
	s.wg.Add(1)
	s.mu.Unlock()

	s.taskQueue <- task
	return nil
}

// Wait blocks until every task scheduled so far has run or been skipped.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Stop rejects further tasks and waits for the queue to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	log.Info("stopping scheduler")
	s.wg.Wait()
	close(s.taskQueue)
	log.Info("scheduler stopped")
}
