// Copyright 2021 MatrixOrigin.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package stop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnavailable stopper is not running
	ErrUnavailable = errors.New("runner is unavailable")
)

var (
	defaultWaitStoppedTimeout = time.Minute
)

type state int

const (
	running  = state(0)
	stopping = state(1)
	stopped  = state(2)
)

// Option stopper option
type Option func(*options)

type options struct {
	logger      *zap.Logger
	stopTimeout time.Duration
}

func (opts *options) adjust() {
	if opts.logger == nil {
		opts.logger = zap.NewNop()
	}
	if opts.stopTimeout == 0 {
		opts.stopTimeout = defaultWaitStoppedTimeout
	}
}

// WithLogger set the logger used by the stopper
func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithStopTimeout the timeout waiting for all tasks to exit on Stop
func WithStopTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.stopTimeout = timeout
	}
}

// Stopper a stopper used to manage all tasks that are executed in a separate
// goroutine, and Stopper can manage these goroutines centrally to avoid leaks.
// When Stopper's Stop method is called, if some tasks do not exit within the
// specified time, the names of these tasks will be returned for analysis.
type Stopper struct {
	name    string
	opts    options
	stopC   chan struct{}
	cancels sync.Map // id -> cancelFunc
	tasks   sync.Map // id -> name

	atomic struct {
		lastID    uint64
		taskCount int64
	}

	mu struct {
		sync.RWMutex
		state state
	}
}

// NewStopper create a stopper
func NewStopper(name string, opts ...Option) *Stopper {
	s := &Stopper{
		name:  name,
		stopC: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.opts.adjust()

	s.mu.state = running
	return s
}

// RunTask run a task that can be cancelled. ErrUnavailable returned if the
// stopper is not running.
// See also `RunNamedTask`.
func (s *Stopper) RunTask(ctx context.Context, task func(context.Context)) error {
	return s.RunNamedTask(ctx, "undefined", task)
}

// RunNamedTask run a named task that can be cancelled. ErrUnavailable
// returned if the stopper is not running.
// Example:
// err := s.RunNamedTask(ctx, "named task", func(ctx context.Context) {
//	select {
//	case <-ctx.Done():
//		// cancelled
//	case <-time.After(time.Second):
//		// do something
//	}
// })
func (s *Stopper) RunNamedTask(ctx context.Context, name string, task func(context.Context)) error {
	// we use read lock here for avoid race with Stop
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.mu.state != running {
		return ErrUnavailable
	}

	id, taskCtx := s.allocate(ctx)
	s.doRunCancelableTask(taskCtx, id, name, task)
	return nil
}

// Stop stops all tasks and waits for them to exit within the configured
// timeout. If some tasks do not exit within the specified time, the names of
// these tasks are logged for analysis.
func (s *Stopper) Stop() {
	s.mu.Lock()
	state := s.mu.state
	s.mu.state = stopping
	s.mu.Unlock()

	switch state {
	case stopped:
		return
	case stopping:
		<-s.stopC // wait concurrent stop completed
		return
	}

	defer func() {
		s.mu.Lock()
		s.mu.state = stopped
		s.mu.Unlock()
		close(s.stopC)
	}()

	s.cancels.Range(func(key, value interface{}) bool {
		cancel := value.(context.CancelFunc)
		cancel()
		return true
	})

	timer := time.NewTimer(s.opts.stopTimeout)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.opts.logger.Error("tasks not exited on stop",
				zap.String("stopper", s.name),
				zap.Strings("tasks", s.runningTasks()))
			return
		default:
			if s.getTaskCount() == 0 {
				return
			}
		}

		time.Sleep(time.Millisecond * 5)
	}
}

func (s *Stopper) runningTasks() []string {
	if s.getTaskCount() == 0 {
		return nil
	}

	var tasks []string
	s.tasks.Range(func(key, value interface{}) bool {
		tasks = append(tasks, value.(string))
		return true
	})
	return tasks
}

func (s *Stopper) setupTask(id uint64, name string) {
	s.tasks.Store(id, name)
	s.addTask(1)
}

func (s *Stopper) shutdownTask(id uint64) {
	s.tasks.Delete(id)
	s.cancels.Delete(id)
	s.addTask(-1)
}

func (s *Stopper) doRunCancelableTask(ctx context.Context, taskID uint64, name string, task func(context.Context)) {
	s.setupTask(taskID, name)
	go func() {
		defer func() {
			s.shutdownTask(taskID)
		}()

		task(ctx)
	}()
}

func (s *Stopper) allocate(ctx context.Context) (uint64, context.Context) {
	taskCtx, cancel := context.WithCancel(ctx)
	id := s.nextTaskID()
	s.cancels.Store(id, cancel)
	return id, taskCtx
}

func (s *Stopper) nextTaskID() uint64 {
	return atomic.AddUint64(&s.atomic.lastID, 1)
}

func (s *Stopper) addTask(v int64) {
	atomic.AddInt64(&s.atomic.taskCount, v)
}

func (s *Stopper) getTaskCount() int64 {
	return atomic.LoadInt64(&s.atomic.taskCount)
}
