// Package scheduler implements the cooperative, multi-threaded priority
// task scheduler: four priority levels, FIFO within a level.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/dotlanth/dotvm/cmn"
)

// Scheduler is the async task scheduler: a thread-safe priority
// queue plus an O(1) task-id lookup map, optionally driven by a pool of
// worker goroutines.
type Scheduler struct {
	queue *priorityQueue

	mu    sync.Mutex
	tasks map[TaskID]*Task

	completedTotal uint64

	group      *errgroup.Group
	cancelPool context.CancelFunc
}

// New returns an empty scheduler. Call Start to begin draining tasks
// with a worker pool, or drive it manually with NextTask.
func New() *Scheduler {
	return &Scheduler{
		queue: newPriorityQueue(),
		tasks: make(map[TaskID]*Task),
	}
}

// Schedule enqueues fn at priority and returns its task id.
//
// Workflow: create task with a unique id, add it to its priority queue,
// register it in the task map.
func (s *Scheduler) Schedule(fn TaskFunc, priority Priority) (TaskID, error) {
	if !priority.valid() {
		return "", cmn.Validationf("scheduler.Schedule", "unknown priority level %d", int(priority))
	}
	if fn == nil {
		return "", cmn.Validationf("scheduler.Schedule", "task function must not be nil")
	}

	task := newTask(fn, priority)

	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()

	s.queue.push(task)
	tasksScheduled.WithLabelValues(priority.String()).Inc()
	s.observeQueueDepth()

	return task.ID, nil
}

// NextTask returns the highest-priority, earliest-scheduled pending
// task, or (nil, false) if none is queued. Priority order is
// Critical -> High -> Normal -> Low; FIFO within a level.
func (s *Scheduler) NextTask() (*Task, bool) {
	task := s.queue.tryPop()
	if task == nil {
		return nil, false
	}
	s.observeQueueDepth()
	return task, true
}

// RemoveTask drops a pending task from its queue and the task map.
// Its resources are released once it (and any references to it) go out
// of scope.
func (s *Scheduler) RemoveTask(id TaskID) error {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	if !ok {
		return cmn.NotFoundf("scheduler.RemoveTask", "task %s not found", id)
	}

	s.queue.removeByID(id)
	task.markCancelled()
	s.observeQueueDepth()
	return nil
}

// HasTask reports whether id is still tracked by the scheduler.
func (s *Scheduler) HasTask(id TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	return ok
}

// GetTask returns the task registered under id, if any.
func (s *Scheduler) GetTask(id TaskID) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	return task, ok
}

// PendingCount returns the total number of tasks still tracked by the
// scheduler, across every priority level.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// TaskStats returns the number of queued tasks per priority level.
func (s *Scheduler) TaskStats() map[Priority]int {
	return s.queue.statsByPriority()
}

// CompletedTotal returns the monotonically increasing count of tasks the
// worker pool has finished (successfully or not) since Start.
func (s *Scheduler) CompletedTotal() uint64 {
	return atomic.LoadUint64(&s.completedTotal)
}

// Start launches workers goroutines that pull tasks with blockingPop and
// run them to completion, until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context, workers int) error {
	if workers < 1 {
		return cmn.Validationf("scheduler.Start", "workers must be >= 1, got %d", workers)
	}
	if s.group != nil {
		return cmn.Conflictf("scheduler.Start", "scheduler already started")
	}

	poolCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(poolCtx)
	s.group = group
	s.cancelPool = cancel

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			return s.runWorker(groupCtx)
		})
	}
	glog.Infof("scheduler: started %d workers", workers)
	return nil
}

// Stop signals the worker pool to drain and wait for every worker to
// return, and waits for in-flight tasks to finish.
func (s *Scheduler) Stop() error {
	if s.group == nil {
		return nil
	}
	s.cancelPool()
	s.queue.close()
	err := s.group.Wait()
	s.group = nil
	glog.Infof("scheduler: stopped, %d tasks completed", atomic.LoadUint64(&s.completedTotal))
	return err
}

func (s *Scheduler) runWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		task := s.queue.blockingPop()
		if task == nil {
			return nil
		}

		task.markRunning()
		err := task.Fn(ctx)
		task.markDone(err)

		atomic.AddUint64(&s.completedTotal, 1)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		tasksCompleted.WithLabelValues(task.Priority.String(), outcome).Inc()

		s.mu.Lock()
		delete(s.tasks, task.ID)
		s.mu.Unlock()
		s.observeQueueDepth()
	}
}
