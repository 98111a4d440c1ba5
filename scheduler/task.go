// Package scheduler implements the cooperative, multi-threaded priority
// task scheduler: four priority levels, FIFO within a level.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/dotlanth/dotvm/cmn"
)

// TaskID identifies a scheduled task. Generated with cmn.GenShortID since
// tasks are created at high frequency and only need per-process
// uniqueness.
type TaskID = string

// TaskFunc is the unit of work a scheduled task executes. ctx is
// cancelled when the scheduler shuts down; long-running work should
// check ctx.Err() periodically so it never starves the higher
// priority levels.
type TaskFunc func(ctx context.Context) error

// State is a task's lifecycle stage.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Metrics is a task's execution telemetry, snapshotted via Task.Metrics.
type Metrics struct {
	State       State
	ScheduledAt time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	Err         error
}

// Task is a scheduled unit of work with its execution context.
type Task struct {
	ID            TaskID
	Priority      Priority
	Fn            TaskFunc
	ScheduledTime time.Time

	mu      sync.Mutex
	metrics Metrics
}

func newTask(fn TaskFunc, priority Priority) *Task {
	now := time.Now()
	return &Task{
		ID:            cmn.GenShortID(),
		Priority:      priority,
		Fn:            fn,
		ScheduledTime: now,
		metrics:       Metrics{State: StateCreated, ScheduledAt: now},
	}
}

// Metrics returns a snapshot of the task's current telemetry.
func (t *Task) Metrics() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics
}

func (t *Task) markRunning() {
	t.mu.Lock()
	t.metrics.State = StateRunning
	t.metrics.StartedAt = time.Now()
	t.mu.Unlock()
}

func (t *Task) markDone(err error) {
	t.mu.Lock()
	t.metrics.CompletedAt = time.Now()
	t.metrics.Err = err
	if err != nil {
		t.metrics.State = StateFailed
	} else {
		t.metrics.State = StateCompleted
	}
	t.mu.Unlock()
}

func (t *Task) markCancelled() {
	t.mu.Lock()
	t.metrics.State = StateCancelled
	t.metrics.CompletedAt = time.Now()
	t.mu.Unlock()
}
