// Package scheduler implements the cooperative, multi-threaded priority
// task scheduler: four priority levels, FIFO within a level.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dotlanth/dotvm/scheduler"
)

func noop(ctx context.Context) error { return nil }

func TestSchedulePopulatesTaskMapAndQueue(t *testing.T) {
	s := scheduler.New()
	id, err := s.Schedule(noop, scheduler.Normal)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if !s.HasTask(id) {
		t.Fatalf("expected HasTask(%s) to be true", id)
	}
	if s.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", s.PendingCount())
	}
}

func TestScheduleRejectsNilFunc(t *testing.T) {
	s := scheduler.New()
	if _, err := s.Schedule(nil, scheduler.Normal); err == nil {
		t.Fatalf("expected error for nil task function")
	}
}

func TestNextTaskPriorityOrdering(t *testing.T) {
	s := scheduler.New()
	_, _ = s.Schedule(noop, scheduler.Low)
	_, _ = s.Schedule(noop, scheduler.Normal)
	_, _ = s.Schedule(noop, scheduler.High)
	_, _ = s.Schedule(noop, scheduler.Critical)

	want := []scheduler.Priority{scheduler.Critical, scheduler.High, scheduler.Normal, scheduler.Low}
	for _, p := range want {
		task, ok := s.NextTask()
		if !ok {
			t.Fatalf("expected a task for priority %s", p)
		}
		if task.Priority != p {
			t.Fatalf("NextTask priority = %s, want %s", task.Priority, p)
		}
	}
	if _, ok := s.NextTask(); ok {
		t.Fatalf("expected no tasks remaining")
	}
}

func TestNextTaskFIFOWithinLevel(t *testing.T) {
	s := scheduler.New()
	first, _ := s.Schedule(noop, scheduler.Normal)
	second, _ := s.Schedule(noop, scheduler.Normal)

	task, _ := s.NextTask()
	if task.ID != first {
		t.Fatalf("expected first-scheduled task to come first")
	}
	task, _ = s.NextTask()
	if task.ID != second {
		t.Fatalf("expected second-scheduled task to come second")
	}
}

func TestRemoveTask(t *testing.T) {
	s := scheduler.New()
	id, _ := s.Schedule(noop, scheduler.Normal)
	if err := s.RemoveTask(id); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}
	if s.HasTask(id) {
		t.Fatalf("expected task to be removed")
	}
	if err := s.RemoveTask(id); err == nil {
		t.Fatalf("expected error removing a non-existent task")
	}
	if _, ok := s.NextTask(); ok {
		t.Fatalf("expected removed task not to surface from NextTask")
	}
}

func TestTaskStatsPerPriority(t *testing.T) {
	s := scheduler.New()
	_, _ = s.Schedule(noop, scheduler.Low)
	_, _ = s.Schedule(noop, scheduler.Low)
	_, _ = s.Schedule(noop, scheduler.Normal)
	_, _ = s.Schedule(noop, scheduler.High)
	_, _ = s.Schedule(noop, scheduler.Critical)

	stats := s.TaskStats()
	if stats[scheduler.Low] != 2 {
		t.Fatalf("Low count = %d, want 2", stats[scheduler.Low])
	}
	if stats[scheduler.Normal] != 1 || stats[scheduler.High] != 1 || stats[scheduler.Critical] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestWorkerPoolDrainsTasksAndUpdatesCompletedTotal(t *testing.T) {
	s := scheduler.New()
	var ran int32
	var wg sync.WaitGroup
	wg.Add(5)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx, 2); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	for i := 0; i < 5; i++ {
		_, err := s.Schedule(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			wg.Done()
			return nil
		}, scheduler.Normal)
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("tasks did not complete in time")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if atomic.LoadInt32(&ran) != 5 {
		t.Fatalf("ran = %d, want 5", ran)
	}
	if s.CompletedTotal() != 5 {
		t.Fatalf("CompletedTotal = %d, want 5", s.CompletedTotal())
	}
}

func TestStartRejectsZeroWorkers(t *testing.T) {
	s := scheduler.New()
	if err := s.Start(context.Background(), 0); err == nil {
		t.Fatalf("expected error for zero workers")
	}
}
