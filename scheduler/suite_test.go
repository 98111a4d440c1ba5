// Package scheduler implements the cooperative, multi-threaded priority
// task scheduler: four priority levels, FIFO within a level.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/dotlanth/dotvm/scheduler"
)

func TestSchedulerSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scheduler Suite")
}

var _ = Describe("priority-ordered worker pool", func() {
	var s *scheduler.Scheduler

	BeforeEach(func() {
		s = scheduler.New()
	})

	AfterEach(func() {
		Expect(s.Stop()).To(Succeed())
	})

	It("drains strictly by priority, high before low, under a single worker", func() {
		var (
			mu     sync.Mutex
			order  []scheduler.Priority
			gate    = make(chan struct{})
			gateCh  sync.Once
			started = make(chan struct{})
		)

		// Block the single worker on the first (Low) task until every
		// higher-priority task has been enqueued behind it, so ordering
		// is exercised against the queue rather than goroutine scheduling.
		record := func(p scheduler.Priority) scheduler.TaskFunc {
			return func(ctx context.Context) error {
				mu.Lock()
				order = append(order, p)
				mu.Unlock()
				return nil
			}
		}

		_, err := s.Schedule(func(ctx context.Context) error {
			close(started)
			<-gate
			return record(scheduler.Low)(ctx)
		}, scheduler.Low)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Start(context.Background(), 1)).To(Succeed())
		Eventually(started, 2*time.Second).Should(BeClosed())

		_, err = s.Schedule(record(scheduler.Normal), scheduler.Normal)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Schedule(record(scheduler.High), scheduler.High)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Schedule(record(scheduler.Critical), scheduler.Critical)
		Expect(err).NotTo(HaveOccurred())

		gateCh.Do(func() { close(gate) })

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(order)
		}, 2*time.Second, 10*time.Millisecond).Should(Equal(4))

		mu.Lock()
		defer mu.Unlock()
		Expect(order).To(Equal([]scheduler.Priority{
			scheduler.Low, scheduler.Critical, scheduler.High, scheduler.Normal,
		}))
	})

	It("reports per-priority pending counts via TaskStats", func() {
		_, _ = s.Schedule(func(context.Context) error { return nil }, scheduler.Low)
		_, _ = s.Schedule(func(context.Context) error { return nil }, scheduler.Low)
		_, _ = s.Schedule(func(context.Context) error { return nil }, scheduler.Critical)

		stats := s.TaskStats()
		Expect(stats[scheduler.Low]).To(Equal(2))
		Expect(stats[scheduler.Critical]).To(Equal(1))
		Expect(stats[scheduler.Normal]).To(Equal(0))
	})

	It("releases a removed task's resources without running it", func() {
		var ran bool
		id, err := s.Schedule(func(context.Context) error {
			ran = true
			return nil
		}, scheduler.Normal)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.RemoveTask(id)).To(Succeed())
		Expect(s.HasTask(id)).To(BeFalse())

		Expect(s.Start(context.Background(), 1)).To(Succeed())
		Consistently(func() bool { return ran }, 200*time.Millisecond, 20*time.Millisecond).Should(BeFalse())
	})
})
