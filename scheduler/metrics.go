// Package scheduler implements the cooperative, multi-threaded priority
// task scheduler: four priority levels, FIFO within a level.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package scheduler

import "github.com/prometheus/client_golang/prometheus"

var (
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dotvm_scheduler_queue_depth",
			Help: "Number of tasks waiting in each priority queue",
		},
		[]string{"priority"},
	)

	tasksScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dotvm_scheduler_tasks_scheduled_total",
			Help: "Total number of tasks scheduled, by priority",
		},
		[]string{"priority"},
	)

	tasksCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dotvm_scheduler_tasks_completed_total",
			Help: "Total number of tasks that finished, by priority and outcome",
		},
		[]string{"priority", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(queueDepth, tasksScheduled, tasksCompleted)
}

func (s *Scheduler) observeQueueDepth() {
	stats := s.queue.statsByPriority()
	for p, n := range stats {
		queueDepth.WithLabelValues(p.String()).Set(float64(n))
	}
}
