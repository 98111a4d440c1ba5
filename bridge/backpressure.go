// Package bridge implements the synchronous-to-async host-function
// bridge: it lets guest bytecode invoke database, crypto, parallel, and
// state operations through blocking calls backed by the async scheduler.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package bridge

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Backpressure thresholds for bounded streaming host functions (query
// cursors).
const (
	ModerateBackpressureThreshold = 0.80
	CriticalBackpressureThreshold = 0.95

	moderateBackpressureDelay = 2 * time.Millisecond
	criticalBackpressureDelay = 10 * time.Millisecond
)

var backpressureEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dotvm_bridge_backpressure_events_total",
		Help: "Total number of backpressure events observed on streaming host functions",
	},
	[]string{"stream", "severity"},
)

func init() {
	prometheus.MustRegister(backpressureEvents)
}

// FlowController tracks a bounded channel's fill level for one stream
// (e.g. a query cursor) and applies the streaming module's two-tier
// backpressure policy: a short sleep past the moderate threshold, a
// longer pause past the critical one.
type FlowController struct {
	streamID string
	capacity int
	inFlight int64
}

// NewFlowController returns a controller for a channel of the given
// capacity, identified by streamID for metrics labeling.
func NewFlowController(streamID string, capacity int) *FlowController {
	return &FlowController{streamID: streamID, capacity: capacity}
}

// Enter records one more item in flight and returns the resulting usage
// ratio in [0, 1].
func (f *FlowController) Enter() float64 {
	n := atomic.AddInt64(&f.inFlight, 1)
	return f.usage(n)
}

// Leave records one fewer item in flight.
func (f *FlowController) Leave() {
	atomic.AddInt64(&f.inFlight, -1)
}

func (f *FlowController) usage(n int64) float64 {
	if f.capacity <= 0 {
		return 0
	}
	return float64(n) / float64(f.capacity)
}

// Throttle applies the backpressure policy for the controller's current
// usage: no-op below the moderate threshold, a brief sleep between
// moderate and critical, a longer pause at or above critical. Returns
// the usage ratio observed.
func (f *FlowController) Throttle() float64 {
	usage := f.usage(atomic.LoadInt64(&f.inFlight))
	switch {
	case usage >= CriticalBackpressureThreshold:
		backpressureEvents.WithLabelValues(f.streamID, "critical").Inc()
		time.Sleep(criticalBackpressureDelay)
	case usage >= ModerateBackpressureThreshold:
		backpressureEvents.WithLabelValues(f.streamID, "moderate").Inc()
		time.Sleep(moderateBackpressureDelay)
	}
	return usage
}
