/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package engine

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var errNotEnoughData = errors.New("not enough data")

// Validation gate failures. Both delay gates reject with
// ErrTimestampOrdering, the offset sanity gate with ErrHugeOffset.
// Callers match with errors.Is and must keep prior good state.
var (
	ErrTimestampOrdering = errors.New("timestamp ordering violation")
	ErrHugeOffset        = errors.New("offset above sanity bound")
)

// Sample is one accepted offset measurement, the only thing the servo
// ever sees.
type Sample struct {
	Offset        time.Duration
	MeanPathDelay time.Duration
	RawPathDelay  time.Duration
	Timestamp     time.Time
	Seq           uint16
}

// ComputeOffset derives the mean path delay and the offset from master
// from one complete T1..T4 exchange:
//
//	meanPathDelay = ((t2-t1)+(t4-t3))/2
//	offset        = (t2-t1) - meanPathDelay
//
// The division is Go's native integer division and truncates toward
// zero, so an odd nanosecond sum loses half a nanosecond instead of
// rounding, for both signs.
func ComputeOffset(t1, t2, t3, t4 time.Time) (offset, meanPathDelay time.Duration) {
	fwd := t2.Sub(t1)
	rev := t4.Sub(t3)
	meanPathDelay = (fwd + rev) / 2
	offset = fwd - meanPathDelay
	return offset, meanPathDelay
}

// quadruple is the in-flight T1..T4 exchange for one sync sequence.
// There is exactly one, preallocated; a fresh Sync supersedes it.
type quadruple struct {
	seq uint16
	t1  time.Time
	t2  time.Time
	t3  time.Time
	t4  time.Time
}

func (q *quadruple) complete() bool {
	return !q.t1.IsZero() && !q.t2.IsZero() && !q.t3.IsZero() && !q.t4.IsZero()
}

func (q *quadruple) empty() bool {
	return q.t1.IsZero() && q.t2.IsZero() && q.t3.IsZero() && q.t4.IsZero()
}

func (q *quadruple) clear() {
	*q = quadruple{}
}

// measurements assembles timestamp quadruples from the decoded-message
// hooks and turns complete ones into validated offset samples. Owned by
// the port goroutine, no locking.
type measurements struct {
	cfg   *MeasurementConfig
	stats StatsServer

	quad             quadruple
	delaysWindow     *slidingWindow
	lastDelay        time.Duration
	haveDelay        bool
	hugeOffsetStreak int
}

func newMeasurements(cfg *MeasurementConfig, stats StatsServer) *measurements {
	return &measurements{
		cfg:          cfg,
		stats:        stats,
		delaysWindow: newSlidingWindow(cfg.DelayFilterLength),
	}
}

// addSync records T2, the sync ingress timestamp. A sync for a new
// sequence supersedes whatever exchange was in flight.
func (m *measurements) addSync(seq uint16, t2 time.Time) {
	if !m.quad.empty() {
		if m.quad.seq == seq {
			m.stats.UpdateCounterBy("ptp.engine.measurements.duplicate_timestamps", 1)
			m.quad.clear()
			return
		}
		m.stats.UpdateCounterBy("ptp.engine.measurements.stale_quadruples", 1)
		m.quad.clear()
	}
	m.quad.seq = seq
	m.quad.t2 = t2
}

// addFollowUp records T1, the precise origin timestamp from Follow_Up
func (m *measurements) addFollowUp(seq uint16, t1 time.Time) {
	if m.quad.empty() || m.quad.seq != seq {
		m.stats.UpdateCounterBy("ptp.engine.measurements.out_of_order", 1)
		return
	}
	if !m.quad.t1.IsZero() {
		m.stats.UpdateCounterBy("ptp.engine.measurements.duplicate_timestamps", 1)
		m.quad.clear()
		return
	}
	m.quad.t1 = t1
}

// awaitingDelayReq reports the in-flight sequence once both sync
// timestamps are in and the delay request has not gone out yet
func (m *measurements) awaitingDelayReq() (uint16, bool) {
	if !m.quad.t1.IsZero() && !m.quad.t2.IsZero() && m.quad.t3.IsZero() {
		return m.quad.seq, true
	}
	return 0, false
}

// addDelayReq records T3, the delay request egress timestamp
func (m *measurements) addDelayReq(seq uint16, t3 time.Time) {
	if m.quad.empty() || m.quad.seq != seq || m.quad.t1.IsZero() {
		m.stats.UpdateCounterBy("ptp.engine.measurements.out_of_order", 1)
		return
	}
	if !m.quad.t3.IsZero() {
		m.stats.UpdateCounterBy("ptp.engine.measurements.duplicate_timestamps", 1)
		m.quad.clear()
		return
	}
	m.quad.t3 = t3
}

// addDelayResp records T4 and, if that completes the exchange, runs the
// validation gates and emits the sample. A response for another
// sequence is ignored so a stale reply cannot kill the current
// exchange; a response arriving before our own delay request egress is
// an ordering violation and drops the exchange.
func (m *measurements) addDelayResp(seq uint16, t4 time.Time) (Sample, error) {
	if m.quad.empty() || m.quad.seq != seq {
		m.stats.UpdateCounterBy("ptp.engine.measurements.out_of_order", 1)
		return Sample{}, errNotEnoughData
	}
	if m.quad.t3.IsZero() {
		m.stats.UpdateCounterBy("ptp.engine.measurements.out_of_order", 1)
		m.quad.clear()
		return Sample{}, errNotEnoughData
	}
	m.quad.t4 = t4
	s, err := m.evaluate(&m.quad)
	m.quad.clear()
	return s, err
}

// evaluate runs the validation gates, in order, on a complete
// quadruple. Rejected samples never reach the servo.
func (m *measurements) evaluate(q *quadruple) (Sample, error) {
	offset, delay := ComputeOffset(q.t1, q.t2, q.t3, q.t4)

	if delay < 0 {
		m.stats.UpdateCounterBy("ptp.engine.measurements.negative_delay", 1)
		return Sample{}, fmt.Errorf("%w: negative mean path delay %v", ErrTimestampOrdering, delay)
	}
	if delay > m.cfg.MaxPathDelay {
		m.stats.UpdateCounterBy("ptp.engine.measurements.delay_ceiling", 1)
		return Sample{}, fmt.Errorf("%w: mean path delay %v above ceiling %v", ErrTimestampOrdering, delay, m.cfg.MaxPathDelay)
	}
	absOffset := offset
	if absOffset < 0 {
		absOffset = -absOffset
	}
	if absOffset > m.cfg.MaxOffset {
		m.hugeOffsetStreak++
		m.stats.UpdateCounterBy("ptp.engine.measurements.huge_offset", 1)
		return Sample{}, fmt.Errorf("%w: offset %v above %v, %d consecutive", ErrHugeOffset, offset, m.cfg.MaxOffset, m.hugeOffsetStreak)
	}
	m.hugeOffsetStreak = 0

	emitted := delay
	if m.haveDelay {
		jitter := delay - m.lastDelay
		if jitter < 0 {
			jitter = -jitter
		}
		if jitter > m.cfg.JitterThreshold {
			if med := m.delaysWindow.median(); !math.IsNaN(med) {
				emitted = time.Duration(med)
				m.stats.UpdateCounterBy("ptp.engine.measurements.jitter_filtered", 1)
			}
		}
	}
	// the raw delay still enters the window, so a genuine path change
	// wins over the filter within a few exchanges
	m.delaysWindow.add(float64(delay))
	m.lastDelay = delay
	m.haveDelay = true

	return Sample{
		Offset:        q.t2.Sub(q.t1) - emitted,
		MeanPathDelay: emitted,
		RawPathDelay:  delay,
		Timestamp:     q.t2,
		Seq:           q.seq,
	}, nil
}

// clear drops the in-flight quadruple and the accepted-delay history.
// The port calls it on every servo reset so a new master never inherits
// the old path.
func (m *measurements) clear() {
	m.quad.clear()
	m.delaysWindow.reset()
	m.lastDelay = 0
	m.haveDelay = false
	m.hugeOffsetStreak = 0
}
