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

package sim

import (
	"fmt"
	"time"

	"github.com/zarfld/IEEE-1588-2019-sub011/clock"
)

// LocalClock models the port's oscillator: it keeps a true reading and
// a local reading that runs fast or slow by the configured drift plus
// whatever frequency correction the servo applied. It implements
// clock.Clock, so the engine disciplines it exactly like a real clock.
//
// Not safe for concurrent use, the simulation is single-threaded.
type LocalClock struct {
	trueNow  time.Time
	localNow time.Time
	driftPPB float64
	freqPPB  float64
	maxPPB   float64
	synced   bool
	steps    int
}

// NewLocalClock starts a clock at the given true time, reading offset
// away from it and drifting by driftPPB.
func NewLocalClock(start time.Time, offset time.Duration, driftPPB float64) *LocalClock {
	return &LocalClock{
		trueNow:  start,
		localNow: start.Add(offset),
		driftPPB: driftPPB,
		maxPPB:   clock.DefaultMaxFreqPPB,
	}
}

// rate is the local clock speed relative to true time
func (c *LocalClock) rate() float64 {
	return 1.0 + (c.driftPPB+c.freqPPB)/1e9
}

// AdvanceTo moves true time forward, the local reading advances at the
// oscillator rate. Going backwards is a no-op.
func (c *LocalClock) AdvanceTo(trueT time.Time) {
	dt := trueT.Sub(c.trueNow)
	if dt <= 0 {
		return
	}
	c.localNow = c.localNow.Add(time.Duration(float64(dt) * c.rate()))
	c.trueNow = trueT
}

// At extrapolates the local reading at an arbitrary true instant
// without advancing the clock. Used to timestamp message arrivals that
// land between ticks.
func (c *LocalClock) At(trueT time.Time) time.Time {
	dt := trueT.Sub(c.trueNow)
	return c.localNow.Add(time.Duration(float64(dt) * c.rate()))
}

// Now returns the current local reading
func (c *LocalClock) Now() time.Time {
	return c.localNow
}

// Offset is how far the local reading is from true time
func (c *LocalClock) Offset() time.Duration {
	return c.localNow.Sub(c.trueNow)
}

// Steps counts how many times the clock was stepped
func (c *LocalClock) Steps() int {
	return c.steps
}

// Synced reports whether the engine marked the clock synchronized
func (c *LocalClock) Synced() bool {
	return c.synced
}

// AdjFreqPPB applies a frequency correction, like clock_adjtime with
// ADJ_FREQUENCY would
func (c *LocalClock) AdjFreqPPB(freqPPB float64) error {
	if freqPPB > c.maxPPB || freqPPB < -c.maxPPB {
		return fmt.Errorf("frequency %v ppb outside of [%v, %v]", freqPPB, -c.maxPPB, c.maxPPB)
	}
	c.freqPPB = freqPPB
	return nil
}

// Step jumps the local reading by step
func (c *LocalClock) Step(step time.Duration) error {
	c.localNow = c.localNow.Add(step)
	c.steps++
	return nil
}

// FrequencyPPB returns the applied frequency correction
func (c *LocalClock) FrequencyPPB() (float64, error) {
	return c.freqPPB, nil
}

// MaxFreqPPB returns the maximum frequency adjustment the clock supports
func (c *LocalClock) MaxFreqPPB() (float64, error) {
	return c.maxPPB, nil
}

// SetSync records that the engine considers the clock synchronized
func (c *LocalClock) SetSync() error {
	c.synced = true
	return nil
}
