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

package clock

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

//go:generate mockgen -source=sysclock.go -destination=mock_clock.go -package=clock

// DefaultMaxFreqPPB is the adjustment range assumed when the clock
// cannot report one of its own
const DefaultMaxFreqPPB = 500000.0

// Clock is the iface for clock device controls
type Clock interface {
	AdjFreqPPB(freq float64) error
	Step(step time.Duration) error
	SetSync() error
	FrequencyPPB() (float64, error)
	MaxFreqPPB() (float64, error)
}

// SysClock groups methods for interacting with system clock
type SysClock struct{}

// AdjFreqPPB adjusts system clock frequency
func (c *SysClock) AdjFreqPPB(freqPPB float64) error {
	state, err := AdjFreqPPB(unix.CLOCK_REALTIME, freqPPB)
	if err == nil && state != unix.TIME_OK {
		log.Warningf("clock state %d is not TIME_OK after adjusting frequency", state)
	}
	return err
}

// SetSync sets clock status to TIME_OK
func (c *SysClock) SetSync() error {
	tx := &unix.Timex{}
	tx.Modes = AdjStatus | AdjMaxError
	state, err := Adjtime(unix.CLOCK_REALTIME, tx)

	if err == nil && state != unix.TIME_OK {
		return fmt.Errorf("clock state %d is not TIME_OK after setting sync state", state)
	}
	return err
}

// Step jumps time on the system clock
func (c *SysClock) Step(step time.Duration) error {
	state, err := Step(unix.CLOCK_REALTIME, step)
	if err == nil && state != unix.TIME_OK {
		log.Warningf("clock state %d is not TIME_OK after stepping", state)
	}
	return err
}

// FrequencyPPB returns current system clock frequency
func (c *SysClock) FrequencyPPB() (float64, error) {
	freqPPB, state, err := FrequencyPPB(unix.CLOCK_REALTIME)
	if err == nil && state != unix.TIME_OK {
		log.Warningf("clock state %d is not TIME_OK after getting current frequency", state)
	}
	return freqPPB, err
}

// MaxFreqPPB returns maximum frequency adjustment supported by the system clock
func (c *SysClock) MaxFreqPPB() (float64, error) {
	freqPPB, state, err := MaxFreqPPB(unix.CLOCK_REALTIME)
	if err == nil && state != unix.TIME_OK {
		log.Warningf("clock state %d is not TIME_OK after getting max frequency adjustment", state)
	}
	return freqPPB, err
}

// FreeRunningClock is a dummy clock that does nothing
type FreeRunningClock struct{}

// AdjFreqPPB adjusts nothing
func (c *FreeRunningClock) AdjFreqPPB(freqPPB float64) error {
	return nil
}

// Step jumps nowhere
func (c *FreeRunningClock) Step(step time.Duration) error {
	return nil
}

// SetSync does nothing
func (c *FreeRunningClock) SetSync() error {
	return nil
}

// FrequencyPPB returns current frequency, which never changes
func (c *FreeRunningClock) FrequencyPPB() (float64, error) {
	return 0.0, nil
}

// MaxFreqPPB reports the default range so the servo clamp stays sane
func (c *FreeRunningClock) MaxFreqPPB() (float64, error) {
	return DefaultMaxFreqPPB, nil
}
