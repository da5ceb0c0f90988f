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

// Package servo turns clock offset measurements into frequency
// corrections. The PI implementation follows the classic ptp4l servo:
// two samples estimate the initial drift, afterwards every offset moves
// the proportional and the (clamped) integral term.
package servo

// DefaultStepThreshold is how large an offset gets corrected by stepping
// the clock instead of slewing it
const DefaultStepThreshold = 1000000 // 1ms

// Servo structure has values common for any type of servo
type Servo struct {
	maxFreq            float64
	StepThreshold      int64
	FirstStepThreshold int64
	FirstUpdate        bool
	OffsetThreshold    int64
	numOffsetValues    int
	currOffsetValues   int
}

// State provides the result of servo calculation
type State uint8

// All the states of servo
const (
	// StateInit means servo is gathering samples to estimate drift
	StateInit State = 0
	// StateJump means the offset is too large and the clock must be stepped
	StateJump State = 1
	// StateLocked means the returned frequency correction is valid
	StateLocked State = 2
	// StateFilter means the sample was rejected as an outlier
	StateFilter State = 3
	// StateHoldover means we have no usable reference and coast on the mean frequency
	StateHoldover State = 4
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateJump:
		return "JUMP"
	case StateLocked:
		return "LOCKED"
	case StateFilter:
		return "FILTER"
	case StateHoldover:
		return "HOLDOVER"
	}
	return "UNSUPPORTED"
}

// countOffset feeds the convergence tracker. Only offsets within
// OffsetThreshold count, one outlier starts over.
func (s *Servo) countOffset(offset int64) {
	if s.OffsetThreshold <= 0 {
		return
	}
	if offset < 0 {
		offset = -offset
	}
	if offset < s.OffsetThreshold {
		if s.currOffsetValues < s.numOffsetValues {
			s.currOffsetValues++
		}
		return
	}
	s.currOffsetValues = 0
}

// Converged reports whether enough consecutive offsets stayed inside
// OffsetThreshold. Always false when the threshold is not configured.
func (s *Servo) Converged() bool {
	return s.OffsetThreshold > 0 && s.currOffsetValues >= s.numOffsetValues
}

// DefaultServoConfig generates default servo struct
func DefaultServoConfig() Servo {
	return Servo{
		maxFreq:            900000000,
		StepThreshold:      DefaultStepThreshold,
		FirstStepThreshold: 20000,
		FirstUpdate:        false,
		OffsetThreshold:    0,
		numOffsetValues:    10,
		currOffsetValues:   0,
	}
}
