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
)

// Retry defaults. Three tries with a doubling delay keep the port
// blocked for at most 30ms before the failure escalates.
const (
	DefaultRetryTries     = 3
	DefaultRetryBaseDelay = 10 * time.Millisecond
)

// AdjustmentError reports that an adjustment was given up on after the
// configured number of tries. The last underlying error is wrapped.
type AdjustmentError struct {
	Op    string
	Tries int
	Err   error
}

func (e *AdjustmentError) Error() string {
	return fmt.Sprintf("clock %s failed after %d tries: %v", e.Op, e.Tries, e.Err)
}

func (e *AdjustmentError) Unwrap() error {
	return e.Err
}

// Retrying decorates a Clock so transient adjustment failures are
// retried with a doubling backoff before they surface. Reads and the
// sync status marker pass straight through.
type Retrying struct {
	Clock
	Tries     int
	BaseDelay time.Duration
}

// NewRetrying wraps c with the default retry policy
func NewRetrying(c Clock) *Retrying {
	return &Retrying{
		Clock:     c,
		Tries:     DefaultRetryTries,
		BaseDelay: DefaultRetryBaseDelay,
	}
}

func (c *Retrying) withRetry(op string, fn func() error) error {
	delay := c.BaseDelay
	var err error
	for try := 0; try < c.Tries; try++ {
		if try > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		if err = fn(); err == nil {
			return nil
		}
		log.Warningf("clock %s try %d of %d failed: %v", op, try+1, c.Tries, err)
	}
	return &AdjustmentError{Op: op, Tries: c.Tries, Err: err}
}

// AdjFreqPPB adjusts the clock frequency, retrying on failure
func (c *Retrying) AdjFreqPPB(freq float64) error {
	return c.withRetry("frequency adjustment", func() error {
		return c.Clock.AdjFreqPPB(freq)
	})
}

// Step steps the clock, retrying on failure
func (c *Retrying) Step(step time.Duration) error {
	return c.withRetry("step", func() error {
		return c.Clock.Step(step)
	})
}
