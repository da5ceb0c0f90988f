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

// Package quality turns windows of recent offset observations into the
// clock quality a port advertises: aggregation expressions map the
// window onto a clockAccuracy, and the worst condition seen in the
// window picks the clockClass.
package quality

import (
	"fmt"
	"time"

	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
)

// clockClass values for the conditions a synchronized clock moves through
const (
	ClockClassLock         = ptp.ClockClass6
	ClockClassHoldover     = ptp.ClockClass7
	ClockClassCalibrating  = ptp.ClockClass13
	ClockClassUncalibrated = ptp.ClockClass52
)

// DefaultOffsetScaledLogVariance is advertised with every computed
// quality, same fixed estimate ptp4u announces
const DefaultOffsetScaledLogVariance uint16 = 23008

// Default aggregation expressions
const (
	DefaultAccuracyExpr = "abs(mean(offset)) + 1.0 * stddev(offset)"
	DefaultClassExpr    = "p99(class)"
)

// DataPoint is one quality observation: the measured offset and the
// condition class the clock was in when it was taken
type DataPoint struct {
	Offset time.Duration
	Class  ptp.ClockClass
}

// RingBuffer is a fixed-size window of the most recent data points
type RingBuffer struct {
	data  []*DataPoint
	index int
	size  int
}

// NewRingBuffer creates a new RingBuffer of a fixed size
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{data: make([]*DataPoint, size), size: size}
}

// Write adds a data point, overwriting the oldest slot once full.
// nil is a legitimate point, it records that no data was available.
func (rb *RingBuffer) Write(c *DataPoint) {
	if rb.index == rb.size {
		rb.index = 0
	}
	rb.data[rb.index] = c
	rb.index++
}

// Data returns the current window. Order is not meaningful, empty slots
// are nil.
func (rb *RingBuffer) Data() []*DataPoint {
	return rb.data
}

// Worst aggregates a window of data points into the quality to
// advertise: accuracyExpr maps the offsets (in nanoseconds) onto an
// accuracy bound, classExpr maps the condition classes onto the class.
// nil points are skipped, a window with no data at all yields nil.
func Worst(points []*DataPoint, accuracyExpr, classExpr string) (*ptp.ClockQuality, error) {
	offsets := make([]float64, 0, len(points))
	classes := make([]float64, 0, len(points))
	for _, p := range points {
		if p == nil {
			continue
		}
		offsets = append(offsets, float64(p.Offset.Nanoseconds()))
		classes = append(classes, float64(p.Class))
	}
	if len(offsets) == 0 {
		return nil, nil
	}

	aexpr, err := PrepareExpression(accuracyExpr)
	if err != nil {
		return nil, err
	}
	cexpr, err := PrepareExpression(classExpr)
	if err != nil {
		return nil, err
	}
	params := map[string]interface{}{
		"offset": offsets,
		"class":  classes,
	}

	araw, err := aexpr.Evaluate(params)
	if err != nil {
		return nil, err
	}
	accuracyNS, ok := araw.(float64)
	if !ok {
		return nil, fmt.Errorf("accuracy expression produced %T, want float64", araw)
	}

	craw, err := cexpr.Evaluate(params)
	if err != nil {
		return nil, err
	}
	class, ok := craw.(float64)
	if !ok {
		return nil, fmt.Errorf("class expression produced %T, want float64", craw)
	}

	return &ptp.ClockQuality{
		ClockClass:              ptp.ClockClass(class),
		ClockAccuracy:           ptp.ClockAccuracyFromOffset(time.Duration(accuracyNS)),
		OffsetScaledLogVariance: DefaultOffsetScaledLogVariance,
	}, nil
}
