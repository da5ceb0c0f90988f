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
	"math"
	"sort"
)

// slidingWindow keeps the last `size` accepted path delays. Slots are
// preallocated and NaN-filled so adding and taking the median never
// allocate once the port is up.
type slidingWindow struct {
	size        int
	currentSize int
	samples     []float64
	sorted      []float64
}

func newSlidingWindow(size int) *slidingWindow {
	if size < 1 {
		size = 1
	}
	w := &slidingWindow{
		size:    size,
		samples: make([]float64, size),
		sorted:  make([]float64, size),
	}
	for i := 0; i < w.size; i++ {
		w.samples[i] = math.NaN()
		w.sorted[i] = math.NaN()
	}
	return w
}

func (w *slidingWindow) add(sample float64) {
	if !w.Full() {
		w.currentSize++
	}
	for i := w.currentSize - 1; i > 0; i-- {
		w.samples[i] = w.samples[i-1]
	}
	w.samples[0] = sample
}

func (w *slidingWindow) lastSample() float64 {
	return w.samples[0]
}

func (w *slidingWindow) median() float64 {
	copy(w.sorted, w.samples)
	c := w.sorted[0:w.currentSize]
	sort.Float64s(c)
	l := len(c)
	if l == 0 {
		return math.NaN()
	}
	if l%2 == 0 {
		return (c[l/2-1] + c[l/2]) / 2
	}
	return c[l/2]
}

func (w *slidingWindow) Full() bool {
	return w.currentSize == w.size
}

func (w *slidingWindow) reset() {
	w.currentSize = 0
	for i := 0; i < w.size; i++ {
		w.samples[i] = math.NaN()
	}
}
