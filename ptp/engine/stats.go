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
	"sync"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/bmc"
	portstats "github.com/zarfld/IEEE-1588-2019-sub011/ptp/stats"
)

//go:generate mockgen -source=stats.go -destination=mock_stats.go -package=engine

// StatsServer is a stats server interface
type StatsServer interface {
	// Reset atomically sets all the counters to 0
	Reset()
	SetCounter(key string, val int64)
	UpdateCounterBy(key string, count int64)
	SetPortStatus(status *portstats.PortStatus)
	SetForeignMasters(records []bmc.ForeignMasterRecord)
}

// Stats is an implementation of StatsServer backed by a mutex-guarded map.
// Counters are written from the port goroutine and read by the monitoring
// HTTP handlers, so every access takes the lock.
type Stats struct {
	mux      sync.Mutex
	counters map[string]int64
	statuses portstats.Statuses
	foreign  []bmc.ForeignMasterRecord
}

// NewStats created new instance of Stats
func NewStats() *Stats {
	return &Stats{
		counters: map[string]int64{},
		statuses: portstats.Statuses{},
	}
}

// UpdateCounterBy will increment counter
func (s *Stats) UpdateCounterBy(key string, count int64) {
	s.mux.Lock()
	s.counters[key] += count
	s.mux.Unlock()
}

// SetCounter will set a counter to the provided value.
func (s *Stats) SetCounter(key string, val int64) {
	s.mux.Lock()
	s.counters[key] = val
	s.mux.Unlock()
}

// GetCounters returns an map of counters
func (s *Stats) GetCounters() map[string]int64 {
	ret := make(map[string]int64)
	s.mux.Lock()
	for key, val := range s.counters {
		ret[key] = val
	}
	s.mux.Unlock()
	return ret
}

// GetStatuses returns all port statuses
func (s *Stats) GetStatuses() portstats.Statuses {
	ret := make(portstats.Statuses, len(s.statuses))
	s.mux.Lock()
	copy(ret, s.statuses)
	s.mux.Unlock()
	return ret
}

// Copy all key-values between maps
func (s *Stats) Copy(dst *Stats) {
	s.mux.Lock()
	for k, v := range s.counters {
		dst.SetCounter(k, v)
	}
	s.mux.Unlock()
}

// Reset all the values of counters
func (s *Stats) Reset() {
	s.mux.Lock()
	for k := range s.counters {
		s.counters[k] = 0
	}
	s.mux.Unlock()
}

// SetPortStatus sets the status snapshot for a particular port
func (s *Stats) SetPortStatus(status *portstats.PortStatus) {
	s.mux.Lock()
	if i := s.statuses.Index(status); i != -1 {
		s.statuses[i] = status
	} else {
		s.statuses = append(s.statuses, status)
	}
	s.mux.Unlock()
}

// SetForeignMasters stores a snapshot of the foreign master table
func (s *Stats) SetForeignMasters(records []bmc.ForeignMasterRecord) {
	s.mux.Lock()
	s.foreign = records
	s.mux.Unlock()
}

// GetForeignMasters returns the last stored foreign master table snapshot
func (s *Stats) GetForeignMasters() []bmc.ForeignMasterRecord {
	s.mux.Lock()
	ret := make([]bmc.ForeignMasterRecord, len(s.foreign))
	copy(ret, s.foreign)
	s.mux.Unlock()
	return ret
}
