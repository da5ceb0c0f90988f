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

package bmc

import (
	"time"

	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
)

// DefaultCapacity is how many foreign masters a port tracks
const DefaultCapacity = 10

// DefaultMaxStepsRemoved is the default admission ceiling for stepsRemoved
const DefaultMaxStepsRemoved = 255

// Config holds the knobs of one BMCA engine instance
type Config struct {
	// Capacity is the fixed size of the foreign master table
	Capacity int
	// AnnounceInterval is the expected time between announces from one source
	AnnounceInterval time.Duration
	// MaxStepsRemoved rejects datasets that claim longer paths
	MaxStepsRemoved uint16
	// OverflowPolicy picks the behaviour for a full table
	OverflowPolicy OverflowPolicy
	// LocalDataset is the quality vector our own clock advertises,
	// nil for a slave-only port
	LocalDataset *ptp.ClockDataset
	// LocalSource identifies our own port, announces looped back from
	// this clock are not admitted
	LocalSource ptp.PortIdentity
}

// Counters carries per-engine admission and selection telemetry
type Counters struct {
	Admitted  uint64 `json:"admitted"`
	Refreshed uint64 `json:"refreshed"`
	Invalid   uint64 `json:"invalid"`
	Overflows uint64 `json:"overflows"`
	Evictions uint64 `json:"evictions"`
	Expired   uint64 `json:"expired"`
}

// Recommendation is the outcome of one BMCA evaluation pass
type Recommendation struct {
	// State is the role the port should head towards
	State ptp.PortState
	// Dataset is the winning quality vector, nil when no master is known
	Dataset *ptp.ClockDataset
	// MasterChanged is set when the winning grandmaster differs from the
	// one recommended last, so the caller must run master change side
	// effects before trusting new samples
	MasterChanged bool
}

// Engine maintains the foreign master table for one port and turns it
// into state recommendations. Not safe for concurrent use, the owning
// port serializes access.
type Engine struct {
	cfg      Config
	records  []ForeignMasterRecord
	lastGM   ptp.ClockIdentity
	counters Counters
}

// NewEngine prepares an engine with the table storage fully allocated.
// Zero config values fall back to defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.AnnounceInterval <= 0 {
		cfg.AnnounceInterval = time.Second
	}
	if cfg.MaxStepsRemoved == 0 {
		cfg.MaxStepsRemoved = DefaultMaxStepsRemoved
	}
	return &Engine{
		cfg:     cfg,
		records: make([]ForeignMasterRecord, 0, cfg.Capacity),
	}
}

// bestForeign picks the winner among non-expired records. The source
// port identity breaks full dataset ties so that the result doesn't
// depend on arrival order.
func (e *Engine) bestForeign() *ForeignMasterRecord {
	var best *ForeignMasterRecord
	for i := range e.records {
		if e.records[i].State == RecordExpired {
			continue
		}
		if best == nil {
			best = &e.records[i]
			continue
		}
		switch Compare(&e.records[i].Dataset, &best.Dataset) {
		case ABetter, ABetterTopo:
			best = &e.records[i]
		case Unknown:
			if ComparePortIdentity(&e.records[i].Source, &best.Source) < 0 {
				best = &e.records[i]
			}
		}
	}
	return best
}

// SelectBest returns the dataset that wins the comparison over all
// non-expired foreign records plus the local dataset when the port is a
// master candidate. nil means no master is known, which is not a fault.
func (e *Engine) SelectBest() *ptp.ClockDataset {
	foreign := e.bestForeign()
	if foreign == nil {
		return e.cfg.LocalDataset
	}
	if e.cfg.LocalDataset == nil {
		return &foreign.Dataset
	}
	switch Compare(e.cfg.LocalDataset, &foreign.Dataset) {
	case ABetter, ABetterTopo:
		return e.cfg.LocalDataset
	}
	return &foreign.Dataset
}

// RecommendState maps the winning dataset onto the role the port state
// machine should head towards, per the 1588 state decision logic:
// nothing to follow means Listening, the local clock winning means
// Master (reached through PreMaster qualification), a foreign winner
// means Slave, and a foreign clock that exactly ties our own vector
// parks the port in Passive.
func (e *Engine) RecommendState(current ptp.PortState, best *ptp.ClockDataset) Recommendation {
	switch current {
	case ptp.PortStateInitializing, ptp.PortStateFaulty, ptp.PortStateDisabled:
		// port is not taking part in the protocol right now
		return Recommendation{State: current, Dataset: best}
	}
	if best == nil {
		e.lastGM = 0
		return Recommendation{State: ptp.PortStateListening}
	}
	rec := Recommendation{Dataset: best}
	if e.lastGM != 0 && best.GrandmasterIdentity != e.lastGM {
		rec.MasterChanged = true
	}
	e.lastGM = best.GrandmasterIdentity
	if e.cfg.LocalDataset == nil {
		rec.State = ptp.PortStateSlave
		return rec
	}
	switch Compare(e.cfg.LocalDataset, best) {
	case Unknown:
		if e.tiedByForeign(best) {
			rec.State = ptp.PortStatePassive
		} else {
			rec.State = ptp.PortStateMaster
		}
	case ABetter, ABetterTopo:
		rec.State = ptp.PortStateMaster
	default:
		rec.State = ptp.PortStateSlave
	}
	return rec
}

// tiedByForeign reports whether some live foreign record advertises the
// exact local vector. Such a twin must not fight us for mastership.
func (e *Engine) tiedByForeign(best *ptp.ClockDataset) bool {
	for i := range e.records {
		if e.records[i].State == RecordExpired {
			continue
		}
		if e.records[i].Dataset == *best {
			return true
		}
	}
	return false
}

// SourceOf reports which tracked source contributed ds, false when the
// dataset is the local one or no live record carries it.
func (e *Engine) SourceOf(ds *ptp.ClockDataset) (ptp.PortIdentity, bool) {
	for i := range e.records {
		if e.records[i].State == RecordExpired {
			continue
		}
		if e.records[i].Dataset == *ds {
			return e.records[i].Source, true
		}
	}
	return ptp.PortIdentity{}, false
}

// Stats returns a snapshot of the engine counters
func (e *Engine) Stats() Counters {
	return e.counters
}
