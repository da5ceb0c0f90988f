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
	"errors"
	"fmt"
	"time"

	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
)

// Errors returned by announce admission
var (
	// ErrInvalidDataset means announce carried fields outside the ranges the dataset tables define
	ErrInvalidDataset = errors.New("invalid clock dataset")
	// ErrTableOverflow means the foreign master table is full and the policy rejects new sources
	ErrTableOverflow = errors.New("foreign master table overflow")
	// ErrOwnAnnounce means the announce came from our own clock, 9.3.2.5 says ignore those
	ErrOwnAnnounce = errors.New("announce from own clock")
)

// RecordState is how fresh a foreign master table entry is
type RecordState uint8

// Record states. Aging entries still take part in master selection,
// Expired entries don't and their slot can be reused.
const (
	RecordValid RecordState = iota
	RecordAging
	RecordExpired
)

// RecordStateToString is a map from RecordState to string
var RecordStateToString = map[RecordState]string{
	RecordValid:   "VALID",
	RecordAging:   "AGING",
	RecordExpired: "EXPIRED",
}

func (rs RecordState) String() string {
	return RecordStateToString[rs]
}

// MarshalText implements encoding.TextMarshaler for readable table dumps
func (rs RecordState) MarshalText() ([]byte, error) {
	return []byte(rs.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, monitoring clients
// read tables back from JSON
func (rs *RecordState) UnmarshalText(text []byte) error {
	for state, name := range RecordStateToString {
		if name == string(text) {
			*rs = state
			return nil
		}
	}
	return fmt.Errorf("unknown record state %q", string(text))
}

// OverflowPolicy decides what happens when an announce from a new source
// arrives and the foreign master table is full
type OverflowPolicy uint8

const (
	// OverflowRejectNewest refuses the new source and keeps the table intact
	OverflowRejectNewest OverflowPolicy = iota
	// OverflowEvictOldest drops the entry with the stalest receipt time
	OverflowEvictOldest
)

// ForeignMasterRecord is one entry in the announce receipt table
type ForeignMasterRecord struct {
	Source      ptp.PortIdentity `json:"source"`
	Dataset     ptp.ClockDataset `json:"dataset"`
	LastReceipt time.Time        `json:"last_receipt"`
	Announces   uint64           `json:"announces"`
	State       RecordState      `json:"state"`
}

// clockClassDefined reports whether c falls into a region the IEEE
// 1588-2019 clockClass table actually defines. Reserved bands are not
// acceptable in an announce.
func clockClassDefined(c ptp.ClockClass) bool {
	switch c {
	case ptp.ClockClass6, ptp.ClockClass7, ptp.ClockClass13, ptp.ClockClass14,
		ptp.ClockClass52, ptp.ClockClass58,
		ptp.ClockClassDefault, ptp.ClockClassSlaveOnly:
		return true
	}
	switch {
	case c == 187 || c == 193: // degradation alternative B
		return true
	case c >= 68 && c <= 122: // alternate PTP profiles
		return true
	case c >= 133 && c <= 170: // alternate PTP profiles
		return true
	case c >= 216 && c <= 232: // alternate PTP profiles
		return true
	}
	return false
}

// referenceClass reports whether c claims lock to (or holdover of) a
// primary or application-specific time reference.
func referenceClass(c ptp.ClockClass) bool {
	return c == ptp.ClockClass6 || c == ptp.ClockClass7 ||
		c == ptp.ClockClass13 || c == ptp.ClockClass14
}

// validate rejects datasets that a conformant announce can't carry.
// The table is never touched for a rejected dataset.
func (e *Engine) validate(ds *ptp.ClockDataset) error {
	if !clockClassDefined(ds.ClockQuality.ClockClass) {
		return fmt.Errorf("%w: clockClass %d is reserved", ErrInvalidDataset, ds.ClockQuality.ClockClass)
	}
	if referenceClass(ds.ClockQuality.ClockClass) {
		// a clock locked to a reference must advertise measured quality
		acc := ds.ClockQuality.ClockAccuracy
		if acc < ptp.ClockAccuracyNanosecond25 || acc > ptp.ClockAccuracySecondGreater10 {
			return fmt.Errorf("%w: accuracy 0x%x inconsistent with clockClass %d", ErrInvalidDataset, acc, ds.ClockQuality.ClockClass)
		}
		if ds.ClockQuality.OffsetScaledLogVariance == 0xffff {
			return fmt.Errorf("%w: variance not computed but clockClass is %d", ErrInvalidDataset, ds.ClockQuality.ClockClass)
		}
	}
	if ds.StepsRemoved > e.cfg.MaxStepsRemoved {
		return fmt.Errorf("%w: stepsRemoved %d above ceiling %d", ErrInvalidDataset, ds.StepsRemoved, e.cfg.MaxStepsRemoved)
	}
	return nil
}

// AdmitAnnounce inserts or refreshes the foreign master record for source.
// Announces looped back from our own clock are ignored with
// ErrOwnAnnounce. Datasets that fail validation are rejected with
// ErrInvalidDataset and don't mutate the table. A repeat announce
// refreshes the existing record in place and marks it Valid again
// whatever its aging state was. A new source takes a free or Expired
// slot; with the table at capacity the configured overflow policy
// applies.
func (e *Engine) AdmitAnnounce(source ptp.PortIdentity, ds ptp.ClockDataset, now time.Time) error {
	if e.cfg.LocalSource.ClockIdentity != 0 && source.ClockIdentity == e.cfg.LocalSource.ClockIdentity {
		e.counters.Invalid++
		return ErrOwnAnnounce
	}
	if err := e.validate(&ds); err != nil {
		e.counters.Invalid++
		return err
	}
	for i := range e.records {
		if e.records[i].Source == source {
			e.records[i].Dataset = ds
			e.records[i].LastReceipt = now
			e.records[i].Announces++
			e.records[i].State = RecordValid
			e.counters.Refreshed++
			return nil
		}
	}
	rec := ForeignMasterRecord{
		Source:      source,
		Dataset:     ds,
		LastReceipt: now,
		Announces:   1,
		State:       RecordValid,
	}
	if len(e.records) < cap(e.records) {
		e.records = append(e.records, rec)
		e.counters.Admitted++
		return nil
	}
	for i := range e.records {
		if e.records[i].State == RecordExpired {
			e.records[i] = rec
			e.counters.Admitted++
			return nil
		}
	}
	if e.cfg.OverflowPolicy == OverflowEvictOldest {
		oldest := 0
		for i := range e.records {
			if e.records[i].LastReceipt.Before(e.records[oldest].LastReceipt) {
				oldest = i
			}
		}
		e.records[oldest] = rec
		e.counters.Evictions++
		e.counters.Admitted++
		return nil
	}
	e.counters.Overflows++
	return fmt.Errorf("%w: %d sources tracked, %s rejected", ErrTableOverflow, len(e.records), source)
}

// AgeTable recomputes the freshness of every record from its receipt
// time: Aging after two announce intervals without a refresh, Expired
// after three. Repeat calls with the same now are no-ops.
func (e *Engine) AgeTable(now time.Time) {
	for i := range e.records {
		age := now.Sub(e.records[i].LastReceipt)
		var next RecordState
		switch {
		case age >= 3*e.cfg.AnnounceInterval:
			next = RecordExpired
		case age >= 2*e.cfg.AnnounceInterval:
			next = RecordAging
		default:
			next = RecordValid
		}
		if next == RecordExpired && e.records[i].State != RecordExpired {
			e.counters.Expired++
		}
		e.records[i].State = next
	}
}

// Records returns a copy of the current table in insertion order.
// Used by monitoring endpoints, not by selection.
func (e *Engine) Records() []ForeignMasterRecord {
	out := make([]ForeignMasterRecord, len(e.records))
	copy(out, e.records)
	return out
}

// Qualified counts entries that can take part in master selection
func (e *Engine) Qualified() int {
	n := 0
	for i := range e.records {
		if e.records[i].State != RecordExpired {
			n++
		}
	}
	return n
}

// ClearForeignMasters empties the table, for callers that want a clean
// restart after a fault instead of resuming with pre-fault candidates.
func (e *Engine) ClearForeignMasters() {
	e.records = e.records[:0]
}
