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

// Package bmc implements the Best Master Clock Algorithm over announced
// clock datasets: dataset comparison, the bounded foreign master table
// with receipt aging, and the state recommendation that drives the port
// state machine.
package bmc

import (
	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
)

// ComparisonResult is the type to represent comparisons
type ComparisonResult int8

const (
	// ABetterTopo means A is better based on topology
	ABetterTopo ComparisonResult = 2
	// ABetter means A is better based on dataset content
	ABetter ComparisonResult = 1
	// Unknown means we failed to determine better
	Unknown ComparisonResult = 0
	// BBetter means B is better based on dataset content
	BBetter ComparisonResult = -1
	// BBetterTopo means B is better based on topology
	BBetterTopo ComparisonResult = -2
)

// ComparePortIdentity compares two port identities in the same
// byte-lexicographic order grandmaster identities sort by
func ComparePortIdentity(this *ptp.PortIdentity, that *ptp.PortIdentity) int64 {
	return int64(this.Compare(*that))
}

// Compare finds the better of two clock datasets. Fields are examined in
// strict precedence order with lower values winning at every stage and
// equal values falling through to the next stage: Priority1, ClockClass,
// ClockAccuracy, OffsetScaledLogVariance, Priority2, GrandmasterIdentity.
// StepsRemoved only breaks ties between datasets naming the same
// grandmaster (two paths to one clock), in which case the result is a
// topology decision. Identical datasets compare Unknown.
func Compare(a *ptp.ClockDataset, b *ptp.ClockDataset) ComparisonResult {
	if *a == *b {
		return Unknown
	}
	if a.Priority1 < b.Priority1 {
		return ABetter
	}
	if a.Priority1 > b.Priority1 {
		return BBetter
	}
	if a.ClockQuality.ClockClass < b.ClockQuality.ClockClass {
		return ABetter
	}
	if a.ClockQuality.ClockClass > b.ClockQuality.ClockClass {
		return BBetter
	}
	if a.ClockQuality.ClockAccuracy < b.ClockQuality.ClockAccuracy {
		return ABetter
	}
	if a.ClockQuality.ClockAccuracy > b.ClockQuality.ClockAccuracy {
		return BBetter
	}
	if a.ClockQuality.OffsetScaledLogVariance < b.ClockQuality.OffsetScaledLogVariance {
		return ABetter
	}
	if a.ClockQuality.OffsetScaledLogVariance > b.ClockQuality.OffsetScaledLogVariance {
		return BBetter
	}
	if a.Priority2 < b.Priority2 {
		return ABetter
	}
	if a.Priority2 > b.Priority2 {
		return BBetter
	}
	// identities are stored big-endian, numeric order is byte order
	if a.GrandmasterIdentity < b.GrandmasterIdentity {
		return ABetter
	}
	if a.GrandmasterIdentity > b.GrandmasterIdentity {
		return BBetter
	}
	if a.StepsRemoved < b.StepsRemoved {
		return ABetterTopo
	}
	if a.StepsRemoved > b.StepsRemoved {
		return BBetterTopo
	}
	return Unknown
}
