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
	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
)

// Event is a trigger cause for the port state machine, Section 9.2.6.
// Events are inputs to the transition function and are never stored.
type Event uint8

// All the events the port state machine reacts to. MasterClockSelected
// is raised internally once the calibration heuristic is satisfied,
// everything else comes from timers, the BMCA or the operator.
const (
	EventInitialize Event = iota
	EventFaultDetected
	EventFaultCleared
	EventDesignatedEnabled
	EventDesignatedDisabled
	EventRsMaster
	EventRsGrandMaster
	EventRsSlave
	EventRsPassive
	EventQualificationTimeout
	EventAnnounceReceiptTimeout
	EventSynchronizationFault
	EventMasterClockSelected
)

// EventToString is a map from Event to string
var EventToString = map[Event]string{
	EventInitialize:             "INITIALIZE",
	EventFaultDetected:          "FAULT_DETECTED",
	EventFaultCleared:           "FAULT_CLEARED",
	EventDesignatedEnabled:      "DESIGNATED_ENABLED",
	EventDesignatedDisabled:     "DESIGNATED_DISABLED",
	EventRsMaster:               "RS_MASTER",
	EventRsGrandMaster:          "RS_GRAND_MASTER",
	EventRsSlave:                "RS_SLAVE",
	EventRsPassive:              "RS_PASSIVE",
	EventQualificationTimeout:   "QUALIFICATION_TIMEOUT",
	EventAnnounceReceiptTimeout: "ANNOUNCE_RECEIPT_TIMEOUT",
	EventSynchronizationFault:   "SYNCHRONIZATION_FAULT",
	EventMasterClockSelected:    "MASTER_CLOCK_SELECTED",
}

func (e Event) String() string {
	return EventToString[e]
}

// priority orders simultaneous events within one evaluation cycle.
// A stale qualification timer must never override a fresh fault or a
// receipt timeout, so lower values drain first.
func (e Event) priority() int {
	switch e {
	case EventFaultDetected:
		return 0
	case EventAnnounceReceiptTimeout, EventSynchronizationFault:
		return 1
	case EventRsMaster, EventRsGrandMaster, EventRsSlave, EventRsPassive:
		return 2
	case EventQualificationTimeout:
		return 3
	}
	return 4
}

// Effect is a side effect the port must execute after a transition.
// Keeping them as values makes every transition testable without
// touching a servo or a clock.
type Effect uint8

// All the side effects the transition table can request
const (
	EffectResetServo Effect = iota
	EffectClearQuadruple
	EffectMarkTracking
	EffectHoldFrequency
	EffectNotifyFault
	EffectStartQualification
	EffectStopQualification
	EffectRestartAnnounceTimer
)

// EffectToString is a map from Effect to string
var EffectToString = map[Effect]string{
	EffectResetServo:           "RESET_SERVO",
	EffectClearQuadruple:       "CLEAR_QUADRUPLE",
	EffectMarkTracking:         "MARK_TRACKING",
	EffectHoldFrequency:        "HOLD_FREQUENCY",
	EffectNotifyFault:          "NOTIFY_FAULT",
	EffectStartQualification:   "START_QUALIFICATION",
	EffectStopQualification:    "STOP_QUALIFICATION",
	EffectRestartAnnounceTimer: "RESTART_ANNOUNCE_TIMER",
}

func (e Effect) String() string {
	return EffectToString[e]
}

type stateEvent struct {
	state ptp.PortState
	event Event
}

type transitionRow struct {
	next    ptp.PortState
	effects []Effect
}

// faultyEntryEffects also back the forced path the port takes when a
// persistent anomaly escalates from a state with no FAULT_DETECTED row.
var faultyEntryEffects = []Effect{EffectHoldFrequency, EffectNotifyFault}

var resyncEffects = []Effect{EffectResetServo, EffectClearQuadruple}

// tableRows is the full state x event table, Section 9.2.5 figure 30
// trimmed to the events this engine generates. Pairs absent from the
// table are explicit no-ops: Dispatch leaves the state alone and only
// counts the attempt.
var tableRows = []struct {
	from    ptp.PortState
	event   Event
	to      ptp.PortState
	effects []Effect
}{
	{ptp.PortStateInitializing, EventInitialize, ptp.PortStateListening, []Effect{EffectRestartAnnounceTimer}},
	{ptp.PortStateInitializing, EventFaultDetected, ptp.PortStateFaulty, faultyEntryEffects},
	{ptp.PortStateInitializing, EventDesignatedDisabled, ptp.PortStateDisabled, nil},
	{ptp.PortStateFaulty, EventFaultCleared, ptp.PortStateInitializing, nil},
	{ptp.PortStateDisabled, EventDesignatedEnabled, ptp.PortStateListening, []Effect{EffectRestartAnnounceTimer}},
	{ptp.PortStateListening, EventRsMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStateListening, EventRsGrandMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStateListening, EventRsSlave, ptp.PortStateUncalibrated, resyncEffects},
	{ptp.PortStateListening, EventRsPassive, ptp.PortStatePassive, nil},
	{ptp.PortStateListening, EventFaultDetected, ptp.PortStateFaulty, faultyEntryEffects},
	{ptp.PortStateListening, EventDesignatedDisabled, ptp.PortStateDisabled, nil},
	{ptp.PortStatePreMaster, EventQualificationTimeout, ptp.PortStateMaster, []Effect{EffectStopQualification}},
	{ptp.PortStatePreMaster, EventRsSlave, ptp.PortStateUncalibrated, []Effect{EffectStopQualification, EffectResetServo, EffectClearQuadruple}},
	{ptp.PortStatePreMaster, EventRsPassive, ptp.PortStatePassive, []Effect{EffectStopQualification}},
	{ptp.PortStateMaster, EventRsSlave, ptp.PortStateUncalibrated, resyncEffects},
	{ptp.PortStateMaster, EventRsPassive, ptp.PortStatePassive, nil},
	{ptp.PortStatePassive, EventRsMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStatePassive, EventRsGrandMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStatePassive, EventRsSlave, ptp.PortStateUncalibrated, resyncEffects},
	{ptp.PortStateUncalibrated, EventRsMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStateUncalibrated, EventRsPassive, ptp.PortStatePassive, nil},
	{ptp.PortStateUncalibrated, EventSynchronizationFault, ptp.PortStateListening, []Effect{EffectRestartAnnounceTimer}},
	{ptp.PortStateUncalibrated, EventAnnounceReceiptTimeout, ptp.PortStateListening, []Effect{EffectRestartAnnounceTimer}},
	{ptp.PortStateUncalibrated, EventMasterClockSelected, ptp.PortStateSlave, []Effect{EffectMarkTracking}},
	{ptp.PortStateSlave, EventRsMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStateSlave, EventRsPassive, ptp.PortStatePassive, nil},
	{ptp.PortStateSlave, EventSynchronizationFault, ptp.PortStateUncalibrated, resyncEffects},
	{ptp.PortStateSlave, EventAnnounceReceiptTimeout, ptp.PortStateListening, []Effect{EffectRestartAnnounceTimer}},
}

// transitions indexes tableRows by (state, event). Effects are
// precomputed so dispatching never allocates.
var transitions = buildTransitions()

func buildTransitions() map[stateEvent]transitionRow {
	t := make(map[stateEvent]transitionRow, len(tableRows))
	for _, r := range tableRows {
		t[stateEvent{r.from, r.event}] = transitionRow{r.to, r.effects}
	}
	return t
}

// transition applies one event to a state. The bool reports whether the
// pair has a row in the table; callers must treat false as a no-op and
// never mutate state on it. The effects slice is shared precomputed
// data, callers must not modify it.
func transition(state ptp.PortState, ev Event) (ptp.PortState, []Effect, bool) {
	row, ok := transitions[stateEvent{state, ev}]
	if !ok {
		return state, nil, false
	}
	return row.next, row.effects, true
}
