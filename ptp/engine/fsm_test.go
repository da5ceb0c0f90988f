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
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
)

// the table spelled out independently so an accidental edit to either
// copy fails the test
var wantTransitions = []struct {
	from    ptp.PortState
	event   Event
	to      ptp.PortState
	effects []Effect
}{
	{ptp.PortStateInitializing, EventInitialize, ptp.PortStateListening, []Effect{EffectRestartAnnounceTimer}},
	{ptp.PortStateInitializing, EventFaultDetected, ptp.PortStateFaulty, []Effect{EffectHoldFrequency, EffectNotifyFault}},
	{ptp.PortStateInitializing, EventDesignatedDisabled, ptp.PortStateDisabled, nil},
	{ptp.PortStateFaulty, EventFaultCleared, ptp.PortStateInitializing, nil},
	{ptp.PortStateDisabled, EventDesignatedEnabled, ptp.PortStateListening, []Effect{EffectRestartAnnounceTimer}},
	{ptp.PortStateListening, EventRsMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStateListening, EventRsGrandMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStateListening, EventRsSlave, ptp.PortStateUncalibrated, []Effect{EffectResetServo, EffectClearQuadruple}},
	{ptp.PortStateListening, EventRsPassive, ptp.PortStatePassive, nil},
	{ptp.PortStateListening, EventFaultDetected, ptp.PortStateFaulty, []Effect{EffectHoldFrequency, EffectNotifyFault}},
	{ptp.PortStateListening, EventDesignatedDisabled, ptp.PortStateDisabled, nil},
	{ptp.PortStatePreMaster, EventQualificationTimeout, ptp.PortStateMaster, []Effect{EffectStopQualification}},
	{ptp.PortStatePreMaster, EventRsSlave, ptp.PortStateUncalibrated, []Effect{EffectStopQualification, EffectResetServo, EffectClearQuadruple}},
	{ptp.PortStatePreMaster, EventRsPassive, ptp.PortStatePassive, []Effect{EffectStopQualification}},
	{ptp.PortStateMaster, EventRsSlave, ptp.PortStateUncalibrated, []Effect{EffectResetServo, EffectClearQuadruple}},
	{ptp.PortStateMaster, EventRsPassive, ptp.PortStatePassive, nil},
	{ptp.PortStatePassive, EventRsMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStatePassive, EventRsGrandMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStatePassive, EventRsSlave, ptp.PortStateUncalibrated, []Effect{EffectResetServo, EffectClearQuadruple}},
	{ptp.PortStateUncalibrated, EventRsMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStateUncalibrated, EventRsPassive, ptp.PortStatePassive, nil},
	{ptp.PortStateUncalibrated, EventSynchronizationFault, ptp.PortStateListening, []Effect{EffectRestartAnnounceTimer}},
	{ptp.PortStateUncalibrated, EventAnnounceReceiptTimeout, ptp.PortStateListening, []Effect{EffectRestartAnnounceTimer}},
	{ptp.PortStateUncalibrated, EventMasterClockSelected, ptp.PortStateSlave, []Effect{EffectMarkTracking}},
	{ptp.PortStateSlave, EventRsMaster, ptp.PortStatePreMaster, []Effect{EffectStartQualification}},
	{ptp.PortStateSlave, EventRsPassive, ptp.PortStatePassive, nil},
	{ptp.PortStateSlave, EventSynchronizationFault, ptp.PortStateUncalibrated, []Effect{EffectResetServo, EffectClearQuadruple}},
	{ptp.PortStateSlave, EventAnnounceReceiptTimeout, ptp.PortStateListening, []Effect{EffectRestartAnnounceTimer}},
}

func TestTransitionTable(t *testing.T) {
	require.Equal(t, len(wantTransitions), len(transitions), "table size")
	for _, row := range wantTransitions {
		t.Run(fmt.Sprintf("%s_%s", row.from, row.event), func(t *testing.T) {
			next, effects, ok := transition(row.from, row.event)
			require.True(t, ok)
			require.Equal(t, row.to, next)
			if row.effects == nil {
				require.Empty(t, effects)
			} else {
				require.Equal(t, row.effects, effects)
			}
		})
	}
}

func TestTransitionAbsentPairs(t *testing.T) {
	absent := []struct {
		from  ptp.PortState
		event Event
	}{
		// faulty ignores everything but the operator acknowledgement
		{ptp.PortStateFaulty, EventRsMaster},
		{ptp.PortStateFaulty, EventFaultDetected},
		{ptp.PortStateFaulty, EventAnnounceReceiptTimeout},
		// disabled ignores everything but DESIGNATED_ENABLED
		{ptp.PortStateDisabled, EventFaultDetected},
		{ptp.PortStateDisabled, EventRsSlave},
		// a slave changing masters goes through SYNCHRONIZATION_FAULT,
		// RS_SLAVE has no row on purpose
		{ptp.PortStateSlave, EventRsSlave},
		{ptp.PortStateSlave, EventFaultDetected},
		// grandmaster shortcut exists only where nothing is qualified yet
		{ptp.PortStateUncalibrated, EventRsGrandMaster},
		{ptp.PortStateSlave, EventRsGrandMaster},
		// stale timers must not move unrelated states
		{ptp.PortStateListening, EventQualificationTimeout},
		{ptp.PortStateListening, EventAnnounceReceiptTimeout},
		{ptp.PortStateMaster, EventAnnounceReceiptTimeout},
		{ptp.PortStateMaster, EventQualificationTimeout},
		{ptp.PortStatePassive, EventAnnounceReceiptTimeout},
		{ptp.PortStateInitializing, EventRsMaster},
		{ptp.PortStateInitializing, EventRsSlave},
	}
	for _, pair := range absent {
		t.Run(fmt.Sprintf("%s_%s", pair.from, pair.event), func(t *testing.T) {
			next, effects, ok := transition(pair.from, pair.event)
			require.False(t, ok)
			require.Equal(t, pair.from, next, "no-op must keep the state")
			require.Nil(t, effects)
		})
	}
}

func TestEventPriority(t *testing.T) {
	events := []Event{
		EventQualificationTimeout,
		EventRsSlave,
		EventMasterClockSelected,
		EventAnnounceReceiptTimeout,
		EventFaultDetected,
		EventSynchronizationFault,
		EventRsGrandMaster,
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].priority() < events[j].priority()
	})
	want := []Event{
		EventFaultDetected,
		EventAnnounceReceiptTimeout,
		EventSynchronizationFault,
		EventRsSlave,
		EventRsGrandMaster,
		EventQualificationTimeout,
		EventMasterClockSelected,
	}
	require.Equal(t, want, events)
	require.Equal(t, 0, EventFaultDetected.priority())
	require.Equal(t, EventAnnounceReceiptTimeout.priority(), EventSynchronizationFault.priority())
	require.Less(t, EventRsPassive.priority(), EventQualificationTimeout.priority())
	require.Less(t, EventQualificationTimeout.priority(), EventInitialize.priority())
}

func TestEventAndEffectStrings(t *testing.T) {
	require.Equal(t, "FAULT_DETECTED", EventFaultDetected.String())
	require.Equal(t, "RS_GRAND_MASTER", EventRsGrandMaster.String())
	require.Equal(t, "MASTER_CLOCK_SELECTED", EventMasterClockSelected.String())
	require.Equal(t, "RESET_SERVO", EffectResetServo.String())
	require.Equal(t, "RESTART_ANNOUNCE_TIMER", EffectRestartAnnounceTimer.String())
}
