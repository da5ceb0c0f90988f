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

package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/stats"
)

func TestCheckAgainstThreshold(t *testing.T) {
	tests := []struct {
		testName      string
		name          string
		value         time.Duration
		warnThreshold time.Duration
		failThreshold time.Duration
		explanation   string
		failOnZero    bool
		wantStatus    status
		wantMsg       string
	}{
		{
			testName:      "below threshold",
			name:          "GM offset",
			value:         100 * time.Microsecond,
			warnThreshold: 250 * time.Microsecond,
			failThreshold: time.Millisecond,
			explanation:   "Offset is the difference between our clock and the master (time error).",
			failOnZero:    false,
			wantStatus:    OK,
			wantMsg:       "GM offset is 100µs, we expect it to be within 250µs",
		},
		{
			testName:      "warn threshold",
			name:          "GM offset",
			value:         500 * time.Microsecond,
			warnThreshold: 250 * time.Microsecond,
			failThreshold: time.Millisecond,
			explanation:   "Offset is the difference between our clock and the master (time error).",
			failOnZero:    false,
			wantStatus:    WARN,
			wantMsg:       "GM offset is 500µs, we expect it to be within 250µs. Offset is the difference between our clock and the master (time error).",
		},
		{
			testName:      "fail threshold",
			name:          "GM offset",
			value:         2 * time.Millisecond,
			warnThreshold: 250 * time.Microsecond,
			failThreshold: time.Millisecond,
			explanation:   "Offset is the difference between our clock and the master (time error).",
			failOnZero:    false,
			wantStatus:    FAIL,
			wantMsg:       "GM offset is 2ms, we expect it to be within 250µs. Offset is the difference between our clock and the master (time error).",
		},
		{
			testName:      "fail on zero",
			name:          "GM mean path delay",
			value:         0,
			warnThreshold: 100 * time.Millisecond,
			failThreshold: 250 * time.Millisecond,
			explanation:   "Mean path delay is measured network delay between us and GM",
			failOnZero:    true,
			wantStatus:    FAIL,
			wantMsg:       "GM mean path delay is 0s, we expect it to be non-zero and within 100ms. Mean path delay is measured network delay between us and GM",
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			var (
				st  status
				msg string
			)
			if tt.failOnZero {
				st, msg = checkAgainstThresholdNonZero(
					tt.name,
					tt.value,
					tt.warnThreshold,
					tt.failThreshold,
					tt.explanation,
				)
			} else {
				st, msg = checkAgainstThreshold(
					tt.name,
					tt.value,
					tt.warnThreshold,
					tt.failThreshold,
					tt.explanation,
				)
			}
			require.Equal(t, tt.wantStatus, st)
			require.Equal(t, tt.wantMsg, msg)
		})
	}

	// check with int now just to exercise generics
	t.Run("ints", func(t *testing.T) {
		st, msg := checkAgainstThreshold(
			"some counter",
			28,
			10,
			100,
			"oh no",
		)
		require.Equal(t, WARN, st)
		require.Equal(t, "some counter is 28, we expect it to be within 10. oh no", msg)
	})

	// check with float now just to exercise generics
	t.Run("floats", func(t *testing.T) {
		st, msg := checkAgainstThreshold(
			"some ratio",
			3.14,
			4.0,
			10.1,
			"oh no",
		)
		require.Equal(t, OK, st)
		require.Equal(t, "some ratio is 3.14, we expect it to be within 4", msg)
	})
}

func TestCheckGMPresent(t *testing.T) {
	r := &stats.PortStatus{
		GMPresent: 1,
	}
	st, msg := checkGMPresent(r)
	require.Equal(t, OK, st)
	require.Equal(t, "GM is present", msg)

	r.GMPresent = 0
	st, msg = checkGMPresent(r)
	require.Equal(t, FAIL, st)
	require.Equal(t, "GM is not present", msg)
}

func TestCheckPortState(t *testing.T) {
	r := &stats.PortStatus{
		PortState: "SLAVE",
	}
	st, msg := checkPortState(r)
	require.Equal(t, OK, st)
	require.Equal(t, "Port state is SLAVE", msg)

	r.PortState = "UNCALIBRATED"
	st, msg = checkPortState(r)
	require.Equal(t, WARN, st)
	require.Equal(t, "Port state is UNCALIBRATED, not synchronizing yet", msg)

	r.PortState = "FAULTY"
	st, msg = checkPortState(r)
	require.Equal(t, FAIL, st)
	require.Equal(t, "Port state is FAULTY", msg)
}

func TestCheckServoState(t *testing.T) {
	r := &stats.PortStatus{
		ServoState: "LOCKED",
	}
	st, msg := checkServoState(r)
	require.Equal(t, OK, st)
	require.Equal(t, "Servo state is LOCKED", msg)

	r.ServoState = "INIT"
	st, msg = checkServoState(r)
	require.Equal(t, WARN, st)
	require.Equal(t, "Servo state is INIT, frequency correction is not valid yet", msg)

	r.ServoState = "HOLDOVER"
	st, msg = checkServoState(r)
	require.Equal(t, FAIL, st)
	require.Equal(t, "Servo state is HOLDOVER", msg)
}

func TestCheckOffset(t *testing.T) {
	r := &stats.PortStatus{
		Offset: 100.0,
	}
	st, msg := checkOffset(r)
	require.Equal(t, OK, st)
	require.Equal(t, "GM offset is 100ns, we expect it to be within 250µs", msg)

	r.Offset = 251000.0
	st, msg = checkOffset(r)
	require.Equal(t, WARN, st)
	require.Equal(t, "GM offset is 251µs, we expect it to be within 250µs. Offset is the difference between our clock and the master (time error).", msg)

	r.Offset = -251000.0
	st, msg = checkOffset(r)
	require.Equal(t, WARN, st)
	require.Equal(t, "GM offset is 251µs, we expect it to be within 250µs. Offset is the difference between our clock and the master (time error).", msg)
}

func TestCheckPathDelay(t *testing.T) {
	r := &stats.PortStatus{
		MeanPathDelay: 100.0,
	}
	st, msg := checkPathDelay(r)
	require.Equal(t, OK, st)
	require.Equal(t, "GM mean path delay is 100ns, we expect it to be within 100ms", msg)

	r.MeanPathDelay = 151000000.0
	st, msg = checkPathDelay(r)
	require.Equal(t, WARN, st)
	require.Equal(t, "GM mean path delay is 151ms, we expect it to be within 100ms. Mean path delay is measured network delay between us and GM", msg)

	r.MeanPathDelay = -151000000.0
	st, msg = checkPathDelay(r)
	require.Equal(t, FAIL, st)
	require.Equal(t, "GM mean path delay is -151ms, we expect it to be positive and within 100ms. Mean path delay is measured network delay between us and GM", msg)
}

func TestCounterDiagnosers(t *testing.T) {
	c := stats.Counters{
		"ptp.engine.port.announce_timeouts": 200,
		"ptp.engine.port.tx_errors":         10,
		"ptp.engine.port.filtered":          2000,
		"ptp.engine.port.forced_faults":     1,
	}
	diagnosers := counterDiagnosers(c)
	require.Equal(t, 4, len(diagnosers))

	st, msg := diagnosers[0](nil)
	assert.Equal(t, WARN, st)
	assert.Equal(t, "Announce timeout count is 200, we expect it to be within 100. We expect the master to keep announcing", msg)
	st, msg = diagnosers[1](nil)
	assert.Equal(t, OK, st)
	assert.Equal(t, "TX error count is 10, we expect it to be within 100", msg)
	st, msg = diagnosers[2](nil)
	assert.Equal(t, FAIL, st)
	assert.Equal(t, "Filtered sample count is 2000, we expect it to be within 100. We expect few measurements to be rejected as outliers", msg)
	st, msg = diagnosers[3](nil)
	assert.Equal(t, WARN, st)
	assert.Equal(t, "Forced fault count is 1, we expect it to be within 0. We expect the engine to not force ports into FAULTY", msg)
}

func TestRunDiagnosers(t *testing.T) {
	toRun := []diagnoser{
		checkGMPresent,
		checkOffset,
		checkPathDelay,
	}
	r := &stats.PortStatus{
		MeanPathDelay: 100.0,
	}
	exitCode := runDiagnosers(r, toRun)
	require.Equal(t, 2, exitCode)
	r.GMPresent = 1
	exitCode = runDiagnosers(r, toRun)
	require.Equal(t, 1, exitCode)
	r.Offset = 100.0
	exitCode = runDiagnosers(r, toRun)
	require.Equal(t, 0, exitCode)
}
