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
	"fmt"
	"math"
	"os"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/constraints"

	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/stats"
)

type status int

// possible check results
const (
	OK status = iota
	WARN
	FAIL
	CRITICAL
)

// diagnoser is function that does checks on a single port status
type diagnoser func(r *stats.PortStatus) (status, string)

var okString = color.GreenString("[ OK ]")
var warnString = color.YellowString("[WARN]")
var failString = color.RedString("[FAIL]")

var statusToColor = []string{okString, warnString, failString}

func fmtThreshold(warnThreshold any) string {
	return color.BlueString("%v", warnThreshold)
}

func checkAgainstThresholdPositive[T constraints.Signed](name string, value, warnThreshold, failThreshold T, explanation string) (status, string) {
	var zero T // can't use 0 as untyped const, so use zero value for each type
	if value <= zero {
		return FAIL, fmt.Sprintf(
			"%s is %s, we expect it to be positive and within %s%s",
			name,
			color.RedString("%v", value),
			fmtThreshold(warnThreshold),
			". "+explanation,
		)
	}
	return checkAgainstThreshold(name, value, warnThreshold, failThreshold, explanation)
}

func checkAgainstThresholdNonZero[T constraints.Ordered](name string, value, warnThreshold, failThreshold T, explanation string) (status, string) {
	var zero T // can't use 0 as untyped const, so use zero value for each type
	if value == zero {
		return FAIL, fmt.Sprintf(
			"%s is %s, we expect it to be non-zero and within %s%s",
			name,
			color.RedString("%v", value),
			fmtThreshold(warnThreshold),
			". "+explanation,
		)
	}
	return checkAgainstThreshold(name, value, warnThreshold, failThreshold, explanation)
}

// generic function to check value against some thresholds
func checkAgainstThreshold[T constraints.Ordered](name string, value, warnThreshold, failThreshold T, explanation string) (status, string) {
	msgTemplate := "%s is %s, we expect it to be within %s%s"
	thresholdStr := fmtThreshold(warnThreshold)

	if value > failThreshold {
		return FAIL, fmt.Sprintf(
			msgTemplate,
			name,
			color.RedString("%v", value),
			thresholdStr,
			". "+explanation,
		)
	}
	if value > warnThreshold {
		return WARN, fmt.Sprintf(
			msgTemplate,
			name,
			color.YellowString("%v", value),
			thresholdStr,
			". "+explanation,
		)
	}
	return OK, fmt.Sprintf(
		msgTemplate,
		name,
		color.GreenString("%v", value),
		thresholdStr,
		"",
	)
}

func checkGMPresent(r *stats.PortStatus) (status, string) {
	if r.GMPresent == 0 {
		return FAIL, "GM is not present"
	}
	return OK, "GM is present"
}

func checkPortState(r *stats.PortStatus) (status, string) {
	switch r.PortState {
	case ptp.PortStateToString[ptp.PortStateSlave], ptp.PortStateToString[ptp.PortStateMaster]:
		return OK, fmt.Sprintf("Port state is %s", color.GreenString(r.PortState))
	case ptp.PortStateToString[ptp.PortStateUncalibrated],
		ptp.PortStateToString[ptp.PortStateListening],
		ptp.PortStateToString[ptp.PortStatePreMaster]:
		return WARN, fmt.Sprintf("Port state is %s, not synchronizing yet", color.YellowString(r.PortState))
	}
	return FAIL, fmt.Sprintf("Port state is %s", color.RedString(r.PortState))
}

func checkServoState(r *stats.PortStatus) (status, string) {
	switch r.ServoState {
	case "LOCKED":
		return OK, fmt.Sprintf("Servo state is %s", color.GreenString(r.ServoState))
	case "INIT", "JUMP", "FILTER":
		return WARN, fmt.Sprintf("Servo state is %s, frequency correction is not valid yet", color.YellowString(r.ServoState))
	}
	return FAIL, fmt.Sprintf("Servo state is %s", color.RedString(r.ServoState))
}

func checkOffset(r *stats.PortStatus) (status, string) {
	// We expect our clock difference from the master to be no more than 250us.
	const warnThreshold = 250 * time.Microsecond
	// If offset is > 1ms something is very very wrong
	const failThreshold = time.Millisecond
	return checkAgainstThresholdNonZero(
		"GM offset",
		time.Duration(math.Abs(r.Offset)),
		warnThreshold,
		failThreshold,
		"Offset is the difference between our clock and the master (time error).",
	)
}

func checkPathDelay(r *stats.PortStatus) (status, string) {
	// We expect GM to be within same region, so path delay should be relatively small
	const warnThreshold = 100 * time.Millisecond
	// If path delay is > 250ms it's really weird
	const failThreshold = 250 * time.Millisecond
	return checkAgainstThresholdPositive(
		"GM mean path delay",
		time.Duration(r.MeanPathDelay),
		warnThreshold,
		failThreshold,
		"Mean path delay is measured network delay between us and GM",
	)
}

func counterDiagnosers(c stats.Counters) []diagnoser {
	result := []diagnoser{}
	// counters are reset on engine restart
	var maxLoss int64 = 100

	type l struct {
		name          string
		value         int64
		warnThreshold int64
		failThreshold int64
		explanation   string
	}
	checks := []l{
		{
			name:          "Announce timeout count",
			value:         c["ptp.engine.port.announce_timeouts"],
			warnThreshold: maxLoss,
			failThreshold: 10 * maxLoss,
			explanation:   "We expect the master to keep announcing",
		},
		{
			name:          "TX error count",
			value:         c["ptp.engine.port.tx_errors"],
			warnThreshold: maxLoss,
			failThreshold: 10 * maxLoss,
			explanation:   "We expect egress messages to leave without errors",
		},
		{
			name:          "Filtered sample count",
			value:         c["ptp.engine.port.filtered"],
			warnThreshold: maxLoss,
			failThreshold: 10 * maxLoss,
			explanation:   "We expect few measurements to be rejected as outliers",
		},
		{
			name:          "Forced fault count",
			value:         c["ptp.engine.port.forced_faults"],
			warnThreshold: 0,
			failThreshold: 10,
			explanation:   "We expect the engine to not force ports into FAULTY",
		},
	}
	for _, check := range checks {
		check := check // capture loop variable
		f := func(_ *stats.PortStatus) (status, string) {
			return checkAgainstThreshold(
				check.name,
				check.value,
				check.warnThreshold,
				check.failThreshold,
				check.explanation,
			)
		}
		result = append(result, f)
	}
	return result
}

var diagnosers = []diagnoser{
	checkGMPresent,
	checkPortState,
	checkServoState,
	checkOffset,
	checkPathDelay,
}

func runDiagnosers(r *stats.PortStatus, toRun []diagnoser) int {
	failed := 0
	for _, check := range toRun {
		status, msg := check(r)
		if status != OK {
			failed++
		}
		switch status {
		case CRITICAL:
			fmt.Printf("%s %s\n", failString, msg)
			return 127
		default:
			fmt.Printf("%s %s\n", statusToColor[status], msg)
		}
	}
	return failed
}

func diagRun(server string) (int, error) {
	statuses, err := stats.FetchStatuses(server)
	if err != nil {
		return 0, fmt.Errorf("fetching status: %w", err)
	}
	counters, err := stats.FetchCounters(server)
	if err != nil {
		return 0, fmt.Errorf("fetching counters: %w", err)
	}
	failed := 0
	for _, s := range statuses {
		if len(statuses) > 1 {
			fmt.Printf("port %s:\n", s.PortIdentity)
		}
		failed += runDiagnosers(s, diagnosers)
	}
	// counters are engine-wide, check them once
	failed += runDiagnosers(nil, counterDiagnosers(counters))
	return failed, nil
}

func init() {
	RootCmd.AddCommand(diagCmd)
	diagCmd.Flags().StringVarP(&rootServerFlag, "server", "S", rootServerFlagDefault, rootServerFlagDesc)
}

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Perform basic diagnosis of the engine, report in human-readable form.",
	Long: `Perform basic diagnosis of the engine, report in human-readable form.
Runs a set of checks against the engine monitoring endpoint, and prints the results.
Exit code will be equal to sum of failed checks, or 127 in case of critical problem.
`,
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		exitCode, err := diagRun(rootServerFlag)
		if err != nil {
			log.Fatal(err)
		}
		os.Exit(exitCode)
	},
}
