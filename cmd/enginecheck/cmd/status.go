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
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/stats"
)

func printStatus(s *stats.PortStatus) {
	gm := s.GMIdentity
	if s.GMPresent == 1 {
		gm += " (present)"
	} else {
		gm += " (not present)"
	}
	lastIngress := "not syncing"
	if s.IngressTime != 0 {
		lastIngress = time.Unix(0, s.IngressTime).UTC().Format(time.RFC3339)
	}
	fmt.Printf("port %s:\n", s.PortIdentity)
	fmt.Printf("  state           %s\n", s.PortState)
	fmt.Printf("  servo           %s\n", s.ServoState)
	fmt.Printf("  gm identity     %s\n", gm)
	fmt.Printf("  offset          %v\n", time.Duration(s.Offset))
	fmt.Printf("  mean path delay %v\n", time.Duration(s.MeanPathDelay))
	fmt.Printf("  steps removed   %d\n", s.StepsRemoved)
	fmt.Printf("  clock quality   class %d, accuracy 0x%x, variance 0x%x\n",
		s.ClockQuality.ClockClass, s.ClockQuality.ClockAccuracy, s.ClockQuality.OffsetScaledLogVariance)
	fmt.Printf("  priorities      %d:%d\n", s.Priority1, s.Priority2)
	fmt.Printf("  freq adj        %v ppb\n", s.FreqAdjPPB)
	fmt.Printf("  drift           %v ppb\n", s.DriftPPB)
	fmt.Printf("  last ingress    %s\n", lastIngress)
	if s.Error != "" {
		fmt.Printf("  error           %s\n", color.RedString(s.Error))
	}
}

func statusRun(server string) error {
	statuses, err := stats.FetchStatuses(server)
	if err != nil {
		return fmt.Errorf("fetching status: %w", err)
	}
	for _, s := range statuses {
		printStatus(s)
	}
	return nil
}

func init() {
	RootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&rootServerFlag, "server", "S", rootServerFlagDefault, rootServerFlagDesc)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a human-readable summary of every engine port",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := statusRun(rootServerFlag); err != nil {
			log.Fatal(err)
		}
	},
}
