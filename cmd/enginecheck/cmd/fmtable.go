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
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/bmc"
	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/stats"
)

func printForeignMasters(records []bmc.ForeignMasterRecord) error {
	table := tablewriter.NewTable(os.Stdout, tablewriter.WithHeaderMaxWidth(20), tablewriter.WithRowMaxWidth(20))
	table.Header([]string{
		"source", "state", "announces", "last receipt", "gm", "clock", "variance", "p1:p2", "steps",
	})
	for _, r := range records {
		table.Append([]string{
			r.Source.String(),
			r.State.String(),
			fmt.Sprintf("%d", r.Announces),
			r.LastReceipt.Format(time.RFC3339),
			r.Dataset.GrandmasterIdentity.String(),
			fmt.Sprintf("%d:0x%x", r.Dataset.ClockQuality.ClockClass, r.Dataset.ClockQuality.ClockAccuracy),
			fmt.Sprintf("0x%x", r.Dataset.ClockQuality.OffsetScaledLogVariance),
			fmt.Sprintf("%d:%d", r.Dataset.Priority1, r.Dataset.Priority2),
			fmt.Sprintf("%d", r.Dataset.StepsRemoved),
		})
	}
	return table.Render()
}

func fmtableRun(server string) error {
	records, err := stats.FetchForeignMasters(server)
	if err != nil {
		return fmt.Errorf("fetching foreign master table: %w", err)
	}
	return printForeignMasters(records)
}

func init() {
	RootCmd.AddCommand(fmtableCmd)
	fmtableCmd.Flags().StringVarP(&rootServerFlag, "server", "S", rootServerFlagDefault, rootServerFlagDesc)
}

var fmtableCmd = &cobra.Command{
	Use:   "fmtable",
	Short: "Print the foreign master table",
	Long:  "Print the foreign master table. Like `pmc 'GET FOREIGN_MASTER_DATA_SET'`, but over the monitoring endpoint.",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := fmtableRun(rootServerFlag); err != nil {
			log.Fatal(err)
		}
	},
}
