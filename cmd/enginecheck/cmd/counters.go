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
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/stats"
)

var countersJSONFlag bool

func printCounters(counters stats.Counters, jsonOut bool) error {
	if jsonOut {
		toPrint, err := json.Marshal(counters)
		if err != nil {
			return err
		}
		fmt.Println(string(toPrint))
		return nil
	}
	keys := []string{}
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	table := tablewriter.NewTable(os.Stdout, tablewriter.WithColumnMax(50))
	table.Header([]string{"counter", "value"})
	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%d", counters[k])})
	}
	return table.Render()
}

func countersRun(server string, jsonOut bool) error {
	counters, err := stats.FetchCounters(server)
	if err != nil {
		return fmt.Errorf("fetching counters: %w", err)
	}
	return printCounters(counters, jsonOut)
}

func init() {
	RootCmd.AddCommand(countersCmd)
	countersCmd.Flags().StringVarP(&rootServerFlag, "server", "S", rootServerFlagDefault, rootServerFlagDesc)
	countersCmd.Flags().BoolVarP(&countersJSONFlag, "json", "j", false, "print counters in JSON format")
}

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Print engine counters",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := countersRun(rootServerFlag, countersJSONFlag); err != nil {
			log.Fatal(err)
		}
	},
}
