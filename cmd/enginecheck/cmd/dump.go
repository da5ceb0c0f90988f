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

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/stats"
)

func dumpRun(server string) error {
	statuses, err := stats.FetchStatuses(server)
	if err != nil {
		return fmt.Errorf("fetching status: %w", err)
	}
	counters, err := stats.FetchCounters(server)
	if err != nil {
		return fmt.Errorf("fetching counters: %w", err)
	}
	records, err := stats.FetchForeignMasters(server)
	if err != nil {
		return fmt.Errorf("fetching foreign master table: %w", err)
	}
	spew.Dump(statuses)
	spew.Dump(counters)
	spew.Dump(records)
	return nil
}

func init() {
	RootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVarP(&rootServerFlag, "server", "S", rootServerFlagDefault, rootServerFlagDesc)
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump raw monitoring data fetched from the engine",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()

		if err := dumpRun(rootServerFlag); err != nil {
			log.Fatal(err)
		}
	},
}
