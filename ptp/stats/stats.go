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

package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/bmc"
	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
)

// port stats prefixes
const (
	PortStatsTxPrefix = "ptp.engine.portstats.tx."
	PortStatsRxPrefix = "ptp.engine.portstats.rx."
)

// PortStatus is a representation of a monitoring struct for a single engine port
type PortStatus struct {
	PortIdentity  string           `json:"port_identity"`
	PortState     string           `json:"port_state"`
	ServoState    string           `json:"servo_state"`
	GMIdentity    string           `json:"gm_identity"`
	GMPresent     int              `json:"gm_present"`
	ClockQuality  ptp.ClockQuality `json:"clock_quality"`
	Priority1     uint8            `json:"priority1"`
	Priority2     uint8            `json:"priority2"`
	StepsRemoved  int              `json:"steps_removed"`
	Offset        float64          `json:"offset"`
	MeanPathDelay float64          `json:"mean_path_delay"`
	FreqAdjPPB    float64          `json:"freq_adj_ppb"`
	DriftPPB      float64          `json:"drift_ppb"`
	IngressTime   int64            `json:"ingress_time"`
	Error         string           `json:"error"`
}

// Statuses is a list of PortStatus
type Statuses []*PortStatus

func (s Statuses) Len() int { return len(s) }
func (s Statuses) Less(i, j int) bool {
	return s[i].PortIdentity < s[j].PortIdentity
}
func (s Statuses) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

// Index returns the index of the e if it's already in s. Otherwise -1
func (s Statuses) Index(e *PortStatus) int {
	for i, a := range s {
		if a.PortIdentity == e.PortIdentity {
			return i
		}
	}
	return -1
}

// Counters is various counters exported by the engine
type Counters map[string]int64

// PortStats returns two maps: packet type to counter, TX and RX
func (c Counters) PortStats() (tx map[string]uint64, rx map[string]uint64) {
	tx = map[string]uint64{}
	rx = map[string]uint64{}
	for k, v := range c {
		if strings.HasPrefix(k, PortStatsTxPrefix) {
			tx[strings.TrimPrefix(k, PortStatsTxPrefix)] = uint64(v)
		}
		if strings.HasPrefix(k, PortStatsRxPrefix) {
			rx[strings.TrimPrefix(k, PortStatsRxPrefix)] = uint64(v)
		}
	}
	return
}

// SysStats return sys stats from counters
func (c Counters) SysStats() map[string]int64 {
	res := map[string]int64{}
	for k, v := range c {
		if strings.HasPrefix(k, PortStatsTxPrefix) {
			continue
		}
		if strings.HasPrefix(k, PortStatsRxPrefix) {
			continue
		}
		res[k] = v
	}
	return res
}

// FetchStatuses returns populated Statuses structure fetched from the url
func FetchStatuses(url string) (Statuses, error) {
	c := http.Client{
		Timeout: time.Second * 2,
	}

	resp, err := c.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var s Statuses
	err = json.Unmarshal(b, &s)

	return s, err
}

// FetchCounters returns counters map fetched from the url
func FetchCounters(url string) (Counters, error) {
	counters := make(Counters)
	url = fmt.Sprintf("%s/counters", url)
	c := http.Client{
		Timeout: time.Second * 2,
	}

	resp, err := c.Get(url)
	if err != nil {
		return counters, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return counters, err
	}
	err = json.Unmarshal(b, &counters)
	return counters, err
}

// FetchForeignMasters returns the engine's foreign master table fetched from the url
func FetchForeignMasters(url string) ([]bmc.ForeignMasterRecord, error) {
	url = fmt.Sprintf("%s/fmtable", url)
	c := http.Client{
		Timeout: time.Second * 2,
	}

	resp, err := c.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var records []bmc.ForeignMasterRecord
	err = json.Unmarshal(b, &records)
	return records, err
}

// FetchPortStats fetches all counters and then returns two maps: packet type to counter, TX and RX
func FetchPortStats(url string) (tx map[string]uint64, rx map[string]uint64, err error) {
	counters, err := FetchCounters(url)
	if err != nil {
		return nil, nil, err
	}
	tx, rx = counters.PortStats()
	return tx, rx, err
}

// FetchSysStats fetches all counters and return sys stats from them
func FetchSysStats(url string) (map[string]int64, error) {
	counters, err := FetchCounters(url)
	if err != nil {
		return nil, err
	}
	return counters.SysStats(), nil
}
