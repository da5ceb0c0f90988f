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

package protocol

import "time"

// DefaultUTCOffset is the TAI-UTC offset advertised when nothing better is known
const DefaultUTCOffset int16 = 37

// CurrentDataset holds the synchronization results of the local PTP
// instance, Section 8.2.2. Maintained by the engine while in SLAVE and
// reset when the instance becomes the root of the sync tree.
type CurrentDataset struct {
	StepsRemoved     uint16        `json:"steps_removed"`
	OffsetFromMaster time.Duration `json:"offset_from_master"`
	MeanPathDelay    time.Duration `json:"mean_path_delay"`
}

// ParentDataset describes the clock the local instance is synchronized
// to and the grandmaster at the root of the tree, Section 8.2.3.
type ParentDataset struct {
	ParentPortIdentity      PortIdentity  `json:"parent_port_identity"`
	GrandmasterIdentity     ClockIdentity `json:"grandmaster_identity"`
	GrandmasterClockQuality ClockQuality  `json:"grandmaster_clock_quality"`
	GrandmasterPriority1    uint8         `json:"grandmaster_priority1"`
	GrandmasterPriority2    uint8         `json:"grandmaster_priority2"`
}

// Dataset rebuilds the comparable quality vector of the parent, as it
// would appear in Announce messages relayed downstream.
func (p *ParentDataset) Dataset(stepsRemoved uint16) ClockDataset {
	return ClockDataset{
		Priority1:           p.GrandmasterPriority1,
		ClockQuality:        p.GrandmasterClockQuality,
		Priority2:           p.GrandmasterPriority2,
		GrandmasterIdentity: p.GrandmasterIdentity,
		StepsRemoved:        stepsRemoved,
	}
}

// TimePropertiesDataset carries the timescale attributes of the domain,
// Section 8.2.4. The engine keeps defaults unless the winning Announce
// said otherwise.
type TimePropertiesDataset struct {
	CurrentUTCOffset      int16      `json:"current_utc_offset"`
	CurrentUTCOffsetValid bool       `json:"current_utc_offset_valid"`
	Leap59                bool       `json:"leap59"`
	Leap61                bool       `json:"leap61"`
	TimeTraceable         bool       `json:"time_traceable"`
	FrequencyTraceable    bool       `json:"frequency_traceable"`
	PTPTimescale          bool       `json:"ptp_timescale"`
	TimeSource            TimeSource `json:"time_source"`
}

// DefaultTimePropertiesDataset returns the dataset of a free-running
// instance on the PTP timescale.
func DefaultTimePropertiesDataset() TimePropertiesDataset {
	return TimePropertiesDataset{
		CurrentUTCOffset: DefaultUTCOffset,
		PTPTimescale:     true,
		TimeSource:       TimeSourceInternalOscillator,
	}
}
