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

package sim

import (
	"time"

	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
)

// MasterConfig describes the simulated grandmaster
type MasterConfig struct {
	ClockIdentity ptp.ClockIdentity `yaml:"-"`
	PortNumber    uint16            `yaml:"port_number"`
	Priority1     uint8             `yaml:"priority1"`
	Priority2     uint8             `yaml:"priority2"`
	ClockQuality  ptp.ClockQuality  `yaml:"-"`

	AnnounceInterval time.Duration `yaml:"announce_interval"`
	SyncInterval     time.Duration `yaml:"sync_interval"`

	// Skew shifts the master's reading away from true time. The port
	// converges to master time, so a skewed master moves where the
	// simulated clock ends up.
	Skew time.Duration `yaml:"skew"`
}

// DefaultMasterConfig returns a GPS-grade grandmaster announcing and
// syncing once a second
func DefaultMasterConfig() MasterConfig {
	return MasterConfig{
		ClockIdentity: 0x0a0b0cfffe0d0e0f,
		PortNumber:    1,
		Priority1:     64,
		Priority2:     128,
		ClockQuality: ptp.ClockQuality{
			ClockClass:              ptp.ClockClass6,
			ClockAccuracy:           ptp.ClockAccuracyNanosecond250,
			OffsetScaledLogVariance: 0x4e5d,
		},
		AnnounceInterval: time.Second,
		SyncInterval:     time.Second,
	}
}

// Master is the simulated grandmaster: it paces announce and sync
// emissions on true time and stamps them with its own reading.
type Master struct {
	cfg MasterConfig

	seqAnnounce  uint16
	seqSync      uint16
	nextAnnounce time.Time
	nextSync     time.Time
}

// NewMaster returns a Master driven by cfg
func NewMaster(cfg MasterConfig) *Master {
	return &Master{cfg: cfg}
}

// Identity returns the master's port identity
func (m *Master) Identity() ptp.PortIdentity {
	return ptp.PortIdentity{ClockIdentity: m.cfg.ClockIdentity, PortNumber: m.cfg.PortNumber}
}

// Dataset returns the clock dataset the master advertises
func (m *Master) Dataset() ptp.ClockDataset {
	return ptp.ClockDataset{
		Priority1:           m.cfg.Priority1,
		ClockQuality:        m.cfg.ClockQuality,
		Priority2:           m.cfg.Priority2,
		GrandmasterIdentity: m.cfg.ClockIdentity,
		StepsRemoved:        0,
	}
}

// Time is the master's reading at a true instant
func (m *Master) Time(trueT time.Time) time.Time {
	return trueT.Add(m.cfg.Skew)
}

// AnnounceDue reports whether an announce emission is due at trueT and
// advances the schedule when it is
func (m *Master) AnnounceDue(trueT time.Time) (ptp.ClockDataset, bool) {
	if !m.nextAnnounce.IsZero() && trueT.Before(m.nextAnnounce) {
		return ptp.ClockDataset{}, false
	}
	m.nextAnnounce = trueT.Add(m.cfg.AnnounceInterval)
	m.seqAnnounce++
	return m.Dataset(), true
}

// SyncDue reports whether a sync emission is due at trueT. The returned
// origin timestamp is the master's reading, what a two-step follow-up
// would carry.
func (m *Master) SyncDue(trueT time.Time) (uint16, time.Time, bool) {
	if !m.nextSync.IsZero() && trueT.Before(m.nextSync) {
		return 0, time.Time{}, false
	}
	m.nextSync = trueT.Add(m.cfg.SyncInterval)
	seq := m.seqSync
	m.seqSync++
	return seq, m.Time(trueT), true
}

// DelayResp stamps a delay request arriving at a true instant with the
// master's reading, the T4 the response carries back
func (m *Master) DelayResp(arrivalTrue time.Time) time.Time {
	return m.Time(arrivalTrue)
}
