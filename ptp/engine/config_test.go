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
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/bmc"
	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, uint16(1), cfg.PortNumber)
	require.Equal(t, DefaultMonitoringPort, cfg.MonitoringPort)
	require.Equal(t, bmc.DefaultCapacity, cfg.ForeignMasterCapacity)
	require.Equal(t, overflowReject, cfg.OverflowPolicy)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mangle func(c *Config)
	}{
		{"zero port number", func(c *Config) { c.PortNumber = 0 }},
		{"zero announce interval", func(c *Config) { c.AnnounceInterval = 0 }},
		{"zero sync interval", func(c *Config) { c.SyncInterval = 0 }},
		{"zero delay req interval", func(c *Config) { c.MinDelayReqInterval = 0 }},
		{"negative qualification window", func(c *Config) { c.QualificationWindow = -time.Second }},
		{"zero table capacity", func(c *Config) { c.ForeignMasterCapacity = 0 }},
		{"unknown overflow policy", func(c *Config) { c.OverflowPolicy = "lru" }},
		{"zero calibration samples", func(c *Config) { c.CalibrationSamples = 0 }},
		{"zero huge offset escalation", func(c *Config) { c.HugeOffsetEscalation = 0 }},
		{"zero quality sample", func(c *Config) { c.QualitySample = 0 }},
		{"zero max path delay", func(c *Config) { c.Measurement.MaxPathDelay = 0 }},
		{"zero max offset", func(c *Config) { c.Measurement.MaxOffset = 0 }},
		{"zero jitter threshold", func(c *Config) { c.Measurement.JitterThreshold = 0 }},
		{"zero delay filter length", func(c *Config) { c.Measurement.DelayFilterLength = 0 }},
		{"broken accuracy expression", func(c *Config) { c.AccuracyExpr = "mean(" }},
		{"broken class expression", func(c *Config) { c.ClassExpr = "p99(" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mangle(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestConfigWindows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AnnounceInterval = 2 * time.Second
	require.Equal(t, 4*time.Second, cfg.qualificationWindow())
	require.Equal(t, 6*time.Second, cfg.announceReceiptTimeout())

	cfg.QualificationWindow = 5 * time.Second
	require.Equal(t, 5*time.Second, cfg.qualificationWindow())
}

func TestConfigOverflowPolicy(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, bmc.OverflowRejectNewest, cfg.overflowPolicy())
	cfg.OverflowPolicy = overflowEvict
	require.Equal(t, bmc.OverflowEvictOldest, cfg.overflowPolicy())
}

func TestConfigLocalDataset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClockIdentity = ptp.ClockIdentity(0xff00aabbccddeeff)
	cfg.Priority1 = 10
	cfg.Priority2 = 20
	q := ptp.ClockQuality{
		ClockClass:              ptp.ClockClassDefault,
		ClockAccuracy:           ptp.ClockAccuracyUnknown,
		OffsetScaledLogVariance: 0xffff,
	}

	ds := cfg.localDataset(&q)
	require.NotNil(t, ds)
	require.Equal(t, &ptp.ClockDataset{
		Priority1:           10,
		ClockQuality:        q,
		Priority2:           20,
		GrandmasterIdentity: cfg.ClockIdentity,
		StepsRemoved:        0,
	}, ds)

	cfg.SlaveOnly = true
	require.Nil(t, cfg.localDataset(&q))
}

func TestConfigBmcConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClockIdentity = ptp.ClockIdentity(42)
	cfg.ForeignMasterCapacity = 4
	cfg.MaxStepsRemoved = 16
	cfg.OverflowPolicy = overflowEvict
	local := &ptp.ClockDataset{GrandmasterIdentity: cfg.ClockIdentity}

	bc := cfg.bmcConfig(local)
	require.Equal(t, 4, bc.Capacity)
	require.Equal(t, cfg.AnnounceInterval, bc.AnnounceInterval)
	require.Equal(t, uint16(16), bc.MaxStepsRemoved)
	require.Equal(t, bmc.OverflowEvictOldest, bc.OverflowPolicy)
	require.Same(t, local, bc.LocalDataset)
	require.Equal(t, ptp.PortIdentity{ClockIdentity: 42, PortNumber: 1}, bc.LocalSource)
}

func TestDeriveClockIdentity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClockIdentity = ptp.ClockIdentity(7)
	require.NoError(t, cfg.DeriveClockIdentity())
	require.Equal(t, ptp.ClockIdentity(7), cfg.ClockIdentity)

	cfg = DefaultConfig()
	require.Error(t, cfg.DeriveClockIdentity(), "no identity and no iface")
}

func TestReadConfig(t *testing.T) {
	cfgFile, err := os.CreateTemp("", "engine")
	require.NoError(t, err)
	defer os.Remove(cfgFile.Name())

	content := `iface: "eth1"
announce_interval: "2s"
sync_interval: "500ms"
priority1: 10
slave_only: true
overflow_policy: "evict"
measurement:
  max_path_delay: "20ms"
  max_offset: "2s"
  jitter_threshold: "2ms"
  delay_filter_length: 7
`
	_, err = cfgFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, cfgFile.Close())

	cfg, err := ReadConfig(cfgFile.Name())
	require.NoError(t, err)
	require.Equal(t, "eth1", cfg.Iface)
	require.Equal(t, 2*time.Second, cfg.AnnounceInterval)
	require.Equal(t, 500*time.Millisecond, cfg.SyncInterval)
	require.Equal(t, uint8(10), cfg.Priority1)
	require.True(t, cfg.SlaveOnly)
	require.Equal(t, overflowEvict, cfg.OverflowPolicy)
	require.Equal(t, 20*time.Millisecond, cfg.Measurement.MaxPathDelay)
	require.Equal(t, 7, cfg.Measurement.DelayFilterLength)
	// defaults survive for everything the file doesn't mention
	require.Equal(t, time.Second, cfg.MinDelayReqInterval)
	require.Equal(t, uint8(128), cfg.Priority2)
}

func TestPrepareConfig(t *testing.T) {
	// no file, defaults plus flags
	cfg, err := PrepareConfig("", "eth2", 8888, map[string]bool{"iface": true, "monitoringport": true})
	require.NoError(t, err)
	require.Equal(t, "eth2", cfg.Iface)
	require.Equal(t, 8888, cfg.MonitoringPort)

	// flags not set, nothing overridden
	cfg, err = PrepareConfig("", "eth2", 8888, map[string]bool{})
	require.NoError(t, err)
	require.Equal(t, "", cfg.Iface)
	require.Equal(t, DefaultMonitoringPort, cfg.MonitoringPort)

	// file plus flag override
	cfgFile, err := os.CreateTemp("", "engine")
	require.NoError(t, err)
	defer os.Remove(cfgFile.Name())
	_, err = cfgFile.WriteString("iface: \"eth3\"\nmonitoring_port: 4270\n")
	require.NoError(t, err)
	require.NoError(t, cfgFile.Close())

	cfg, err = PrepareConfig(cfgFile.Name(), "eth4", 0, map[string]bool{"iface": true})
	require.NoError(t, err)
	require.Equal(t, "eth4", cfg.Iface)
	require.Equal(t, 4270, cfg.MonitoringPort)

	// a broken config never validates
	broken, err := os.CreateTemp("", "engine")
	require.NoError(t, err)
	defer os.Remove(broken.Name())
	_, err = broken.WriteString("overflow_policy: \"lru\"\n")
	require.NoError(t, err)
	require.NoError(t, broken.Close())

	_, err = PrepareConfig(broken.Name(), "", 0, map[string]bool{})
	require.Error(t, err)
}
