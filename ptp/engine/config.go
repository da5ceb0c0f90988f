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
	"fmt"
	"net"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/bmc"
	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/quality"
)

// overflow policy names accepted in configs
const (
	overflowReject = "reject"
	overflowEvict  = "evict"
)

// measurement defaults
const (
	DefaultMaxPathDelay      = 10 * time.Millisecond
	DefaultMaxOffset         = time.Second
	DefaultJitterThreshold   = time.Millisecond
	DefaultDelayFilterLength = 5
)

// port behaviour defaults
const (
	DefaultCalibrationSamples         = 3
	DefaultHugeOffsetEscalation       = 3
	DefaultInvalidTransitionThreshold = 10
	DefaultMonitoringPort             = 4269
	DefaultQualitySample              = 60
)

// MeasurementConfig describes configuration for how we turn timestamp
// quadruples into offset samples
type MeasurementConfig struct {
	MaxPathDelay      time.Duration `yaml:"max_path_delay"`      // exchanges with a higher mean path delay are rejected
	MaxOffset         time.Duration `yaml:"max_offset"`          // offsets above this magnitude are anomalies, not samples
	JitterThreshold   time.Duration `yaml:"jitter_threshold"`    // delay jumps above this swap the median of recent delays into the sample
	DelayFilterLength int           `yaml:"delay_filter_length"` // over how many last path delays we take the median
}

// Validate MeasurementConfig is sane
func (c *MeasurementConfig) Validate() error {
	if c.MaxPathDelay <= 0 {
		return fmt.Errorf("max_path_delay must be positive")
	}
	if c.MaxOffset <= 0 {
		return fmt.Errorf("max_offset must be positive")
	}
	if c.JitterThreshold <= 0 {
		return fmt.Errorf("jitter_threshold must be positive")
	}
	if c.DelayFilterLength <= 0 {
		return fmt.Errorf("delay_filter_length must be positive")
	}
	return nil
}

// Config specifies engine run options for one port
type Config struct {
	Iface          string `yaml:"iface"`
	PortNumber     uint16 `yaml:"port_number"`
	MonitoringPort int    `yaml:"monitoring_port"`

	AnnounceInterval    time.Duration `yaml:"announce_interval"`
	SyncInterval        time.Duration `yaml:"sync_interval"`
	MinDelayReqInterval time.Duration `yaml:"min_delay_req_interval"`
	// QualificationWindow overrides how long a port sits in PreMaster,
	// zero means two announce intervals
	QualificationWindow time.Duration `yaml:"qualification_window"`

	Priority1 uint8 `yaml:"priority1"`
	Priority2 uint8 `yaml:"priority2"`
	// SlaveOnly ports never advertise a local dataset and never
	// qualify for mastership
	SlaveOnly bool `yaml:"slave_only"`
	// FreeRunning disables actual clock adjustments
	FreeRunning bool `yaml:"free_running"`

	StepThreshold      time.Duration `yaml:"step_threshold"`
	FirstStepThreshold time.Duration `yaml:"first_step_threshold"`

	ForeignMasterCapacity int    `yaml:"foreign_master_capacity"`
	MaxStepsRemoved       uint16 `yaml:"max_steps_removed"`
	OverflowPolicy        string `yaml:"overflow_policy"`

	CalibrationSamples         int `yaml:"calibration_samples"`
	HugeOffsetEscalation       int `yaml:"huge_offset_escalation"`
	InvalidTransitionThreshold int `yaml:"invalid_transition_threshold"`

	Measurement MeasurementConfig `yaml:"measurement"`

	AccuracyExpr  string `yaml:"accuracy_expr"`
	ClassExpr     string `yaml:"class_expr"`
	QualitySample int    `yaml:"quality_sample"`

	// ClockIdentity is normally derived from the MAC of Iface, the
	// simulator and tests set it directly
	ClockIdentity ptp.ClockIdentity `yaml:"-"`
}

// DefaultConfig returns Config initialized with default values
func DefaultConfig() *Config {
	return &Config{
		PortNumber:                 1,
		MonitoringPort:             DefaultMonitoringPort,
		AnnounceInterval:           time.Second,
		SyncInterval:               time.Second,
		MinDelayReqInterval:        time.Second,
		Priority1:                  128,
		Priority2:                  128,
		ForeignMasterCapacity:      bmc.DefaultCapacity,
		MaxStepsRemoved:            bmc.DefaultMaxStepsRemoved,
		OverflowPolicy:             overflowReject,
		CalibrationSamples:         DefaultCalibrationSamples,
		HugeOffsetEscalation:       DefaultHugeOffsetEscalation,
		InvalidTransitionThreshold: DefaultInvalidTransitionThreshold,
		Measurement: MeasurementConfig{
			MaxPathDelay:      DefaultMaxPathDelay,
			MaxOffset:         DefaultMaxOffset,
			JitterThreshold:   DefaultJitterThreshold,
			DelayFilterLength: DefaultDelayFilterLength,
		},
		AccuracyExpr:  quality.DefaultAccuracyExpr,
		ClassExpr:     quality.DefaultClassExpr,
		QualitySample: DefaultQualitySample,
	}
}

// Validate config is sane
func (c *Config) Validate() error {
	if c.PortNumber == 0 {
		return fmt.Errorf("port_number must be greater than zero")
	}
	if c.AnnounceInterval <= 0 {
		return fmt.Errorf("announce_interval must be greater than zero")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be greater than zero")
	}
	if c.MinDelayReqInterval <= 0 {
		return fmt.Errorf("min_delay_req_interval must be greater than zero")
	}
	if c.QualificationWindow < 0 {
		return fmt.Errorf("qualification_window must be 0 or positive")
	}
	if c.MonitoringPort < 0 {
		return fmt.Errorf("monitoring_port must be 0 or positive")
	}
	if c.ForeignMasterCapacity <= 0 {
		return fmt.Errorf("foreign_master_capacity must be greater than zero")
	}
	if c.OverflowPolicy != overflowReject && c.OverflowPolicy != overflowEvict {
		return fmt.Errorf("overflow_policy must be either %q or %q", overflowReject, overflowEvict)
	}
	if c.CalibrationSamples <= 0 {
		return fmt.Errorf("calibration_samples must be greater than zero")
	}
	if c.HugeOffsetEscalation <= 0 {
		return fmt.Errorf("huge_offset_escalation must be greater than zero")
	}
	if c.InvalidTransitionThreshold <= 0 {
		return fmt.Errorf("invalid_transition_threshold must be greater than zero")
	}
	if c.QualitySample <= 0 {
		return fmt.Errorf("quality_sample must be greater than zero")
	}
	if err := c.Measurement.Validate(); err != nil {
		return fmt.Errorf("invalid measurement config: %w", err)
	}
	if _, err := quality.PrepareExpression(c.AccuracyExpr); err != nil {
		return fmt.Errorf("invalid accuracy_expr: %w", err)
	}
	if _, err := quality.PrepareExpression(c.ClassExpr); err != nil {
		return fmt.Errorf("invalid class_expr: %w", err)
	}
	return nil
}

// qualificationWindow is how long the port waits in PreMaster before
// claiming mastership
func (c *Config) qualificationWindow() time.Duration {
	if c.QualificationWindow > 0 {
		return c.QualificationWindow
	}
	return 2 * c.AnnounceInterval
}

// announceReceiptTimeout is how long a slave tolerates announce silence
// from its parent
func (c *Config) announceReceiptTimeout() time.Duration {
	return 3 * c.AnnounceInterval
}

// overflowPolicy maps the config string onto the table behaviour
func (c *Config) overflowPolicy() bmc.OverflowPolicy {
	if c.OverflowPolicy == overflowEvict {
		return bmc.OverflowEvictOldest
	}
	return bmc.OverflowRejectNewest
}

// DeriveClockIdentity fills in ClockIdentity from the MAC address of the
// configured interface, unless it was set explicitly.
func (c *Config) DeriveClockIdentity() error {
	if c.ClockIdentity != 0 {
		return nil
	}
	if c.Iface == "" {
		return fmt.Errorf("no clock identity and no iface to derive it from")
	}
	iface, err := net.InterfaceByName(c.Iface)
	if err != nil {
		return fmt.Errorf("unable to get mac address of the interface: %w", err)
	}
	c.ClockIdentity, err = ptp.NewClockIdentity(iface.HardwareAddr)
	if err != nil {
		return fmt.Errorf("unable to get the Clock Identity (EUI-64 address) of the interface: %w", err)
	}
	return nil
}

// portIdentity is the identity of this port in announces and monitoring
func (c *Config) portIdentity() ptp.PortIdentity {
	return ptp.PortIdentity{
		ClockIdentity: c.ClockIdentity,
		PortNumber:    c.PortNumber,
	}
}

// localDataset is the quality vector the port advertises as a master
// candidate, nil for slave-only ports
func (c *Config) localDataset(q *ptp.ClockQuality) *ptp.ClockDataset {
	if c.SlaveOnly {
		return nil
	}
	return &ptp.ClockDataset{
		Priority1:           c.Priority1,
		ClockQuality:        *q,
		Priority2:           c.Priority2,
		GrandmasterIdentity: c.ClockIdentity,
		StepsRemoved:        0,
	}
}

// bmcConfig assembles the foreign master table configuration
func (c *Config) bmcConfig(local *ptp.ClockDataset) bmc.Config {
	return bmc.Config{
		Capacity:         c.ForeignMasterCapacity,
		AnnounceInterval: c.AnnounceInterval,
		MaxStepsRemoved:  c.MaxStepsRemoved,
		OverflowPolicy:   c.overflowPolicy(),
		LocalDataset:     local,
		LocalSource:      c.portIdentity(),
	}
}

// ReadConfig reads config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(cData, &c)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// PrepareConfig prepares final version of config based on defaults, CLI
// flags and on-disk config, and validates the result
func PrepareConfig(cfgPath string, iface string, monitoringPort int, setFlags map[string]bool) (*Config, error) {
	cfg := DefaultConfig()
	var err error
	warn := func(name string) {
		log.Warningf("overriding %s from CLI flag", name)
	}
	if cfgPath != "" {
		cfg, err = ReadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("reading config from %q: %w", cfgPath, err)
		}
	}
	if setFlags["iface"] {
		warn("iface")
		cfg.Iface = iface
	}
	if setFlags["monitoringport"] {
		warn("monitoringPort")
		cfg.MonitoringPort = monitoringPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	log.Debugf("config: %+v", cfg)
	return cfg, nil
}
