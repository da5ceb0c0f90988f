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
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// Validate config is sane
func (c *Config) Validate() error {
	if c.Engine == nil {
		return fmt.Errorf("engine config is required")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be greater than zero")
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must be 0 or positive")
	}
	if c.Network.DropRate < 0 || c.Network.DropRate > 1 {
		return fmt.Errorf("drop_rate must be between 0 and 1")
	}
	if c.Master.AnnounceInterval <= 0 || c.Master.SyncInterval <= 0 {
		return fmt.Errorf("master intervals must be greater than zero")
	}
	return c.Engine.Validate()
}

// ReadConfig reads a simulation config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(cData, c)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// PrepareConfig prepares final version of config based on defaults, CLI
// flags and on-disk config, and validates the result
func PrepareConfig(cfgPath string, monitoringPort int, duration time.Duration, realTime bool, setFlags map[string]bool) (*Config, error) {
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
	if setFlags["monitoringport"] {
		warn("monitoringport")
		cfg.Engine.MonitoringPort = monitoringPort
	}
	if setFlags["duration"] {
		warn("duration")
		cfg.Duration = duration
	}
	if setFlags["realtime"] {
		warn("realtime")
		cfg.RealTime = realTime
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	log.Debugf("config: %+v", cfg)
	return cfg, nil
}
