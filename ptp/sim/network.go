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
	"math/rand"
	"time"
)

// NetworkConfig describes the simulated path between master and port
type NetworkConfig struct {
	BaseDelay time.Duration `yaml:"base_delay"`
	// Jitter spreads each transit uniformly within ±Jitter
	Jitter time.Duration `yaml:"jitter"`
	// Asymmetry is added to the master-to-port leg only, the classic
	// unmeasurable error of the delay mechanism
	Asymmetry time.Duration `yaml:"asymmetry"`
	// DropRate is the probability a message is lost, 0 to 1
	DropRate float64 `yaml:"drop_rate"`
	// Seed makes the run reproducible, zero picks 1
	Seed int64 `yaml:"seed"`
}

// Network samples per-message transit delays and losses from a seeded
// PRNG, so a given seed always replays the same run.
type Network struct {
	cfg NetworkConfig
	rng *rand.Rand
}

// NewNetwork returns a Network driven by cfg
func NewNetwork(cfg NetworkConfig) *Network {
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	return &Network{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Down samples the master-to-port transit: the delay and whether the
// message survived
func (n *Network) Down() (time.Duration, bool) {
	d := n.cfg.BaseDelay + n.cfg.Asymmetry + n.jitter()
	if d < 0 {
		d = 0
	}
	return d, n.deliver()
}

// Up samples the port-to-master transit
func (n *Network) Up() (time.Duration, bool) {
	d := n.cfg.BaseDelay + n.jitter()
	if d < 0 {
		d = 0
	}
	return d, n.deliver()
}

func (n *Network) jitter() time.Duration {
	if n.cfg.Jitter <= 0 {
		return 0
	}
	return time.Duration(n.rng.Int63n(2*int64(n.cfg.Jitter)+1)) - n.cfg.Jitter
}

func (n *Network) deliver() bool {
	if n.cfg.DropRate <= 0 {
		return true
	}
	return n.rng.Float64() >= n.cfg.DropRate
}
