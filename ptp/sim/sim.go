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
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/engine"
	ptp "github.com/zarfld/IEEE-1588-2019-sub011/ptp/protocol"
)

// Config describes a full simulation: the engine under test, the
// grandmaster it talks to, the network in between and the oscillator
// it disciplines.
type Config struct {
	Engine  *engine.Config `yaml:"engine"`
	Master  MasterConfig   `yaml:"master"`
	Network NetworkConfig  `yaml:"network"`

	// TickInterval is how much simulated time each step covers
	TickInterval time.Duration `yaml:"tick_interval"`
	// Duration bounds the simulated time, zero runs until cancelled
	Duration time.Duration `yaml:"duration"`
	// InitialOffset is how wrong the local clock starts out
	InitialOffset time.Duration `yaml:"initial_offset"`
	// DriftPPB is the oscillator error the servo has to chase
	DriftPPB float64 `yaml:"drift_ppb"`
	// RealTime paces each tick on the wall clock, for demo runs
	RealTime bool `yaml:"real_time"`

	// StartTime anchors simulated true time, zero means wall clock now
	StartTime time.Time `yaml:"-"`
}

// DefaultConfig returns a simulation of a clean port: a close
// grandmaster, tens of microseconds of path delay with light jitter,
// a drifting oscillator and a large initial error to step away.
func DefaultConfig() *Config {
	ecfg := engine.DefaultConfig()
	ecfg.ClockIdentity = 0x010203fffe040506
	// let the first servo update step the initial error away
	ecfg.FirstStepThreshold = 20 * time.Microsecond
	return &Config{
		Engine: ecfg,
		Master: DefaultMasterConfig(),
		Network: NetworkConfig{
			BaseDelay: 50 * time.Microsecond,
			Jitter:    5 * time.Microsecond,
		},
		TickInterval:  100 * time.Millisecond,
		InitialOffset: 50 * time.Millisecond,
		DriftPPB:      500,
	}
}

// delayResp is a response in flight back to the port
type delayResp struct {
	seq uint16
	t4  time.Time
	at  time.Time
}

// Simulator wires an engine port to a simulated grandmaster over a
// simulated network and advances everything on virtual time. It is the
// port's Transmitter: egress timestamps come from the simulated local
// clock and delay requests travel to the master and back with sampled
// transit delays.
type Simulator struct {
	cfg    *Config
	port   *engine.Port
	master *Master
	net    *Network
	clk    *LocalClock

	trueNow time.Time
	pending []delayResp
}

// New builds a Simulator from cfg, publishing engine stats into stats
func New(cfg *Config, stats engine.StatsServer) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := cfg.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	s := &Simulator{
		cfg:     cfg,
		master:  NewMaster(cfg.Master),
		net:     NewNetwork(cfg.Network),
		clk:     NewLocalClock(start, cfg.InitialOffset, cfg.DriftPPB),
		trueNow: start,
		pending: make([]delayResp, 0, 16),
	}
	port, err := engine.NewPort(cfg.Engine, s.clk, s, stats)
	if err != nil {
		return nil, err
	}
	s.port = port
	return s, nil
}

// Port returns the engine port under simulation
func (s *Simulator) Port() *engine.Port {
	return s.port
}

// Clock returns the simulated local clock
func (s *Simulator) Clock() *LocalClock {
	return s.clk
}

// TrueNow returns the current simulated true time
func (s *Simulator) TrueNow() time.Time {
	return s.trueNow
}

// couple of helpers to log nice lines about happening communication
func (s *Simulator) logSent(t ptp.MessageType, msg string, v ...interface{}) {
	log.Infof(color.GreenString("port -> %s (%s)", t, fmt.Sprintf(msg, v...)))
}
func (s *Simulator) logReceive(t ptp.MessageType, msg string, v ...interface{}) {
	log.Infof(color.BlueString("master -> %s (%s)", t, fmt.Sprintf(msg, v...)))
}

// SendAnnounce implements engine.Transmitter. Nobody listens on the
// simulated wire, emissions are only logged.
func (s *Simulator) SendAnnounce(ds ptp.ClockDataset, tp ptp.TimePropertiesDataset, seq uint16) error {
	s.logSent(ptp.MessageAnnounce, "seq=%d, gm=%s, class=%d", seq, ds.GrandmasterIdentity, ds.ClockQuality.ClockClass)
	return nil
}

// SendSync implements engine.Transmitter
func (s *Simulator) SendSync(seq uint16) (time.Time, error) {
	t1 := s.clk.Now()
	s.logSent(ptp.MessageSync, "seq=%d, t1=%v", seq, t1)
	return t1, nil
}

// SendFollowUp implements engine.Transmitter
func (s *Simulator) SendFollowUp(seq uint16, t1 time.Time) error {
	s.logSent(ptp.MessageFollowUp, "seq=%d, t1=%v", seq, t1)
	return nil
}

// SendDelayReq carries the request to the master and schedules the
// response back, both legs subject to network loss
func (s *Simulator) SendDelayReq(seq uint16) (time.Time, error) {
	t3 := s.clk.Now()
	s.logSent(ptp.MessageDelayReq, "seq=%d, t3=%v", seq, t3)
	up, ok := s.net.Up()
	if !ok {
		log.Debugf("delay request seq=%d lost on the way up", seq)
		return t3, nil
	}
	arrival := s.trueNow.Add(up)
	t4 := s.master.DelayResp(arrival)
	down, ok := s.net.Down()
	if !ok {
		log.Debugf("delay response seq=%d lost on the way down", seq)
		return t3, nil
	}
	s.pending = append(s.pending, delayResp{seq: seq, t4: t4, at: arrival.Add(down)})
	return t3, nil
}

// step advances the simulation by dt: clocks move, due master
// emissions and in-flight responses are delivered, then the port runs
// its evaluation cycle on its own (local) view of time.
func (s *Simulator) step(dt time.Duration) {
	s.trueNow = s.trueNow.Add(dt)
	s.clk.AdvanceTo(s.trueNow)

	if ds, ok := s.master.AnnounceDue(s.trueNow); ok {
		if delay, up := s.net.Down(); up {
			now := s.clk.At(s.trueNow.Add(delay))
			s.logReceive(ptp.MessageAnnounce, "gm=%s, class=%d", ds.GrandmasterIdentity, ds.ClockQuality.ClockClass)
			if err := s.port.ProcessAnnounce(s.master.Identity(), ds, now); err != nil {
				log.Debugf("announce rejected: %v", err)
			}
		} else {
			log.Debugf("announce lost")
		}
	}

	if seq, t1, ok := s.master.SyncDue(s.trueNow); ok {
		if delay, up := s.net.Down(); up {
			t2 := s.clk.At(s.trueNow.Add(delay))
			s.logReceive(ptp.MessageSync, "seq=%d, t2=%v", seq, t2)
			s.port.ProcessSync(seq, t2, t2)
			s.logReceive(ptp.MessageFollowUp, "seq=%d, t1=%v", seq, t1)
			s.port.ProcessFollowUp(seq, t1, t2)
		} else {
			log.Debugf("sync seq=%d lost", seq)
		}
	}

	kept := s.pending[:0]
	for _, r := range s.pending {
		if r.at.After(s.trueNow) {
			kept = append(kept, r)
			continue
		}
		now := s.clk.At(r.at)
		s.logReceive(ptp.MessageDelayResp, "seq=%d, t4=%v", r.seq, r.t4)
		if err := s.port.ProcessDelayResp(r.seq, r.t4, now); err != nil {
			log.Debugf("delay response rejected: %v", err)
		}
	}
	s.pending = kept

	s.port.Tick(s.clk.Now())
}

// Run initializes the port and advances the simulation until the
// context is cancelled or the configured simulated duration elapses
func (s *Simulator) Run(ctx context.Context) error {
	s.port.Dispatch(engine.EventInitialize)

	var end time.Time
	if s.cfg.Duration > 0 {
		end = s.trueNow.Add(s.cfg.Duration)
	}
	var tick <-chan time.Time
	if s.cfg.RealTime {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		if !end.IsZero() && !s.trueNow.Before(end) {
			return nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		s.step(s.cfg.TickInterval)
	}
}
