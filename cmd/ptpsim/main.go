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

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/engine"
	"github.com/zarfld/IEEE-1588-2019-sub011/ptp/sim"

	_ "net/http/pprof"
)

func doWork(cfg *sim.Config) error {
	stats := engine.NewJSONStats()
	go stats.Start(cfg.Engine.MonitoringPort, time.Second)
	s, err := sim.New(cfg, stats)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer cancel()
		return s.Run(ctx)
	})
	eg.Go(func() error {
		sigStop := make(chan os.Signal, 1)
		signal.Notify(sigStop, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
		select {
		case sig := <-sigStop:
			log.Warningf("received %s, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
		return nil
	})
	return eg.Wait()
}

func main() {
	var (
		verboseFlag        bool
		configFlag         string
		monitoringPortFlag int
		durationFlag       time.Duration
		realTimeFlag       bool
		pprofFlag          string
	)
	defaults := sim.DefaultConfig()

	flag.BoolVar(&verboseFlag, "verbose", false, "verbose output")
	flag.StringVar(&configFlag, "config", "", "path to the config")
	flag.IntVar(&monitoringPortFlag, "monitoringport", defaults.Engine.MonitoringPort, "port to start monitoring http server on")
	flag.DurationVar(&durationFlag, "duration", defaults.Duration, "how much simulated time to run, 0 means until interrupted")
	flag.BoolVar(&realTimeFlag, "realtime", false, "pace simulation ticks on the wall clock")
	flag.StringVar(&pprofFlag, "pprof", "", "Address to have the profiler listen on, disabled if empty.")

	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	log.SetLevel(log.InfoLevel)
	if verboseFlag {
		log.SetLevel(log.DebugLevel)
	}
	cfg, err := sim.PrepareConfig(configFlag, monitoringPortFlag, durationFlag, realTimeFlag, setFlags)
	if err != nil {
		log.Fatal(err)
	}
	if pprofFlag != "" {
		go func() {
			err := http.ListenAndServe(pprofFlag, nil)
			if err != nil {
				log.Errorf("Failed to start pprof. Err: %v", err)
			}
		}()
	}
	if err := doWork(cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
