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
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/intelcon-group/scootergw/scooter/simulator"
)

func main() {
	var (
		addr      string
		vendor    string
		imei      string
		count     int
		heartbeat time.Duration
		key       uint
		positions bool
		logLevel  string
	)

	flag.StringVar(&addr, "addr", "localhost:8400", "Gateway device listener to dial")
	flag.StringVar(&vendor, "vendor", "LZ", "Vendor tag stamped on every frame")
	flag.StringVar(&imei, "imei", "123456789012345", "IMEI of the first simulated scooter")
	flag.IntVar(&count, "count", 1, "Number of scooters to simulate, IMEIs are consecutive")
	flag.DurationVar(&heartbeat, "heartbeat", 30*time.Second, "Heartbeat interval")
	flag.UintVar(&key, "key", 0, "Fixed one-time key to return, 0 picks random keys")
	flag.BoolVar(&positions, "positions", false, "Report a D0 position with every heartbeat")
	flag.StringVar(&logLevel, "loglevel", "info", "Set a log level. Can be: debug, info, warning, error")
	flag.Parse()

	switch logLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Fatalf("Unrecognized log level: %v", logLevel)
	}

	base, err := strconv.ParseInt(imei, 10, 64)
	if err != nil || len(imei) != 15 {
		log.Fatalf("IMEI must be 15 digits, got %q", imei)
	}
	if key > 255 {
		log.Fatalf("Key must fit in a byte, got %d", key)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		cfg := simulator.Config{
			Addr:              addr,
			Vendor:            vendor,
			IMEI:              fmt.Sprintf("%015d", base+int64(i)),
			HeartbeatInterval: heartbeat,
			Key:               uint8(key),
			EmitPositions:     positions,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := simulator.New(cfg).Run(ctx); err != nil {
				log.Errorf("Scooter %s stopped: %v", cfg.IMEI, err)
			}
		}()
	}
	wg.Wait()
}
