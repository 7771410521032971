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
	"flag"
	"net/http"
	_ "net/http/pprof"

	log "github.com/sirupsen/logrus"

	"github.com/intelcon-group/scootergw/scooter/api"
	"github.com/intelcon-group/scootergw/scooter/gateway"
	"github.com/intelcon-group/scootergw/scooter/stats"
)

func main() {
	c := gateway.DefaultConfig()

	var (
		configPath string
		logLevel   string
		pprofAddr  string
		statsType  string
		userID     uint
	)

	flag.StringVar(&configPath, "config", "", "Path to a yaml config, overrides the other flags")
	flag.StringVar(&c.DeviceAddr, "deviceaddr", c.DeviceAddr, "host:port for the device TCP listener")
	flag.StringVar(&c.HTTPAddr, "httpaddr", c.HTTPAddr, "host:port for the operator HTTP API")
	flag.IntVar(&c.MonitoringPort, "monitoringport", c.MonitoringPort, "Port to run monitoring server on, 0 disables it")
	flag.StringVar(&c.Vendor, "vendor", c.Vendor, "Vendor tag stamped on every frame")
	flag.UintVar(&userID, "userid", uint(c.UserID), "Operator user id used in unlock/lock exchanges")
	flag.DurationVar(&c.StepTimeout, "steptimeout", c.StepTimeout, "Timeout of every workflow step")
	flag.StringVar(&logLevel, "loglevel", "info", "Set a log level. Can be: debug, info, warning, error")
	flag.StringVar(&pprofAddr, "pprofaddr", "", "host:port for the pprof to bind")
	flag.StringVar(&statsType, "stats", "json", "Stats reporter. Can be: json, prometheus")
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

	c.UserID = uint32(userID)
	if configPath != "" {
		var err error
		if c, err = gateway.ReadConfig(configPath); err != nil {
			log.Fatalf("Failed to read config: %v", err)
		}
	} else if err := c.Validate(); err != nil {
		log.Fatalf("Bad config: %v", err)
	}

	if pprofAddr != "" {
		log.Warningf("Starting profiler on %s", pprofAddr)
		go func() {
			log.Println(http.ListenAndServe(pprofAddr, nil))
		}()
	}

	var st stats.Stats
	switch statsType {
	case "json":
		st = stats.NewJSONStats()
	case "prometheus":
		st = stats.NewPrometheusStats()
	default:
		log.Fatalf("Unrecognized stats reporter: %v", statsType)
	}
	if c.MonitoringPort > 0 {
		go st.Start(c.MonitoringPort)
	}

	registry := gateway.NewRegistry()
	server := &gateway.Server{
		Config:    c,
		Stats:     st,
		Registry:  registry,
		Telemetry: &gateway.TelemetryLogger{},
	}
	operator := api.NewServer(c.HTTPAddr, gateway.NewOrchestrator(c, registry, st))

	fail := make(chan bool)
	go func() {
		if err := server.Start(); err != nil {
			log.Errorf("Device server failed: %v", err)
		}
		fail <- true
	}()
	go func() {
		if err := operator.Start(); err != nil {
			log.Errorf("Operator API failed: %v", err)
		}
		fail <- true
	}()

	<-fail
	log.Fatal("one of server routines finished")
}
