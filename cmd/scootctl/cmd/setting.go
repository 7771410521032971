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

package cmd

import (
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/intelcon-group/scootergw/scooter/api"
)

func init() {
	RootCmd.AddCommand(gearCmd)
	RootCmd.AddCommand(headlightCmd)
}

var gearCmd = &cobra.Command{
	Use:   "gear <imei> <0-3>",
	Short: "Change the speed gear of a scooter (1=low, 2=medium, 3=high)",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		gear, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil || gear > 3 {
			log.Fatalf("Gear must be between 0 and 3, got %q", args[1])
		}
		g := uint8(gear)
		post("/change-gear", &api.Request{IMEI: args[0], Gear: &g})
	},
}

var headlightCmd = &cobra.Command{
	Use:   "headlight <imei> <on|off>",
	Short: "Toggle the headlight of a scooter",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		var state bool
		switch args[1] {
		case "on":
			state = true
		case "off":
			state = false
		default:
			log.Fatalf("State must be on or off, got %q", args[1])
		}
		post("/toggle-headlight", &api.Request{IMEI: args[0], State: &state})
	},
}
