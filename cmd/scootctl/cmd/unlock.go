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
	"github.com/spf13/cobra"

	"github.com/intelcon-group/scootergw/scooter/api"
)

func init() {
	RootCmd.AddCommand(unlockCmd)
	RootCmd.AddCommand(lockCmd)
}

var unlockCmd = &cobra.Command{
	Use:   "unlock <imei>",
	Short: "Unlock a scooter",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		post("/unlock", &api.Request{IMEI: args[0]})
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock <imei>",
	Short: "Lock a scooter",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		post("/lock", &api.Request{IMEI: args[0]})
	},
}
