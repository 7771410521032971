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
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/intelcon-group/scootergw/scooter/api"
)

// RootCmd is the main entry point of the operator CLI
var RootCmd = &cobra.Command{
	Use:   "scootctl",
	Short: "Operator CLI for the scooter gateway",
}

var verbose bool
var apiURL string

var okString = color.GreenString("[ OK ]")
var failString = color.RedString("[FAIL]")

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().StringVarP(&apiURL, "api", "a", "http://localhost:4000", "base URL of the gateway operator API")
}

// ConfigureVerbosity configures log verbosity based on parsed flags.
// Needs to be called by any subcommand.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// post sends an operator request and prints the outcome.
// Exits non-zero when the operation failed.
func post(path string, req *api.Request) {
	body, err := json.Marshal(req)
	if err != nil {
		log.Fatal(err)
	}
	log.Debugf("POST %s%s %s", apiURL, path, body)
	resp, err := http.Post(apiURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	result := &api.Response{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		log.Fatalf("Bad response (HTTP %d): %v", resp.StatusCode, err)
	}
	if !result.Success {
		fmt.Printf("%s %s: %s\n", failString, result.IMEI, result.Message)
		os.Exit(1)
	}
	fmt.Printf("%s %s: %s\n", okString, result.IMEI, result.Message)
}

// Execute is the main entry point for CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
