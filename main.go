// Copyright (c) 2026 Keymaster Team
// Keymaster - SSH key management system
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for knownhosts.
//
// Usage:
//
//	go run . [flags] <host> [aliases...]
//	./knownhosts [flags] <host> [aliases...]
//
// See --help for options.
package main

import (
	"os"

	"github.com/toeirei/keymaster-knownhosts/internal/logging"
	"github.com/toeirei/keymaster-knownhosts/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}
