// Package main provides the entry point for the DataHawk CLI.
//
// DataHawk crawls websites from a set of seed URLs and extracts
// pattern-matched data such as email addresses, phone numbers and IPv4
// addresses into txt, csv or json-lines files.
//
// Usage:
//
//	datahawk crawl https://example.com
//	datahawk crawl -q phone --output csv < urls.txt
//
// See --help for all available options.
package main

import (
	"context"
	"os"
	"syscall"

	"charm.land/fang/v2"
)

// shutdownSignals cancel the command context. A crawl then stops
// cooperatively: workers finish their current page, the run is stored as
// cancelled and the summary is printed.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// main is the entry point for DataHawk.
func main() {
	if err := fang.Execute(
		context.Background(),
		NewRootCmd(),
		fang.WithNotifySignal(shutdownSignals...),
	); err != nil {
		os.Exit(1)
	}
}
