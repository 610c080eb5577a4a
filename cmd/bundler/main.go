/*
bundler is a CLI for interacting with a bundler HTTP server.

Usage:

	bundler [flags]
	bundler [command]

Available Commands:

	bundle     Generate, transfer and export service bundles
	completion Generate the autocompletion script for the specified shell
	describe   Draft service and step descriptions
	diagram    Show and save service diagrams
	help       Help about any command
	transfer   Query transfer jobs
	version    Show version

Flags:

	    --debug              Log HTTP requests and responses
	-h, --help               help for bundler
	    --timeout duration   Time limit for requests made by the HTTP client (default 2m0s)
	    --url string         HTTP server URL

Use "bundler [command] --help" for more information about a command.
*/
package main

import (
	"os"

	"github.com/manualsvc/bundler/cli"
)

var (
	version = "unknown-version"
)

func main() {
	cli := cli.New(version)
	os.Exit(cli.Execute())
}
