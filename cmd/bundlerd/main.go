/*
bundlerd is a daemon, serving the bundle generation and transfer API via HTTP.

Usage:

	-config string
		path to a YAML configuration file - default: BUNDLER_CONFIG
	-list-conf-opts
		list configuration options
	-standalone
		run with an in-memory store and a directory blob store
	-version
		show version
*/
package main

import (
	"log"
	"os"

	"github.com/manualsvc/bundler/daemon"
)

func main() {
	log.SetOutput(os.Stdout)

	code := daemon.Run(os.Args[1:])
	os.Exit(code)
}
