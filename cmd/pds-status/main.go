// Package main is the entry point for pds-status.
package main

import "pds-status/cmd/pds-status/cmd"

func main() {
	cmd.Execute()
}
