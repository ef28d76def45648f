// Package main is the entry point for the spectra CLI.
package main

import "spectra.dev/pkg/spectra/cmd"

func main() {
	cmd.Execute()
}
