// Package main is the entry point for the cricatlas CLI, which computes
// home-advantage and venue statistics from cricket results databases.
package main

import "github.com/dpathania/cricket-atlas/cmd"

func main() {
	cmd.Execute()
}
