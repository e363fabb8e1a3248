// Package main hosts the clipset CLI entrypoint and command graph.
//
// The Cobra command tree indexes a remote archive, builds dataset splits,
// samples individual videos, walks split generators and reports on what is
// on disk. Configuration resolution and logging setup live in the command
// context so subcommands only wire internal packages together.
package main
