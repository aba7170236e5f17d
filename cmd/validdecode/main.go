// Command validdecode generates validated decode hooks for the annotated
// types of a Go package.
//
// Usage:
//
//	validdecode generate [flags] [dir]
//	validdecode check [flags] [dir]
//	validdecode inspect [flags] [dir]
//
// A typical package carries
//
//	//go:generate go run github.com/reoring/validdecode/cmd/validdecode generate
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/reoring/validdecode/internal/log"
)

var verbose = flag.Bool("v", false, "log debug output")

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&generateCmd{}, "")
	subcommands.Register(&checkCmd{}, "")
	subcommands.Register(&inspectCmd{out: os.Stdout}, "")
	flag.Parse()

	l, err := log.New(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validdecode: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}
	log.SetLogger(l)
	defer func() { _ = l.Sync() }()

	os.Exit(int(subcommands.Execute(context.Background())))
}
