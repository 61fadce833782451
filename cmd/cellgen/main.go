// Command cellgen writes projection and array accessor functions for the
// cellproj package, so that field paths are checked by the Go compiler.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at link time.
var Version = "devel"

var flags = []cli.Flag{
	// Logging
	&cli.StringFlag{
		Name:    "logfmt",
		Aliases: []string{"f"},
		Usage:   "`format` logs as text, json or none",
		Value:   "text",
		EnvVars: []string{"CELLGEN_LOGFMT"},
	},
	&cli.StringFlag{
		Name:    "loglvl",
		Usage:   "set logging `level` to debug, info, warn or error",
		Value:   "info",
		EnvVars: []string{"CELLGEN_LOGLVL"},
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "cellgen",
		Usage:     "generate compile-time checked cell projections",
		UsageText: "cellgen [global options] command [command options] [dir...]",
		Version:   Version,
		Flags:     flags,
		Commands: []*cli.Command{
			generateCommand(),
			checkCommand(),
		},
		Metadata: map[string]interface{}{},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
