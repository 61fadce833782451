package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/rawbytedev/cellproj/internal/gen"
)

func commandFlags() []cli.Flag {
	return []cli.Flag{
		&cli.PathFlag{
			Name:      "config",
			Aliases:   []string{"c"},
			Usage:     "read packages and projections from `file`",
			Value:     "cellgen.yaml",
			TakesFile: true,
			EnvVars:   []string{"CELLGEN_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "generated file `name` for packages given as arguments",
			Value:   gen.DefaultOutput,
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Usage:   "packages processed in parallel (0 uses every CPU)",
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "write accessor files",
		ArgsUsage: "[dir...]",
		Description: `Generates projection and array accessors for every package in the
configuration file, plus any package directory given as an argument.
Packages given as arguments are scanned for //cellgen: directives only.`,
		Flags: append(commandFlags(), &cli.BoolFlag{
			Name:  "dry-run",
			Usage: "resolve everything but write nothing",
		}),
		Action: func(c *cli.Context) error {
			log := logger(c)
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			g := gen.New(gen.Options{
				Logger: log,
				DryRun: c.Bool("dry-run"),
				Jobs:   c.Int("jobs"),
			})
			results, err := g.Run(c.Context, cfg)
			if err != nil {
				// cli.HandleExitCoder exits on any error with an Errors method.
				return fmt.Errorf("cellgen: %w", err)
			}
			for _, r := range results {
				if r.Written {
					fmt.Fprintln(c.App.Writer, r.Output)
				}
			}
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "verify that accessor files are up to date",
		ArgsUsage: "[dir...]",
		Flags:     commandFlags(),
		Action: func(c *cli.Context) error {
			log := logger(c)
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			g := gen.New(gen.Options{Logger: log, DryRun: true, Jobs: c.Int("jobs")})
			results, err := g.Run(c.Context, cfg)
			if err != nil {
				return fmt.Errorf("cellgen: %w", err)
			}

			var stale int
			for _, r := range results {
				if r.Source == nil {
					continue
				}
				have, err := os.ReadFile(r.Output)
				if err != nil && !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				if !bytes.Equal(have, r.Source) {
					stale++
					fmt.Fprintln(c.App.Writer, r.Output)
				}
			}
			if stale > 0 {
				return fmt.Errorf("%d generated file(s) out of date; run cellgen generate", stale)
			}
			log.Debug("generated files up to date", zap.Int("packages", len(results)))
			return nil
		},
	}
}

// loadConfig reads the configuration file and appends the directories named
// on the command line. A missing default configuration file is not an error.
func loadConfig(c *cli.Context) (*gen.Config, error) {
	cfg := &gen.Config{}
	path := c.Path("config")
	loaded, err := gen.LoadConfig(path)
	switch {
	case err == nil:
		cfg = loaded
		logger(c).Debug("loaded config", zap.String("path", cfg.Path()), zap.Int("packages", len(cfg.Packages)))
	case errors.Is(err, fs.ErrNotExist) && !c.IsSet("config"):
	default:
		return nil, err
	}

	for _, dir := range c.Args().Slice() {
		cfg.Packages = append(cfg.Packages, gen.PackageConfig{Dir: dir, Output: c.String("output")})
	}
	if len(cfg.Packages) == 0 {
		cfg.Packages = append(cfg.Packages, gen.PackageConfig{Dir: ".", Output: c.String("output")})
	}
	return cfg, nil
}
