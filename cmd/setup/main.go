// Command setup prepares a project root: capability check, data
// directories and a mock model when no real one is installed.
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/pashuvision/modelport/internal/cli"
	"github.com/pashuvision/modelport/internal/config"
	"github.com/pashuvision/modelport/internal/setup"
)

func main() {
	cli.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		common   cli.Common
		root     string
		skipDeps bool
		mockOnly bool
	)
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&root, "root", cfg.Root, "project root")
	fs.BoolVar(&skipDeps, "skip-deps", false, "skip the capability check")
	fs.BoolVar(&mockOnly, "mock-only", false, "always create the mock model")
	common.Register(fs, cfg)
	if err := cli.Parse(fs, args); err != nil {
		return err
	}
	if common.Version {
		cli.PrintVersion(stdout, "setup")
		return nil
	}

	logger, err := common.Logger(stderr)
	if err != nil {
		return err
	}
	opts := setup.Options{
		Root:     root,
		SkipDeps: skipDeps,
		MockOnly: mockOnly,
		Logger:   logger,
		Out:      stdout,
	}
	store, err := cli.Store(cfg.Artifact)
	if err != nil {
		return err
	}
	if store != nil {
		opts.Store = store
	}

	_, err = setup.Run(ctx, opts)
	return err
}
