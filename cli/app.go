// Package cli implements the imgopen command line application.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/vfs"
	"github.com/gruntwork-io/imgopen/options"
)

const (
	AppName = "imgopen"

	VersionCommandName = "version"
)

// Version is set at build time with `-ldflags "-X github.com/gruntwork-io/imgopen/cli.Version=v1.2.3"`.
var Version = "dev"

// NewApp creates the imgopen CLI App.
func NewApp(opts *options.Options) *cli.App {
	return &cli.App{
		Name:      AppName,
		Usage:     "Opens images from files, directories, archives, URIs and the clipboard.",
		UsageText: "imgopen [global options] [path | glob | uri]...",
		Description: `Every argument is opened as a source: directories are listed recursively, archives are
extracted, remote URIs are downloaded. A single file argument also opens the images next to it.
Opened images are printed one per line as: index, location, dimensions and format.`,
		Version:   Version,
		Writer:    opts.Writer,
		ErrWriter: opts.ErrWriter,
		Flags:     NewFlags(opts),
		Before: func(ctx *cli.Context) error {
			return initialSetup(ctx, opts)
		},
		Action: errors.WithPanicHandling(func(ctx *cli.Context) error {
			return Open(ctx.Context, opts, ctx.Args().Slice())
		}),
		Commands: []*cli.Command{
			NewVersionCommand(),
		},
	}
}

// NewVersionCommand prints the version.
func NewVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  VersionCommandName,
		Usage: "Show the imgopen version.",
		Action: func(ctx *cli.Context) error {
			_, err := fmt.Fprintf(ctx.App.Writer, "%s version %s\n", AppName, ctx.App.Version)
			return err
		},
	}
}

// initialSetup layers the config file, the environment and the flags over the defaults.
func initialSetup(ctx *cli.Context, opts *options.Options) error {
	if opts.WorkingDir == "" {
		workingDir, err := os.Getwd()
		if err != nil {
			return errors.New(err)
		}

		opts.WorkingDir = workingDir
	}

	fs := vfs.NewOSFS()

	path := configPath(ctx)
	if path == "" {
		discovered, err := options.DiscoveryPath(fs, opts.WorkingDir)
		if err != nil {
			return err
		}

		path = discovered
	}

	if path != "" {
		if err := opts.MergeConfigFile(fs, path); err != nil {
			return err
		}

		opts.ConfigPath = path
	}

	opts.ApplyEnv()
	applyFlags(ctx, opts)

	if err := opts.Validate(); err != nil {
		return err
	}

	if err := opts.ConfigureLogger(); err != nil {
		return err
	}

	if opts.ConfigPath != "" {
		opts.Logger.Debugf("Loaded config file %s", opts.ConfigPath)
	}

	return nil
}
