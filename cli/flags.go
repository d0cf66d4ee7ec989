package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/gruntwork-io/imgopen/internal/telemetry"
	"github.com/gruntwork-io/imgopen/options"
	"github.com/gruntwork-io/imgopen/pkg/env"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

const (
	FlagNameConfig                  = "config"
	FlagNameLogLevel                = "log-level"
	FlagNameLogFormat               = "log-format"
	FlagNameTempDir                 = "temp-dir"
	FlagNameIgnore                  = "ignore"
	FlagNameMaxFiles                = "max-files"
	FlagNameMaxDepthImages          = "max-depth-images"
	FlagNameMemoryCapacity          = "memory-capacity"
	FlagNamePrefetchWorkers         = "prefetch-workers"
	FlagNameShowHidden              = "show-hidden"
	FlagNameNoSiblings              = "no-siblings"
	FlagNameClipboard               = "clipboard"
	FlagNameTelemetryTraceExporter  = "telemetry-trace-exporter"
	FlagNameTelemetryMetricExporter = "telemetry-metric-exporter"
)

// NewFlags returns the global flags. Defaults are shown from opts; the values are applied
// by applyFlags after the config file and the environment.
func NewFlags(opts *options.Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagNameConfig,
			Aliases: []string{"c"},
			Usage:   fmt.Sprintf("Path to the config file, %s in the working or user config directory by default.", options.ConfigFilename),
		},
		&cli.StringFlag{
			Name:  FlagNameLogLevel,
			Usage: fmt.Sprintf("Sets the logging level: %s.", log.AllLevels),
			Value: opts.LogLevel,
		},
		&cli.StringFlag{
			Name:  FlagNameLogFormat,
			Usage: "Sets the logging format: pretty, bare or json.",
			Value: opts.LogFormat,
		},
		&cli.StringFlag{
			Name:  FlagNameTempDir,
			Usage: "Directory archives are extracted and downloads are stored in.",
		},
		&cli.StringSliceFlag{
			Name:  FlagNameIgnore,
			Usage: "Glob pattern of directory entries to skip, can be given multiple times.",
		},
		&cli.IntFlag{
			Name:  FlagNameMaxFiles,
			Usage: "Stop recursing once a session yields more files, 0 disables the limit.",
			Value: opts.MaxFiles,
		},
		&cli.IntFlag{
			Name:  FlagNameMaxDepthImages,
			Usage: "Stop descending once the depth times the images opened so far exceeds this value, 0 disables the limit.",
			Value: opts.MaxDepthImages,
		},
		&cli.IntFlag{
			Name:  FlagNameMemoryCapacity,
			Usage: "Number of images kept loaded.",
			Value: opts.MemoryCapacity,
		},
		&cli.IntFlag{
			Name:  FlagNamePrefetchWorkers,
			Usage: "Number of concurrent file type lookups.",
			Value: opts.PrefetchWorkers,
		},
		&cli.BoolFlag{
			Name:  FlagNameShowHidden,
			Usage: "Open hidden files and directories.",
		},
		&cli.BoolFlag{
			Name:  FlagNameNoSiblings,
			Usage: "Do not open the other images of the directory when a single file is given.",
		},
		&cli.BoolFlag{
			Name:  FlagNameClipboard,
			Usage: "Open the paths, URIs or image data in the clipboard.",
		},
		&cli.StringFlag{
			Name:  FlagNameTelemetryTraceExporter,
			Usage: fmt.Sprintf("Traces exporter: %s or %s.", telemetry.ExporterNone, telemetry.ExporterConsole),
			Value: opts.Telemetry.TraceExporter,
		},
		&cli.StringFlag{
			Name:  FlagNameTelemetryMetricExporter,
			Usage: fmt.Sprintf("Metrics exporter: %s or %s.", telemetry.ExporterNone, telemetry.ExporterConsole),
			Value: opts.Telemetry.MetricExporter,
		},
	}
}

// applyFlags overrides opts with the flags given on the command line.
func applyFlags(ctx *cli.Context, opts *options.Options) {
	for name, dst := range map[string]*string{
		FlagNameLogLevel:                &opts.LogLevel,
		FlagNameLogFormat:               &opts.LogFormat,
		FlagNameTempDir:                 &opts.TempDir,
		FlagNameTelemetryTraceExporter:  &opts.Telemetry.TraceExporter,
		FlagNameTelemetryMetricExporter: &opts.Telemetry.MetricExporter,
	} {
		if ctx.IsSet(name) {
			*dst = ctx.String(name)
		}
	}

	for name, dst := range map[string]*int{
		FlagNameMaxFiles:        &opts.MaxFiles,
		FlagNameMaxDepthImages:  &opts.MaxDepthImages,
		FlagNameMemoryCapacity:  &opts.MemoryCapacity,
		FlagNamePrefetchWorkers: &opts.PrefetchWorkers,
	} {
		if ctx.IsSet(name) {
			*dst = ctx.Int(name)
		}
	}

	for name, dst := range map[string]*bool{
		FlagNameShowHidden: &opts.ShowHidden,
		FlagNameNoSiblings: &opts.NoSiblings,
		FlagNameClipboard:  &opts.Clipboard,
	} {
		if ctx.IsSet(name) {
			*dst = ctx.Bool(name)
		}
	}

	if ctx.IsSet(FlagNameIgnore) {
		opts.Ignore = append(opts.Ignore, ctx.StringSlice(FlagNameIgnore)...)
	}
}

// configPath returns the config file to load: the flag, then the environment, then discovery.
func configPath(ctx *cli.Context) string {
	if ctx.IsSet(FlagNameConfig) {
		return ctx.String(FlagNameConfig)
	}

	return env.GetStringEnv(env.Key(FlagNameConfig), "")
}
