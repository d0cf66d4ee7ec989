// Package options provides the set of options that configure an imgopen run.
package options

import (
	"io"
	"os"

	"github.com/gruntwork-io/imgopen/internal/album"
	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/fileinfo"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/telemetry"
	"github.com/gruntwork-io/imgopen/pkg/env"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

const (
	DefaultLogLevel  = log.InfoLevel
	DefaultLogFormat = log.FormatPretty
)

// Options represents the configuration of a single run.
// Zero values of the boolean toggles are the defaults, so a merged source can only switch them on.
type Options struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Logger    log.Logger

	Telemetry *telemetry.Options

	// WorkingDir resolves relative arguments and is the first place the config file is looked up.
	WorkingDir string

	// ConfigPath is the HCL file that was loaded, if any.
	ConfigPath string

	LogLevel  string
	LogFormat string

	// TempDir is the parent of archive extraction and download directories, os.TempDir() when empty.
	TempDir string

	// Ignore holds glob patterns of entry paths skipped while listing directories.
	Ignore []string

	MaxFiles        int
	MaxDepthImages  int
	MemoryCapacity  int
	PrefetchWorkers int

	ShowHidden bool
	NoSiblings bool
	Clipboard  bool
}

// NewOptions returns options with the defaults set.
func NewOptions() *Options {
	return &Options{
		Writer:          os.Stdout,
		ErrWriter:       os.Stderr,
		Logger:          log.New(log.WithOutput(os.Stderr), log.WithLevel(DefaultLogLevel)),
		Telemetry:       &telemetry.Options{TraceExporter: telemetry.ExporterNone, MetricExporter: telemetry.ExporterNone},
		LogLevel:        DefaultLogLevel.String(),
		LogFormat:       DefaultLogFormat,
		MaxFiles:        pipeline.DefaultMaxFiles,
		MaxDepthImages:  pipeline.DefaultMaxDepthImages,
		MemoryCapacity:  album.DefaultMemoryCapacity,
		PrefetchWorkers: fileinfo.DefaultWorkers,
	}
}

// Clone returns a shallow copy with its own slices and telemetry options.
func (opts *Options) Clone() *Options {
	newOpts := *opts
	newOpts.Ignore = append([]string(nil), opts.Ignore...)

	if opts.Telemetry != nil {
		tel := *opts.Telemetry
		newOpts.Telemetry = &tel
	}

	return &newOpts
}

// ApplyEnv overrides the options with the `IMGOPEN_*` environment variables that are set.
func (opts *Options) ApplyEnv() {
	opts.LogLevel = env.GetStringEnv(env.Key("log-level"), opts.LogLevel)
	opts.LogFormat = env.GetStringEnv(env.Key("log-format"), opts.LogFormat)
	opts.TempDir = env.GetStringEnv(env.Key("temp-dir"), opts.TempDir)
	opts.Ignore = env.GetListEnv(env.Key("ignore"), opts.Ignore)
	opts.MaxFiles = env.GetIntEnv(env.Key("max-files"), opts.MaxFiles)
	opts.MaxDepthImages = env.GetIntEnv(env.Key("max-depth-images"), opts.MaxDepthImages)
	opts.MemoryCapacity = env.GetIntEnv(env.Key("memory-capacity"), opts.MemoryCapacity)
	opts.PrefetchWorkers = env.GetIntEnv(env.Key("prefetch-workers"), opts.PrefetchWorkers)
	opts.ShowHidden = env.GetBoolEnv(env.Key("show-hidden"), opts.ShowHidden)
	opts.NoSiblings = env.GetBoolEnv(env.Key("no-siblings"), opts.NoSiblings)

	if opts.Telemetry != nil {
		opts.Telemetry.TraceExporter = env.GetStringEnv(env.Key("telemetry-trace-exporter"), opts.Telemetry.TraceExporter)
		opts.Telemetry.MetricExporter = env.GetStringEnv(env.Key("telemetry-metric-exporter"), opts.Telemetry.MetricExporter)
	}
}

// Validate checks the values that cannot be corrected silently.
func (opts *Options) Validate() error {
	if _, err := log.ParseLevel(opts.LogLevel); err != nil {
		return err
	}

	switch opts.LogFormat {
	case log.FormatPretty, log.FormatBare, log.FormatJSON:
	default:
		return errors.New(InvalidValueError{Name: "log-format", Value: opts.LogFormat})
	}

	for name, val := range map[string]int{
		"max-files":        opts.MaxFiles,
		"max-depth-images": opts.MaxDepthImages,
		"memory-capacity":  opts.MemoryCapacity,
		"prefetch-workers": opts.PrefetchWorkers,
	} {
		if val < 0 || (val == 0 && (name == "memory-capacity" || name == "prefetch-workers")) {
			return errors.New(InvalidValueError{Name: name, Value: val})
		}
	}

	return nil
}

// ConfigureLogger applies the level and format to the logger.
func (opts *Options) ConfigureLogger() error {
	level, err := log.ParseLevel(opts.LogLevel)
	if err != nil {
		return err
	}

	opts.Logger.SetOptions(log.WithLevel(level), log.WithFormat(opts.LogFormat))

	return nil
}
