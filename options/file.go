package options

import (
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/mitchellh/go-homedir"
	"github.com/zclconf/go-cty/cty"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/telemetry"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

const (
	ConfigFilename = "imgopen.hcl"

	appConfigDir = "imgopen"
)

// fileConfig is the schema of the HCL config file. Pointers tell unset attributes apart from zero values.
type fileConfig struct {
	LogLevel        *string  `hcl:"log_level,optional"`
	LogFormat       *string  `hcl:"log_format,optional"`
	TempDir         *string  `hcl:"temp_dir,optional"`
	Ignore          []string `hcl:"ignore,optional"`
	MaxFiles        *int     `hcl:"max_files,optional"`
	MaxDepthImages  *int     `hcl:"max_depth_images,optional"`
	MemoryCapacity  *int     `hcl:"memory_capacity,optional"`
	PrefetchWorkers *int     `hcl:"prefetch_workers,optional"`
	ShowHidden      *bool    `hcl:"show_hidden,optional"`
	SearchSiblings  *bool    `hcl:"search_siblings,optional"`

	Telemetry *struct {
		TraceExporter  *string `hcl:"trace_exporter,optional"`
		MetricExporter *string `hcl:"metric_exporter,optional"`
	} `hcl:"telemetry,block"`
}

// DiscoveryPath returns the first config file found in baseDir or the user config directory,
// or an empty string if there is none.
func DiscoveryPath(fs vfs.FS, baseDir string) (string, error) {
	dirs := []string{baseDir}

	if userDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userDir, appConfigDir))
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, ConfigFilename)

		exists, err := vfs.FileExists(fs, path)
		if err != nil {
			return "", errors.New(err)
		}

		if exists {
			return path, nil
		}
	}

	return "", nil
}

// EvalContext returns the variables available to expressions in the config file.
func EvalContext() (*hcl.EvalContext, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, errors.New(err)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"home": cty.StringVal(home),
		},
	}, nil
}

// LoadConfigFile parses the HCL file at path into options holding only the values it sets.
func LoadConfigFile(fs vfs.FS, path string) (*Options, error) {
	src, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, errors.New(err)
	}

	evalCtx, err := EvalContext()
	if err != nil {
		return nil, err
	}

	var cfg fileConfig

	if err := hclsimple.Decode(path, src, evalCtx, &cfg); err != nil {
		return nil, errors.New(ConfigFileError{Path: path, Err: err})
	}

	return cfg.options(), nil
}

// MergeConfigFile loads the file at path and overrides the options with every value it sets.
func (opts *Options) MergeConfigFile(fs vfs.FS, path string) error {
	fileOpts, err := LoadConfigFile(fs, path)
	if err != nil {
		return err
	}

	if err := mergo.Merge(opts, fileOpts, mergo.WithOverride); err != nil {
		return errors.New(err)
	}

	return nil
}

func (cfg *fileConfig) options() *Options {
	opts := &Options{
		Ignore: cfg.Ignore,
	}

	setString(&opts.LogLevel, cfg.LogLevel)
	setString(&opts.LogFormat, cfg.LogFormat)
	setString(&opts.TempDir, cfg.TempDir)
	setInt(&opts.MaxFiles, cfg.MaxFiles)
	setInt(&opts.MaxDepthImages, cfg.MaxDepthImages)
	setInt(&opts.MemoryCapacity, cfg.MemoryCapacity)
	setInt(&opts.PrefetchWorkers, cfg.PrefetchWorkers)

	if cfg.ShowHidden != nil {
		opts.ShowHidden = *cfg.ShowHidden
	}

	if cfg.SearchSiblings != nil {
		opts.NoSiblings = !*cfg.SearchSiblings
	}

	if cfg.Telemetry != nil {
		tel := &telemetry.Options{}

		setString(&tel.TraceExporter, cfg.Telemetry.TraceExporter)
		setString(&tel.MetricExporter, cfg.Telemetry.MetricExporter)

		opts.Telemetry = tel
	}

	return opts
}

func setString(dst *string, val *string) {
	if val != nil {
		*dst = *val
	}
}

func setInt(dst *int, val *int) {
	if val != nil {
		*dst = *val
	}
}
