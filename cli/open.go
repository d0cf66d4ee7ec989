package cli

import (
	"context"

	"github.com/gruntwork-io/imgopen/internal/album"
	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/fileinfo"
	"github.com/gruntwork-io/imgopen/internal/loop"
	"github.com/gruntwork-io/imgopen/internal/openers"
	"github.com/gruntwork-io/imgopen/internal/pipeline"
	"github.com/gruntwork-io/imgopen/internal/source"
	"github.com/gruntwork-io/imgopen/internal/telemetry"
	"github.com/gruntwork-io/imgopen/internal/vfs"
	"github.com/gruntwork-io/imgopen/options"
)

// Open opens every argument and the clipboard if requested, prints the album and cleans up.
func Open(ctx context.Context, opts *options.Options, args []string) error {
	fs := vfs.NewOSFS()

	inputs, err := ClassifyArgs(fs, opts.WorkingDir, args)
	if err != nil {
		return err
	}

	if inputs.Empty() && !opts.Clipboard {
		return errors.New(NoInputError{})
	}

	telemeter, err := telemetry.NewTelemeter(ctx, AppName, Version, opts.ErrWriter, opts.Telemetry)
	if err != nil {
		return err
	}

	defer func() {
		if err := telemeter.Shutdown(context.Background()); err != nil {
			opts.Logger.Debugf("Error shutting down telemetry: %v", err)
		}
	}()

	attrs := map[string]any{
		"files":     len(inputs.Files),
		"uris":      len(inputs.URIs),
		"clipboard": opts.Clipboard,
	}

	return telemeter.Collect(ctx, "open", attrs, func(ctx context.Context) error {
		alb, err := run(ctx, opts, fs, telemeter, inputs)
		if err != nil {
			return err
		}

		defer alb.Clear()

		return alb.Print(opts.Writer)
	})
}

// run drives one job on a fresh loop until it finishes and returns the filled album.
func run(ctx context.Context, opts *options.Options, fs vfs.FS, telemeter *telemetry.Telemeter, inputs Inputs) (*album.Album, error) {
	logger := opts.Logger

	registry, err := openers.NewRegistry(openers.Deps{
		TempDir:    opts.TempDir,
		Ignore:     opts.Ignore,
		ShowHidden: opts.ShowHidden,
	})
	if err != nil {
		return nil, err
	}

	alb := album.New()

	memory, err := album.NewMemory(opts.MemoryCapacity, func(img *source.Image) {
		logger.Tracef("Unloaded %s", img.Source())
	})
	if err != nil {
		return nil, err
	}

	prefetcher := fileinfo.New(ctx, fs, opts.PrefetchWorkers, logger)
	defer func() {
		if err := prefetcher.Close(); err != nil {
			logger.Debugf("Error stopping file info lookups: %v", err)
		}
	}()

	cfg := pipeline.NewConfig(registry)
	cfg.FS = fs
	cfg.Logger = logger
	cfg.Telemeter = telemeter
	cfg.Prefetcher = prefetcher
	cfg.SiblingOpener = registry.Opener(openers.DirectoryName)
	cfg.Memory = memory
	cfg.Album = alb
	cfg.MaxFiles = opts.MaxFiles
	cfg.MaxDepthImages = opts.MaxDepthImages
	cfg.SearchSiblings = !opts.NoSiblings

	lp := loop.New(logger)
	job := pipeline.NewJob(ctx, lp, cfg)
	defer job.Close()

	job.OnFinished(func(job *pipeline.Job) {
		logger.Debugf("Opened %d images in %d sessions", job.Images(), len(job.Sessions()))
		lp.Stop()
	})

	var startErr error

	lp.Post(func() {
		startErr = start(job, inputs, opts.Clipboard)
		if startErr != nil {
			lp.Stop()
		}
	})

	if err := lp.Run(ctx); err != nil {
		return nil, errors.New(err)
	}

	lp.Wait()

	if startErr != nil {
		alb.Clear()
		return nil, startErr
	}

	return alb, nil
}

func start(job *pipeline.Job, inputs Inputs, clipboard bool) error {
	if !inputs.Empty() {
		if _, err := pipeline.Start(job, inputs.Files, inputs.URIs); err != nil {
			return err
		}
	}

	if clipboard {
		return pipeline.OpenClipboard(job, pipeline.SystemClipboard, nil)
	}

	return nil
}

