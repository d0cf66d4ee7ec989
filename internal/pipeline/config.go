package pipeline

import (
	"github.com/gruntwork-io/imgopen/internal/telemetry"
	"github.com/gruntwork-io/imgopen/internal/vfs"
	"github.com/gruntwork-io/imgopen/pkg/log"
)

const (
	DefaultMaxFiles       = 1000
	DefaultMaxDepthImages = 5000
)

// Config is everything a job needs besides the loop. It replaces process wide registries,
// so jobs built from different configs are fully isolated.
type Config struct {
	Registry *Registry
	// SiblingOpener lists the directory of a single opened file.
	SiblingOpener Opener
	Memory        Memory
	Album         Album
	Prefetcher    Prefetcher
	FS            vfs.FS
	Logger        log.Logger
	Telemeter     *telemetry.Telemeter

	// MaxFiles stops recursion when a session yields more sub-sources. 0 disables the check.
	MaxFiles int
	// MaxDepthImages stops recursion when child depth times the number of images opened so far
	// exceeds it. 0 disables the check.
	MaxDepthImages int

	SearchSiblings bool
}

// NewConfig returns a config with the default thresholds and an OS filesystem.
func NewConfig(registry *Registry) *Config {
	return &Config{
		Registry:       registry,
		FS:             vfs.NewOSFS(),
		Logger:         log.Default(),
		MaxFiles:       DefaultMaxFiles,
		MaxDepthImages: DefaultMaxDepthImages,
		SearchSiblings: true,
	}
}

func (cfg *Config) withinThresholds(files, childDepth, images int) bool {
	if cfg.MaxFiles > 0 && files > cfg.MaxFiles {
		return false
	}

	if cfg.MaxDepthImages > 0 && childDepth*images > cfg.MaxDepthImages {
		return false
	}

	return true
}
