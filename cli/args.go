package cli

import (
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-getter"
	"github.com/mattn/go-zglob"

	"github.com/gruntwork-io/imgopen/internal/errors"
	"github.com/gruntwork-io/imgopen/internal/vfs"
)

const globChars = "*?[{"

// Inputs are the command line arguments split into local paths and URIs.
type Inputs struct {
	Files []string
	URIs  []string
}

func (inputs Inputs) Empty() bool {
	return len(inputs.Files) == 0 && len(inputs.URIs) == 0
}

// ClassifyArgs splits args into files and URIs. Existing paths are files, glob patterns are expanded
// to the files they match, everything else goes through the getter detectors: whatever resolves to a
// `file://` location is a file, the rest are URIs.
func ClassifyArgs(fs vfs.FS, workingDir string, args []string) (Inputs, error) {
	var inputs Inputs

	for _, arg := range args {
		if arg == "" {
			continue
		}

		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(workingDir, path)
		}

		exists, err := vfs.FileExists(fs, path)
		if err != nil {
			return inputs, errors.New(err)
		}

		if exists {
			inputs.Files = append(inputs.Files, path)
			continue
		}

		if strings.ContainsAny(arg, globChars) && !strings.Contains(arg, "://") {
			matches, err := zglob.Glob(path)
			if err != nil || len(matches) == 0 {
				return inputs, errors.New(NoMatchesError{Pattern: arg})
			}

			sort.Strings(matches)
			inputs.Files = append(inputs.Files, matches...)

			continue
		}

		detected, err := getter.Detect(arg, workingDir, getter.Detectors)
		if err != nil {
			return inputs, errors.New(InvalidArgError{Arg: arg, Err: err})
		}

		if filePath, ok := localPath(detected); ok {
			inputs.Files = append(inputs.Files, filePath)
			continue
		}

		inputs.URIs = append(inputs.URIs, detected)
	}

	return inputs, nil
}

func localPath(detected string) (string, bool) {
	if !strings.HasPrefix(detected, "file://") {
		return "", false
	}

	parsed, err := url.Parse(detected)
	if err != nil {
		return "", false
	}

	return filepath.FromSlash(parsed.Path), true
}
