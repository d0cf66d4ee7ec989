// Package vfs provides a virtual filesystem abstraction for testing and production use.
// It wraps afero to provide a consistent interface for filesystem operations.
package vfs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// FS is the filesystem interface used throughout the codebase.
// It provides an abstraction over real and in-memory filesystems.
type FS = afero.Fs

// NewOSFS returns a filesystem backed by the real operating system filesystem.
func NewOSFS() FS {
	return afero.NewOsFs()
}

// NewMemMapFS returns an in-memory filesystem for testing purposes.
func NewMemMapFS() FS {
	return afero.NewMemMapFs()
}

// IsOSFS reports whether the filesystem is backed by the operating system,
// which is required by tools that only work with real paths (archive decompressors, downloaders).
func IsOSFS(fs FS) bool {
	_, ok := fs.(*afero.OsFs)
	return ok
}

// FileExists checks if a path exists using the given filesystem.
// Returns (true, nil) if the file exists, (false, nil) if it does not exist,
// and (false, error) for other errors (e.g., permission denied).
func FileExists(fs FS, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// IsDir returns true if the path points to a directory.
func IsDir(fs FS, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && info.IsDir()
}

// WriteFile writes data to a file on the given filesystem.
func WriteFile(fs FS, filename string, data []byte, perm os.FileMode) error {
	return afero.WriteFile(fs, filename, data, perm)
}

// ReadFile reads the contents of a file from the given filesystem.
func ReadFile(fs FS, filename string) ([]byte, error) {
	return afero.ReadFile(fs, filename)
}

// ReadDir lists the directory entries sorted by name.
func ReadDir(fs FS, dir string) ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	return entries, nil
}

// TempDir creates a new temporary directory on the filesystem and returns its path.
func TempDir(fs FS, prefix string) (string, error) {
	return afero.TempDir(fs, "", prefix)
}

// RemoveAll removes the path and any children it contains.
func RemoveAll(fs FS, path string) error {
	return fs.RemoveAll(filepath.Clean(path))
}
