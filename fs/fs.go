// Package fs provides the filesystem abstraction used by the build and
// deploy orchestrators. It is backed by go-billy so production code runs
// against the OS filesystem while tests run against an in-memory one.
package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FS wraps a billy.Filesystem with the operations the pipeline needs.
type FS struct {
	fs billy.Filesystem
}

// NewOS returns a filesystem rooted at the given directory on disk.
func NewOS(root string) *FS {
	return &FS{fs: osfs.New(root)}
}

// NewInMemory returns an in-memory filesystem for tests.
func NewInMemory() *FS {
	return &FS{fs: memfs.New()}
}

// Raw exposes the underlying billy filesystem for interop (go-git storage).
func (f *FS) Raw() billy.Filesystem {
	return f.fs
}

// Exists reports whether the path exists.
func (f *FS) Exists(path string) (bool, error) {
	_, err := f.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
}

// IsDir reports whether the path exists and is a directory.
func (f *FS) IsDir(path string) (bool, error) {
	info, err := f.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
	return info.IsDir(), nil
}

// IsEmptyDir reports whether the path is a directory with no entries.
// A missing path reports true: there is nothing there.
func (f *FS) IsEmptyDir(path string) (bool, error) {
	entries, err := f.fs.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("readdir %q: %w", path, err)
	}
	return len(entries) == 0, nil
}

// MkdirAll creates the directory and any missing parents.
func (f *FS) MkdirAll(path string, perm os.FileMode) error {
	if err := f.fs.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("mkdirall %q: %w", path, err)
	}
	return nil
}

// ReadFile returns the contents of the named file.
func (f *FS) ReadFile(path string) ([]byte, error) {
	data, err := util.ReadFile(f.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return data, nil
}

// WriteFile writes data to the named file, creating parent directories
// as needed.
func (f *FS) WriteFile(path string, data []byte, perm os.FileMode) error {
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdirall %q: %w", dir, err)
		}
	}
	if err := util.WriteFile(f.fs, path, data, perm); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

// ReadDir returns the directory entries for the named directory.
func (f *FS) ReadDir(path string) ([]os.FileInfo, error) {
	entries, err := f.fs.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("readdir %q: %w", path, err)
	}
	return entries, nil
}

// RemoveAll removes the path and everything below it. A missing path is
// not an error.
func (f *FS) RemoveAll(path string) error {
	if err := util.RemoveAll(f.fs, path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removeall %q: %w", path, err)
	}
	return nil
}

// Walk walks the file tree rooted at root, calling fn for each file or
// directory, in lexical order.
func (f *FS) Walk(root string, fn filepath.WalkFunc) error {
	if err := util.Walk(f.fs, root, fn); err != nil {
		return fmt.Errorf("walk %q: %w", root, err)
	}
	return nil
}
