package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CopyDir recursively copies the tree rooted at src into dst within the
// same filesystem. Existing files under dst are overwritten; files that
// only exist under dst are left alone (callers wanting a clean tree remove
// dst first).
func (f *FS) CopyDir(src, dst string) error {
	srcIsDir, err := f.IsDir(src)
	if err != nil {
		return err
	}
	if !srcIsDir {
		return fmt.Errorf("copy source %q is not a directory", src)
	}
	if err := f.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	return f.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel := relPath(src, path)
		if rel == "" {
			return nil
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return f.MkdirAll(target, 0o755)
		}
		data, err := f.ReadFile(path)
		if err != nil {
			return err
		}
		return f.WriteFile(target, data, info.Mode().Perm())
	})
}

// relPath computes the path of child relative to root using slash-agnostic
// prefix trimming. billy walks report paths joined with the OS separator.
func relPath(root, child string) string {
	root = filepath.Clean(root)
	child = filepath.Clean(child)
	if root == child {
		return ""
	}
	return strings.TrimPrefix(child, root+string(filepath.Separator))
}
