// Package walk lists the regular files below a bundle root ahead of
// patching, so the engine works against a stable snapshot of the tree.
package walk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrRootMissing reports that the requested root does not exist or is not
// a directory.
var ErrRootMissing = errors.New("root directory missing")

// List returns every regular file under root, recursively, in walk order.
//
// Directories themselves are not returned. Symlinks are not followed and
// never appear in the result. Entries that cannot be read are skipped
// without failing the walk; only a missing or non-directory root is an
// error.
func List(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootMissing, root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}
