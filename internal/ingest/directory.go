package ingest

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/expenselens/receipt-engine/constants"
)

// AllowedExt checks if a file extension is in the accepted set.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func allowed(path string) bool {
	return AllowedExt(filepath.Ext(path))
}

// DiscoverReceipts walks root and returns the supported receipt files in walk
// order, skipping hidden files and directories.
func DiscoverReceipts(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if IsHidden(path) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && allowed(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
