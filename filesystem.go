package main

import (
	"os"
	"path/filepath"
)

// scanTotals walks the whole tree once up front, with no remote calls, so
// progress output can report exact totals before the first upload starts.
func scanTotals(dirPath string) (count int, size int64, err error) {
	err = filepath.Walk(dirPath, func(path string, f os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !f.IsDir() {
			count++
			size += f.Size()
		}
		return nil
	})

	return count, size, err
}

// listLevel splits one directory's immediate children into subdirectory
// names and file names. os.ReadDir returns entries sorted by filename, which
// keeps the walk order deterministic regardless of filesystem enumeration.
func listLevel(dirPath string) (subdirs []string, files []string, err error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}

	return subdirs, files, nil
}
