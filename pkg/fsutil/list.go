// Package fsutil provides the filesystem helpers speedlog builds on: directory
// listings with modification times, glob expansion and atomic writes.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileHandle describes one regular file found by List.
type FileHandle struct {
	Name    string
	Path    string
	ModTime time.Time
}

// IsNewer reports whether f was modified strictly after other.
func (f FileHandle) IsNewer(other FileHandle) bool {
	return f.ModTime.After(other.ModTime)
}

// List returns the regular files in dir whose name ends in ext (all files if
// ext is empty), in directory order.
func List(dir, ext string) ([]FileHandle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	files := make([]FileHandle, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if ext != "" && !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		files = append(files, FileHandle{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// FindByName returns the handle named name, if present.
func FindByName(files []FileHandle, name string) (FileHandle, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return FileHandle{}, false
}
