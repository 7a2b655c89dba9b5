package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pkgerrors "github.com/Adam-226/m4a-mp3/pkg/errors"
)

// Scanner implements ports.FileScanner over the local filesystem
type Scanner struct{}

// NewScanner creates a new filesystem scanner
func NewScanner() *Scanner {
	return &Scanner{}
}

// Discover returns every file under root whose extension matches ext
// case-insensitively, sorted lexicographically by full path. Non-recursive
// mode examines direct children of root only. Recursive mode walks the tree
// with filepath.WalkDir, which does not follow symlinked directories, so a
// symlink loop cannot hang the scan (symlinked files are likewise skipped).
func (sc *Scanner) Discover(root, ext string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, pkgerrors.NewInvalidInputPath(root, "input directory does not exist", err)
	}
	if !info.IsDir() {
		return nil, pkgerrors.NewInvalidInputPath(root, "input path is not a directory", nil)
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if matchesExt(path, ext) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, pkgerrors.NewInvalidInputPath(root, "input directory is not readable", err)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, pkgerrors.NewInvalidInputPath(root, "input directory is not readable", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !entry.Type().IsRegular() {
				continue
			}
			if matchesExt(entry.Name(), ext) {
				files = append(files, filepath.Join(root, entry.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func matchesExt(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}
