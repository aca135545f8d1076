package h5grove

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// Extensions are the file name extensions FindFiles treats as HDF5.
var Extensions = []string{".h5", ".hdf5", ".hdf", ".nxs", ".nx5"}

// IsHDF5Name reports whether name has one of Extensions, ignoring case.
func IsHDF5Name(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FindFiles returns the HDF5 files under root, as slash-separated paths
// relative to root, sorted. Hidden directories are skipped.
func FindFiles(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrapf(err, "error walking directory %s", root)
	}

	found := []string{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(ospath string, de *godirwalk.Dirent) error {
			isDir, err := de.IsDirOrSymlinkToDir()
			if err != nil {
				return err
			}
			if isDir {
				if ospath != root && strings.HasPrefix(de.Name(), ".") {
					return godirwalk.SkipThis
				}
				return nil
			}
			if !IsHDF5Name(de.Name()) {
				return nil
			}
			rel, err := filepath.Rel(root, ospath)
			if err != nil {
				return err
			}
			found = append(found, filepath.ToSlash(rel))
			return nil
		},
		ErrorCallback: func(ospath string, err error) godirwalk.ErrorAction {
			// Unreadable entries are left out of the listing.
			return godirwalk.SkipNode
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error walking directory %s", root)
	}

	sort.Strings(found)
	return found, nil
}
