package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/flightctl/elf-parser/internal/inspect"
)

// ScanDirTree inspects every executable regular file below rootPath, or
// rootPath itself when it is a file, and reports whether all of them
// passed. The walk stops when ctx is cancelled.
func ScanDirTree(ctx context.Context, rootPath string, abi *semver.Constraints, logger log.Logger) bool {
	allValid := true

	err := filepath.WalkDir(rootPath, func(path string, file fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if file.IsDir() {
			return nil
		}
		// Skip over all non-regular files. This is a very fast check
		// as it does not require calling stat(2).
		if !file.Type().IsRegular() {
			return nil
		}
		// Check if the file has any x bits set. This is a slower check
		// as it calls lstat(2) under the hood.
		fi, err := file.Info()
		if err != nil {
			return err
		}
		if fi.Mode().Perm()&0o111 == 0 {
			// Not an executable.
			return nil
		}

		root, innerPath := rootPath, stripMountPath(rootPath, path)
		if innerPath == "" {
			// rootPath names the executable itself.
			root, innerPath = filepath.Split(path)
		}
		if !inspect.Binary(ctx, root, innerPath, abi, logger) {
			allValid = false
		}
		return nil
	})
	if err != nil {
		level.Error(logger).Log("msg", "scan aborted", "root", rootPath, "err", err)
		return false
	}

	return allValid
}

func stripMountPath(mountPath, path string) string {
	return strings.TrimPrefix(path, mountPath)
}
