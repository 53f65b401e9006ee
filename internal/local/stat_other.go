//go:build !linux && !darwin

package local

import (
	"os"
	"time"
)

// fileTimeRange falls back to modification time alone on platforms where
// inode change time is not exposed through os.FileInfo.Sys.
func fileTimeRange(info os.FileInfo) (lower, upper time.Time) {
	mod := info.ModTime()
	return mod, mod
}
