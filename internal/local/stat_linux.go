//go:build linux

package local

import (
	"os"
	"syscall"
	"time"
)

// fileTimeRange estimates the span of record timestamps a log file can
// contain. Records are never newer than the last write, so the upper bound
// is the modification time. The lower bound takes the earlier of change and
// modification time; inode change time can exceed mtime after metadata-only
// operations.
func fileTimeRange(info os.FileInfo) (lower, upper time.Time) {
	mod := info.ModTime()
	lower = mod
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		ctime := time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
		if ctime.Before(lower) {
			lower = ctime
		}
	}
	return lower, mod
}
