//go:build darwin

package local

import (
	"os"
	"syscall"
	"time"
)

// fileTimeRange estimates the span of record timestamps a log file can
// contain. See stat_linux.go; darwin spells the stat field differently.
func fileTimeRange(info os.FileInfo) (lower, upper time.Time) {
	mod := info.ModTime()
	lower = mod
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		ctime := time.Unix(st.Ctimespec.Sec, st.Ctimespec.Nsec)
		if ctime.Before(lower) {
			lower = ctime
		}
	}
	return lower, mod
}
