//go:build linux || darwin

package main

import "golang.org/x/sys/unix"

// maxRSSBytes reports the process's peak resident set size. Linux
// reports ru_maxrss in kilobytes, darwin in bytes.
func maxRSSBytes() (uint64, bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, false
	}
	rss := uint64(ru.Maxrss)
	if rssIsKilobytes {
		rss *= 1024
	}
	return rss, true
}
