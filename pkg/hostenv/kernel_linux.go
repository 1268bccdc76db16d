//go:build linux

package hostenv

import "golang.org/x/sys/unix"

// KernelRelease returns the running kernel release, or "" when unavailable.
func KernelRelease() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Release[:])
}
