//go:build !linux

package hostenv

// KernelRelease is only reported on Linux.
func KernelRelease() string { return "" }
