// Package wslpath maps native host paths into the path syntax seen from the
// Windows Subsystem for Linux.
package wslpath

import "strings"

// MountRoot is where WSL exposes Windows drives.
const MountRoot = "/mnt/"

// ToWSL translates a native path. A drive-letter path such as `C:\Engine`
// becomes `/mnt/c/Engine`; every backslash becomes a forward slash. Shapes it
// does not recognise pass through with only the slashes changed, which makes
// the translation idempotent.
func ToWSL(native string) string {
	p := native
	if HasDrive(p) {
		rest := p[2:]
		if rest == "" || (rest[0] != '\\' && rest[0] != '/') {
			rest = "/" + rest
		}
		p = MountRoot + strings.ToLower(p[:1]) + rest
	}
	return strings.ReplaceAll(p, `\`, "/")
}

// HasDrive reports whether p starts with a drive letter and colon.
func HasDrive(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
