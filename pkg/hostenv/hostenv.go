// Package hostenv detects the host OS family and the execution modes that gate
// which build actions are offered.
package hostenv

import (
	"runtime"
	"strings"
)

// Family is the host OS family an action can target.
type Family int

const (
	Win Family = iota
	Linux
	Mac
)

func (f Family) String() string {
	switch f {
	case Linux:
		return "linux"
	case Mac:
		return "mac"
	default:
		return "win"
	}
}

// Environment tags understood in the "env" list of an action.
const (
	TagWin      = "win"
	TagWSL      = "wsl"
	TagLinux    = "linux"
	TagMac      = "mac"
	TagNoRemote = "noremote"
	TagEngine   = "engine"
)

// EngineDevSetting is the engine path setting that marks the engine repository
// itself as the open workspace.
const EngineDevSetting = "."

// ParseFamily maps a GOOS-style platform identifier to a Family. Anything that
// is not recognised is treated as Windows, the primary supported environment.
func ParseFamily(platform string) Family {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "linux":
		return Linux
	case "darwin", "mac", "macos":
		return Mac
	default:
		return Win
	}
}

// Options are the raw host facts detection works from.
type Options struct {
	// Platform is a GOOS value; empty means runtime.GOOS.
	Platform string
	// RemoteName is the remote session identifier reported by the host, if any.
	RemoteName string
	// EnginePathSetting is the engine path exactly as the user specified it.
	EnginePathSetting string
}

// Env is the detected execution environment.
type Env struct {
	Family      Family
	IsRemote    bool
	IsEngineDev bool
}

// Detect derives the environment from opts. It never fails.
func Detect(opts Options) Env {
	platform := opts.Platform
	if platform == "" {
		platform = runtime.GOOS
	}
	return Env{
		Family:      ParseFamily(platform),
		IsRemote:    strings.TrimSpace(opts.RemoteName) != "",
		IsEngineDev: opts.EnginePathSetting == EngineDevSetting,
	}
}

// Tags lists the environment tags an action may carry and still be offered in
// this environment. It is informational; filtering lives with the actions.
func (e Env) Tags() []string {
	var tags []string
	switch e.Family {
	case Win:
		tags = append(tags, TagWin, TagWSL)
	case Linux:
		tags = append(tags, TagLinux)
	case Mac:
		tags = append(tags, TagMac)
	}
	if !e.IsRemote {
		tags = append(tags, TagNoRemote)
	}
	if e.IsEngineDev {
		tags = append(tags, TagEngine)
	}
	return tags
}

// IsWSL reports whether a kernel release string belongs to a WSL kernel.
func IsWSL(release string) bool {
	r := strings.ToLower(release)
	return strings.Contains(r, "microsoft") || strings.Contains(r, "wsl")
}

// RemoteFromEnv names the remote session a command line runs in: "ssh-remote"
// under an SSH connection, "wsl" on a WSL kernel, empty otherwise.
func RemoteFromEnv(getenv func(string) string, kernelRelease string) string {
	switch {
	case getenv("SSH_CONNECTION") != "" || getenv("SSH_TTY") != "":
		return "ssh-remote"
	case getenv("WSL_DISTRO_NAME") != "" || IsWSL(kernelRelease):
		return "wsl"
	default:
		return ""
	}
}
