package action

import (
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/fonline/fodev/pkg/config"
	"github.com/fonline/fodev/pkg/hostenv"
	"github.com/fonline/fodev/pkg/wslpath"
)

// Shells used per environment.
const (
	WSLShell        = `C:\Windows\System32\wsl.exe`
	PowerShellShell = `C:\Windows\System32\WindowsPowershell\v1.0\powershell.exe`
	PosixShell      = "bash"
)

// Environment variables handed to every action.
const (
	EnvRoot              = "FO_ROOT"
	EnvWorkspace         = "FO_WORKSPACE"
	EnvCMakeContribution = "FO_CMAKE_CONTRIBUTION"
	EnvInstallPackages   = "FO_INSTALL_PACKAGES"
)

const (
	posixHold      = `read -p "Press enter to close terminal..."`
	powerShellHold = `pause "Press any key to close terminal..."`
)

// invocation is the shell and argument vector that runs one action command.
type invocation struct {
	shell string
	args  []string
}

// expand picks the shell for env and builds its arguments. WSL actions get
// their paths translated since the script runs inside the Linux side.
func expand(command string, tags []string, env hostenv.Env, roots config.Roots, opts Options) invocation {
	switch {
	case env.Family == hostenv.Win && hasTag(tags, hostenv.TagWSL):
		script := exports(roots, opts, wslpath.ToWSL) + "; " + command
		if opts.Hold {
			script += "; " + posixHold
		}
		return invocation{shell: opts.shell(opts.WSLPath, WSLShell), args: []string{"bash", "-c", script}}

	case env.Family == hostenv.Win:
		script := "Invoke-Command -ScriptBlock { " + command + " }"
		if opts.Hold {
			script += "; " + powerShellHold
		}
		return invocation{shell: opts.shell(opts.PowerShellPath, PowerShellShell), args: []string{"-NoLogo", "-Command", script}}

	default:
		script := exports(roots, opts, nil) + "; " + command
		if opts.Hold {
			script += "; " + posixHold
		}
		return invocation{shell: opts.shell(opts.BashPath, PosixShell), args: []string{"-c", script}}
	}
}

func exports(roots config.Roots, opts Options, translate func(string) string) string {
	if translate == nil {
		translate = func(p string) string { return p }
	}
	parts := []string{
		"export " + EnvRoot + "=" + shellquote.Join(translate(roots.EnginePath)),
		"export " + EnvWorkspace + "=" + shellquote.Join(translate(roots.WorkspacePath)),
		"export " + EnvCMakeContribution + "=" + shellquote.Join(translate(roots.ContributionPath)),
	}
	if !opts.InstallPackages {
		parts = append(parts, "export "+EnvInstallPackages+"=0")
	}
	return strings.Join(parts, "; ")
}

// environment is the variable overlay for the launched process. Paths stay
// native; the shell script carries translated ones where needed.
func environment(roots config.Roots, opts Options) map[string]string {
	env := map[string]string{
		EnvRoot:              roots.EnginePath,
		EnvWorkspace:         roots.WorkspacePath,
		EnvCMakeContribution: roots.ContributionPath,
	}
	if !opts.InstallPackages {
		env[EnvInstallPackages] = "0"
	}
	return env
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Available reports whether an action tagged with tags is offered in env.
func Available(tags []string, env hostenv.Env) bool {
	switch env.Family {
	case hostenv.Win:
		if !hasTag(tags, hostenv.TagWin) && !hasTag(tags, hostenv.TagWSL) {
			return false
		}
	case hostenv.Linux:
		if !hasTag(tags, hostenv.TagLinux) {
			return false
		}
	case hostenv.Mac:
		if !hasTag(tags, hostenv.TagMac) {
			return false
		}
	}
	if env.IsRemote && hasTag(tags, hostenv.TagNoRemote) {
		return false
	}
	if !env.IsEngineDev && hasTag(tags, hostenv.TagEngine) {
		return false
	}
	return true
}
