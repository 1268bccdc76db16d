// Package launcher starts shell processes, tracks the live ones by name and
// reports their exit codes.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fonline/fodev/internal/errx"
	"github.com/fonline/fodev/pkg/logging"
)

const (
	// DefaultPollInterval is how often LaunchAndWait re-checks the exit status
	// when the completion signal has not fired yet.
	DefaultPollInterval = 5 * time.Millisecond
)

// Spec describes one process to launch.
type Spec struct {
	// Name keys the live table. Empty names are never tracked.
	Name      string
	ShellPath string
	ShellArgs []string
	Dir       string
	// Env is overlaid on the current process environment.
	Env map[string]string
	// Hidden processes do not get the console; their output goes to the
	// launcher's hidden writer.
	Hidden bool
	// Terminal runs the process under a pseudo-terminal when stdin is a TTY.
	Terminal bool
}

// Launcher starts processes. The zero value is not usable; use New.
type Launcher struct {
	logger       *slog.Logger
	emitter      *logging.Emitter
	pollInterval time.Duration
	timeout      time.Duration

	stdin        *os.File
	stdout       io.Writer
	stderr       io.Writer
	hiddenOutput io.Writer

	mu   sync.Mutex
	live map[string]*Handle
}

type Option func(*Launcher)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) { l.logger = logger }
}

func WithEmitter(emitter *logging.Emitter) Option {
	return func(l *Launcher) { l.emitter = emitter }
}

// WithPollInterval sets the LaunchAndWait polling fallback. Non-positive
// values keep the default.
func WithPollInterval(d time.Duration) Option {
	return func(l *Launcher) {
		if d > 0 {
			l.pollInterval = d
		}
	}
}

// WithTimeout bounds LaunchAndWait. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Launcher) { l.timeout = d }
}

// WithStdio replaces the console streams visible processes are attached to.
func WithStdio(stdin *os.File, stdout, stderr io.Writer) Option {
	return func(l *Launcher) {
		l.stdin = stdin
		l.stdout = stdout
		l.stderr = stderr
	}
}

func WithHiddenOutput(w io.Writer) Option {
	return func(l *Launcher) { l.hiddenOutput = w }
}

func New(opts ...Option) *Launcher {
	l := &Launcher{
		pollInterval: DefaultPollInterval,
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		hiddenOutput: io.Discard,
		live:         make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("component", "launcher")
	return l
}

// Launch starts spec and returns immediately. A named process replaces any
// previous live entry with the same name.
func (l *Launcher) Launch(ctx context.Context, spec Spec) (*Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launchLocked(ctx, spec)
}

// StartUnique launches spec unless a process with the same name is still
// live, in which case it returns that handle and ErrAlreadyRunning. The check
// and the launch happen under one lock.
func (l *Launcher) StartUnique(ctx context.Context, spec Spec) (*Handle, error) {
	if spec.Name == "" {
		return nil, errx.With(ErrStart, ": unique launch needs a name")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.live[spec.Name]; ok && h.running() {
		return h, errx.With(ErrAlreadyRunning, ": %s", spec.Name)
	}
	return l.launchLocked(ctx, spec)
}

// Live returns the running process registered under name.
func (l *Launcher) Live(name string) (*Handle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.live[name]
	if !ok || !h.running() {
		return nil, false
	}
	return h, true
}

// LiveNames lists the names of running processes, sorted.
func (l *Launcher) LiveNames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.live))
	for name, h := range l.live {
		if h.running() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LaunchAndWait runs shell hidden in dir and returns its exit code. It returns
// -1 when the process cannot be started, when the timeout elapses, when ctx
// ends first, or when no code is available.
func (l *Launcher) LaunchAndWait(ctx context.Context, shell string, args []string, dir string) int {
	h, err := l.Launch(ctx, Spec{ShellPath: shell, ShellArgs: args, Dir: dir, Hidden: true})
	if err != nil {
		l.logger.Warn("launch failed", "shell", shell, "error", err)
		return -1
	}

	var timeout <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.Done():
			code, _ := h.ExitStatus()
			return code
		case <-ticker.C:
			if code, done := h.ExitStatus(); done {
				return code
			}
		case <-timeout:
			l.logger.Warn("wait timed out", "shell", shell, "pid", h.PID(), "timeout", l.timeout)
			return -1
		case <-ctx.Done():
			return -1
		}
	}
}

func (l *Launcher) launchLocked(ctx context.Context, spec Spec) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.ShellPath == "" {
		return nil, ErrNoShell
	}

	cmd := exec.Command(spec.ShellPath, spec.ShellArgs...)
	cmd.Dir = spec.Dir
	cmd.Env = mergeEnv(cmd.Environ(), spec.Env)

	var wait func() error
	var err error
	if spec.Terminal && !spec.Hidden && isTerminal(l.stdin) {
		wait, err = startTerminal(cmd, l.stdin, l.stdout)
	} else {
		if spec.Hidden {
			cmd.Stdout = l.hiddenOutput
			cmd.Stderr = l.hiddenOutput
		} else {
			if l.stdin != nil {
				cmd.Stdin = l.stdin
			}
			cmd.Stdout = l.stdout
			cmd.Stderr = l.stderr
		}
		err = cmd.Start()
		wait = cmd.Wait
	}
	if err != nil {
		return nil, errx.Wrap(ErrStart, err)
	}

	h := newHandle(spec.Name)
	h.pid = cmd.Process.Pid
	l.logger.Debug("process started",
		"name", spec.Name,
		"pid", h.pid,
		"shell", spec.ShellPath,
		"dir", spec.Dir,
		"hidden", spec.Hidden)

	if spec.Name != "" {
		l.live[spec.Name] = h
	}
	go l.reap(h, wait)
	return h, nil
}

func (l *Launcher) reap(h *Handle, wait func() error) {
	code, err := exitCode(wait())
	h.finish(code, err)

	if h.name == "" {
		return
	}
	l.mu.Lock()
	if l.live[h.name] == h {
		delete(l.live, h.name)
	}
	l.mu.Unlock()

	elapsed := time.Since(h.started)
	l.logger.Info("process exited", "name", h.name, "pid", h.pid, "code", code, "elapsed", elapsed)
	_ = l.emitter.Emit(logging.EventActionExit, fmt.Sprintf("%s exited with %d", h.name, code), "launcher", nil,
		&logging.ActionExitData{
			Label:      h.name,
			ExitCode:   code,
			DurationMS: elapsed.Milliseconds(),
		})
}

// exitCode maps a wait error to an exit code. A non-zero exit is not an error.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// mergeEnv overlays overlay on base. Overlay keys are appended in sorted order.
func mergeEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overlay))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overlay[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overlay[k])
	}
	return out
}
