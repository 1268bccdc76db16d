package launcher

import (
	"context"
	"sync"
	"time"
)

// Handle tracks one launched process. The exit status is set once, when the
// process has been reaped.
type Handle struct {
	name    string
	pid     int
	started time.Time
	done    chan struct{}

	mu     sync.Mutex
	code   int
	exited bool
	err    error
}

func newHandle(name string) *Handle {
	return &Handle{
		name:    name,
		started: time.Now(),
		done:    make(chan struct{}),
		code:    -1,
	}
}

func (h *Handle) Name() string { return h.name }

func (h *Handle) PID() int { return h.pid }

func (h *Handle) Started() time.Time { return h.started }

// Done is closed once the process has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// ExitStatus returns the exit code and whether the process has exited. The
// code is -1 while running and when the platform could not report one.
func (h *Handle) ExitStatus() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.code, h.exited
}

// Err is the wait error, if any, other than a non-zero exit.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the process exits or ctx is done. The process is not
// killed when ctx ends.
func (h *Handle) Wait(ctx context.Context) (int, error) {
	select {
	case <-h.done:
		code, _ := h.ExitStatus()
		return code, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

func (h *Handle) finish(code int, err error) {
	h.mu.Lock()
	h.code = code
	h.exited = true
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

func (h *Handle) running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}
