//go:build !windows

package launcher

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPumpInputLeavesLaterInputUnread(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	dst := &lockedBuffer{}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		pumpInput(dst, int(r.Fd()), stop)
		close(done)
	}()

	_, err = w.Write([]byte("a"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return dst.String() == "a" }, 2*time.Second, 5*time.Millisecond)

	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("input pump did not stop")
	}

	_, err = w.Write([]byte("b"))
	require.NoError(t, err)
	next := make([]byte, 1)
	n, err := r.Read(next)
	require.NoError(t, err)
	assert.Equal(t, "b", string(next[:n]))
	assert.Equal(t, "a", dst.String())
}

func TestPumpInputStopsAtEOF(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, w.Close())

	done := make(chan struct{})
	go func() {
		pumpInput(io.Discard, int(r.Fd()), make(chan struct{}))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("input pump did not stop at EOF")
	}
}

// openTTY returns the terminal side of a fresh pty pair.
func openTTY(t *testing.T) *os.File {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() {
		tty.Close()
		ptmx.Close()
	})
	return tty
}

func TestTerminalModeOutput(t *testing.T) {
	tty := openTTY(t)
	out := &lockedBuffer{}
	l := New(WithStdio(tty, out, out))

	h, err := l.Launch(context.Background(), Spec{ShellPath: "sh", ShellArgs: []string{"-c", "printf hello; exit 2"}, Terminal: true})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	code, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, code)
	assert.Contains(t, out.String(), "hello")
}

func TestTerminalModeReturnsWhileBackgroundChildHoldsTerminal(t *testing.T) {
	tty := openTTY(t)
	l := New(WithStdio(tty, io.Discard, io.Discard))

	h, err := l.Launch(context.Background(), Spec{
		ShellPath: "sh",
		ShellArgs: []string{"-c", "(trap '' HUP; sleep 5) & exit 0"},
		Terminal:  true,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	code, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}
