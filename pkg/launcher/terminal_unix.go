//go:build !windows

package launcher

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/fonline/fodev/internal/errx"
)

const (
	// inputPollMS bounds how long the input pump takes to notice it was stopped.
	inputPollMS = 50
	// outputDrain bounds the wait for pty output once the process has exited.
	// A background child still holding the terminal keeps the pty open.
	outputDrain = 250 * time.Millisecond
)

// startTerminal runs cmd under a pseudo-terminal with stdin in raw mode. The
// returned wait restores the terminal once the process is gone and stdin is
// no longer being read.
func startTerminal(cmd *exec.Cmd, stdin *os.File, stdout io.Writer) (func() error, error) {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}

	fd := int(stdin.Fd())
	if cols, rows, err := term.GetSize(fd); err == nil {
		_ = pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		_ = ptmx.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, errx.Wrap(ErrTerminal, err)
	}

	winchCh := make(chan os.Signal, 1)
	signal.Notify(winchCh, syscall.SIGWINCH)
	go func() {
		for range winchCh {
			_ = pty.InheritSize(stdin, ptmx)
		}
	}()

	stop := make(chan struct{})
	pumped := make(chan struct{})
	go func() {
		pumpInput(ptmx, fd, stop)
		close(pumped)
	}()
	copied := make(chan struct{})
	go func() {
		_, _ = io.Copy(stdout, ptmx)
		close(copied)
	}()

	return func() error {
		err := cmd.Wait()
		close(stop)
		<-pumped
		select {
		case <-copied:
		case <-time.After(outputDrain):
		}
		signal.Stop(winchCh)
		close(winchCh)
		_ = term.Restore(fd, oldState)
		_ = ptmx.Close()
		return err
	}, nil
}

// pumpInput copies fd to dst until stop is closed, fd reaches EOF or a write
// fails. It only reads once poll reports input, so nothing typed after stop
// is consumed.
func pumpInput(dst io.Writer, fd int, stop <-chan struct{}) {
	buf := make([]byte, 4096)
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := unix.Poll(fds, inputPollMS)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&unix.POLLIN == 0 {
			// Hang-up or error without data.
			return
		}

		select {
		case <-stop:
			return
		default:
		}
		r, err := unix.Read(fd, buf)
		if r > 0 {
			if _, werr := dst.Write(buf[:r]); werr != nil {
				return
			}
		}
		switch {
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.EAGAIN):
			continue
		case err != nil, r == 0:
			return
		}
	}
}
