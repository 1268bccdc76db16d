//go:build windows

package launcher

import (
	"io"
	"os"
	"os/exec"
)

// startTerminal attaches the console directly; there is no pty on Windows.
func startTerminal(cmd *exec.Cmd, stdin *os.File, stdout io.Writer) (func() error, error) {
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stdout
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd.Wait, nil
}
