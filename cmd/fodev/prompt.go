package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/erikgeiser/promptkit"
	"github.com/erikgeiser/promptkit/textinput"
	"github.com/gookit/color"

	"github.com/fonline/fodev/pkg/config"
)

// terminalPrompter asks for a replacement root on the terminal.
type terminalPrompter struct {
	out io.Writer
}

func newTerminalPrompter(out io.Writer) *terminalPrompter {
	return &terminalPrompter{out: out}
}

func (p *terminalPrompter) Prompt(ctx context.Context, field config.Field, reason error) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	color.Fprintf(p.out, "<red>%s</>\n", reason)

	input := textinput.New(fmt.Sprintf("Specify %s:", field))
	input.Placeholder = promptPlaceholder(field)
	value, err := input.RunPrompt()
	if errors.Is(err, promptkit.ErrAborted) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	value = strings.TrimSpace(value)
	return value, value != "", nil
}

func promptPlaceholder(field config.Field) string {
	switch field {
	case config.FieldEngine:
		return "path to the FOnline engine checkout"
	case config.FieldWorkspace:
		return "path to the build workspace"
	default:
		return "path to the CMake contribution file"
	}
}
