package main

import (
	"io"

	"github.com/gookit/color"
)

func printWarning(w io.Writer, msg string) {
	color.Fprintf(w, "<yellow>warning:</> %s\n", msg)
}

func printStep(w io.Writer, format string, args ...any) {
	color.Fprintf(w, format+"\n", args...)
}
