// Package errx attaches context to sentinel errors without losing them.
//
// Every package in this module declares its failure modes as sentinels in an
// errors.go file. errx keeps those sentinels matchable with errors.Is after a
// cause or a detail string has been attached.
package errx

import "fmt"

// Wrap returns an error that matches both sentinel and cause.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// With appends a formatted detail to sentinel. The format is appended verbatim,
// so callers usually start it with ": ".
func With(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w"+format, append([]any{sentinel}, args...)...)
}
